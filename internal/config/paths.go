package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved stage directories.
// This is the single source of truth for every directory the pipeline touches.
type Paths struct {
	BaseDir     string
	SYLKDir     string
	CSVDir      string
	WorkbookDir string
	ChartDir    string
	ImageDir    string
}

// Resolve turns the configured directories into absolute paths.
// An empty ImageDir resolves to the current working directory.
func (p PathsConfig) Resolve() (*Paths, error) {
	base, err := filepath.Abs(p.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base dir %s: %w", p.BaseDir, err)
	}

	imageDir := p.ImageDir
	if imageDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		imageDir = cwd
	}

	return &Paths{
		BaseDir:     base,
		SYLKDir:     under(base, p.SYLKDir),
		CSVDir:      under(base, p.CSVDir),
		WorkbookDir: under(base, p.WorkbookDir),
		ChartDir:    under(base, p.ChartDir),
		ImageDir:    under(base, imageDir),
	}, nil
}

func under(base, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(base, dir)
}

// EnsureOutputDirectories creates every directory a stage writes into.
// Input directories are left alone: a missing input is reported by the stage.
func (p *Paths) EnsureOutputDirectories() error {
	directories := []string{
		p.CSVDir,
		p.WorkbookDir,
		p.ChartDir,
		p.ImageDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}
