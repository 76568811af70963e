package imaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "emgpipe/internal/errors"
	"emgpipe/internal/infrastructure"
)

// DefaultPrefix names exported images chart1.png, chart2.png, ...
const DefaultPrefix = "chart"

// ExportRequest describes one workbook export.
type ExportRequest struct {
	Workbook string
	// OutputDir defaults to the current working directory.
	OutputDir string
	Prefix    string
	// Listing receives one sheet:chart line per exported chart when set.
	Listing io.Writer
}

// Validate checks required fields before any document is opened.
func (r ExportRequest) Validate() error {
	if strings.TrimSpace(r.Workbook) == "" {
		return apperrors.NewValidationError("export request", apperrors.ErrWorkbookRequired)
	}
	return nil
}

// Exported records one written image.
type Exported struct {
	Chart ChartObject
	Path  string
}

// Exporter drives an Application through the export of a workbook's charts.
type Exporter struct {
	app    Application
	logger *slog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(app Application, logger *slog.Logger) *Exporter {
	return &Exporter{app: app, logger: infrastructure.WithComponent(logger, "image_exporter")}
}

// ExportCharts exports every chart of req.Workbook with the default logger.
func ExportCharts(ctx context.Context, app Application, req ExportRequest) ([]Exported, error) {
	return NewExporter(app, nil).Export(ctx, req)
}

// Export opens the workbook, writes <prefix><n>.png for every chart and
// always closes the document. A close failure is joined to any export error.
func (e *Exporter) Export(ctx context.Context, req ExportRequest) (exported []Exported, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	outDir, err := resolveOutputDir(req.OutputDir)
	if err != nil {
		return nil, err
	}
	prefix := req.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	workbook, err := filepath.Abs(req.Workbook)
	if err != nil {
		return nil, apperrors.NewStorageError("resolve workbook path", err)
	}

	doc, err := e.app.Open(ctx, workbook)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := doc.Close(); closeErr != nil {
			err = errors.Join(err, apperrors.NewAutomationError("close workbook", closeErr))
		}
	}()

	doc.SetDisplayAlerts(false)

	charts, err := doc.Charts()
	if err != nil {
		return nil, err
	}
	if len(charts) == 0 {
		e.logger.WarnContext(ctx, "Workbook has no charts", slog.String("workbook", workbook))
		return nil, nil
	}

	for i, chart := range charts {
		if err := ctx.Err(); err != nil {
			return exported, err
		}

		if req.Listing != nil {
			fmt.Fprintln(req.Listing, chart.String())
		}

		dest := filepath.Join(outDir, fmt.Sprintf("%s%d.png", prefix, i+1))
		if err := doc.Export(ctx, chart, dest); err != nil {
			return exported, fmt.Errorf("export %s: %w", chart, err)
		}
		exported = append(exported, Exported{Chart: chart, Path: dest})

		e.logger.InfoContext(ctx, "Exported chart",
			slog.String("workbook", workbook),
			slog.String("sheet", chart.Sheet),
			slog.String("chart", chart.Name),
			slog.String("output", dest))
	}

	return exported, nil
}

func resolveOutputDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", apperrors.NewStorageError("get working directory", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", apperrors.NewStorageError("resolve output directory", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", apperrors.NewStorageError("create output directory", err)
	}
	return abs, nil
}
