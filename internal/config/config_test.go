package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Signal.HeaderRow)
	assert.Equal(t, "Time,s", cfg.Signal.TimeColumn)
	assert.Equal(t, "FLEX.CARP.R,uV", cfg.Signal.ArmColumn)
	assert.Equal(t, "MED. GASTRO,uV", cfg.Signal.LegColumn)
	assert.Equal(t, 0.1, cfg.Signal.Step)
	assert.Equal(t, 0.05, cfg.Signal.Tolerance)
	assert.Equal(t, 1, cfg.Signal.Limit)
	assert.Equal(t, UnmatchedNull, cfg.Signal.Unmatched)
	assert.Equal(t, 250.0, cfg.Chart.YMax)
	assert.Equal(t, 200, cfg.Chart.TickLabelSkip)
	assert.Equal(t, "E2", cfg.Chart.ArmAnchor)
	assert.Equal(t, "E15", cfg.Chart.LegAnchor)
	assert.Equal(t, 1, cfg.Batch.Workers)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yamlBody := `
paths:
  base_dir: /srv/emg
signal:
  tolerance: 0.02
  unmatched: drop
batch:
  workers: 3
`
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0644))

	t.Setenv("EMG_BATCH_WORKERS", "2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/emg", cfg.Paths.BaseDir)
	assert.Equal(t, 0.02, cfg.Signal.Tolerance)
	assert.Equal(t, UnmatchedDrop, cfg.Signal.Unmatched)
	assert.Equal(t, 2, cfg.Batch.Workers, "environment overrides file")
	// untouched defaults survive the overlay
	assert.Equal(t, "data/emg_csv", cfg.Paths.CSVDir)
	assert.Equal(t, 250.0, cfg.Chart.YMax)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EMG_SIGNAL_HEADER_ROW=6\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("EMG_SIGNAL_HEADER_ROW") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Signal.HeaderRow)
}

func TestLoad_SearchesDefaultLocation(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "emgpipe.yaml"),
		[]byte("logging:\n  level: debug\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad unmatched policy", yaml: "signal:\n  unmatched: fill\n"},
		{name: "zero step", yaml: "signal:\n  step: 0\n"},
		{name: "y max below min", yaml: "chart:\n  y_min: 10\n  y_max: 5\n"},
		{name: "unknown encoding", yaml: "convert:\n  encoding: ebcdic\n"},
		{name: "file exporter without path", yaml: "telemetry:\n  trace_exporter: file\n"},
		{name: "malformed yaml", yaml: "signal: [\n"},
		{name: "bad env value", yaml: "", env: map[string]string{"EMG_BATCH_WORKERS": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := filepath.Join(dir, "c.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestValidate_NormalisesExtensions(t *testing.T) {
	cfg := Default()
	cfg.Convert.Extensions = []string{"SLK", " .Sylk "}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{".slk", ".sylk"}, cfg.Convert.Extensions)
}
