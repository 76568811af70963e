package imaging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "emgpipe/internal/errors"
	"emgpipe/internal/shared/testutil"
)

type fakeApp struct {
	openErr error
	doc     *fakeDocument
	opened  []string
}

func (a *fakeApp) Open(_ context.Context, path string) (Document, error) {
	a.opened = append(a.opened, path)
	if a.openErr != nil {
		return nil, a.openErr
	}
	return a.doc, nil
}

type fakeDocument struct {
	charts    []ChartObject
	exportErr map[int]error
	closeErr  error

	alerts   *bool
	exported []string
	closed   int
}

func (d *fakeDocument) SetDisplayAlerts(enabled bool) { d.alerts = &enabled }

func (d *fakeDocument) Charts() ([]ChartObject, error) { return d.charts, nil }

func (d *fakeDocument) Export(_ context.Context, chart ChartObject, dest string) error {
	if err := d.exportErr[chart.Index]; err != nil {
		return err
	}
	d.exported = append(d.exported, dest)
	return os.WriteFile(dest, []byte("png"), 0644)
}

func (d *fakeDocument) Close() error {
	d.closed++
	return d.closeErr
}

func twoSheetCharts() []ChartObject {
	return []ChartObject{
		{Index: 1, Sheet: "Sheet1", Name: "Chart 1"},
		{Index: 2, Sheet: "Sheet1", Name: "Chart 2"},
		{Index: 3, Sheet: "Sheet2", Name: "Chart 1"},
	}
}

func TestExportRequestValidate(t *testing.T) {
	err := ExportRequest{}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrWorkbookRequired)
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))

	assert.Error(t, ExportRequest{Workbook: "   "}.Validate())
	assert.NoError(t, ExportRequest{Workbook: "7-2.xlsx"}.Validate())
}

func TestExportCharts_MissingWorkbookOpensNothing(t *testing.T) {
	app := &fakeApp{doc: &fakeDocument{}}

	_, err := ExportCharts(context.Background(), app, ExportRequest{OutputDir: t.TempDir()})
	assert.ErrorIs(t, err, apperrors.ErrWorkbookRequired)
	assert.Empty(t, app.opened)
}

func TestExporter_Export(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "png")
	doc := &fakeDocument{charts: twoSheetCharts()}
	app := &fakeApp{doc: doc}
	logger, handler := testutil.NewTestLogger(t)
	var listing bytes.Buffer

	exported, err := NewExporter(app, logger).Export(context.Background(), ExportRequest{
		Workbook:  "7-2.xlsx",
		OutputDir: outDir,
		Listing:   &listing,
	})
	require.NoError(t, err)

	require.Len(t, exported, 3)
	for i, name := range []string{"chart1.png", "chart2.png", "chart3.png"} {
		assert.Equal(t, filepath.Join(outDir, name), exported[i].Path)
		assert.FileExists(t, exported[i].Path)
	}
	assert.Equal(t, "Sheet1:Chart 1\nSheet1:Chart 2\nSheet2:Chart 1\n", listing.String())

	require.NotNil(t, doc.alerts)
	assert.False(t, *doc.alerts, "alerts are disabled before export")
	assert.Equal(t, 1, doc.closed)

	require.Len(t, app.opened, 1)
	assert.True(t, filepath.IsAbs(app.opened[0]))
	assert.Len(t, handler.ByLevel(slog.LevelInfo), 3)
}

func TestExporter_ExportPrefixAndDefaultDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	doc := &fakeDocument{charts: twoSheetCharts()[:1]}
	exported, err := ExportCharts(context.Background(), &fakeApp{doc: doc}, ExportRequest{
		Workbook: "7-2.xlsx",
		Prefix:   "7-2_",
	})
	require.NoError(t, err)
	require.Len(t, exported, 1)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "7-2_1.png"), exported[0].Path)
}

func TestExporter_ExportClosesOnFailure(t *testing.T) {
	exportErr := errors.New("renderer crashed")
	closeErr := errors.New("workbook locked")
	doc := &fakeDocument{
		charts:    twoSheetCharts(),
		exportErr: map[int]error{2: exportErr},
		closeErr:  closeErr,
	}

	exported, err := ExportCharts(context.Background(), &fakeApp{doc: doc}, ExportRequest{
		Workbook:  "7-2.xlsx",
		OutputDir: t.TempDir(),
	})
	require.Error(t, err)

	assert.ErrorIs(t, err, exportErr)
	assert.ErrorIs(t, err, closeErr, "close error is joined")
	assert.Contains(t, err.Error(), "Sheet1:Chart 2")
	assert.Len(t, exported, 1, "charts before the failure are reported")
	assert.Equal(t, 1, doc.closed)
}

func TestExporter_ExportOpenFailure(t *testing.T) {
	openErr := apperrors.NewAutomationError("no spreadsheet application", nil)
	app := &fakeApp{openErr: openErr, doc: &fakeDocument{}}

	_, err := ExportCharts(context.Background(), app, ExportRequest{Workbook: "7-2.xlsx", OutputDir: t.TempDir()})
	assert.ErrorIs(t, err, openErr)
	assert.Equal(t, 0, app.doc.closed)
}

func TestExporter_ExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := &fakeDocument{charts: twoSheetCharts()}
	_, err := ExportCharts(ctx, &fakeApp{doc: doc}, ExportRequest{Workbook: "7-2.xlsx", OutputDir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, doc.exported)
	assert.Equal(t, 1, doc.closed)
}

func TestExporter_ExportNoCharts(t *testing.T) {
	doc := &fakeDocument{}
	exported, err := ExportCharts(context.Background(), &fakeApp{doc: doc}, ExportRequest{Workbook: "7-2.xlsx", OutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, exported)
	assert.Equal(t, 1, doc.closed)
}
