package imaging

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"github.com/xuri/excelize/v2"

	"emgpipe/internal/config"
	apperrors "emgpipe/internal/errors"
)

// RenderApp is the native Application: it draws charts itself instead of
// driving an installed spreadsheet program.
type RenderApp struct {
	width  int
	height int
	logger *slog.Logger
}

// NewRenderApp creates a RenderApp producing images of the configured size.
func NewRenderApp(cfg config.ExportConfig, logger *slog.Logger) *RenderApp {
	if logger == nil {
		logger = slog.Default()
	}
	return &RenderApp{width: cfg.Width, height: cfg.Height, logger: logger}
}

// Open reads the workbook's cell data and chart definitions.
func (a *RenderApp) Open(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("open workbook %s", path), err)
	}
	charts, err := readChartObjects(&zr.Reader)
	zr.Close()
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("open workbook %s", path), err)
	}

	a.logger.DebugContext(ctx, "Opened workbook for rendering",
		slog.String("workbook", path),
		slog.Int("charts", len(charts)))

	return &renderDocument{
		app:    a,
		file:   f,
		charts: charts,
		rows:   map[string][][]string{},
	}, nil
}

type renderDocument struct {
	app    *RenderApp
	file   *excelize.File
	charts []ChartObject
	rows   map[string][][]string
	alerts bool
}

// SetDisplayAlerts is recorded only; rendering never raises dialogs.
func (d *renderDocument) SetDisplayAlerts(enabled bool) {
	d.alerts = enabled
}

func (d *renderDocument) Charts() ([]ChartObject, error) {
	return d.charts, nil
}

// Close releases the workbook without saving.
func (d *renderDocument) Close() error {
	return d.file.Close()
}

func (d *renderDocument) Export(ctx context.Context, obj ChartObject, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if obj.Kind != "lineChart" {
		return apperrors.NewAutomationError(fmt.Sprintf("%s: unsupported chart type %q", obj, obj.Kind), nil)
	}

	var series []chart.Series
	var labels []string
	points := 0
	for _, ref := range obj.Series {
		values, err := d.resolve(ref.Values)
		if err != nil {
			return err
		}
		if labels == nil && ref.Categories != "" {
			if labels, err = d.resolve(ref.Categories); err != nil {
				return err
			}
		}
		if len(values) > points {
			points = len(values)
		}
		series = append(series, lineSegments(values)...)
	}
	if len(series) == 0 {
		return apperrors.NewAutomationError(fmt.Sprintf("%s has no plottable values", obj), apperrors.ErrNoData)
	}

	c := chart.Chart{
		Title:  obj.Title,
		Width:  d.app.width,
		Height: d.app.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis:  xAxis(obj, labels, points),
		YAxis:  yAxis(obj),
		Series: series,
	}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return apperrors.NewAutomationError(fmt.Sprintf("render %s", obj), err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return apperrors.NewStorageError("create image directory", err)
	}
	if err := os.WriteFile(dest, buf.Bytes(), 0644); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("write %s", dest), err)
	}
	return nil
}

var seriesStyle = chart.Style{
	StrokeColor: drawing.ColorFromHex("4472C4"),
	StrokeWidth: 1,
}

// lineSegments splits values at blank or non-numeric cells so gaps stay
// visible. X positions are the value indexes.
func lineSegments(values []string) []chart.Series {
	var out []chart.Series
	var xs, ys []float64
	flush := func() {
		if len(xs) > 0 {
			out = append(out, chart.ContinuousSeries{XValues: xs, YValues: ys, Style: seriesStyle})
		}
		xs, ys = nil, nil
	}

	for i, v := range values {
		y, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(y) {
			flush()
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, y)
	}
	flush()
	return out
}

// xAxis places a labelled tick every TickLabelSkip points. go-chart derives
// the axis range from the ticks, so the last point always gets a tick (blank
// when off the skip grid) and the axis spans at least two positions.
func xAxis(obj ChartObject, labels []string, points int) chart.XAxis {
	if points < len(labels) {
		points = len(labels)
	}
	last := points - 1
	if last < 1 {
		last = 1
	}

	axis := chart.XAxis{
		Name:      obj.XTitle,
		TickStyle: chart.Style{TextRotationDegrees: obj.LabelRotation},
		Range:     &chart.ContinuousRange{Min: 0, Max: float64(last)},
	}

	skip := obj.TickLabelSkip
	if skip <= 0 {
		skip = 1
	}
	label := func(i int) string {
		if i < len(labels) {
			return labels[i]
		}
		return ""
	}
	for i := 0; i < last; i += skip {
		axis.Ticks = append(axis.Ticks, chart.Tick{Value: float64(i), Label: label(i)})
	}
	end := ""
	if last%skip == 0 {
		end = label(last)
	}
	axis.Ticks = append(axis.Ticks, chart.Tick{Value: float64(last), Label: end})
	return axis
}

func yAxis(obj ChartObject) chart.YAxis {
	axis := chart.YAxis{Name: obj.YTitle}
	if obj.YMin != nil && obj.YMax != nil && *obj.YMax > *obj.YMin {
		axis.Range = &chart.ContinuousRange{Min: *obj.YMin, Max: *obj.YMax}
	}
	return axis
}

// resolve returns the cell values of a one-column or one-row reference
// such as Sheet1!$B$2:$B$31.
func (d *renderDocument) resolve(ref string) ([]string, error) {
	r, err := ParseRange(ref)
	if err != nil {
		return nil, err
	}

	rows, ok := d.rows[r.Sheet]
	if !ok {
		rows, err = d.file.GetRows(r.Sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("read sheet %q", r.Sheet), err)
		}
		d.rows[r.Sheet] = rows
	}

	var out []string
	for row := r.FirstRow; row <= r.LastRow; row++ {
		for col := r.FirstCol; col <= r.LastCol; col++ {
			out = append(out, cellAt(rows, row, col))
		}
	}
	return out, nil
}

func cellAt(rows [][]string, row, col int) string {
	if row-1 >= len(rows) || col-1 >= len(rows[row-1]) {
		return ""
	}
	return rows[row-1][col-1]
}

// CellRange is a parsed sheet-qualified A1 reference.
type CellRange struct {
	Sheet    string
	FirstCol int
	FirstRow int
	LastCol  int
	LastRow  int
}

// ParseRange parses references like Sheet1!$A$2:$A$31, 'My sheet'!B2 or
// Sheet1!A1:C1.
func ParseRange(ref string) (CellRange, error) {
	bang := strings.LastIndex(ref, "!")
	if bang <= 0 {
		return CellRange{}, apperrors.NewParsingError(fmt.Sprintf("range %q has no sheet", ref), nil)
	}

	sheet := ref[:bang]
	if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}

	cells := strings.Split(strings.ReplaceAll(ref[bang+1:], "$", ""), ":")
	if len(cells) > 2 {
		return CellRange{}, apperrors.NewParsingError(fmt.Sprintf("range %q", ref), nil)
	}
	firstCol, firstRow, err := excelize.CellNameToCoordinates(cells[0])
	if err != nil {
		return CellRange{}, apperrors.NewParsingError(fmt.Sprintf("range %q", ref), err)
	}
	lastCol, lastRow := firstCol, firstRow
	if len(cells) == 2 {
		if lastCol, lastRow, err = excelize.CellNameToCoordinates(cells[1]); err != nil {
			return CellRange{}, apperrors.NewParsingError(fmt.Sprintf("range %q", ref), err)
		}
	}
	if lastCol < firstCol {
		firstCol, lastCol = lastCol, firstCol
	}
	if lastRow < firstRow {
		firstRow, lastRow = lastRow, firstRow
	}

	return CellRange{Sheet: sheet, FirstCol: firstCol, FirstRow: firstRow, LastCol: lastCol, LastRow: lastRow}, nil
}
