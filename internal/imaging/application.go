package imaging

import "context"

// Application opens workbooks for chart export.
type Application interface {
	Open(ctx context.Context, path string) (Document, error)
}

// Document is one open workbook. Close discards any changes.
type Document interface {
	SetDisplayAlerts(enabled bool)
	// Charts lists every chart object, sheet order then anchor order.
	Charts() ([]ChartObject, error)
	Export(ctx context.Context, chart ChartObject, dest string) error
	Close() error
}

// SeriesRef holds the cell references of one chart series.
type SeriesRef struct {
	Name       string
	Categories string
	Values     string
}

// ChartObject describes an embedded chart.
type ChartObject struct {
	// Index is the 1-based position across the whole workbook.
	Index  int
	Sheet  string
	Name   string
	Kind   string
	Title  string
	XTitle string
	YTitle string
	Series []SeriesRef

	YMin          *float64
	YMax          *float64
	TickLabelSkip int
	// LabelRotation is the category label rotation in degrees.
	LabelRotation float64
}

// String returns the sheet:chart label used in export listings.
func (c ChartObject) String() string {
	return c.Sheet + ":" + c.Name
}
