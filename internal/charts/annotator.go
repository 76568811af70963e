package charts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"emgpipe/internal/config"
	apperrors "emgpipe/internal/errors"
	"emgpipe/internal/files"
	"emgpipe/internal/infrastructure"
)

// Channel binds one signal column to its chart.
type Channel struct {
	Column string
	Name   string
	Anchor string
}

// Annotator adds the arm and leg charts to cleaned workbooks.
type Annotator struct {
	cfg    config.ChartConfig
	logger *slog.Logger
}

// NewAnnotator creates an Annotator.
func NewAnnotator(cfg config.ChartConfig, logger *slog.Logger) *Annotator {
	return &Annotator{cfg: cfg, logger: infrastructure.WithComponent(logger, "annotator")}
}

// Channels returns the charted columns in anchor order.
func (a *Annotator) Channels() []Channel {
	return []Channel{
		{Column: "B", Name: a.cfg.ArmName, Anchor: a.cfg.ArmAnchor},
		{Column: "C", Name: a.cfg.LegName, Anchor: a.cfg.LegAnchor},
	}
}

// Annotate opens the workbook at in, adds one line chart per channel to its
// active sheet and saves the result to out.
func (a *Annotator) Annotate(ctx context.Context, in, out string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	id, err := ParseStem(files.Stem(filepath.Base(in)))
	if err != nil {
		return Identity{}, err
	}

	f, err := excelize.OpenFile(in)
	if err != nil {
		return id, apperrors.NewStorageError("open workbook", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return id, apperrors.NewParsingError(fmt.Sprintf("read sheet %q", sheet), err)
	}
	lastRow := len(rows)
	if lastRow < 2 {
		return id, apperrors.NewValidationError(fmt.Sprintf("sheet %q", sheet), apperrors.ErrNoData)
	}

	for _, ch := range a.Channels() {
		yTitle, err := f.GetCellValue(sheet, ch.Column+"1")
		if err != nil {
			return id, apperrors.NewParsingError("read header", err)
		}
		if yTitle == "" {
			yTitle = ch.Name
		}

		chart := a.lineChart(sheet, ch, lastRow, id.Title(a.cfg.TitleFormat, ch.Name), yTitle)
		if err := f.AddChart(sheet, ch.Anchor, chart); err != nil {
			return id, apperrors.NewStorageError(fmt.Sprintf("add chart at %s", ch.Anchor), err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return id, apperrors.NewStorageError("create output directory", err)
	}
	if err := f.SaveAs(out); err != nil {
		return id, apperrors.NewStorageError("save workbook", err)
	}

	a.logger.InfoContext(ctx, "Annotated workbook",
		slog.String("input", in),
		slog.String("output", out),
		slog.String("subject", id.Subject),
		slog.String("scenario", id.Scenario),
		slog.Int("data_rows", lastRow-1))

	return id, nil
}

func (a *Annotator) lineChart(sheet string, ch Channel, lastRow int, title, yTitle string) *excelize.Chart {
	yMin, yMax := a.cfg.YMin, a.cfg.YMax

	return &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       columnRange(sheet, ch.Column, 1, 1),
				Categories: columnRange(sheet, "A", 2, lastRow),
				Values:     columnRange(sheet, ch.Column, 2, lastRow),
				Line:       excelize.ChartLine{Width: a.cfg.LineWidth},
				Marker:     excelize.ChartMarker{Symbol: "none"},
			},
		},
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis: excelize.ChartAxis{
			TickLabelSkip:     a.cfg.TickLabelSkip,
			TickLabelPosition: excelize.ChartTickLabelLow,
			Alignment:         excelize.Alignment{TextRotation: a.cfg.LabelRotation},
			Title:             axisTitle(a.cfg.TimeTitle),
		},
		YAxis: excelize.ChartAxis{
			Minimum: &yMin,
			Maximum: &yMax,
			Title:   axisTitle(yTitle),
		},
		Dimension: excelize.ChartDimension{Width: a.cfg.Width, Height: a.cfg.Height},
	}
}

func axisTitle(text string) []excelize.RichTextRun {
	if text == "" {
		return nil
	}
	return []excelize.RichTextRun{{Text: text}}
}

// columnRange builds an absolute reference like Sheet1!$B$2:$B$31.
func columnRange(sheet, column string, first, last int) string {
	ref := fmt.Sprintf("$%s$%d", column, first)
	if last != first {
		ref += fmt.Sprintf(":$%s$%d", column, last)
	}
	return quoteSheet(sheet) + "!" + ref
}

func quoteSheet(sheet string) string {
	if strings.ContainsAny(sheet, " -'()!,;") {
		return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet
}
