package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"emgpipe/internal/config"
	apperrors "emgpipe/internal/errors"
	"emgpipe/internal/infrastructure"
)

// SheetName is the single sheet every cleaned workbook carries.
const SheetName = "Sheet1"

// Cleaner turns raw EMG CSV exports into resampled workbooks.
type Cleaner struct {
	cfg    config.SignalConfig
	logger *slog.Logger
}

// NewCleaner creates a Cleaner.
func NewCleaner(cfg config.SignalConfig, logger *slog.Logger) *Cleaner {
	return &Cleaner{cfg: cfg, logger: infrastructure.WithComponent(logger, "cleaner")}
}

// Options derives the resampling options from the signal configuration.
func (c *Cleaner) Options() ResampleOptions {
	return ResampleOptions{
		Step:          c.cfg.Step,
		Tolerance:     c.cfg.Tolerance,
		Limit:         c.cfg.Limit,
		DropUnmatched: c.cfg.Unmatched == config.UnmatchedDrop,
	}
}

// CleanFile loads in, resamples it and writes the workbook out.
func (c *Cleaner) CleanFile(ctx context.Context, in, out string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	series, err := LoadSignals(in, c.cfg)
	if err != nil {
		return Summary{}, err
	}

	table := Resample(series, c.Options())
	summary := Summarize(series, table)

	if table.GridSize == 0 {
		c.logger.WarnContext(ctx, "Recording shorter than one second, workbook has no data rows",
			slog.String("input", in),
			slog.Float64("max_time", summary.MaxTime))
	}

	if err := WriteWorkbook(table, out, Labels{Time: c.cfg.TimeLabel, Arm: c.cfg.ArmLabel, Leg: c.cfg.LegLabel}); err != nil {
		return summary, err
	}

	c.logger.InfoContext(ctx, "Cleaned EMG file",
		slog.String("input", in),
		slog.String("output", out),
		slog.Int("samples", summary.Samples),
		slog.Int("grid_points", summary.GridPoints),
		slog.Int("matched", summary.Matched),
		slog.Int("unmatched", summary.Unmatched),
		slog.Float64("max_time", summary.MaxTime),
		slog.Float64("arm_peak", summary.ArmPeak),
		slog.Float64("arm_mean", summary.ArmMean),
		slog.Float64("leg_peak", summary.LegPeak),
		slog.Float64("leg_mean", summary.LegMean))

	return summary, nil
}

// Labels are the display headers of the cleaned workbook.
type Labels struct {
	Time string
	Arm  string
	Leg  string
}

// WriteWorkbook writes the table to a one-sheet workbook: header on row 1,
// one grid point per row from row 2, empty cells for unmatched signals.
func WriteWorkbook(t *Table, path string, labels Labels) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return apperrors.NewStorageError("create stream writer", err)
	}

	if err := sw.SetRow("A1", []interface{}{labels.Time, labels.Arm, labels.Leg}); err != nil {
		return apperrors.NewStorageError("write header", err)
	}

	for i, r := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewStorageError("cell name", err)
		}
		if err := sw.SetRow(cell, []interface{}{r.Time, cellValue(r.Arm), cellValue(r.Leg)}); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("write row %d", i+2), err)
		}
	}

	if err := sw.Flush(); err != nil {
		return apperrors.NewStorageError("flush workbook", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("create output directory", err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("save workbook", err)
	}
	return nil
}

func cellValue(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
