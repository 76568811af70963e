package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"emgpipe/internal/config"
	apperrors "emgpipe/internal/errors"
	"emgpipe/internal/shared/testutil"
)

// writeRecording writes a CSV export sampled every interval seconds up to maxTime.
func writeRecording(t *testing.T, path string, maxTime, interval float64) {
	t.Helper()

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString(header)
	n := int(math.Round(maxTime / interval))
	for i := 0; i <= n; i++ {
		tm := float64(i) * interval
		fmt.Fprintf(&b, "%.4f,%g,%g,0\n", tm, -float64(i%50), float64(i%20)/2)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
}

func TestCleanFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "7-2.csv")
	out := filepath.Join(dir, "xlsx", "7-2.xlsx")
	writeRecording(t, in, 3.5, 0.002)

	logger, handler := testutil.NewTestLogger(t)
	cleaner := NewCleaner(signalConfig(), logger)

	summary, err := cleaner.CleanFile(context.Background(), in, out)
	require.NoError(t, err)

	assert.Equal(t, 1751, summary.Samples)
	assert.Equal(t, 30, summary.GridPoints)
	assert.Equal(t, 30, summary.Matched)
	assert.Equal(t, 0, summary.Unmatched)
	assert.InDelta(t, 3.5, summary.MaxTime, 1e-9)
	assert.True(t, handler.ContainsMessage("Cleaned EMG file"))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 31, "header plus one row per grid point")

	assert.Equal(t, []string{"time(s)", "근전도(팔,수근굴근)(uV)", "근전도(종아리,비복근)(uV)"}, rows[0])
	assert.Equal(t, []string{"0", "0", "0"}, rows[1])
	assert.Equal(t, "0.3", rows[4][0])
	assert.Equal(t, "2.9", rows[30][0])

	// 0.3 s is sample 150: arm |-(150 % 50)| = 0, leg (150 % 20)/2 = 5
	assert.Equal(t, "0", rows[4][1])
	assert.Equal(t, "5", rows[4][2])

	for _, row := range rows[1:] {
		assert.False(t, strings.HasPrefix(row[1], "-"), "arm must be rectified")
		assert.False(t, strings.HasPrefix(row[2], "-"), "leg must be rectified")
	}
}

func TestCleanFile_BlankSignalCell(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "4-2.csv")
	out := filepath.Join(dir, "4-2.xlsx")

	var b strings.Builder
	b.WriteString(preamble + header)
	for i := 0; i <= 10; i++ {
		arm := fmt.Sprintf("%d", -i)
		if i == 1 {
			arm = ""
		}
		fmt.Fprintf(&b, "%.1f,%s,%d\n", float64(i)/10, arm, i*2)
	}
	require.NoError(t, os.WriteFile(in, []byte(b.String()), 0644))

	summary, err := NewCleaner(signalConfig(), nil).CleanFile(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Matched)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 11)
	assert.Equal(t, []string{"0.1", "", "2"}, rows[2])
	assert.Equal(t, []string{"0.2", "2", "4"}, rows[3])
}

func TestCleanFile_UnmatchedRows(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "3-1.csv")
	input := preamble + header +
		"0.0,-1,1,0\n" +
		"0.1,-2,2,0\n" +
		"0.5,-3,3,0\n" +
		"1.0,-4,4,0\n" +
		"1.2,-5,5,0\n"
	require.NoError(t, os.WriteFile(in, []byte(input), 0644))

	t.Run("kept empty by default", func(t *testing.T) {
		out := filepath.Join(dir, "null.xlsx")
		summary, err := NewCleaner(signalConfig(), nil).CleanFile(context.Background(), in, out)
		require.NoError(t, err)
		assert.Equal(t, 7, summary.Unmatched)

		f, err := excelize.OpenFile(out)
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(SheetName)
		require.NoError(t, err)
		require.Len(t, rows, 11)
		assert.Equal(t, []string{"0.2"}, rows[3], "unmatched row keeps only its time")

		arm, err := f.GetCellValue(SheetName, "B4")
		require.NoError(t, err)
		assert.Empty(t, arm)
	})

	t.Run("dropped on request", func(t *testing.T) {
		cfg := signalConfig()
		cfg.Unmatched = config.UnmatchedDrop
		out := filepath.Join(dir, "drop.xlsx")

		summary, err := NewCleaner(cfg, nil).CleanFile(context.Background(), in, out)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.Matched)

		f, err := excelize.OpenFile(out)
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(SheetName)
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, []string{"0.5", "3", "3"}, rows[3])
	})
}

func TestCleanFile_ShortRecording(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "1-1.csv")
	out := filepath.Join(dir, "1-1.xlsx")
	input := preamble + header + "0.00,1,1,0\n0.03,1,1,0\n0.11,1,1,0\n0.19,1,1,0\n"
	require.NoError(t, os.WriteFile(in, []byte(input), 0644))

	logger, handler := testutil.NewTestLogger(t)
	summary, err := NewCleaner(signalConfig(), logger).CleanFile(context.Background(), in, out)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.GridPoints)
	assert.NotEmpty(t, handler.ByLevel(slog.LevelWarn))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestCleanFile_MissingColumnWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "2-2.csv")
	out := filepath.Join(dir, "2-2.xlsx")
	require.NoError(t, os.WriteFile(in, []byte(preamble+`"Time,s"`+"\n0.0\n"), 0644))

	_, err := NewCleaner(signalConfig(), nil).CleanFile(context.Background(), in, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingColumn))
	assert.NoFileExists(t, out)
}

func TestCleanFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCleaner(signalConfig(), nil).CleanFile(ctx, "unused.csv", "unused.xlsx")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	s := gappySeries()
	table := Resample(s, ResampleOptions{Step: 0.1, Tolerance: 0.05, Limit: 1})

	sum := Summarize(s, table)

	assert.Equal(t, 5, sum.Samples)
	assert.Equal(t, 10, sum.GridPoints)
	assert.Equal(t, 3, sum.Matched)
	assert.Equal(t, 1.2, sum.MaxTime)
	assert.Equal(t, 3.0, sum.ArmPeak)
	assert.InDelta(t, 2.0, sum.ArmMean, 1e-9)
	assert.Equal(t, 3.0, sum.LegPeak)
}

func TestSummarize_SkipsBlankCells(t *testing.T) {
	s := &Series{
		Time: []float64{0.0, 0.5, 1.0, 1.5},
		Arm:  []float64{-1, math.NaN(), 3, 5},
		Leg:  []float64{2, -4, 6, 8},
	}
	table := Resample(s, ResampleOptions{Step: 0.1, Tolerance: 0.05, Limit: 1})

	sum := Summarize(s, table)

	assert.Equal(t, 2, sum.Matched)
	assert.Equal(t, 1.0, sum.ArmPeak)
	assert.InDelta(t, 1.0, sum.ArmMean, 1e-9)
	assert.Equal(t, 4.0, sum.LegPeak)
	assert.InDelta(t, 3.0, sum.LegMean, 1e-9)
}

func TestSummarize_NoMatches(t *testing.T) {
	s := &Series{Time: []float64{0.0, 0.3}, Arm: []float64{1, 2}, Leg: []float64{1, 2}}
	sum := Summarize(s, &Table{GridSize: 0})

	assert.True(t, math.IsNaN(sum.ArmPeak))
	assert.True(t, math.IsNaN(sum.LegMean))
}
