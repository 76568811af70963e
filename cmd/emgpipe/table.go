package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"emgpipe/internal/batch"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// printSummary writes the per-file result table of one stage.
func printSummary(w io.Writer, stage batch.Stage, results []batch.Result) {
	if len(results) == 0 {
		fmt.Fprintf(w, "%s: no input files\n", stage)
		return
	}

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := "ok"
		errText := ""
		switch {
		case res.Skipped:
			status = "skipped"
		case res.Err != nil:
			status = "failed"
			errText = res.Err.Error()
		}
		rows = append(rows, []string{
			filepath.Base(res.Job.Input),
			filepath.Base(res.Job.Output),
			status,
			res.Duration.Round(time.Millisecond).String(),
			errText,
		})
	}

	fmt.Fprintln(w, renderTable(
		[]string{"File", "Output", "Status", "Duration", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(w, "%s: %d ok, %d failed\n", stage, len(results)-batch.Failed(results), batch.Failed(results))
}
