package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"emgpipe/internal/batch"
	"emgpipe/internal/charts"
	"emgpipe/internal/converter"
	"emgpipe/internal/dataprocessing"
	apperrors "emgpipe/internal/errors"
	"emgpipe/internal/files"
	"emgpipe/internal/imaging"
	"emgpipe/internal/validation"
)

// errFilesFailed signals a non-zero exit after the summary was printed.
var errFilesFailed = errors.New("one or more files failed")

type stageFunc func(ctx context.Context, in, out string) ([]batch.Result, error)

func newStageCommand(use, short string, stage batch.Stage, dirs func() (string, string), run stageFunc) *cobra.Command {
	var inFlag, outFlag string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, out := dirs()
			if inFlag != "" {
				in = inFlag
			}
			if outFlag != "" {
				out = outFlag
			}

			results, err := run(cmd.Context(), in, out)
			if err != nil {
				return err
			}
			return finish(cmd.OutOrStdout(), stage, results)
		},
	}

	cmd.Flags().StringVar(&inFlag, "in", "", "Input directory (defaults to the configured stage directory)")
	cmd.Flags().StringVar(&outFlag, "out", "", "Output directory (defaults to the configured stage directory)")
	return cmd
}

func finish(w io.Writer, stage batch.Stage, results []batch.Result) error {
	printSummary(w, stage, results)
	fmt.Fprintln(w, "all done")
	if batch.Failed(results) > 0 {
		return errFilesFailed
	}
	return nil
}

func newConvertCommand(c *commandContext) *cobra.Command {
	return newStageCommand("convert", "Convert SYLK interchange files to CSV", batch.StageConvert,
		func() (string, string) { return c.paths.SYLKDir, c.paths.CSVDir },
		c.convert)
}

func newCleanCommand(c *commandContext) *cobra.Command {
	return newStageCommand("clean", "Resample EMG CSV files into workbooks", batch.StageClean,
		func() (string, string) { return c.paths.CSVDir, c.paths.WorkbookDir },
		c.clean)
}

func newChartCommand(c *commandContext) *cobra.Command {
	return newStageCommand("chart", "Add arm and leg charts to cleaned workbooks", batch.StageChart,
		func() (string, string) { return c.paths.WorkbookDir, c.paths.ChartDir },
		c.chart)
}

func newExportCommand(c *commandContext) *cobra.Command {
	var outFlag, prefixFlag string

	cmd := &cobra.Command{
		Use:   "export <workbook>...",
		Short: "Export the charts of workbooks as PNG images",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return apperrors.NewValidationError("export", apperrors.ErrWorkbookRequired)
			}
			out := c.paths.ImageDir
			if outFlag != "" {
				out = outFlag
			}
			prefix := c.cfg.Export.Prefix
			if prefixFlag != "" {
				prefix = prefixFlag
			}

			results := c.export(cmd.Context(), args, out, prefix, &lockedWriter{w: cmd.OutOrStdout()})
			return finish(cmd.OutOrStdout(), batch.StageExport, results)
		},
	}

	cmd.Flags().StringVar(&outFlag, "out", "", "Image directory (defaults to the current directory)")
	cmd.Flags().StringVar(&prefixFlag, "prefix", "", "Image file name prefix")
	return cmd
}

func newRunCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run convert, clean and chart in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			steps := []struct {
				stage   batch.Stage
				in, out string
				run     stageFunc
			}{
				{batch.StageConvert, c.paths.SYLKDir, c.paths.CSVDir, c.convert},
				{batch.StageClean, c.paths.CSVDir, c.paths.WorkbookDir, c.clean},
				{batch.StageChart, c.paths.WorkbookDir, c.paths.ChartDir, c.chart},
			}

			if err := c.paths.EnsureOutputDirectories(); err != nil {
				return apperrors.NewStorageError("prepare output directories", err)
			}

			failed := false
			for _, step := range steps {
				results, err := step.run(cmd.Context(), step.in, step.out)
				if err != nil {
					return err
				}
				if err := finish(w, step.stage, results); err != nil {
					failed = true
				}
				if err := cmd.Context().Err(); err != nil {
					return err
				}
			}

			if failed {
				return errFilesFailed
			}
			return nil
		},
	}
}

// plan checks the stage directories and maps every matching input file to
// its output.
func (c *commandContext) plan(in, out string, outExt string, exts ...string) ([]files.Job, error) {
	v := validation.NewFileValidator(c.logger)
	if err := v.ValidateInputDirectory(in); err != nil {
		return nil, err
	}
	if err := v.ValidateOutputDirectory(out); err != nil {
		return nil, err
	}

	inputs, err := files.FindFiles(in, exts...)
	if err != nil {
		return nil, apperrors.NewStorageError("list input files", err)
	}
	return files.Plan(inputs, out, outExt), nil
}

func (c *commandContext) convert(ctx context.Context, in, out string) ([]batch.Result, error) {
	conv, err := converter.New(c.cfg.Convert, c.logger)
	if err != nil {
		return nil, err
	}
	jobs, err := c.plan(in, out, ".csv", c.cfg.Convert.Extensions...)
	if err != nil {
		return nil, err
	}
	return c.runner().Run(ctx, batch.StageConvert, jobs, func(ctx context.Context, job files.Job) error {
		return conv.ConvertFile(ctx, job.Input, job.Output)
	}), nil
}

func (c *commandContext) clean(ctx context.Context, in, out string) ([]batch.Result, error) {
	cleaner := dataprocessing.NewCleaner(c.cfg.Signal, c.logger)
	jobs, err := c.plan(in, out, ".xlsx", ".csv")
	if err != nil {
		return nil, err
	}
	return c.runner().Run(ctx, batch.StageClean, jobs, func(ctx context.Context, job files.Job) error {
		_, err := cleaner.CleanFile(ctx, job.Input, job.Output)
		return err
	}), nil
}

func (c *commandContext) chart(ctx context.Context, in, out string) ([]batch.Result, error) {
	annotator := charts.NewAnnotator(c.cfg.Chart, c.logger)
	jobs, err := c.plan(in, out, ".xlsx", ".xlsx")
	if err != nil {
		return nil, err
	}
	return c.runner().Run(ctx, batch.StageChart, jobs, func(ctx context.Context, job files.Job) error {
		_, err := annotator.Annotate(ctx, job.Input, job.Output)
		return err
	}), nil
}

// export writes each workbook's images into out, or into out/<stem> when
// several workbooks would otherwise overwrite each other's chart<n>.png.
func (c *commandContext) export(ctx context.Context, workbooks []string, out, prefix string, listing io.Writer) []batch.Result {
	jobs := files.PlanPaths(workbooks, out, "")
	if len(jobs) == 1 {
		jobs[0].Output = out
	}

	v := validation.NewFileValidator(c.logger)
	exporter := imaging.NewExporter(imaging.NewRenderApp(c.cfg.Export, c.logger), c.logger)
	return c.runner().Run(ctx, batch.StageExport, jobs, func(ctx context.Context, job files.Job) error {
		if err := v.ValidateWorkbook(job.Input); err != nil {
			return err
		}
		_, err := exporter.Export(ctx, imaging.ExportRequest{
			Workbook:  job.Input,
			OutputDir: job.Output,
			Prefix:    prefix,
			Listing:   listing,
		})
		return err
	})
}
