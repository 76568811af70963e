package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"emgpipe/internal/files"
	"emgpipe/internal/infrastructure"
)

// Stage names a pipeline step.
type Stage string

const (
	StageConvert Stage = "convert"
	StageClean   Stage = "clean"
	StageChart   Stage = "chart"
	StageExport  Stage = "export"
)

// Func processes a single job.
type Func func(ctx context.Context, job files.Job) error

// Result is the outcome of one job.
type Result struct {
	Job      files.Job
	Err      error
	Duration time.Duration
	// Skipped is set when the run was cancelled before the job started.
	Skipped bool
}

// Runner executes jobs with bounded parallelism.
type Runner struct {
	workers int
	logger  *slog.Logger
	metrics *infrastructure.Metrics
	tracer  trace.Tracer
}

// NewRunner creates a Runner. workers below 1 run sequentially; metrics may be nil.
func NewRunner(workers int, logger *slog.Logger, metrics *infrastructure.Metrics) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		workers: workers,
		logger:  infrastructure.WithComponent(logger, "batch"),
		metrics: metrics,
		tracer:  infrastructure.Tracer(),
	}
}

// Run applies fn to every job. Cancelling ctx stops scheduling; jobs already
// running finish and the rest are marked skipped.
func (r *Runner) Run(ctx context.Context, stage Stage, jobs []files.Job, fn Func) []Result {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("batch.%s", stage),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("batch.stage", string(stage)),
			attribute.Int("batch.jobs", len(jobs)),
			attribute.Int("batch.workers", r.workers),
		),
	)
	defer span.End()

	start := time.Now()
	r.logger.InfoContext(ctx, "stage_start",
		slog.String("stage", string(stage)),
		slog.Int("files", len(jobs)),
		slog.Int("workers", r.workers))

	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(jobs); j++ {
				results[j] = Result{Job: jobs[j], Err: err, Skipped: true}
			}
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Job: job, Err: err, Skipped: true}
				return nil
			}
			results[i] = r.runJob(ctx, stage, job, fn)
			return nil
		})
	}
	_ = g.Wait()

	failed := Failed(results)
	span.SetAttributes(attribute.Int("batch.failed", failed))
	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d files failed", failed, len(jobs)))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	r.logger.InfoContext(ctx, "stage_complete",
		slog.String("stage", string(stage)),
		slog.Int("files", len(jobs)),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(start)))

	return results
}

func (r *Runner) runJob(ctx context.Context, stage Stage, job files.Job, fn Func) (res Result) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("batch.%s.file", stage),
		trace.WithAttributes(
			attribute.String("file.input", job.Input),
			attribute.String("file.output", job.Output),
			attribute.String("file.stem", job.Stem),
		),
	)
	defer span.End()

	res.Job = job
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("panic while processing %s: %v", job.Input, p)
		}
		res.Duration = time.Since(start)
		r.metrics.Observe(string(stage), res.Err, res.Duration)

		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
			infrastructure.WithError(r.logger, res.Err).ErrorContext(ctx, "file_failed",
				slog.String("stage", string(stage)),
				slog.String("input", job.Input))
		}
	}()

	res.Err = fn(ctx, job)
	return res
}

// Failed counts results with an error, skipped ones included.
func Failed(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}
