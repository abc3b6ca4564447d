package collect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/screener-export/pkg/dataset"
	"github.com/Sternrassler/screener-export/pkg/jobs"
	"github.com/Sternrassler/screener-export/pkg/logging"
	"github.com/Sternrassler/screener-export/pkg/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ColumnSource discovers candidate columns, returning fallback when it finds none.
type ColumnSource interface {
	Discover(ctx context.Context, fallback []string) []string
}

// Exporter persists a finished dataset under name and returns where it was written.
type Exporter interface {
	Export(name string, ds *dataset.Dataset) (string, error)
}

// RunnerConfig holds runner configuration shared by all jobs.
type RunnerConfig struct {
	PageSize   int
	PageDelay  time.Duration
	ProbeDelay time.Duration
}

// DefaultRunnerConfig returns the default paging and probe pacing.
func DefaultRunnerConfig() RunnerConfig {
	d := DefaultConfig()
	return RunnerConfig{
		PageSize:   d.PageSize,
		PageDelay:  d.PageDelay,
		ProbeDelay: schema.DefaultConfig().ProbeDelay,
	}
}

// Outcome is the result of one job run.
type Outcome struct {
	Job      string
	RunID    string
	Path     string
	Rows     int
	Pages    int
	Rejected []string
	Duration time.Duration
	Err      error
}

// Runner runs collection jobs one after another.
type Runner struct {
	prober   schema.Prober
	fetcher  PageFetcher
	exporter Exporter
	source   ColumnSource
	config   RunnerConfig
	logger   zerolog.Logger
}

// NewRunner creates a runner. source may be nil when no job discovers columns.
func NewRunner(prober schema.Prober, fetcher PageFetcher, exporter Exporter, source ColumnSource, cfg RunnerConfig) (*Runner, error) {
	if prober == nil || fetcher == nil || exporter == nil {
		return nil, fmt.Errorf("prober, page fetcher and exporter are required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be > 0 (got %d)", cfg.PageSize)
	}

	return &Runner{
		prober:   prober,
		fetcher:  fetcher,
		exporter: exporter,
		source:   source,
		config:   cfg,
		logger:   logging.NewLogger("runner"),
	}, nil
}

// Run executes each job in order. A failing job does not stop the others;
// the returned error joins every job failure.
func (r *Runner) Run(ctx context.Context, list []jobs.Job) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(list))
	var errs []error

	for _, job := range list {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		outcome := r.RunJob(ctx, job)
		outcomes = append(outcomes, outcome)
		if outcome.Err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", job.Name, outcome.Err))
		}
	}

	return outcomes, errors.Join(errs...)
}

// RunJob collects a single job and exports it on success.
func (r *Runner) RunJob(ctx context.Context, job jobs.Job) Outcome {
	outcome := Outcome{Job: job.Name, RunID: uuid.NewString()}
	logger := r.logger.With().Str("job", job.Name).Str("run_id", outcome.RunID).Logger()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	logger.Info().Str("output", job.Output).Msg("Starting job")

	outcome.Err = r.runJob(ctx, job, &outcome)
	outcome.Duration = time.Since(start)
	scanJobDuration.WithLabelValues(job.Name).Observe(outcome.Duration.Seconds())

	if outcome.Err != nil {
		scanJobsTotal.WithLabelValues(job.Name, ResultFailure).Inc()
		logger.Error().Err(outcome.Err).Dur("duration", outcome.Duration).Msg("Job failed")
		return outcome
	}

	scanJobsTotal.WithLabelValues(job.Name, ResultSuccess).Inc()
	logger.Info().
		Int("rows", outcome.Rows).
		Int("pages", outcome.Pages).
		Str("path", outcome.Path).
		Dur("duration", outcome.Duration).
		Msgf("Saved %d rows to %s", outcome.Rows, outcome.Path)
	return outcome
}

func (r *Runner) runJob(ctx context.Context, job jobs.Job, outcome *Outcome) error {
	desired := job.Columns
	if job.Discover && r.source != nil {
		desired = mergeColumns(r.source.Discover(ctx, job.Columns), job.Columns)
	}

	validator := schema.NewValidator(r.prober, schema.Config{Job: job.Name, ProbeDelay: probeDelay(job, r.config.ProbeDelay)})
	driver, err := NewDriver(validator, r.fetcher, job.Table, Config{
		Job:       job.Name,
		PageSize:  r.config.PageSize,
		PageDelay: r.config.PageDelay,
	})
	if err != nil {
		return err
	}

	result, err := driver.Collect(ctx, desired)
	if err != nil {
		return err
	}
	outcome.Rows = result.Dataset.Len()
	outcome.Pages = result.Pages
	outcome.Rejected = result.Rejected

	path, err := r.exporter.Export(job.Output, result.Dataset)
	if err != nil {
		return fmt.Errorf("export %s: %w", job.Output, err)
	}
	outcome.Path = path
	return nil
}

// probeDelay returns the job's own probe pause when it is shorter than the configured one.
func probeDelay(job jobs.Job, configured time.Duration) time.Duration {
	if job.ProbeDelay > 0 && job.ProbeDelay < configured {
		return job.ProbeDelay
	}
	return configured
}

// mergeColumns appends defaults missing from discovered and drops duplicates, keeping first occurrence.
func mergeColumns(discovered, defaults []string) []string {
	seen := make(map[string]bool, len(discovered)+len(defaults))
	merged := make([]string, 0, len(discovered)+len(defaults))
	for _, list := range [][]string{discovered, defaults} {
		for _, c := range list {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			merged = append(merged, c)
		}
	}
	return merged
}
