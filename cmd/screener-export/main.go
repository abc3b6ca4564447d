// Command screener-export collects screener datasets into CSV files.
//
// Usage:
//
//	screener-export [-env file] [-list] [job|group ...]
//
// Without arguments every job runs. Configuration comes from the environment
// and an optional .env file; see internal/config.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/screener-export/internal/config"
	"github.com/Sternrassler/screener-export/pkg/cache"
	"github.com/Sternrassler/screener-export/pkg/collect"
	"github.com/Sternrassler/screener-export/pkg/discovery"
	"github.com/Sternrassler/screener-export/pkg/export"
	"github.com/Sternrassler/screener-export/pkg/jobs"
	"github.com/Sternrassler/screener-export/pkg/logging"
	"github.com/Sternrassler/screener-export/pkg/metrics"
	"github.com/Sternrassler/screener-export/pkg/pagination"
	"github.com/Sternrassler/screener-export/pkg/scan"
	"github.com/Sternrassler/screener-export/pkg/schema"
	"github.com/dustin/go-humanize"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("screener-export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env", "", "load configuration from this file instead of ./.env")
	list := fs.Bool("list", false, "list jobs and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: screener-export [flags] [job|group ...]\n\nGroups: %s\n\nFlags:\n", strings.Join(jobs.Groups(), ", "))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *list {
		printJobs(stdout)
		return 0
	}

	selected, err := jobs.Select(fs.Args()...)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 2
	}

	logCfg := cfg.Logging()
	logCfg.Output = stderr
	logging.Setup(logCfg)

	if err := runExport(ctx, cfg, selected, stdout); err != nil {
		log.Error().Err(err).Msg("Export finished with errors")
		return 1
	}
	return 0
}

// runExport wires the pipeline for cfg and runs the selected jobs.
func runExport(ctx context.Context, cfg *config.Config, selected []jobs.Job, stdout io.Writer) error {
	if cfg.MetricsAddr != "" {
		srv, err := metrics.Listen(cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		metricsCtx, stop := context.WithCancel(ctx)
		defer stop()
		go func() {
			if err := srv.Serve(metricsCtx); err != nil {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	client, err := scan.New(cfg.Scan())
	if err != nil {
		return fmt.Errorf("create scan client: %w", err)
	}

	var prober schema.Prober = client
	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		return err
	}
	if redisOpts != nil {
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", redisOpts.Addr).Msg("Redis unavailable, probing without cache")
		} else {
			prober = cache.NewCachingProber(client, cache.NewManager(redisClient), client.Endpoint(), cfg.ProbeCacheTTL)
			log.Info().Str("addr", redisOpts.Addr).Dur("ttl", cfg.ProbeCacheTTL).Msg("Probe cache enabled")
		}
	}

	fetcher := pagination.NewBatchFetcher(client, pagination.Config{
		SortBy:  client.SortBy(),
		Timeout: cfg.RequestTimeout,
	})

	var exporter collect.Exporter = export.NewCSVWriter(cfg.OutputDir)
	if cfg.OutputPreview > 0 {
		exporter = export.WithPreview(exporter, stdout, cfg.OutputPreview)
	}

	source := discovery.NewSource(client, cfg.PageURL)

	runner, err := collect.NewRunner(prober, fetcher, exporter, source, cfg.Runner())
	if err != nil {
		return err
	}

	outcomes, err := runner.Run(ctx, selected)
	printSummary(stdout, outcomes)
	return err
}

func printJobs(w io.Writer) {
	for _, j := range jobs.Catalog() {
		fmt.Fprintf(w, "%-18s %-18s %-28s %d columns\n", j.Group, j.Name, j.Output, len(j.Columns))
	}
}

func printSummary(w io.Writer, outcomes []collect.Outcome) {
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "FAIL  %-18s %v\n", o.Job, o.Err)
			continue
		}
		fmt.Fprintf(w, "OK    %-18s %s rows in %s -> %s\n", o.Job, humanize.Comma(int64(o.Rows)), o.Duration.Round(time.Millisecond), o.Path)
	}
}
