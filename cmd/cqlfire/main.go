package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/cqlfire/internal/config"
	"github.com/torosent/cqlfire/internal/dashboard"
	"github.com/torosent/cqlfire/internal/metrics"
	"github.com/torosent/cqlfire/internal/output"
	"github.com/torosent/cqlfire/internal/runner"
	"github.com/torosent/cqlfire/internal/store"
	"github.com/torosent/cqlfire/internal/tracing"
	"github.com/torosent/cqlfire/internal/workload"
)

const progressInterval = time.Second

type stderrFailureLogger struct {
	mu sync.Mutex
}

func (l *stderrFailureLogger) LogFailure(err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(os.Stderr, "[cqlfire] operation failed: %v\n", err)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := ulid.Make().String()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "[cqlfire] run %s: connecting to %v:%d (keyspace=%s)\n",
		runID, cfg.ContactPoints, cfg.Port, cfg.Keyspace)

	session, err := store.Open(store.Config{
		ContactPoints: cfg.ContactPoints,
		Port:          cfg.Port,
		Username:      cfg.Username,
		Password:      cfg.Password,
		Keyspace:      cfg.Keyspace,
		Consistency:   cfg.Consistency,
		Timeout:       cfg.Timeout,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	devices := workload.DevicePool(rand.New(rand.NewSource(seed)), cfg.DevicePoolSize)

	collector := metrics.NewCollector(cfg.ErrorSampleCap)

	adapter, err := store.NewAdapter(session, cfg.Consistency, devices, provider.Tracer(), cfg.Keyspace)
	if err != nil {
		return err
	}

	var exec runner.Executor = adapter
	if cfg.LogErrors {
		exec = runner.WithLogging(exec, &stderrFailureLogger{})
	}

	r := runner.New(runner.Options{
		Workers:       cfg.Threads,
		Duration:      cfg.Duration,
		RatePerSecond: cfg.Rate,
		ArrivalModel:  runner.ArrivalModel(cfg.Arrival),
		Executor:      exec,
		Collector:     collector,
		Selector:      workload.Selector{WriteRatio: cfg.WriteRatio},
		Keys:          workload.Keys{PoolSize: cfg.DevicePoolSize},
		Seed:          seed,
	})

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.RunInfo{
			RunID:         runID,
			ContactPoints: cfg.ContactPoints,
			Keyspace:      cfg.Keyspace,
			Consistency:   cfg.Consistency,
			Workers:       cfg.Threads,
			Duration:      cfg.Duration,
			WriteRatio:    cfg.WriteRatio,
			Rate:          cfg.Rate,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(collector, progressInterval, os.Stdout)
		progress.Start()
	}

	fmt.Fprintf(os.Stderr, "[cqlfire] starting load threads=%d duration=%s write_ratio=%.2f consistency=%s\n",
		cfg.Threads, cfg.Duration, cfg.WriteRatio, cfg.Consistency)

	// Mark the actual start time so reporters compute throughput from
	// when the workers actually began.
	collector.Start()
	result := r.Run(ctx)
	stats := collector.Stats(result.Elapsed)
	stats.RunID = runID

	if dash != nil {
		dash.Stop()
	}
	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stdout)
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, stats); err != nil {
			return err
		}
	} else {
		output.PrintSummary(os.Stdout, stats)
		if cfg.LatencyDetail {
			output.PrintLatencyDetail(os.Stdout, stats)
		}
	}

	if cfg.JSONFile != "" {
		if err := output.WriteJSONFile(cfg.JSONFile, stats); err != nil {
			return err
		}
	}

	// Operation errors are data, not a process failure; only setup
	// issues produce a nonzero exit.
	return nil
}
