package runner_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/cqlfire/internal/metrics"
	"github.com/torosent/cqlfire/internal/runner"
	"github.com/torosent/cqlfire/internal/workload"
)

// fakeExecutor simulates a store adapter with fixed latency.
type fakeExecutor struct {
	latency time.Duration
	err     error
	calls   int64
}

func (f *fakeExecutor) Execute(ctx context.Context, op workload.Operation) metrics.Result {
	atomic.AddInt64(&f.calls, 1)
	if f.latency > 0 {
		time.Sleep(f.latency)
	}
	return metrics.Result{Kind: op.Kind, Latency: f.latency, Err: f.err}
}

// TestRunnerHonorsDuration ensures the shared deadline stops all workers
// within the run length plus the longest in-flight operation.
func TestRunnerHonorsDuration(t *testing.T) {
	exec := &fakeExecutor{latency: 5 * time.Millisecond}
	collector := metrics.NewCollector(5)
	r := runner.New(runner.Options{
		Workers:   10,
		Duration:  50 * time.Millisecond,
		Executor:  exec,
		Collector: collector,
		Selector:  workload.Selector{WriteRatio: 0.5},
		Keys:      workload.Keys{PoolSize: 100},
		Seed:      1,
	})

	start := time.Now()
	res := r.Run(context.Background())
	elapsed := time.Since(start)

	if elapsed < 50*time.Millisecond || elapsed > 250*time.Millisecond {
		// allow some scheduling fudge but not extremely off
		t.Fatalf("duration enforcement off: %s", elapsed)
	}
	if res.Elapsed <= 0 {
		t.Fatal("result elapsed not recorded")
	}
	if res.Total <= 0 {
		t.Fatal("expected some operations executed")
	}
}

// TestRunnerConservation checks that every completed operation is
// recorded exactly once: the runner's own count, the executor's call
// count and the collector totals all agree.
func TestRunnerConservation(t *testing.T) {
	exec := &fakeExecutor{latency: time.Millisecond}
	collector := metrics.NewCollector(5)
	r := runner.New(runner.Options{
		Workers:   4,
		Duration:  100 * time.Millisecond,
		Executor:  exec,
		Collector: collector,
		Selector:  workload.Selector{WriteRatio: 0.5},
		Keys:      workload.Keys{PoolSize: 100},
		Seed:      1,
	})

	res := r.Run(context.Background())
	stats := collector.Stats(res.Elapsed)

	if stats.TotalOps != res.Total {
		t.Fatalf("collector counted %d, runner counted %d", stats.TotalOps, res.Total)
	}
	if calls := atomic.LoadInt64(&exec.calls); calls != res.Total {
		t.Fatalf("executor called %d times, runner counted %d", calls, res.Total)
	}
	if stats.Writes+stats.Reads != stats.TotalOps {
		t.Fatalf("kind split %d+%d does not add up to %d", stats.Writes, stats.Reads, stats.TotalOps)
	}
}

// TestRunnerAllSuccesses mirrors a healthy cluster: fixed latency, no
// errors, balanced ratio.
func TestRunnerAllSuccesses(t *testing.T) {
	exec := &fakeExecutor{latency: 10 * time.Millisecond}
	collector := metrics.NewCollector(5)
	r := runner.New(runner.Options{
		Workers:   4,
		Duration:  200 * time.Millisecond,
		Executor:  exec,
		Collector: collector,
		Selector:  workload.Selector{WriteRatio: 0.5},
		Keys:      workload.Keys{PoolSize: 100},
		Seed:      1,
	})

	res := r.Run(context.Background())
	stats := collector.Stats(res.Elapsed)

	if res.Errors != 0 || stats.WriteErrors != 0 || stats.ReadErrors != 0 {
		t.Fatalf("unexpected errors: %+v", stats)
	}
	if stats.Writes > 0 && (stats.AvgWriteLatencyMs < 9 || stats.AvgWriteLatencyMs > 12) {
		t.Fatalf("avg write latency %.2fms, want ~10", stats.AvgWriteLatencyMs)
	}
	if stats.Reads > 0 && (stats.AvgReadLatencyMs < 9 || stats.AvgReadLatencyMs > 12) {
		t.Fatalf("avg read latency %.2fms, want ~10", stats.AvgReadLatencyMs)
	}
}

// TestRunnerAllFailures mirrors a full outage: every operation errors,
// errors equal totals, samples capped at the configured limit.
func TestRunnerAllFailures(t *testing.T) {
	exec := &fakeExecutor{latency: time.Millisecond, err: errors.New("no replicas available")}
	collector := metrics.NewCollector(5)
	r := runner.New(runner.Options{
		Workers:   4,
		Duration:  100 * time.Millisecond,
		Executor:  exec,
		Collector: collector,
		Selector:  workload.Selector{WriteRatio: 0.5},
		Keys:      workload.Keys{PoolSize: 100},
		Seed:      1,
	})

	res := r.Run(context.Background())
	stats := collector.Stats(res.Elapsed)

	if stats.WriteErrors != stats.Writes {
		t.Fatalf("write errors %d != writes %d", stats.WriteErrors, stats.Writes)
	}
	if stats.ReadErrors != stats.Reads {
		t.Fatalf("read errors %d != reads %d", stats.ReadErrors, stats.Reads)
	}
	if res.Errors != res.Total {
		t.Fatalf("runner errors %d != total %d", res.Errors, res.Total)
	}

	wantSamples := int64(5)
	if res.Total < wantSamples {
		wantSamples = res.Total
	}
	if int64(len(stats.ErrorSamples)) != wantSamples {
		t.Fatalf("got %d error samples, want %d", len(stats.ErrorSamples), wantSamples)
	}
}

// TestRunnerZeroWriteRatio ensures a pure-read run never writes.
func TestRunnerZeroWriteRatio(t *testing.T) {
	exec := &fakeExecutor{}
	collector := metrics.NewCollector(5)
	r := runner.New(runner.Options{
		Workers:   4,
		Duration:  50 * time.Millisecond,
		Executor:  exec,
		Collector: collector,
		Selector:  workload.Selector{WriteRatio: 0},
		Keys:      workload.Keys{PoolSize: 100},
		Seed:      1,
	})

	res := r.Run(context.Background())
	stats := collector.Stats(res.Elapsed)

	if stats.Writes != 0 {
		t.Fatalf("writes %d with zero write ratio", stats.Writes)
	}
	if stats.Reads == 0 {
		t.Fatal("expected some reads")
	}
}

// TestRateLimiterCapsThroughput ensures the rate limiter restricts the
// overall operation rate.
func TestRateLimiterCapsThroughput(t *testing.T) {
	rateLimit := 100 // operations per second theoretical maximum
	duration := 100 * time.Millisecond

	exec := &fakeExecutor{}
	collector := metrics.NewCollector(5)
	r := runner.New(runner.Options{
		Workers:       20,
		Duration:      duration,
		RatePerSecond: rateLimit,
		Executor:      exec,
		Collector:     collector,
		Selector:      workload.Selector{WriteRatio: 0.5},
		Keys:          workload.Keys{PoolSize: 100},
		Seed:          1,
		LimiterFactory: func(rps int) *rate.Limiter {
			return rate.NewLimiter(rate.Limit(rps), 1)
		},
	})

	res := r.Run(context.Background())

	// expected upper bound ~ rateLimit * (duration seconds), plus the
	// initial burst token and some slack
	maxExpected := int64(float64(rateLimit)*(float64(duration)/float64(time.Second))*1.20) + 1
	if res.Total > maxExpected {
		t.Fatalf("rate limiter exceeded: total=%d max=%d", res.Total, maxExpected)
	}
}

// TestRunnerStopsOnCancel checks a canceled parent context ends the run
// even without a configured duration.
func TestRunnerStopsOnCancel(t *testing.T) {
	exec := &fakeExecutor{latency: time.Millisecond}
	collector := metrics.NewCollector(5)
	r := runner.New(runner.Options{
		Workers:   4,
		Executor:  exec,
		Collector: collector,
		Selector:  workload.Selector{WriteRatio: 0.5},
		Keys:      workload.Keys{PoolSize: 100},
		Seed:      1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	done := make(chan runner.Result, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case res := <-done:
		if res.Total == 0 {
			t.Fatal("expected some operations before cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

// TestWithLogging verifies only failures reach the logger.
func TestWithLogging(t *testing.T) {
	var logged int64
	logger := failureCounter{count: &logged}

	fail := runner.WithLogging(&fakeExecutor{err: errors.New("boom")}, logger)
	ok := runner.WithLogging(&fakeExecutor{}, logger)

	fail.Execute(context.Background(), workload.Operation{Kind: workload.Write})
	ok.Execute(context.Background(), workload.Operation{Kind: workload.Read})

	if atomic.LoadInt64(&logged) != 1 {
		t.Fatalf("logged %d failures, want 1", logged)
	}
}

type failureCounter struct {
	count *int64
}

func (f failureCounter) LogFailure(err error) {
	if err != nil {
		atomic.AddInt64(f.count, 1)
	}
}
