package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/cqlfire/internal/metrics"
	"github.com/torosent/cqlfire/internal/workload"
)

// Executor abstracts executing a single store operation. Implementations
// convert every failure into the returned Result; they never panic and
// never return control any other way.
type Executor interface {
	Execute(ctx context.Context, op workload.Operation) metrics.Result
}

// ArrivalModel selects how operation start times are distributed when a
// rate limit is configured.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// Options configure the Runner.
type Options struct {
	Workers       int           // number of worker goroutines
	Duration      time.Duration // run length; the shared deadline
	RatePerSecond int           // operations per second pacing (0 means unlimited)
	ArrivalModel  ArrivalModel
	Executor      Executor           // operation executor (required)
	Collector     *metrics.Collector // shared aggregator (required)
	Selector      workload.Selector
	Keys          workload.Keys
	Seed          int64 // workload seed (0 means time-based)

	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
	PoissonSampler func() float64              // optional injection for tests
}

func (o *Options) normalize() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.Keys.PoolSize <= 0 {
		o.Keys.PoolSize = 1
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
