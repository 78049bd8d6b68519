package runner

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/torosent/cqlfire/internal/workload"
)

// Result captures execution summary.
type Result struct {
	Total   int64
	Errors  int64
	Elapsed time.Duration
}

// Runner coordinates the worker units sharing one deadline and one
// collector.
type Runner struct {
	opt     Options
	arrival arrivalController
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, arrival: newArrivalController(opt)}
}

// Run starts the configured number of workers and blocks until every one
// of them has stopped, so the caller's snapshot never races a tail
// operation. The returned Elapsed is measured wall time, which can exceed
// the configured duration by at most the longest in-flight operation.
func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()
	var total int64
	var errs int64

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.opt.Duration > 0 {
		deadlineCtx, deadlineCancel := context.WithTimeout(ctx, r.opt.Duration)
		ctx = deadlineCtx
		defer deadlineCancel()
	}

	var wg sync.WaitGroup
	wg.Add(r.opt.Workers)
	for i := 0; i < r.opt.Workers; i++ {
		// Distinct per-worker random stream, no shared lock.
		seed := r.opt.Seed + int64(i)
		go func() {
			defer wg.Done()
			r.worker(ctx, seed, &total, &errs)
		}()
	}
	wg.Wait()

	return Result{
		Total:   atomic.LoadInt64(&total),
		Errors:  atomic.LoadInt64(&errs),
		Elapsed: time.Since(start),
	}
}

// worker runs one operation loop. The deadline is checked once per
// iteration; an operation already handed to the executor always completes
// and is recorded, even if the deadline fires while it is in flight.
func (r *Runner) worker(ctx context.Context, seed int64, total, errs *int64) {
	rnd := rand.New(rand.NewSource(seed))

	// The store call must not be aborted mid-flight by the run deadline;
	// it only observes timeouts internal to the store client.
	opCtx := context.WithoutCancel(ctx)

	for ctx.Err() == nil {
		if r.arrival != nil {
			if err := r.arrival.Wait(ctx); err != nil {
				return
			}
		}

		op := workload.New(rnd, r.opt.Selector, r.opt.Keys)
		res := r.opt.Executor.Execute(opCtx, op)

		atomic.AddInt64(total, 1)
		if res.Err != nil {
			atomic.AddInt64(errs, 1)
		}
		if r.opt.Collector != nil {
			r.opt.Collector.Record(res)
		}
	}
}
