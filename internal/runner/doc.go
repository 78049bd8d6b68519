// Package runner provides the core load execution engine for cqlfire.
//
// The runner orchestrates concurrent operation execution with support
// for:
//   - Configurable worker counts
//   - A shared run deadline observed cooperatively by every worker
//   - Rate limiting (operations per second)
//   - Multiple arrival models (uniform, Poisson)
//
// # Basic Usage
//
// Create a runner with options and an executor implementation:
//
//	opts := runner.Options{
//		Workers:   16,
//		Duration:  time.Minute,
//		Executor:  adapter,
//		Collector: collector,
//		Selector:  workload.Selector{WriteRatio: 0.5},
//		Keys:      workload.Keys{PoolSize: 100},
//	}
//	r := runner.New(opts)
//	result := r.Run(ctx)
//
// # Executor Interface
//
// The [Executor] interface defines what a worker executes each iteration:
//
//	type Executor interface {
//		Execute(ctx context.Context, op workload.Operation) metrics.Result
//	}
//
// Executors fold every failure into the returned result, so a worker's
// loop only ever stops at the deadline.
//
// # Stopping
//
// Cancellation is cooperative: workers check the deadline once per
// iteration and never abort an operation already in flight. Run blocks
// until every worker has stopped, which is what makes the final
// collector snapshot race-free.
package runner
