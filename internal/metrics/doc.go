// Package metrics provides thread-safe aggregation of per-operation
// results during a load run.
//
// The central [Collector] type is shared by every worker:
//
//	collector := metrics.NewCollector(5)
//	collector.Start() // mark run start for accurate ops/sec
//
//	collector.Record(metrics.Result{Kind: workload.Write, Latency: lat, Err: err})
//
//	stats := collector.Stats(elapsed)
//
// Counters split by operation kind (reads vs. writes) with separate error
// counts and latency sums, backed by one HdrHistogram per kind for
// percentile detail. A bounded buffer keeps the first K error messages in
// completion order; later errors are counted but not sampled.
//
// All mutation is funneled through a single mutex, so recording from any
// number of goroutines loses no updates and never double-counts. The
// final Stats snapshot is consistent as long as it is taken after all
// workers have stopped.
package metrics
