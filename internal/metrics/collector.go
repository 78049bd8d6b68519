package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/cqlfire/internal/workload"
)

// DefaultSampleCap bounds how many raw error messages are retained.
const DefaultSampleCap = 5

// Result is the outcome of a single store operation, produced by the
// adapter and consumed exactly once by the collector.
type Result struct {
	Kind    workload.Kind
	Latency time.Duration
	Err     error
}

// Collector aggregates per-operation results from all workers. It is the
// only mutable state shared across the run; every mutation goes through
// the mutex so concurrent increments are never lost.
type Collector struct {
	mu              sync.Mutex
	writes          int64
	writeErrors     int64
	reads           int64
	readErrors      int64
	writeLatencySum time.Duration
	readLatencySum  time.Duration
	writeHist       *hdrhistogram.Histogram
	readHist        *hdrhistogram.Histogram
	errorsByType    map[string]int64
	samples         []string
	sampleCap       int
	start           time.Time
}

// Stats is a consistent point-in-time summary derived from the counters.
type Stats struct {
	RunID       string `json:"run_id,omitempty"`
	TotalOps    int64  `json:"total_ops"`
	Writes      int64  `json:"writes"`
	WriteErrors int64  `json:"write_errors"`
	Reads       int64  `json:"reads"`
	ReadErrors  int64  `json:"read_errors"`

	Throughput float64 `json:"ops_per_sec"`
	WriteShare float64 `json:"write_share"`

	AvgWriteLatency time.Duration `json:"-"`
	AvgReadLatency  time.Duration `json:"-"`
	WriteP50Latency time.Duration `json:"-"`
	WriteP90Latency time.Duration `json:"-"`
	WriteP99Latency time.Duration `json:"-"`
	ReadP50Latency  time.Duration `json:"-"`
	ReadP90Latency  time.Duration `json:"-"`
	ReadP99Latency  time.Duration `json:"-"`
	Duration        time.Duration `json:"-"`

	// JSON-friendly millisecond fields.
	AvgWriteLatencyMs float64 `json:"avg_write_latency_ms"`
	AvgReadLatencyMs  float64 `json:"avg_read_latency_ms"`
	WriteP99LatencyMs float64 `json:"write_p99_latency_ms"`
	ReadP99LatencyMs  float64 `json:"read_p99_latency_ms"`
	DurationMs        float64 `json:"duration_ms"`

	ErrorSamples []string       `json:"error_samples,omitempty"`
	Errors       map[string]int `json:"errors,omitempty"`
}

// NewCollector creates a collector retaining at most sampleCap raw error
// messages. A negative sampleCap falls back to DefaultSampleCap.
func NewCollector(sampleCap int) *Collector {
	if sampleCap < 0 {
		sampleCap = DefaultSampleCap
	}
	// Track latencies from 1µs up to 60s with 3 significant figures.
	return &Collector{
		writeHist:    hdrhistogram.New(1, 60_000_000, 3),
		readHist:     hdrhistogram.New(1, 60_000_000, 3),
		errorsByType: make(map[string]int64),
		samples:      make([]string, 0, sampleCap),
		sampleCap:    sampleCap,
		start:        time.Now(),
	}
}

// Start marks the actual test start for accurate throughput calculation
// by reporters that were created before the run began.
func (c *Collector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Elapsed returns the time since the collector was started.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

// Record applies one operation result. Each result increments exactly one
// (kind, outcome) counter pair; the latency contributes to its kind's sum
// whether the operation succeeded or failed.
func (c *Collector) Record(res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch res.Kind {
	case workload.Write:
		c.writes++
		c.writeLatencySum += res.Latency
		c.recordLatency(c.writeHist, res.Latency)
		if res.Err != nil {
			c.writeErrors++
		}
	default:
		c.reads++
		c.readLatencySum += res.Latency
		c.recordLatency(c.readHist, res.Latency)
		if res.Err != nil {
			c.readErrors++
		}
	}

	if res.Err == nil {
		return
	}

	errorType := fmt.Sprintf("%T", res.Err)
	if len(errorType) > 30 {
		errorType = errorType[len(errorType)-30:]
	}
	c.errorsByType[errorType]++

	// First-K policy: once the buffer is full, later errors are counted
	// but no longer sampled.
	if len(c.samples) < c.sampleCap {
		c.samples = append(c.samples, fmt.Sprintf("[%s] %v", res.Kind, res.Err))
	}
}

func (c *Collector) recordLatency(h *hdrhistogram.Histogram, latency time.Duration) {
	if latency <= 0 {
		return
	}
	us := latency.Microseconds()
	if us < h.LowestTrackableValue() {
		us = h.LowestTrackableValue()
	}
	if us > h.HighestTrackableValue() {
		us = h.HighestTrackableValue()
	}
	_ = h.RecordValue(us)
}

// Stats computes the aggregated summary for the given elapsed wall time.
// The final snapshot must only be taken after every worker has stopped;
// the coordinator's wait guarantees that.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		TotalOps:    c.writes + c.reads,
		Writes:      c.writes,
		WriteErrors: c.writeErrors,
		Reads:       c.reads,
		ReadErrors:  c.readErrors,
		Duration:    elapsed,
		DurationMs:  float64(elapsed) / float64(time.Millisecond),
	}

	if elapsed > 0 && stats.TotalOps > 0 {
		stats.Throughput = float64(stats.TotalOps) / elapsed.Seconds()
	}
	if stats.TotalOps > 0 {
		stats.WriteShare = float64(c.writes) / float64(stats.TotalOps)
	}
	if c.writes > 0 {
		stats.AvgWriteLatency = time.Duration(int64(c.writeLatencySum) / c.writes)
	}
	if c.reads > 0 {
		stats.AvgReadLatency = time.Duration(int64(c.readLatencySum) / c.reads)
	}
	if c.writeHist.TotalCount() > 0 {
		stats.WriteP50Latency = time.Duration(c.writeHist.ValueAtQuantile(50)) * time.Microsecond
		stats.WriteP90Latency = time.Duration(c.writeHist.ValueAtQuantile(90)) * time.Microsecond
		stats.WriteP99Latency = time.Duration(c.writeHist.ValueAtQuantile(99)) * time.Microsecond
	}
	if c.readHist.TotalCount() > 0 {
		stats.ReadP50Latency = time.Duration(c.readHist.ValueAtQuantile(50)) * time.Microsecond
		stats.ReadP90Latency = time.Duration(c.readHist.ValueAtQuantile(90)) * time.Microsecond
		stats.ReadP99Latency = time.Duration(c.readHist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.AvgWriteLatencyMs = float64(stats.AvgWriteLatency) / float64(time.Millisecond)
	stats.AvgReadLatencyMs = float64(stats.AvgReadLatency) / float64(time.Millisecond)
	stats.WriteP99LatencyMs = float64(stats.WriteP99Latency) / float64(time.Millisecond)
	stats.ReadP99LatencyMs = float64(stats.ReadP99Latency) / float64(time.Millisecond)

	if len(c.samples) > 0 {
		stats.ErrorSamples = append([]string(nil), c.samples...)
	}
	if len(c.errorsByType) > 0 {
		stats.Errors = make(map[string]int, len(c.errorsByType))
		for k, v := range c.errorsByType {
			stats.Errors[k] = int(v)
		}
	}

	return stats
}

// ErrorBreakdown returns a copy of the per-error-type counts.
func (c *Collector) ErrorBreakdown() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]int, len(c.errorsByType))
	for k, v := range c.errorsByType {
		result[k] = int(v)
	}
	return result
}
