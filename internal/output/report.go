// Package output renders run results: the plain-text summary, the JSON
// report and the live progress line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/gofrs/flock"

	"github.com/torosent/cqlfire/internal/metrics"
)

// PrintSummary outputs the human-readable run summary. The base shape is
// fixed; error samples are appended when any were captured.
func PrintSummary(w io.Writer, stats metrics.Stats) {
	fmt.Fprintln(w, "\n=== Load Test Summary ===")
	fmt.Fprintf(w, "Total operations: %d\n", stats.TotalOps)
	fmt.Fprintf(w, "  Writes: %d (errors=%d)\n", stats.Writes, stats.WriteErrors)
	fmt.Fprintf(w, "  Reads : %d (errors=%d)\n", stats.Reads, stats.ReadErrors)
	fmt.Fprintf(w, "Throughput: %.1f ops/sec\n", stats.Throughput)
	if stats.Writes > 0 {
		fmt.Fprintf(w, "Avg write latency: %.2f ms\n", stats.AvgWriteLatencyMs)
	}
	if stats.Reads > 0 {
		fmt.Fprintf(w, "Avg read latency : %.2f ms\n", stats.AvgReadLatencyMs)
	}

	if len(stats.ErrorSamples) > 0 {
		fmt.Fprintln(w, "\nSample errors:")
		for _, sample := range stats.ErrorSamples {
			fmt.Fprintf(w, "  %s\n", sample)
		}
	}
}

// PrintLatencyDetail appends percentiles and the error breakdown to the
// summary.
func PrintLatencyDetail(w io.Writer, stats metrics.Stats) {
	fmt.Fprintln(w, "\nLatency detail:")
	fmt.Fprintf(w, "  Write share:     %.1f%%\n", stats.WriteShare*100)
	if stats.Writes > 0 {
		fmt.Fprintf(w, "  Write P50:       %s\n", stats.WriteP50Latency)
		fmt.Fprintf(w, "  Write P90:       %s\n", stats.WriteP90Latency)
		fmt.Fprintf(w, "  Write P99:       %s\n", stats.WriteP99Latency)
	}
	if stats.Reads > 0 {
		fmt.Fprintf(w, "  Read P50:        %s\n", stats.ReadP50Latency)
		fmt.Fprintf(w, "  Read P90:        %s\n", stats.ReadP90Latency)
		fmt.Fprintf(w, "  Read P99:        %s\n", stats.ReadP99Latency)
	}

	if len(stats.Errors) > 0 {
		fmt.Fprintln(w, "\nError breakdown:")
		types := make([]string, 0, len(stats.Errors))
		for errType := range stats.Errors {
			types = append(types, errType)
		}
		sort.Slice(types, func(i, j int) bool {
			if stats.Errors[types[i]] == stats.Errors[types[j]] {
				return types[i] < types[j]
			}
			return stats.Errors[types[i]] > stats.Errors[types[j]]
		})
		for _, errType := range types {
			fmt.Fprintf(w, "  %s: %d\n", metrics.FriendlyErrorName(errType), stats.Errors[errType])
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, stats metrics.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// WriteJSONFile writes the JSON report to path under an advisory file
// lock, so concurrent runs pointed at the same path don't interleave.
func WriteJSONFile(path string, stats metrics.Stats) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock report file: %w", err)
	}
	defer lock.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := PrintJSONReport(f, stats); err != nil {
		f.Close()
		return fmt.Errorf("write report file: %w", err)
	}
	return f.Close()
}
