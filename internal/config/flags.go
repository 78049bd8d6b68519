package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cqlfire",
		Short:         "Concurrent read/write load generator for Cassandra",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set. Every
// load-shape flag has an environment variable counterpart; flags win.
func configureFlags(flags *pflag.FlagSet) {
	// Connection flags
	flags.StringSlice("contact-points", []string{"cassandra-node1"}, "Cassandra contact points (env CONTACT_POINTS)")
	flags.Int("port", 9042, "Cassandra native protocol port (env PORT)")
	flags.String("username", "", "Cassandra username (env CASSANDRA_USERNAME)")
	flags.String("password", "", "Cassandra password (env CASSANDRA_PASSWORD)")
	flags.String("keyspace", "test_scaling", "Target keyspace (env KEYSPACE)")
	flags.Duration("timeout", 10*time.Second, "Per-query driver timeout")

	// Load shape flags
	flags.IntP("threads", "c", 16, "Number of concurrent workers (env NUM_THREADS)")
	flags.DurationP("duration", "d", 60*time.Second, "How long to run the test (env DURATION_SECONDS)")
	flags.Float64("write-ratio", 0.5, "Fraction of operations that are writes, in [0,1] (env WRITE_RATIO)")
	flags.String("consistency", "ONE", "Consistency level: ONE, QUORUM, LOCAL_QUORUM or ALL (env CONSISTENCY)")
	flags.Int("device-pool", 100, "Number of distinct device identifiers (env DEVICE_POOL_SIZE)")
	flags.Int("error-samples", 5, "Max raw error messages kept for the summary (env ERROR_LOG_LIMIT)")
	flags.IntP("rate", "r", 0, "Operations per second limit across all workers (0 means unlimited)")
	flags.String("arrival-model", string(ArrivalModelUniform), "Arrival model when pacing operations (uniform or poisson)")
	flags.Int64("seed", 0, "Random seed for the workload (0 means time-based)")

	// Output flags
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.String("json-file", "", "Also write the JSON report to this file")
	flags.Bool("latency-detail", false, "Append latency percentiles and error breakdown to the summary")
	flags.Bool("dashboard", false, "Show live terminal dashboard")
	flags.Bool("log-errors", false, "Log each failed operation to stderr")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.Bool("trace", false, "Enable OpenTelemetry span export for store operations")
	flags.String("trace-endpoint", "", "OTLP endpoint (defaults to OTEL_EXPORTER_OTLP_ENDPOINT)")
	flags.String("trace-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("trace-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("trace-sample-rate", 1.0, "Trace sampling rate in [0,1]")
}

func displayHelp(cmd *cobra.Command) {
	fmt.Fprintln(cmd.OutOrStdout(), cmd.Short)
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "Usage:")
	fmt.Fprintf(cmd.OutOrStdout(), "  %s [flags]\n\n", cmd.Use)
	fmt.Fprintln(cmd.OutOrStdout(), "Flags:")
	fmt.Fprintln(cmd.OutOrStdout(), cmd.Flags().FlagUsages())
}
