package config

import (
	"fmt"
	"strings"
	"time"
)

// ArrivalModel selects how operation start times are paced when a rate
// limit is configured.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// Config is the immutable description of one load run.
type Config struct {
	// Connection parameters, consumed only during setup.
	ContactPoints []string `mapstructure:"contact_points"`
	Port          int      `mapstructure:"port"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	Keyspace      string   `mapstructure:"keyspace"`

	// Run shape.
	Threads        int           `mapstructure:"threads"`
	Duration       time.Duration `mapstructure:"duration"`
	WriteRatio     float64       `mapstructure:"write_ratio"`
	Consistency    string        `mapstructure:"consistency"`
	DevicePoolSize int           `mapstructure:"device_pool_size"`
	ErrorSampleCap int           `mapstructure:"error_samples"`
	Rate           int           `mapstructure:"rate"`
	Arrival        ArrivalModel  `mapstructure:"arrival_model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Seed           int64         `mapstructure:"seed"`

	// Output.
	JSONOutput    bool   `mapstructure:"json_output"`
	JSONFile      string `mapstructure:"json_file"`
	LatencyDetail bool   `mapstructure:"latency_detail"`
	Dashboard     bool   `mapstructure:"dashboard"`
	LogErrors     bool   `mapstructure:"log_errors"`
	ConfigFile    string `mapstructure:"-"`

	Tracing TracingConfig `mapstructure:"tracing"`
}

// TracingConfig controls optional OTLP span export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
}

var validConsistency = map[string]bool{
	"ONE":          true,
	"QUORUM":       true,
	"LOCAL_QUORUM": true,
	"ALL":          true,
}

// ValidationError carries every configuration issue found in one pass.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if len(c.ContactPoints) == 0 {
		issues = append(issues, "at least one contact point is required")
	}
	for _, cp := range c.ContactPoints {
		if strings.TrimSpace(cp) == "" {
			issues = append(issues, "contact points must not be empty strings")
			break
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		issues = append(issues, "port must be in [1, 65535]")
	}
	if strings.TrimSpace(c.Keyspace) == "" {
		issues = append(issues, "keyspace is required")
	}
	if c.Threads < 1 {
		issues = append(issues, "threads must be >= 1")
	}
	if c.Duration <= 0 {
		issues = append(issues, "duration must be > 0")
	}
	if c.WriteRatio < 0 || c.WriteRatio > 1 {
		issues = append(issues, "write ratio must be in [0, 1]")
	}
	if !validConsistency[c.Consistency] {
		issues = append(issues, fmt.Sprintf("consistency %q is not supported (use ONE, QUORUM, LOCAL_QUORUM or ALL)", c.Consistency))
	}
	if c.DevicePoolSize < 1 {
		issues = append(issues, "device pool size must be >= 1")
	}
	if c.ErrorSampleCap < 0 {
		issues = append(issues, "error samples must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	switch c.Arrival {
	case "", ArrivalModelUniform, ArrivalModelPoisson:
	default:
		issues = append(issues, fmt.Sprintf("arrival model %q is not supported", c.Arrival))
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		issues = append(issues, "tracing sample_rate must be in [0, 1]")
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
