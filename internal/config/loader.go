package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from the environment, optional
// config files and command-line arguments. Precedence: flags over
// environment over config file over defaults.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// flagBindings maps viper keys to flag names.
var flagBindings = map[string]string{
	"contact_points":      "contact-points",
	"port":                "port",
	"username":            "username",
	"password":            "password",
	"keyspace":            "keyspace",
	"timeout":             "timeout",
	"threads":             "threads",
	"duration":            "duration",
	"write_ratio":         "write-ratio",
	"consistency":         "consistency",
	"device_pool_size":    "device-pool",
	"error_samples":       "error-samples",
	"rate":                "rate",
	"arrival_model":       "arrival-model",
	"seed":                "seed",
	"json_output":         "json-output",
	"json_file":           "json-file",
	"latency_detail":      "latency-detail",
	"dashboard":           "dashboard",
	"log_errors":          "log-errors",
	"tracing.enabled":     "trace",
	"tracing.endpoint":    "trace-endpoint",
	"tracing.protocol":    "trace-protocol",
	"tracing.insecure":    "trace-insecure",
	"tracing.sample_rate": "trace-sample-rate",
}

// Load parses command-line arguments, the environment and an optional
// configuration file to produce a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flags := cmd.Flags()
	if helpFlag := flags.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	v := viper.New()
	configPath := flags.Lookup("config").Value.String()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	bindEnvVars(v)
	for key, name := range flagBindings {
		flag := flags.Lookup(name)
		if flag == nil {
			return nil, fmt.Errorf("flag %q is not registered", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, err
		}
	}

	duration, err := parseDurationSetting(v.GetString("duration"))
	if err != nil {
		return nil, fmt.Errorf("duration: %w", err)
	}
	timeout, err := parseDurationSetting(v.GetString("timeout"))
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}

	cfg := &Config{
		ContactPoints:  contactPointList(v.Get("contact_points")),
		Port:           v.GetInt("port"),
		Username:       v.GetString("username"),
		Password:       v.GetString("password"),
		Keyspace:       strings.TrimSpace(v.GetString("keyspace")),
		Timeout:        timeout,
		Threads:        v.GetInt("threads"),
		Duration:       duration,
		WriteRatio:     v.GetFloat64("write_ratio"),
		Consistency:    strings.ToUpper(strings.TrimSpace(v.GetString("consistency"))),
		DevicePoolSize: v.GetInt("device_pool_size"),
		ErrorSampleCap: v.GetInt("error_samples"),
		Rate:           v.GetInt("rate"),
		Arrival:        ArrivalModel(strings.ToLower(strings.TrimSpace(v.GetString("arrival_model")))),
		Seed:           v.GetInt64("seed"),
		JSONOutput:     v.GetBool("json_output"),
		JSONFile:       strings.TrimSpace(v.GetString("json_file")),
		LatencyDetail:  v.GetBool("latency_detail"),
		Dashboard:      v.GetBool("dashboard"),
		LogErrors:      v.GetBool("log_errors"),
		ConfigFile:     configPath,
		Tracing: TracingConfig{
			Enabled:     v.GetBool("tracing.enabled"),
			Endpoint:    strings.TrimSpace(v.GetString("tracing.endpoint")),
			Protocol:    strings.ToLower(strings.TrimSpace(v.GetString("tracing.protocol"))),
			Insecure:    v.GetBool("tracing.insecure"),
			SampleRate:  v.GetFloat64("tracing.sample_rate"),
			ServiceName: strings.TrimSpace(v.GetString("tracing.service_name")),
		},
	}

	return cfg, nil
}

// bindEnvVars wires the environment surface. KEYSPACE, CONTACT_POINTS
// and PORT also accept their CASSANDRA_-prefixed spellings.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("threads", "NUM_THREADS")
	_ = v.BindEnv("duration", "DURATION_SECONDS")
	_ = v.BindEnv("write_ratio", "WRITE_RATIO")
	_ = v.BindEnv("consistency", "CONSISTENCY")
	_ = v.BindEnv("keyspace", "KEYSPACE", "CASSANDRA_KEYSPACE")
	_ = v.BindEnv("contact_points", "CONTACT_POINTS", "CASSANDRA_CONTACT_POINTS")
	_ = v.BindEnv("port", "PORT", "CASSANDRA_PORT")
	_ = v.BindEnv("username", "CASSANDRA_USERNAME")
	_ = v.BindEnv("password", "CASSANDRA_PASSWORD")
	_ = v.BindEnv("device_pool_size", "DEVICE_POOL_SIZE")
	_ = v.BindEnv("error_samples", "ERROR_LOG_LIMIT")
}

// parseDurationSetting accepts Go duration strings ("90s", "2m") as well
// as bare integers, which are taken as seconds (DURATION_SECONDS=60).
func parseDurationSetting(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}

// contactPointList normalizes the contact point setting: flags provide a
// slice, environment variables a comma-separated string.
func contactPointList(raw interface{}) []string {
	var parts []string
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		parts = v
	case []interface{}:
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
	case string:
		parts = strings.Split(v, ",")
	default:
		parts = strings.Split(fmt.Sprint(v), ",")
	}

	points := make([]string, 0, len(parts))
	for _, p := range parts {
		// Flag values may arrive as a single "a,b" element.
		for _, sub := range strings.Split(p, ",") {
			if trimmed := strings.TrimSpace(sub); trimmed != "" {
				points = append(points, trimmed)
			}
		}
	}
	return points
}
