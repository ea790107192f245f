package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ittapi/version"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Domains             []string          `json:"domains" env:"ITTPROBE_DOMAINS" envSeparator:","`
	CollectorPath       string            `json:"collector_path" env:"ITTPROBE_COLLECTOR"`
	LogLevel            string            `json:"log_level" env:"ITTPROBE_LOG_LEVEL"`
	OutputFileName      string            `json:"output_file_name" env:"ITTPROBE_OUTPUT"`
	CollectSystemInfo   bool              `json:"collect_system_info"`
	ConfigFile          string            `json:"config_file"`
	OtelEndpoint        string            `json:"otel_endpoint"`
	OtelFromEnv         bool              `json:"otel_from_env"`
	OtelHeaders         map[string]string `json:"otel_headers"`
	OtelServiceName     string            `json:"otel_service_name"`
	OtelTimeout         time.Duration     `json:"otel_timeout"`
	TraceFile           string            `json:"trace_file"`
	TraceFlight         bool              `json:"trace_flight"`
	TraceFlightFile     string            `json:"trace_flight_file"`
	TraceFlightMaxBytes uint64            `json:"trace_flight_max_bytes"`
	TraceFlightMinAge   time.Duration     `json:"trace_flight_min_age"`
}

// Default returns the configuration used before env, file and flags apply.
func Default() *Config {
	now := time.Now().UTC()
	return &Config{
		Domains:             []string{"ittprobe"},
		LogLevel:            "info",
		OutputFileName:      fmt.Sprintf("ittprobe-%s-%d.ndjson", now.Format("20060102-150405"), now.Unix()),
		CollectSystemInfo:   true,
		OtelHeaders:         map[string]string{},
		OtelServiceName:     "ittprobe",
		OtelTimeout:         5 * time.Second,
		TraceFile:           "trace.out",
		TraceFlightFile:     "trace-flight.out",
		TraceFlightMaxBytes: 0,
		TraceFlightMinAge:   0,
	}
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func LoadConfig() (*Config, error) {
	cfg := Default()
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}

	domains := flag.String("domains", strings.Join(cfg.Domains, ","), fmt.Sprintf("Comma-separated list of domain names to create (default: %s).", strings.Join(cfg.Domains, ",")))
	collector := flag.String("collector", cfg.CollectorPath, "Path to an ITT collector library; overrides INTEL_LIBITTNOTIFY64/32 (default: none).")
	logLevel := flag.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: trace, debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	output := flag.String("output", cfg.OutputFileName, "Report file name (default: ittprobe-<timestamp>-<unix>.ndjson).")
	collectSystemInfo := flag.Bool("collect-system-info", cfg.CollectSystemInfo, fmt.Sprintf("Include host information in the report (default: %t).", cfg.CollectSystemInfo))
	configFile := flag.String("config", "", "Path to a JSON configuration file.")
	otelEndpoint := flag.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP logs endpoint, e.g. http://localhost:4318/v1/logs (default: disabled).")
	otelFromEnv := flag.Bool("otel-from-env", cfg.OtelFromEnv, "Read the OTLP endpoint from OTEL_EXPORTER_OTLP_* variables (default: false).")
	otelHeaders := flag.String("otel-headers", "", "Comma-separated key=value headers for OTLP export.")
	otelServiceName := flag.String("otel-service-name", cfg.OtelServiceName, fmt.Sprintf("Service name reported to OTLP (default: %s).", cfg.OtelServiceName))
	otelTimeout := flag.Duration("otel-timeout", cfg.OtelTimeout, fmt.Sprintf("OTLP export timeout (default: %s).", cfg.OtelTimeout))
	traceFile := flag.String("trace-file", cfg.TraceFile, "Runtime trace output when built with -tags trace (default: trace.out).")
	traceFlight := flag.Bool("trace-flight", cfg.TraceFlight, "Enable the runtime trace flight recorder (default: false).")
	traceFlightFile := flag.String("trace-flight-file", cfg.TraceFlightFile, fmt.Sprintf("Flight recorder output file (default: %s).", cfg.TraceFlightFile))
	traceFlightMaxBytes := flag.Uint64("trace-flight-max-bytes", cfg.TraceFlightMaxBytes, "Flight recorder window size in bytes (default: 0/runtime default).")
	traceFlightMinAge := flag.Duration("trace-flight-min-age", cfg.TraceFlightMinAge, "Flight recorder minimum window age (default: 0/runtime default).")
	showVersion := flag.Bool("version", false, "Print version and exit.")

	flag.Usage = displayHelp
	flag.Parse()

	if *showVersion {
		fmt.Printf("ittprobe version %s\n", version.Version)
		os.Exit(0)
	}

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "domains":
			cfg.Domains = parseCommaSeparated(*domains)
		case "collector":
			cfg.CollectorPath = strings.TrimSpace(*collector)
		case "log-level":
			cfg.LogLevel = *logLevel
		case "output":
			cfg.OutputFileName = *output
		case "collect-system-info":
			cfg.CollectSystemInfo = *collectSystemInfo
		case "otel-endpoint":
			cfg.OtelEndpoint = strings.TrimSpace(*otelEndpoint)
		case "otel-from-env":
			cfg.OtelFromEnv = *otelFromEnv
		case "otel-headers":
			cfg.OtelHeaders = parseHeaders(*otelHeaders)
		case "otel-service-name":
			cfg.OtelServiceName = strings.TrimSpace(*otelServiceName)
		case "otel-timeout":
			cfg.OtelTimeout = *otelTimeout
		case "trace-file":
			cfg.TraceFile = *traceFile
		case "trace-flight":
			cfg.TraceFlight = *traceFlight
		case "trace-flight-file":
			cfg.TraceFlightFile = *traceFlightFile
		case "trace-flight-max-bytes":
			cfg.TraceFlightMaxBytes = *traceFlightMaxBytes
		case "trace-flight-min-age":
			cfg.TraceFlightMinAge = *traceFlightMinAge
		}
	})
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.OtelServiceName == "" {
		cfg.OtelServiceName = "ittprobe"
	}
	if cfg.TraceFlight && cfg.TraceFlightFile == "" {
		cfg.TraceFlightFile = "trace-flight.out"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func displayHelp() {
	fmt.Println("ittprobe - create ITT domains and report collector status")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ittprobe [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ittprobe --domains \"Company.Product.Module\"")
	fmt.Println("  INTEL_LIBITTNOTIFY64=/opt/intel/vtune/lib64/runtime/libittnotify_collector.so ittprobe")
	fmt.Println("  ittprobe --collector ./libittnotify_refcol.so --domains a,b --otel-endpoint http://localhost:4318/v1/logs")
}

func (cfg *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config file format: %w", err)
	}
	return nil
}

func (cfg *Config) validate() error {
	if len(cfg.Domains) == 0 {
		return fmt.Errorf("at least one domain name is required")
	}
	for _, name := range cfg.Domains {
		if strings.IndexByte(name, 0) >= 0 {
			return fmt.Errorf("invalid domain name %q: contains a 0 byte", name)
		}
	}
	if cfg.OutputFileName == "" {
		return fmt.Errorf("output file name is required")
	}
	if cfg.TraceFlightMinAge < 0 {
		return fmt.Errorf("trace-flight-min-age must be zero or positive")
	}
	if cfg.OtelTimeout < 0 {
		return fmt.Errorf("otel-timeout must be zero or positive")
	}
	if cfg.OtelEndpoint != "" {
		if !strings.HasPrefix(cfg.OtelEndpoint, "http://") && !strings.HasPrefix(cfg.OtelEndpoint, "https://") {
			return fmt.Errorf("otel-endpoint must include scheme (http or https)")
		}
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	return nil
}

func parseCommaSeparated(input string) []string {
	if input == "" {
		return []string{}
	}
	items := strings.Split(input, ",")
	out := items[:0]
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func parseHeaders(input string) map[string]string {
	headers := make(map[string]string)
	if input == "" {
		return headers
	}
	items := strings.Split(input, ",")
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		headers[key] = value
	}
	return headers
}
