package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/c360/boundedring/config"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	Strategy        string
	Capacity        int
	Producers       int
	Consumers       int
	Items           int
	MinDelay        time.Duration
	MaxDelay        time.Duration
	ConsumerMin     time.Duration
	ConsumerMax     time.Duration
	Seed            int64
	MetricsPort     int
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool

	// names of flags given explicitly on the command line
	set   map[string]bool
	usage func()
}

func parseFlags(args []string, output io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{set: make(map[string]bool)}
	defaults := config.Default()

	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(output)

	// Define flags with environment variable fallback
	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("BOUNDEDRING_CONFIG", ""),
		"Path to JSON or YAML configuration file (env: BOUNDEDRING_CONFIG)")

	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("BOUNDEDRING_CONFIG", ""),
		"Path to JSON or YAML configuration file (env: BOUNDEDRING_CONFIG)")

	fs.StringVar(&cfg.Strategy, "strategy", defaults.Buffer.Strategy,
		"Buffer strategy: monitor, permit, both (env: BOUNDEDRING_STRATEGY)")

	fs.IntVar(&cfg.Capacity, "capacity", defaults.Buffer.Capacity,
		"Buffer capacity (env: BOUNDEDRING_CAPACITY)")

	fs.IntVar(&cfg.Producers, "producers", defaults.Workload.Producers,
		"Number of producers (env: BOUNDEDRING_PRODUCERS)")

	fs.IntVar(&cfg.Consumers, "consumers", defaults.Workload.Consumers,
		"Number of consumers (env: BOUNDEDRING_CONSUMERS)")

	fs.IntVar(&cfg.Items, "items", defaults.Workload.ItemsPerProducer,
		"Items produced by each producer (env: BOUNDEDRING_ITEMS)")

	fs.DurationVar(&cfg.MinDelay, "min-delay", defaults.Workload.MinDelay.Std(),
		"Minimum random delay after each put (env: BOUNDEDRING_MIN_DELAY)")

	fs.DurationVar(&cfg.MaxDelay, "max-delay", defaults.Workload.MaxDelay.Std(),
		"Maximum random delay after each put (env: BOUNDEDRING_MAX_DELAY)")

	fs.DurationVar(&cfg.ConsumerMin, "consumer-min-delay", defaults.Workload.ConsumerMinDelay.Std(),
		"Minimum random delay after each take (env: BOUNDEDRING_CONSUMER_MIN_DELAY)")

	fs.DurationVar(&cfg.ConsumerMax, "consumer-max-delay", defaults.Workload.ConsumerMaxDelay.Std(),
		"Maximum random delay after each take (env: BOUNDEDRING_CONSUMER_MAX_DELAY)")

	fs.Int64Var(&cfg.Seed, "seed", defaults.Workload.Seed,
		"Base seed for worker delays, 0 for time-based (env: BOUNDEDRING_SEED)")

	fs.IntVar(&cfg.MetricsPort, "metrics-port", defaults.Metrics.Port,
		"Prometheus metrics port, 0 to disable (env: BOUNDEDRING_METRICS_PORT)")

	fs.StringVar(&cfg.LogLevel, "log-level", defaults.Log.Level,
		"Log level: debug, info, warn, error (env: BOUNDEDRING_LOG_LEVEL)")

	fs.StringVar(&cfg.LogFormat, "log-format", defaults.Log.Format,
		"Log format: json, text (env: BOUNDEDRING_LOG_FORMAT)")

	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("BOUNDEDRING_SHUTDOWN_TIMEOUT", 10*time.Second),
		"Graceful shutdown timeout (env: BOUNDEDRING_SHUTDOWN_TIMEOUT)")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	fs.Usage = func() {
		printDetailedHelp(fs, output)
	}
	cfg.usage = fs.Usage

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		cfg.set[f.Name] = true
	})

	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %s", cfg.ShutdownTimeout)
	}

	return nil
}

// applyTo overrides cfg with every flag given on the command line.
// Flags left at their defaults do not mask file or environment values.
func (c *CLIConfig) applyTo(cfg *config.Config) {
	if c.set["strategy"] {
		cfg.Buffer.Strategy = c.Strategy
	}
	if c.set["capacity"] {
		cfg.Buffer.Capacity = c.Capacity
	}
	if c.set["producers"] {
		cfg.Workload.Producers = c.Producers
	}
	if c.set["consumers"] {
		cfg.Workload.Consumers = c.Consumers
	}
	if c.set["items"] {
		cfg.Workload.ItemsPerProducer = c.Items
	}
	if c.set["min-delay"] {
		cfg.Workload.MinDelay = config.Duration(c.MinDelay)
	}
	if c.set["max-delay"] {
		cfg.Workload.MaxDelay = config.Duration(c.MaxDelay)
	}
	if c.set["consumer-min-delay"] {
		cfg.Workload.ConsumerMinDelay = config.Duration(c.ConsumerMin)
	}
	if c.set["consumer-max-delay"] {
		cfg.Workload.ConsumerMaxDelay = config.Duration(c.ConsumerMax)
	}
	if c.set["seed"] {
		cfg.Workload.Seed = c.Seed
	}
	if c.set["metrics-port"] {
		cfg.Metrics.Port = c.MetricsPort
	}
	if c.set["log-level"] {
		cfg.Log.Level = c.LogLevel
	}
	if c.set["log-format"] {
		cfg.Log.Format = c.LogFormat
	}
}

func printDetailedHelp(fs *flag.FlagSet, w io.Writer) {
	_, _ = fmt.Fprintf(w, `%s - Bounded ring buffer producer/consumer harness

Usage: %s [options]

Options:
`, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(w, `
Examples:
  # Run both strategies with the default workload
  %s --strategy=both

  # Contended run with a fixed seed and per-operation status lines
  %s --capacity=1 --producers=8 --consumers=2 --seed=42 --log-level=debug

  # Run from a config file, exposing Prometheus metrics
  %s --config=configs/harness.yaml --metrics-port=9090

  # Validate configuration only
  %s --config=configs/harness.yaml --validate

Version: %s
Build: %s
`, appName, appName, appName, appName, Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
