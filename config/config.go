package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/boundedring/errors"
	"github.com/c360/boundedring/pkg/buffer"
	"github.com/c360/boundedring/pkg/worker"
)

// StrategyBoth runs every buffer strategy in turn
const StrategyBoth = "both"

// Config represents the complete harness configuration
type Config struct {
	Buffer   BufferConfig   `json:"buffer" yaml:"buffer"`
	Workload WorkloadConfig `json:"workload" yaml:"workload"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// BufferConfig selects the buffer size and synchronization strategy
type BufferConfig struct {
	Capacity int    `json:"capacity" yaml:"capacity"`
	Strategy string `json:"strategy" yaml:"strategy"` // monitor, permit or both
}

// WorkloadConfig describes the producer/consumer run
type WorkloadConfig struct {
	Producers        int      `json:"producers" yaml:"producers"`
	Consumers        int      `json:"consumers" yaml:"consumers"`
	ItemsPerProducer int      `json:"items_per_producer" yaml:"items_per_producer"`
	MinDelay         Duration `json:"min_delay" yaml:"min_delay"`
	MaxDelay         Duration `json:"max_delay" yaml:"max_delay"`
	ConsumerMinDelay Duration `json:"consumer_min_delay" yaml:"consumer_min_delay"`
	ConsumerMaxDelay Duration `json:"consumer_max_delay" yaml:"consumer_max_delay"` // both zero reuse min/max_delay
	Seed             int64    `json:"seed" yaml:"seed"` // 0 means time-based
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Port int    `json:"port" yaml:"port"` // 0 disables the endpoint
	Path string `json:"path" yaml:"path"`
}

// LogConfig controls slog output
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns the configuration used when nothing else is given
func Default() *Config {
	return &Config{
		Buffer: BufferConfig{
			Capacity: 10,
			Strategy: buffer.StrategyMonitor.String(),
		},
		Workload: WorkloadConfig{
			Producers:        3,
			Consumers:        3,
			ItemsPerProducer: 50,
			MinDelay:         Duration(5 * time.Millisecond),
			MaxDelay:         Duration(25 * time.Millisecond),
			ConsumerMinDelay: Duration(5 * time.Millisecond),
			ConsumerMaxDelay: Duration(35 * time.Millisecond),
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Buffer.Capacity <= 0 {
		return invalid("buffer.capacity must be positive, got %d", c.Buffer.Capacity)
	}

	if _, err := c.Strategies(); err != nil {
		return err
	}

	if err := c.WorkerConfig().Validate(); err != nil {
		return err
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return invalid("metrics.port out of range: %d", c.Metrics.Port)
	}
	if c.Metrics.Port > 0 && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path must start with '/': %q", c.Metrics.Path)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return invalid("log.format must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// Strategies returns the strategies to run, in order. "both" expands to
// every strategy.
func (c *Config) Strategies() ([]buffer.Strategy, error) {
	if strings.EqualFold(strings.TrimSpace(c.Buffer.Strategy), StrategyBoth) {
		return buffer.Strategies(), nil
	}
	s, err := buffer.ParseStrategy(c.Buffer.Strategy)
	if err != nil {
		return nil, err
	}
	return []buffer.Strategy{s}, nil
}

// WorkerConfig converts the workload section into a worker.Config
func (c *Config) WorkerConfig() worker.Config {
	return worker.Config{
		Producers:      c.Workload.Producers,
		Consumers:      c.Workload.Consumers,
		ItemsPerWorker: c.Workload.ItemsPerProducer,
		MinDelay:       c.Workload.MinDelay.Std(),
		MaxDelay:       c.Workload.MaxDelay.Std(),
		Seed:           c.Workload.Seed,

		ConsumerMinDelay: c.Workload.ConsumerMinDelay.Std(),
		ConsumerMaxDelay: c.Workload.ConsumerMaxDelay.Std(),
	}
}

// SaveToFile writes the configuration as JSON or YAML, chosen by extension
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.WrapFatal(err, "Config", "SaveToFile", "encode config")
	}
	if err := writeConfigFile(path, data); err != nil {
		return errors.WrapInvalid(err, "Config", "SaveToFile", "write config")
	}
	return nil
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.Marshal(c)
	return string(data)
}

func invalid(format string, args ...any) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidConfig, fmt.Sprintf(format, args...)),
		"Config", "Validate", "validate config")
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: true,
		envPrefix:  "BOUNDEDRING",
	}
}

// AddLayer adds a configuration file layer. Later layers win.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load applies defaults, then each file layer, then environment overrides
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		raw, err := l.loadRaw(path)
		if err != nil {
			return nil, err
		}
		merged, err := l.mergeFromMap(cfg, raw)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("merge %s", path))
		}
		cfg = merged
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadRaw loads a JSON or YAML file as a generic map
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	data, err := readConfigFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %s", errors.ErrConfigNotFound, path),
				"Loader", "Load", "read config file")
		}
		return nil, errors.WrapInvalid(err, "Loader", "Load", "read config file")
	}

	var raw map[string]any
	if isYAML(path) {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err == nil {
		err = checkStructure(raw)
	}
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
			"Loader", "Load", fmt.Sprintf("parse %s", path))
	}
	return raw, nil
}

// mergeFromMap merges configuration from a raw map, only overriding fields present in the map
func (l *Loader) mergeFromMap(base *Config, override map[string]any) (*Config, error) {
	if override == nil {
		return base, nil
	}

	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return nil, err
	}

	mergedJSON, err := json.Marshal(l.deepMergeMaps(baseMap, override))
	if err != nil {
		return nil, err
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func (l *Loader) deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}
		if overrideMap, ok := v.(map[string]any); ok {
			if baseMap, ok := result[k].(map[string]any); ok {
				result[k] = l.deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}

	return result
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	var firstErr error
	get := func(name string) (string, bool) {
		key := l.envPrefix + "_" + name
		val := os.Getenv(key)
		if val == "" {
			return "", false
		}
		if err := validateEnvVar(key, val); err != nil {
			if firstErr == nil {
				firstErr = errors.WrapInvalid(err, "Loader", "Load", "environment override")
			}
			return "", false
		}
		return val, true
	}
	setInt := func(name string, dst *int) {
		if val, ok := get(name); ok {
			n, err := strconv.Atoi(val)
			if err != nil {
				if firstErr == nil {
					firstErr = invalid("%s_%s: %v", l.envPrefix, name, err)
				}
				return
			}
			*dst = n
		}
	}
	setDuration := func(name string, dst *Duration) {
		if val, ok := get(name); ok {
			d, err := time.ParseDuration(val)
			if err != nil {
				if firstErr == nil {
					firstErr = invalid("%s_%s: %v", l.envPrefix, name, err)
				}
				return
			}
			*dst = Duration(d)
		}
	}

	if val, ok := get("STRATEGY"); ok {
		cfg.Buffer.Strategy = val
	}
	setInt("CAPACITY", &cfg.Buffer.Capacity)
	setInt("PRODUCERS", &cfg.Workload.Producers)
	setInt("CONSUMERS", &cfg.Workload.Consumers)
	setInt("ITEMS", &cfg.Workload.ItemsPerProducer)
	setDuration("MIN_DELAY", &cfg.Workload.MinDelay)
	setDuration("MAX_DELAY", &cfg.Workload.MaxDelay)
	setDuration("CONSUMER_MIN_DELAY", &cfg.Workload.ConsumerMinDelay)
	setDuration("CONSUMER_MAX_DELAY", &cfg.Workload.ConsumerMaxDelay)
	if val, ok := get("SEED"); ok {
		seed, err := strconv.ParseInt(val, 10, 64)
		if err != nil && firstErr == nil {
			firstErr = invalid("%s_SEED: %v", l.envPrefix, err)
		}
		if err == nil {
			cfg.Workload.Seed = seed
		}
	}
	setInt("METRICS_PORT", &cfg.Metrics.Port)
	if val, ok := get("LOG_LEVEL"); ok {
		cfg.Log.Level = val
	}
	if val, ok := get("LOG_FORMAT"); ok {
		cfg.Log.Format = val
	}

	return firstErr
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
