package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/boundedring/errors"
	"github.com/c360/boundedring/pkg/buffer"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Buffer.Capacity)
	assert.Equal(t, "monitor", cfg.Buffer.Strategy)
	assert.Equal(t, 3, cfg.Workload.Producers)
	assert.Equal(t, 3, cfg.Workload.Consumers)
	assert.Equal(t, 50, cfg.Workload.ItemsPerProducer)
	assert.Equal(t, 5*time.Millisecond, cfg.Workload.MinDelay.Std())
	assert.Equal(t, 25*time.Millisecond, cfg.Workload.MaxDelay.Std())
	assert.Equal(t, 5*time.Millisecond, cfg.Workload.ConsumerMinDelay.Std())
	assert.Equal(t, 35*time.Millisecond, cfg.Workload.ConsumerMaxDelay.Std())
	assert.Equal(t, 0, cfg.Metrics.Port)
}

func TestLoader_LoadJSON(t *testing.T) {
	path := writeFile(t, "run.json", `{
		"buffer": {"capacity": 4, "strategy": "permit"},
		"workload": {"producers": 2, "max_delay": "10ms", "seed": 99}
	}`)

	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Buffer.Capacity)
	assert.Equal(t, "permit", cfg.Buffer.Strategy)
	assert.Equal(t, 2, cfg.Workload.Producers)
	assert.Equal(t, 10*time.Millisecond, cfg.Workload.MaxDelay.Std())
	assert.Equal(t, int64(99), cfg.Workload.Seed)

	// untouched fields keep their defaults
	assert.Equal(t, 3, cfg.Workload.Consumers)
	assert.Equal(t, 50, cfg.Workload.ItemsPerProducer)
	assert.Equal(t, 5*time.Millisecond, cfg.Workload.MinDelay.Std())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoader_LoadYAML(t *testing.T) {
	path := writeFile(t, "run.yaml", `
buffer:
  capacity: 1
  strategy: both
workload:
  consumers: 5
  items_per_producer: 7
  min_delay: 1ms
  max_delay: 2ms
  consumer_max_delay: 4ms
log:
  level: debug
  format: json
`)

	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Buffer.Capacity)
	assert.Equal(t, 5, cfg.Workload.Consumers)
	assert.Equal(t, 7, cfg.Workload.ItemsPerProducer)
	assert.Equal(t, time.Millisecond, cfg.Workload.MinDelay.Std())
	assert.Equal(t, 4*time.Millisecond, cfg.Workload.ConsumerMaxDelay.Std())
	assert.Equal(t, 5*time.Millisecond, cfg.Workload.ConsumerMinDelay.Std())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	strategies, err := cfg.Strategies()
	require.NoError(t, err)
	assert.Equal(t, []buffer.Strategy{buffer.StrategyMonitor, buffer.StrategyPermit}, strategies)
}

func TestLoader_LayersOverrideInOrder(t *testing.T) {
	base := writeFile(t, "base.json", `{"buffer": {"capacity": 8}, "workload": {"producers": 4}}`)
	override := writeFile(t, "override.yml", "buffer:\n  capacity: 2\n")

	loader := NewLoader()
	loader.AddLayer(base)
	loader.AddLayer(override)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Buffer.Capacity)
	assert.Equal(t, 4, cfg.Workload.Producers)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("BOUNDEDRING_STRATEGY", "permit")
	t.Setenv("BOUNDEDRING_CAPACITY", "6")
	t.Setenv("BOUNDEDRING_PRODUCERS", "5")
	t.Setenv("BOUNDEDRING_CONSUMERS", "2")
	t.Setenv("BOUNDEDRING_ITEMS", "11")
	t.Setenv("BOUNDEDRING_MIN_DELAY", "0s")
	t.Setenv("BOUNDEDRING_MAX_DELAY", "3ms")
	t.Setenv("BOUNDEDRING_CONSUMER_MIN_DELAY", "1ms")
	t.Setenv("BOUNDEDRING_CONSUMER_MAX_DELAY", "6ms")
	t.Setenv("BOUNDEDRING_SEED", "12345")
	t.Setenv("BOUNDEDRING_METRICS_PORT", "9191")
	t.Setenv("BOUNDEDRING_LOG_LEVEL", "warn")

	path := writeFile(t, "run.json", `{"buffer": {"capacity": 4}}`)
	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "permit", cfg.Buffer.Strategy)
	assert.Equal(t, 6, cfg.Buffer.Capacity, "environment beats file")
	assert.Equal(t, 5, cfg.Workload.Producers)
	assert.Equal(t, 2, cfg.Workload.Consumers)
	assert.Equal(t, 11, cfg.Workload.ItemsPerProducer)
	assert.Equal(t, time.Duration(0), cfg.Workload.MinDelay.Std())
	assert.Equal(t, 3*time.Millisecond, cfg.Workload.MaxDelay.Std())
	assert.Equal(t, time.Millisecond, cfg.Workload.ConsumerMinDelay.Std())
	assert.Equal(t, 6*time.Millisecond, cfg.Workload.ConsumerMaxDelay.Std())
	assert.Equal(t, int64(12345), cfg.Workload.Seed)
	assert.Equal(t, 9191, cfg.Metrics.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_EnvOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("BOUNDEDRING_CAPACITY", "ten")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrConfigNotFound)
		assert.True(t, errors.IsInvalid(err))
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := writeFile(t, "bad.json", `{"buffer": {"capacity": }`)
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
	})

	t.Run("malformed YAML", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "buffer: [capacity\n")
		_, err := NewLoader().LoadFile(path)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeFile(t, "dur.json", `{"workload": {"max_delay": "soon"}}`)
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, "run.toml", `capacity = 3`)
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "only JSON or YAML")
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeFile(t, "zero.json", `{"buffer": {"capacity": 0}}`)
		_, err := NewLoader().LoadFile(path)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)

		loader := NewLoader()
		loader.EnableValidation(false)
		cfg, err := loader.LoadFile(path)
		require.NoError(t, err, "validation disabled")
		assert.Equal(t, 0, cfg.Buffer.Capacity)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.Buffer.Capacity = 0 }},
		{"unknown strategy", func(c *Config) { c.Buffer.Strategy = "spin" }},
		{"no producers", func(c *Config) { c.Workload.Producers = 0 }},
		{"no consumers", func(c *Config) { c.Workload.Consumers = 0 }},
		{"delays inverted", func(c *Config) { c.Workload.MinDelay, c.Workload.MaxDelay = 10, 5 }},
		{"consumer delays inverted", func(c *Config) { c.Workload.ConsumerMinDelay, c.Workload.ConsumerMaxDelay = 10, 5 }},
		{"port too high", func(c *Config) { c.Metrics.Port = 70000 }},
		{"relative metrics path", func(c *Config) {
			c.Metrics.Port = 9090
			c.Metrics.Path = "metrics"
		}},
		{"log level", func(c *Config) { c.Log.Level = "trace" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestConfig_WorkerConfig(t *testing.T) {
	cfg := Default()
	cfg.Workload.Seed = 7

	wc := cfg.WorkerConfig()
	assert.Equal(t, 3, wc.Producers)
	assert.Equal(t, 3, wc.Consumers)
	assert.Equal(t, 50, wc.ItemsPerWorker)
	assert.Equal(t, 5*time.Millisecond, wc.MinDelay)
	assert.Equal(t, 25*time.Millisecond, wc.MaxDelay)
	assert.Equal(t, 5*time.Millisecond, wc.ConsumerMinDelay)
	assert.Equal(t, 35*time.Millisecond, wc.ConsumerMaxDelay)
	assert.Equal(t, int64(7), wc.Seed)
}

func TestConfig_SaveAndReload(t *testing.T) {
	for _, name := range []string{"saved.json", "saved.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Buffer.Strategy = "both"
			cfg.Workload.MaxDelay = Duration(40 * time.Millisecond)

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := NewLoader().LoadFile(path)
			require.NoError(t, err)
			if diff := cmp.Diff(cfg, loaded); diff != "" {
				t.Errorf("reloaded config mismatch (-saved +loaded):\n%s", diff)
			}
		})
	}
}

func TestDuration_Decoding(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Std())

	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Std())

	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))
	assert.Equal(t, "1µs", d.String())
}
