package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/boundedring/config"
)

func TestParseFlags_Defaults(t *testing.T) {
	cli, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)

	def := config.Default()
	assert.Equal(t, def.Buffer.Strategy, cli.Strategy)
	assert.Equal(t, def.Buffer.Capacity, cli.Capacity)
	assert.Equal(t, def.Workload.Producers, cli.Producers)
	assert.Equal(t, def.Workload.MinDelay.Std(), cli.MinDelay)
	assert.Equal(t, 10*time.Second, cli.ShutdownTimeout)
	assert.Empty(t, cli.set)
}

func TestParseFlags_ExplicitFlagsOverrideConfig(t *testing.T) {
	cli, err := parseFlags([]string{
		"-strategy", "both",
		"-capacity", "1",
		"-consumers", "7",
		"-max-delay", "40ms",
		"-consumer-max-delay", "60ms",
		"-seed", "99",
		"-log-format", "json",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Workload.Producers = 5 // as if set by a file
	cli.applyTo(cfg)

	assert.Equal(t, "both", cfg.Buffer.Strategy)
	assert.Equal(t, 1, cfg.Buffer.Capacity)
	assert.Equal(t, 7, cfg.Workload.Consumers)
	assert.Equal(t, 40*time.Millisecond, cfg.Workload.MaxDelay.Std())
	assert.Equal(t, 60*time.Millisecond, cfg.Workload.ConsumerMaxDelay.Std())
	assert.Equal(t, config.Default().Workload.ConsumerMinDelay, cfg.Workload.ConsumerMinDelay)
	assert.Equal(t, int64(99), cfg.Workload.Seed)
	assert.Equal(t, "json", cfg.Log.Format)

	// untouched flags keep the lower layer's value
	assert.Equal(t, 5, cfg.Workload.Producers)
	assert.Equal(t, config.Default().Log.Level, cfg.Log.Level)
}

func TestParseFlags_ConfigPathFromEnv(t *testing.T) {
	t.Setenv("BOUNDEDRING_CONFIG", "/etc/boundedring.yaml")
	t.Setenv("BOUNDEDRING_SHUTDOWN_TIMEOUT", "3s")

	cli, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "/etc/boundedring.yaml", cli.ConfigPath)
	assert.Equal(t, 3*time.Second, cli.ShutdownTimeout)
}

func TestParseFlags_ShortAliases(t *testing.T) {
	cli, err := parseFlags([]string{"-c", "x.json", "-v", "-h"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "x.json", cli.ConfigPath)
	assert.True(t, cli.ShowVersion)
	assert.True(t, cli.ShowHelp)
}

func TestParseFlags_UnknownFlag(t *testing.T) {
	var out bytes.Buffer
	_, err := parseFlags([]string{"-bogus"}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestValidateFlags(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "harness.json")
	require.NoError(t, os.WriteFile(existing, []byte("{}"), 0o600))

	tests := []struct {
		name    string
		cli     CLIConfig
		wantErr string
	}{
		{"no config file", CLIConfig{ShutdownTimeout: time.Second}, ""},
		{"existing config file", CLIConfig{ConfigPath: existing, ShutdownTimeout: time.Second}, ""},
		{"missing config file", CLIConfig{ConfigPath: filepath.Join(dir, "nope.json"), ShutdownTimeout: time.Second}, "config file not found"},
		{"zero shutdown timeout", CLIConfig{}, "invalid shutdown timeout"},
		{"version skips checks", CLIConfig{ShowVersion: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFlags(&tt.cli)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
