// Package main implements the boundedring harness. It runs producers and
// consumers against a bounded ring buffer using one or both synchronization
// strategies and reports per-run statistics.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/boundedring/config"
	"github.com/c360/boundedring/errors"
	"github.com/c360/boundedring/health"
	"github.com/c360/boundedring/metric"
	"github.com/c360/boundedring/pkg/buffer"
	"github.com/c360/boundedring/pkg/worker"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "boundedring"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	cliCfg, shouldExit, err := initializeCLI(args, stdout)
	if shouldExit || err != nil {
		return err
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		_, _ = fmt.Fprintln(stdout, "Configuration is valid")
		return nil
	}

	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	slog.Info("Starting boundedring harness",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath,
		"strategy", cfg.Buffer.Strategy)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := metric.NewMetricsRegistry()
	monitor := health.NewMonitor()
	server, err := startMetricsServer(cfg, registry, monitor)
	if err != nil {
		return err
	}
	if server != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				slog.Warn("Metrics server shutdown failed", "error", err)
			}
		}()
	}

	h := &harness{
		cfg:             cfg,
		registry:        registry,
		health:          monitor,
		logger:          logger,
		shutdownTimeout: cliCfg.ShutdownTimeout,
	}
	_, err = h.runAll(ctx)
	return err
}

// initializeCLI parses and validates flags
func initializeCLI(args []string, stdout io.Writer) (*CLIConfig, bool, error) {
	cliCfg, err := parseFlags(args, os.Stderr)
	if err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}
	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil, true, nil
	}

	if cliCfg.ShowHelp {
		cliCfg.usage()
		return nil, true, nil
	}

	return cliCfg, false, nil
}

// initializeConfiguration loads defaults, the optional file and environment
// overrides, then applies explicit flags and validates the result
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	loader.EnableValidation(false)
	if cliCfg.ConfigPath != "" {
		loader.AddLayer(cliCfg.ConfigPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cliCfg.applyTo(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// startMetricsServer starts the Prometheus endpoint when a port is configured
func startMetricsServer(
	cfg *config.Config,
	registry *metric.MetricsRegistry,
	monitor *health.Monitor,
) (*metric.Server, error) {
	if cfg.Metrics.Port == 0 {
		return nil, nil
	}

	server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
	server.SetHealthMonitor(monitor, appName)
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("start metrics server: %w", err)
	}
	slog.Info("Metrics server listening", "address", server.Address())
	return server, nil
}

// harness runs the configured workload once per selected strategy
type harness struct {
	cfg             *config.Config
	registry        *metric.MetricsRegistry
	health          *health.Monitor
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// runAll runs each strategy in turn. A cancelled run ends the loop without error.
func (h *harness) runAll(ctx context.Context) ([]worker.RunStats, error) {
	strategies, err := h.cfg.Strategies()
	if err != nil {
		return nil, err
	}

	results := make([]worker.RunStats, 0, len(strategies))
	for _, strategy := range strategies {
		stats, err := h.runStrategy(ctx, strategy)
		if err != nil {
			return results, fmt.Errorf("%s run: %w", strategy, err)
		}
		results = append(results, stats)
		if stats.Cancelled || ctx.Err() != nil {
			h.logger.Info("Shutdown requested, skipping remaining strategies")
			break
		}
	}
	return results, nil
}

type runResult struct {
	stats worker.RunStats
	err   error
}

// runStrategy builds a fresh buffer and pool for one strategy and waits for
// the run to end
func (h *harness) runStrategy(ctx context.Context, strategy buffer.Strategy) (worker.RunStats, error) {
	name := strategy.String()
	logger := h.logger.With("strategy", name)
	core := h.registry.CoreMetrics()

	buf, err := buffer.New[int](h.cfg.Buffer.Capacity,
		buffer.WithStrategy(strategy),
		buffer.WithMetrics(h.registry, name))
	if err != nil {
		return worker.RunStats{}, err
	}

	pool, err := worker.NewPool(buf, h.cfg.WorkerConfig(), itemEncoder(h.cfg.Workload.ItemsPerProducer),
		worker.WithMetricsRegistry[int](h.registry, name),
		worker.WithLogger[int](logger))
	if err != nil {
		return worker.RunStats{}, err
	}

	core.RecordRunStatus(name, metric.StatusRunning)
	h.health.UpdateHealthy(name, "Run in progress")
	if err := pool.Start(ctx); err != nil {
		h.fail(name, err)
		return worker.RunStats{}, err
	}

	done := make(chan runResult, 1)
	go func() {
		stats, err := pool.Wait()
		done <- runResult{stats: stats, err: err}
	}()

	var res runResult
	select {
	case res = <-done:
	case <-ctx.Done():
		logger.Info("Shutdown signal received", "timeout", h.shutdownTimeout)
		if err := pool.Stop(h.shutdownTimeout); err != nil {
			h.fail(name, err)
			return pool.Stats(), err
		}
		res = <-done
	}

	core.RecordRunDuration(name, res.stats.Duration)
	if res.err == nil {
		res.err = verifyTotals(res.stats)
	}

	runMetrics := &health.Metrics{
		Uptime:         res.stats.Duration,
		ItemsProcessed: res.stats.Consumed,
		LastActivity:   time.Now(),
	}
	switch {
	case res.err != nil:
		h.fail(name, res.err)
	case res.stats.Cancelled:
		core.RecordRunStatus(name, metric.StatusCancelled)
		h.health.Update(name, health.NewDegraded(name, "Run cancelled").WithMetrics(runMetrics))
	default:
		core.RecordRunStatus(name, metric.StatusCompleted)
		h.health.Update(name, health.NewHealthy(name, "Run complete").WithMetrics(runMetrics))
	}
	return res.stats, res.err
}

// fail records a failed run in metrics and health
func (h *harness) fail(name string, err error) {
	core := h.registry.CoreMetrics()
	core.RecordRunStatus(name, metric.StatusFailed)
	core.RecordError(name, errors.Classify(err).String())
	h.health.Update(name, health.FromError(name, err).WithMetrics(&health.Metrics{ErrorCount: 1}))
}

// itemEncoder packs producer and sequence number into one int that reads as
// both in decimal: 2049 is item 49 of producer 2. The sequence field widens
// past three digits when a producer puts more than 1000 items.
func itemEncoder(items int) worker.ItemFunc[int] {
	stride := 1000
	for stride < items {
		stride *= 10
	}
	return func(producer, seq int) int {
		return producer*stride + seq
	}
}

// verifyTotals checks that a completed run delivered every item exactly once
func verifyTotals(stats worker.RunStats) error {
	if stats.Cancelled {
		return nil
	}
	if stats.Produced != stats.Expected || stats.Consumed != stats.Expected {
		return errors.WrapFatal(
			fmt.Errorf("expected %d items, produced %d, consumed %d",
				stats.Expected, stats.Produced, stats.Consumed),
			"harness", "runStrategy", "verify totals")
	}
	if stats.Buffer.CurrentSize != 0 {
		return errors.WrapFatal(
			fmt.Errorf("%d items left in buffer", stats.Buffer.CurrentSize),
			"harness", "runStrategy", "verify totals")
	}
	return nil
}
