package health

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewMonitor(t *testing.T) {
	monitor := NewMonitor()

	if monitor.statuses == nil {
		t.Error("NewMonitor() should initialize statuses map")
	}

	if monitor.Count() != 0 {
		t.Errorf("New monitor should have 0 runs, got %d", monitor.Count())
	}
}

func TestMonitor_UpdateSetsNameAndTimestamp(t *testing.T) {
	monitor := NewMonitor()

	monitor.Update("monitor", Status{Component: "wrong-name", Status: StateHealthy})

	got, exists := monitor.Get("monitor")
	if !exists {
		t.Fatal("run should exist after update")
	}
	if got.Component != "monitor" {
		t.Errorf("Expected component 'monitor', got %s", got.Component)
	}
	if got.Timestamp.IsZero() {
		t.Error("Update should set timestamp if not provided")
	}
}

func TestMonitor_ConvenienceMethods(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("a", "running")
	monitor.UpdateDegraded("b", "cancelled")
	monitor.UpdateUnhealthy("c", "failed")

	tests := []struct {
		name  string
		check func(Status) bool
	}{
		{"a", Status.IsHealthy},
		{"b", Status.IsDegraded},
		{"c", Status.IsUnhealthy},
	}
	for _, tt := range tests {
		got, ok := monitor.Get(tt.name)
		if !ok || !tt.check(got) {
			t.Errorf("%s: unexpected status %+v", tt.name, got)
		}
	}

	if _, ok := monitor.Get("missing"); ok {
		t.Error("Get should report missing runs")
	}
}

func TestMonitor_AggregateHealth(t *testing.T) {
	tests := []struct {
		name   string
		update func(*Monitor)
		want   string
	}{
		{"empty", func(*Monitor) {}, StateHealthy},
		{"all healthy", func(m *Monitor) {
			m.UpdateHealthy("monitor", "ok")
			m.UpdateHealthy("permit", "ok")
		}, StateHealthy},
		{"one degraded", func(m *Monitor) {
			m.UpdateHealthy("monitor", "ok")
			m.UpdateDegraded("permit", "cancelled")
		}, StateDegraded},
		{"unhealthy wins", func(m *Monitor) {
			m.UpdateDegraded("monitor", "cancelled")
			m.UpdateUnhealthy("permit", "failed")
		}, StateUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := NewMonitor()
			tt.update(monitor)

			got := monitor.AggregateHealth("boundedring")
			if got.Status != tt.want {
				t.Errorf("Expected %s, got %s (%s)", tt.want, got.Status, got.Message)
			}
			if got.Component != "boundedring" {
				t.Errorf("Expected component 'boundedring', got %s", got.Component)
			}
			if len(got.SubStatuses) != monitor.Count() {
				t.Errorf("Expected %d sub-statuses, got %d", monitor.Count(), len(got.SubStatuses))
			}
		})
	}
}

func TestMonitor_AggregateIsOrdered(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("permit", "ok")
	monitor.UpdateHealthy("monitor", "ok")

	got := monitor.AggregateHealth("boundedring")
	if got.SubStatuses[0].Component != "monitor" || got.SubStatuses[1].Component != "permit" {
		t.Errorf("sub-statuses not ordered by name: %+v", got.SubStatuses)
	}
}

func TestAggregate_DoesNotShareInput(t *testing.T) {
	subs := []Status{NewHealthy("monitor", "ok")}
	got := Aggregate("boundedring", subs)

	subs[0].Message = "changed"
	if got.SubStatuses[0].Message != "ok" {
		t.Error("Aggregate should copy sub-statuses")
	}
}

func TestMonitor_ConcurrentAccess(t *testing.T) {
	monitor := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				monitor.UpdateHealthy(fmt.Sprintf("run-%d", i), "ok")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = monitor.AggregateHealth("boundedring")
			}
		}()
	}
	wg.Wait()

	if monitor.Count() != 10 {
		t.Errorf("Expected 10 runs, got %d", monitor.Count())
	}
}

func TestStatus_WithMetrics(t *testing.T) {
	status := NewHealthy("monitor", "ok")
	withMetrics := status.WithMetrics(&Metrics{Uptime: time.Second, ItemsProcessed: 150})

	if status.Metrics != nil {
		t.Error("WithMetrics should not modify the receiver")
	}
	if withMetrics.Metrics == nil || withMetrics.Metrics.ItemsProcessed != 150 {
		t.Errorf("unexpected metrics: %+v", withMetrics.Metrics)
	}
}

func TestFromError(t *testing.T) {
	status := FromError("permit", fmt.Errorf("load /etc/boundedring/harness.yaml: password=hunter2"))

	if !status.IsUnhealthy() || status.Healthy {
		t.Errorf("FromError should be unhealthy, got %s", status.Status)
	}
	if status.Message != "load [PATH]: [REDACTED]" {
		t.Errorf("unexpected sanitized message: %q", status.Message)
	}

	if got := FromError("permit", nil); got.Message != "Run failed" {
		t.Errorf("nil error message: %q", got.Message)
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"buffer capacity must be positive", "buffer capacity must be positive"},
		{"dial http://localhost:9090/metrics failed", "dial [URL] failed"},
		{"connect 10.0.0.1 refused", "connect [IP] refused"},
		{"listen on:9090 busy", "listen on[PORT] busy"},
		{`C:\configs\run.json missing`, "[PATH] missing"},
		{"token=abc123 rejected", "[REDACTED] rejected"},
	}

	for _, tt := range tests {
		if got := sanitizeErrorMessage(tt.in); got != tt.want {
			t.Errorf("sanitizeErrorMessage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
