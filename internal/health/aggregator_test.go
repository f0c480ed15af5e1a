package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okrasov/textflow/internal/llm"
)

func probeOf(name string, check func(ctx context.Context) error) Probe {
	return ProbeFunc{ComponentName: name, CheckFunc: check}
}

func TestAggregator_AllHealthy(t *testing.T) {
	agg := New(Config{Probes: []Probe{
		probeOf("workflow_engine", func(context.Context) error { return nil }),
		probeOf("text_service", func(context.Context) error { return nil }),
	}})

	agg.Refresh(context.Background())
	report := agg.Report()

	if !report.Healthy {
		t.Error("report should be healthy when all probes pass")
	}
	if len(report.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(report.Components))
	}
	for name, snapshot := range report.Components {
		if !snapshot.Healthy {
			t.Errorf("component %s should be healthy", name)
		}
		if snapshot.CheckedAt.IsZero() {
			t.Errorf("component %s should carry a check timestamp", name)
		}
	}
}

func TestAggregator_OneUnhealthyDegradesReport(t *testing.T) {
	agg := New(Config{Probes: []Probe{
		probeOf("workflow_engine", func(context.Context) error { return nil }),
		probeOf("text_service", func(context.Context) error {
			return errors.New("api returned status 503")
		}),
	}})

	agg.Refresh(context.Background())
	report := agg.Report()

	if report.Healthy {
		t.Error("report must be unhealthy when any probe fails")
	}
	if !report.Components["workflow_engine"].Healthy {
		t.Error("healthy component must stay healthy in a degraded report")
	}
	snapshot := report.Components["text_service"]
	if snapshot.Healthy {
		t.Error("failing component must be unhealthy")
	}
	if snapshot.Error == "" {
		t.Error("unhealthy snapshot must carry the probe error")
	}
}

func TestAggregator_HangingProbeTimesOut(t *testing.T) {
	agg := New(Config{
		ProbeTimeout: 30 * time.Millisecond,
		Probes: []Probe{
			probeOf("text_service", func(ctx context.Context) error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second):
					return nil
				}
			}),
		},
	})

	start := time.Now()
	agg.Refresh(context.Background())
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Fatalf("hanging probe must be cut by its timeout, refresh took %v", elapsed)
	}
	if agg.Report().Healthy {
		t.Error("hanging probe must mark the component unhealthy")
	}
}

func TestAggregator_RecoveryFlipsBackToHealthy(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)

	agg := New(Config{Probes: []Probe{
		probeOf("text_service", func(context.Context) error {
			if failing.Load() {
				return errors.New("connection refused")
			}
			return nil
		}),
	}})

	agg.Refresh(context.Background())
	if agg.Report().Healthy {
		t.Fatal("report should start unhealthy")
	}

	failing.Store(false)
	agg.Refresh(context.Background())

	if !agg.Report().Healthy {
		t.Error("report should recover after the probe passes again")
	}
}

func TestAggregator_UnhealthyBeforeFirstRefresh(t *testing.T) {
	agg := New(Config{Probes: []Probe{
		probeOf("workflow_engine", func(context.Context) error { return nil }),
	}})

	if agg.Report().Healthy {
		t.Error("report must not claim health before the first check")
	}
}

func TestAggregator_PeriodicRefresh(t *testing.T) {
	var checks atomic.Int32

	agg := New(Config{
		RefreshInterval: 10 * time.Millisecond,
		Probes: []Probe{
			probeOf("workflow_engine", func(context.Context) error {
				checks.Add(1)
				return nil
			}),
		},
	})

	agg.Start(context.Background())
	defer agg.Stop()

	deadline := time.Now().Add(time.Second)
	for checks.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if checks.Load() < 3 {
		t.Errorf("expected at least 3 checks from periodic refresh, got %d", checks.Load())
	}
}

func TestTextServiceProbe(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		code := int(status.Load())
		w.WriteHeader(code)
		if code == http.StatusOK {
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi"}}]}`))
		}
	}))
	defer server.Close()

	probe := &TextServiceProbe{Client: llm.NewClient(llm.Config{BaseURL: server.URL})}

	if probe.Name() != "text_service" {
		t.Errorf("unexpected probe name %q", probe.Name())
	}
	if err := probe.Check(context.Background()); err != nil {
		t.Errorf("probe should pass against a healthy service: %v", err)
	}

	status.Store(http.StatusServiceUnavailable)
	if err := probe.Check(context.Background()); err == nil {
		t.Error("probe should fail against a broken service")
	}
}

func TestEngineProbe_MissingPool(t *testing.T) {
	probe := &EngineProbe{}

	if err := probe.Check(context.Background()); err == nil {
		t.Error("probe without a database pool must fail")
	}
}
