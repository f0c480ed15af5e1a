// Package health — агрегированные проверки здоровья зависимостей.
//
// Каждая зависимость (workflow-движок, внешний LLM-сервис) покрыта
// отдельным probe. Aggregator периодически прогоняет все probes с
// per-probe таймаутом и кэширует неизменяемый отчёт: HTTP-хэндлер
// здоровья читает кэш и не блокируется на реальных проверках.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/telemetry"
)

// Default configuration values.
const (
	defaultRefreshInterval = 15 * time.Second
	defaultProbeTimeout    = 5 * time.Second
)

// Aggregator периодически проверяет все probes и кэширует отчёт.
type Aggregator struct {
	probes []Probe

	refreshInterval time.Duration
	probeTimeout    time.Duration

	mu     sync.RWMutex
	report domain.HealthReport

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Aggregator.
type Config struct {
	// Probes — проверки компонентов.
	Probes []Probe

	// RefreshInterval — интервал обновления отчёта (default: 15s).
	RefreshInterval time.Duration

	// ProbeTimeout — таймаут одной проверки (default: 5s).
	// Зависший probe помечает компонент нездоровым, не
	// задерживая остальные проверки.
	ProbeTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Aggregator.
// До первого Refresh отчёт пуст и помечен нездоровым:
// незнание не выдаётся за здоровье.
func New(cfg Config) *Aggregator {
	refreshInterval := cfg.RefreshInterval
	if refreshInterval <= 0 {
		refreshInterval = defaultRefreshInterval
	}

	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Aggregator{
		probes:          cfg.Probes,
		refreshInterval: refreshInterval,
		probeTimeout:    probeTimeout,
		report: domain.HealthReport{
			Healthy:    false,
			Components: map[string]domain.HealthSnapshot{},
		},
		logger: logger,
	}
}

// Start выполняет первую проверку и запускает периодическое обновление.
func (a *Aggregator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.cancelFunc = cancel

	a.Refresh(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.refreshLoop(ctx)
	}()

	a.logger.Info("health aggregator started",
		"probes", len(a.probes),
		"refresh_interval", a.refreshInterval,
	)
}

// Stop останавливает периодическое обновление.
func (a *Aggregator) Stop() {
	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	a.wg.Wait()
}

// Report возвращает последний закэшированный отчёт.
// Карта компонентов копируется: вызывающий получает снапшот.
func (a *Aggregator) Report() domain.HealthReport {
	a.mu.RLock()
	defer a.mu.RUnlock()

	components := make(map[string]domain.HealthSnapshot, len(a.report.Components))
	for name, snapshot := range a.report.Components {
		components[name] = snapshot
	}

	return domain.HealthReport{
		Healthy:    a.report.Healthy,
		Components: components,
	}
}

// Refresh прогоняет все probes параллельно и замещает кэшированный отчёт.
func (a *Aggregator) Refresh(ctx context.Context) {
	snapshots := make([]domain.HealthSnapshot, len(a.probes))

	var wg sync.WaitGroup
	for i, probe := range a.probes {
		wg.Add(1)
		go func(i int, probe Probe) {
			defer wg.Done()
			snapshots[i] = a.check(ctx, probe)
		}(i, probe)
	}
	wg.Wait()

	report := domain.HealthReport{
		Healthy:    true,
		Components: make(map[string]domain.HealthSnapshot, len(snapshots)),
	}
	for _, snapshot := range snapshots {
		report.Components[snapshot.Component] = snapshot
		if !snapshot.Healthy {
			report.Healthy = false
		}

		value := 0.0
		if snapshot.Healthy {
			value = 1.0
		}
		telemetry.ComponentHealthy.WithLabelValues(snapshot.Component).Set(value)
	}

	a.mu.Lock()
	a.report = report
	a.mu.Unlock()
}

// check выполняет один probe с таймаутом.
func (a *Aggregator) check(ctx context.Context, probe Probe) domain.HealthSnapshot {
	ctx, cancel := context.WithTimeout(ctx, a.probeTimeout)
	defer cancel()

	snapshot := domain.HealthSnapshot{
		Component: probe.Name(),
		CheckedAt: time.Now(),
	}

	if err := probe.Check(ctx); err != nil {
		snapshot.Error = err.Error()
		a.logger.Warn("health probe failed",
			"component", probe.Name(),
			"error", err,
		)
		return snapshot
	}

	snapshot.Healthy = true
	return snapshot
}

// refreshLoop — цикл периодического обновления отчёта.
func (a *Aggregator) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(a.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Refresh(ctx)
		}
	}
}
