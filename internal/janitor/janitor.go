// Package janitor — периодическая очистка завершённых instances.
//
// Терминальные instances хранятся для GET /api/v1/workflows/{id}
// и отладки, но не бесконечно: janitor по cron-расписанию удаляет
// записи старше периода хранения.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Default configuration values.
const (
	defaultSchedule  = "0 3 * * *" // ежедневно в 03:00
	defaultRetention = 7 * 24 * time.Hour
)

// Store — операции хранилища, нужные janitor.
type Store interface {
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor удаляет завершённые instances старше периода хранения.
type Janitor struct {
	store     Store
	schedule  string
	retention time.Duration
	runner    *cron.Cron
	logger    *slog.Logger
}

// Config — конфигурация Janitor.
type Config struct {
	// Store — хранилище instances.
	Store Store

	// Schedule — cron-выражение запуска (default: "0 3 * * *").
	Schedule string

	// Retention — сколько хранить завершённые instances (default: 7d).
	Retention time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Janitor.
func New(cfg Config) *Janitor {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Janitor{
		store:     cfg.Store,
		schedule:  schedule,
		retention: retention,
		runner:    cron.New(),
		logger:    logger,
	}
}

// Start регистрирует задачу очистки и запускает cron.
func (j *Janitor) Start(ctx context.Context) error {
	_, err := j.runner.AddFunc(j.schedule, func() {
		j.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid janitor schedule %q: %w", j.schedule, err)
	}

	j.runner.Start()

	j.logger.Info("janitor started",
		"schedule", j.schedule,
		"retention", j.retention,
	)
	return nil
}

// Stop останавливает cron и дожидается текущей очистки.
func (j *Janitor) Stop() {
	stopCtx := j.runner.Stop()
	<-stopCtx.Done()
	j.logger.Info("janitor stopped")
}

// Sweep выполняет одну очистку. Ошибка не фатальна —
// следующий запуск повторит попытку.
func (j *Janitor) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.retention)

	deleted, err := j.store.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("janitor sweep failed", "error", err)
		return
	}

	if deleted > 0 {
		j.logger.Info("janitor sweep completed",
			"deleted", deleted,
			"cutoff", cutoff,
		)
	}
}
