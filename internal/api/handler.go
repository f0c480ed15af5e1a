package api

import (
	"context"
	"log/slog"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/gateway"
)

// Submitter — операции gateway, нужные API.
type Submitter interface {
	SubmitReverse(ctx context.Context, text string) (*gateway.Completion, error)
	SubmitText(ctx context.Context, text, operation string) (*gateway.Completion, error)
	Lookup(ctx context.Context, workflowID string) (*domain.WorkflowInstance, error)
}

// HealthReporter — источник агрегированного отчёта о здоровье.
type HealthReporter interface {
	Report() domain.HealthReport
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	gateway Submitter
	health  HealthReporter
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Gateway Submitter
	Health  HealthReporter
	Logger  *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		gateway: cfg.Gateway,
		health:  cfg.Health,
		logger:  logger,
	}
}
