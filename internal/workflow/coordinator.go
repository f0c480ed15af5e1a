// Package workflow содержит координатор — машину состояний одного
// workflow instance.
//
// Координатор ведёт instance от RUNNING до терминального статуса:
// последовательно вызывает executor (попытки строго упорядочены по
// номеру), после каждой неудачи консультируется с retry.Decide и либо
// ждёт задержку, либо фиксирует FAILED. Общий дедлайн instance
// принудительно даёт TIMED_OUT независимо от остатка retry-бюджета —
// это ограничивает худшее время ожидания вызывающего даже при щедрой
// политике.
//
// Логика одного instance однопоточна; разные instances выполняются
// параллельно на разных воркерах без разделяемого состояния.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/retry"
	"github.com/okrasov/textflow/internal/telemetry"
)

// defaultAttemptTimeout — таймаут одной попытки activity по умолчанию.
const defaultAttemptTimeout = 30 * time.Second

// Executor выполняет одну попытку activity для instance.
//
// ctx несёт таймаут попытки. Классификация ошибки (domain.ErrValidation /
// domain.ErrTransient) определяет решение retry-политики.
type Executor interface {
	Execute(ctx context.Context, inst *domain.WorkflowInstance) (string, error)
}

// Coordinator — машина состояний instance с retry-политикой.
// Политика неизменяемая и разделяется всеми instances одного вида
// activity; сам Coordinator потокобезопасен.
type Coordinator struct {
	policy         retry.Policy
	attemptTimeout time.Duration
	logger         *slog.Logger
}

// Config — конфигурация Coordinator.
type Config struct {
	// Policy — retry-политика для вида activity.
	Policy retry.Policy

	// AttemptTimeout — таймаут одной попытки (default: 30s).
	AttemptTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Coordinator.
func New(cfg Config) *Coordinator {
	attemptTimeout := cfg.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		policy:         cfg.Policy,
		attemptTimeout: attemptTimeout,
		logger:         logger,
	}
}

// Run ведёт уже заклеймленный (RUNNING) instance до терминального статуса,
// мутируя его поля. Вызывающий отвечает за персистентность результата.
//
// Если внешний ctx отменён (останов воркера), Run возвращается, оставив
// instance в RUNNING — задание вернётся в очередь и будет доставлено
// повторно. Для reverse повторное выполнение безопасно (чистая функция);
// для text допускается at-least-once по отношению к удалённому сервису.
func (c *Coordinator) Run(ctx context.Context, inst *domain.WorkflowInstance, exec Executor) {
	logger := telemetry.WithWorkflowID(c.logger, inst.ID)

	for {
		remaining := time.Until(inst.Deadline)
		if remaining <= 0 {
			inst.MarkTimedOut()
			logger.Warn("workflow timed out", "attempt", inst.Attempt)
			return
		}

		inst.Attempt++
		telemetry.ActivityAttempts.WithLabelValues(string(inst.Kind)).Inc()

		result, err := c.attempt(ctx, inst, exec, remaining)
		if err == nil {
			inst.MarkCompleted(result)
			logger.Info("workflow completed", "attempt", inst.Attempt)
			return
		}

		if ctx.Err() != nil {
			// Останов воркера: instance остаётся RUNNING для redelivery
			logger.Warn("workflow interrupted", "attempt", inst.Attempt)
			return
		}

		decision := retry.Decide(c.policy, inst.Attempt, err)
		if !decision.Retry {
			inst.MarkFailed(err.Error())
			logger.Warn("workflow failed",
				"attempt", inst.Attempt,
				"fatal", domain.IsFatal(err),
				"error", err,
			)
			return
		}

		telemetry.ActivityRetries.WithLabelValues(string(inst.Kind)).Inc()
		logger.Warn("activity attempt failed, retrying",
			"attempt", inst.Attempt,
			"delay", decision.Delay,
			"error", err,
		)

		if err := c.sleep(ctx, decision.Delay, inst.Deadline); err != nil {
			if ctx.Err() != nil {
				return
			}
			inst.MarkTimedOut()
			logger.Warn("workflow timed out during backoff", "attempt", inst.Attempt)
			return
		}
	}
}

// attempt выполняет одну попытку под таймаутом.
// Таймаут попытки не выходит за общий дедлайн instance.
func (c *Coordinator) attempt(ctx context.Context, inst *domain.WorkflowInstance, exec Executor, remaining time.Duration) (string, error) {
	timeout := c.attemptTimeout
	if timeout > remaining {
		timeout = remaining
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := exec.Execute(attemptCtx, inst)
	if err == nil {
		return result, nil
	}

	// Таймаут попытки — временная ошибка (retry по политике);
	// общий дедлайн проверяется в начале следующей итерации
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return "", fmt.Errorf("%w: attempt timed out after %v", domain.ErrTransient, timeout)
	}

	return "", err
}

// sleep ждёт задержку retry, не выходя за общий дедлайн instance.
// Возвращает ошибку, если ожидание прервано контекстом или дедлайном.
func (c *Coordinator) sleep(ctx context.Context, delay time.Duration, deadline time.Time) error {
	if until := time.Until(deadline); delay > until {
		delay = until
	}
	if delay <= 0 {
		return domain.ErrDeadline
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	// Задержка могла упереться в дедлайн
	if !time.Now().Before(deadline) {
		return domain.ErrDeadline
	}
	return nil
}
