package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/mq"
	"github.com/okrasov/textflow/internal/repo"
	"github.com/okrasov/textflow/internal/telemetry"
)

// handleWorkflowPending обрабатывает событие о новом instance из очереди.
func (w *Worker) handleWorkflowPending(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.WorkflowPendingPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse workflow.pending payload", "error", err)
		return err
	}

	w.logger.Debug("received workflow.pending event",
		"workflow_id", payload.WorkflowID,
		"kind", payload.Kind,
		"redelivered", delivery.Redelivered(),
	)

	if err := w.processWorkflow(ctx, payload.WorkflowID); err != nil {
		// Ожидаемые ситуации — не возвращаем ошибку (ack)
		if errors.Is(err, ErrWorkflowNotFound) || errors.Is(err, ErrWorkflowNotClaimed) {
			w.logger.Debug("workflow not processed", "workflow_id", payload.WorkflowID, "reason", err)
			return nil
		}
		w.logger.Error("failed to process workflow", "workflow_id", payload.WorkflowID, "error", err)
		return err
	}

	return nil
}

// processWorkflow клеймит instance, прогоняет через координатор
// и публикует результат.
func (w *Worker) processWorkflow(ctx context.Context, workflowID string) error {
	// 1. Загружаем instance из БД
	inst, err := w.repo.GetByID(ctx, workflowID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrWorkflowNotFound, workflowID)
		}
		return fmt.Errorf("get workflow: %w", err)
	}

	// 2. Redelivery уже завершённого instance: переотправляем
	// результат (at-least-once) и подтверждаем
	if inst.IsFinished() {
		w.logger.Debug("workflow already finished, republishing completion",
			"workflow_id", inst.ID,
			"status", inst.Status,
		)
		w.publishCompletion(ctx, inst)
		return nil
	}

	// 3. Эксклюзивный claim: PENDING → RUNNING.
	// Проигрыш гонки (очередь vs polling) — штатная ситуация.
	startedAt := time.Now()
	claimed, err := w.repo.ClaimPending(ctx, inst.ID, startedAt)
	if err != nil {
		return fmt.Errorf("claim workflow: %w", err)
	}
	if !claimed {
		return fmt.Errorf("%w: %s", ErrWorkflowNotClaimed, inst.ID)
	}

	inst.Status = domain.StatusRunning
	inst.StartedAt = &startedAt
	telemetry.WorkflowsStarted.WithLabelValues(string(inst.Kind)).Inc()

	w.logger.Info("workflow started",
		"workflow_id", inst.ID,
		"kind", inst.Kind,
		"deadline", inst.Deadline,
	)

	// 4. Executor по виду activity
	executor, err := w.registry.Get(inst.Kind)
	if err != nil {
		inst.MarkFailed(err.Error())
		if updErr := w.repo.Update(ctx, inst); updErr != nil {
			return fmt.Errorf("update workflow after unknown kind: %w", updErr)
		}
		w.publishCompletion(ctx, inst)
		return nil
	}

	// 5. Координатор ведёт instance до терминального статуса
	coordinator, ok := w.coordinators[inst.Kind]
	if !ok {
		return fmt.Errorf("no coordinator for kind %s", inst.Kind)
	}
	coordinator.Run(ctx, inst, executor)

	// 6. Останов воркера посреди выполнения: instance остался RUNNING,
	// nack вернёт задание в очередь
	if !inst.IsFinished() {
		return fmt.Errorf("%w: workflow %s interrupted", ErrWorkerStopped, inst.ID)
	}

	// 7. Сохраняем терминальное состояние и публикуем результат
	if err := w.repo.Update(ctx, inst); err != nil {
		return fmt.Errorf("update workflow to %s: %w", inst.Status, err)
	}

	telemetry.WorkflowsFinished.WithLabelValues(string(inst.Kind), string(inst.Status)).Inc()
	telemetry.WorkflowDuration.WithLabelValues(string(inst.Kind)).
		Observe(float64(inst.ElapsedMs()) / 1000)

	w.logger.Info("workflow finished",
		"workflow_id", inst.ID,
		"kind", inst.Kind,
		"status", inst.Status,
		"attempts", inst.Attempt,
		"elapsed_ms", inst.ElapsedMs(),
	)

	w.publishCompletion(ctx, inst)
	return nil
}

// publishCompletion публикует событие workflow.completed.
// Ошибка публикации не фатальна: gateway подхватит результат
// через polling fallback.
func (w *Worker) publishCompletion(ctx context.Context, inst *domain.WorkflowInstance) {
	if w.publisher == nil {
		w.logger.Warn("publisher not available, skipping workflow.completed publish",
			"workflow_id", inst.ID,
		)
		return
	}

	payload := mq.WorkflowCompletedPayload{
		WorkflowID: inst.ID,
		Status:     string(inst.Status),
		Result:     inst.Result,
		Error:      inst.Error,
		Attempts:   inst.Attempt,
		ElapsedMs:  inst.ElapsedMs(),
	}

	if err := w.publisher.PublishWorkflowCompleted(ctx, payload); err != nil {
		w.logger.Warn("failed to publish workflow.completed",
			"workflow_id", inst.ID,
			"error", err,
		)
	}
}
