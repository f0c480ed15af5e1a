package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxInputLength — максимальная длина входного текста в символах.
// Более длинный вход отклоняется до создания instance (ValidationError,
// ни одна попытка activity не расходуется).
const MaxInputLength = 10000

// WorkflowInstance — одно durable выполнение единицы работы.
//
// Instance создаётся gateway'ем при приёме запроса, доставляется воркеру
// через очередь и выполняется координатором: одна activity с retry
// согласно политике. Владелец на время выполнения — координатор;
// gateway видит только read-only снапшоты из БД.
type WorkflowInstance struct {
	// ID — уникальный идентификатор вида "reverse-a1b2c3d4".
	// ID не переиспользуется, пока instance не завершён.
	ID string `json:"id"`

	// Kind — вид activity (reverse | text).
	Kind ActivityKind `json:"kind"`

	// Input — входной текст.
	Input string `json:"input"`

	// Operation — операция обработки текста (только для Kind == KindText).
	Operation string `json:"operation,omitempty"`

	// Status — текущий статус выполнения.
	Status Status `json:"status"`

	// Attempt — номер последней попытки activity (0 — попыток не было).
	// Строго возрастает, ограничен RetryPolicy.MaxAttempts.
	Attempt int `json:"attempt"`

	// Result — результат успешного выполнения.
	Result string `json:"result,omitempty"`

	// Error — текст последней ошибки при FAILED / TIMED_OUT.
	Error string `json:"error,omitempty"`

	// Deadline — общий дедлайн instance (wall-clock потолок, независимый
	// от таймаутов отдельных попыток).
	Deadline time.Time `json:"deadline"`

	// StartedAt — время перехода в RUNNING.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время перехода в терминальный статус.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания instance.
	CreatedAt time.Time `json:"created_at"`
}

// NewWorkflowID генерирует идентификатор instance для вида activity.
// Формат: "<kind>-<8 hex>", например "reverse-3fa85f64".
func NewWorkflowID(kind ActivityKind) string {
	return fmt.Sprintf("%s-%s", kind, uuid.New().String()[:8])
}

// NewInstance создаёт новый instance в статусе PENDING.
func NewInstance(kind ActivityKind, input, operation string, deadline time.Time) *WorkflowInstance {
	return &WorkflowInstance{
		ID:        NewWorkflowID(kind),
		Kind:      kind,
		Input:     input,
		Operation: operation,
		Status:    StatusPending,
		Deadline:  deadline,
		CreatedAt: time.Now(),
	}
}

// ElapsedMs возвращает длительность выполнения в миллисекундах.
// Возвращает 0, если instance ещё не завершён.
func (w *WorkflowInstance) ElapsedMs() int64 {
	if w.StartedAt == nil || w.FinishedAt == nil {
		return 0
	}
	return w.FinishedAt.Sub(*w.StartedAt).Milliseconds()
}

// IsFinished возвращает true, если instance в терминальном статусе.
func (w *WorkflowInstance) IsFinished() bool {
	return w.Status.IsTerminal()
}

// MarkRunning переводит instance в RUNNING.
func (w *WorkflowInstance) MarkRunning() {
	now := time.Now()
	w.Status = StatusRunning
	w.StartedAt = &now
}

// MarkCompleted переводит instance в COMPLETED с результатом.
func (w *WorkflowInstance) MarkCompleted(result string) {
	now := time.Now()
	w.Status = StatusCompleted
	w.FinishedAt = &now
	w.Result = result
	w.Error = ""
}

// MarkFailed переводит instance в FAILED с последней ошибкой.
func (w *WorkflowInstance) MarkFailed(reason string) {
	now := time.Now()
	w.Status = StatusFailed
	w.FinishedAt = &now
	w.Error = reason
}

// MarkTimedOut переводит instance в TIMED_OUT.
// Вызывается когда общий дедлайн истёк, независимо от остатка retry-бюджета.
func (w *WorkflowInstance) MarkTimedOut() {
	now := time.Now()
	w.Status = StatusTimedOut
	w.FinishedAt = &now
	if w.Error == "" {
		w.Error = "instance deadline exceeded"
	}
}
