package worker

import "errors"

// Ошибки воркера.
var (
	// ErrWorkflowNotFound — instance не найден в БД.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrWorkflowNotClaimed — instance уже взят другим воркером.
	ErrWorkflowNotClaimed = errors.New("workflow not claimed")

	// ErrUnknownActivityKind — нет executor'а для данного вида activity.
	ErrUnknownActivityKind = errors.New("unknown activity kind")

	// ErrWorkerStopped — воркер остановлен.
	ErrWorkerStopped = errors.New("worker stopped")
)
