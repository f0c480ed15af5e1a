package gateway

import (
	"errors"
	"fmt"
)

// Ошибки gateway.
var (
	// ErrWaitTimeout — вызывающий не дождался результата.
	// Instance продолжает выполняться; результат доступен
	// через GET /api/v1/workflows/{id}.
	ErrWaitTimeout = errors.New("timed out waiting for workflow result")
)

// WaitTimeoutError — таймаут ожидания с id продолжающего
// выполняться instance.
type WaitTimeoutError struct {
	WorkflowID string
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("%v: workflow %s", ErrWaitTimeout, e.WorkflowID)
}

// Is поддерживает errors.Is(err, ErrWaitTimeout).
func (e *WaitTimeoutError) Is(target error) bool {
	return target == ErrWaitTimeout
}
