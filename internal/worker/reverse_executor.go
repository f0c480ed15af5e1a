package worker

import (
	"context"
	"fmt"

	"github.com/okrasov/textflow/internal/domain"
)

// ReverseExecutor — executor для activity вида "reverse".
//
// Чистое детерминированное вычисление: переворачивает строку по рунам.
// Повторное выполнение (redelivery) безопасно. Единственный отказ —
// нарушение предусловия на вход (fatal, без retry).
type ReverseExecutor struct{}

// Execute переворачивает входную строку.
func (e *ReverseExecutor) Execute(_ context.Context, inst *domain.WorkflowInstance) (string, error) {
	if len(inst.Input) > domain.MaxInputLength {
		return "", fmt.Errorf("%w: input text too long (max %d characters)",
			domain.ErrValidation, domain.MaxInputLength)
	}

	return reverse(inst.Input), nil
}

// reverse переворачивает строку по рунам, не ломая multibyte-символы.
func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
