package llm

import (
	"fmt"

	"github.com/okrasov/textflow/internal/domain"
)

// transientf оборачивает ошибку как временную (retry по политике).
func transientf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrTransient, fmt.Sprintf(format, args...))
}

// classifyStatus классифицирует не-2xx ответ провайдера.
//
// 400/413/422 — проблема входа, retry бессмыслен.
// Остальное (429, 5xx, 401 при ротации ключа) — временная ошибка.
func classifyStatus(statusCode int, body []byte) error {
	msg := fmt.Sprintf("HTTP %d: %s", statusCode, truncate(string(body), 200))

	switch statusCode {
	case 400, 413, 422:
		return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	default:
		return fmt.Errorf("%w: %s", domain.ErrTransient, msg)
	}
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
