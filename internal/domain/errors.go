package domain

import "errors"

// Таксономия ошибок выполнения.
//
// Классификация определяет поведение retry:
//   - ErrValidation — fatal, retry не выполняется;
//   - ErrTransient — retry согласно политике;
//   - ErrEngineUnavailable — оркестрация недоступна, отражается
//     в health snapshot и отдаётся вызывающему как 5xx;
//   - ErrDeadline — общий дедлайн instance истёк.
var (
	// ErrValidation — некорректный вход (пустой, слишком длинный, неизвестная операция).
	ErrValidation = errors.New("validation error")

	// ErrTransient — временная ошибка: сеть, 5xx/429 удалённого сервиса, таймаут попытки.
	ErrTransient = errors.New("transient error")

	// ErrEngineUnavailable — очередь или хранилище не принимают работу.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrDeadline — общий дедлайн instance истёк.
	ErrDeadline = errors.New("instance deadline exceeded")
)

// IsFatal возвращает true для ошибок, при которых retry бессмыслен.
func IsFatal(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTransient возвращает true для ошибок, допускающих повторную попытку.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
