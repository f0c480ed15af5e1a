// Package retry содержит политику повторных попыток и её вычислитель.
//
// Decide — чистая детерминированная функция без побочных эффектов:
// (номер попытки, последняя ошибка) → Retry(delay) | GiveUp.
// Координатор вызывает её после каждой неудачной попытки activity.
package retry

import (
	"math"
	"time"

	"github.com/okrasov/textflow/internal/domain"
)

// Policy — неизменяемая политика повторных попыток.
// Разделяется read-only всеми координаторами одного вида activity.
type Policy struct {
	// MaxAttempts — максимальное количество попыток (включая первую).
	MaxAttempts int `json:"max_attempts"`

	// InitialBackoff — задержка перед второй попыткой.
	InitialBackoff time.Duration `json:"initial_backoff"`

	// BackoffMultiplier — множитель экспоненциального роста задержки.
	BackoffMultiplier float64 `json:"backoff_multiplier"`

	// MaxBackoff — потолок задержки.
	MaxBackoff time.Duration `json:"max_backoff"`
}

// DefaultPolicy возвращает политику по умолчанию:
// 3 попытки, 1s → 2s → 4s, потолок 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        10 * time.Second,
	}
}

// Decision — решение вычислителя.
type Decision struct {
	// Retry — выполнять ли ещё одну попытку.
	Retry bool

	// Delay — задержка перед следующей попыткой (если Retry == true).
	Delay time.Duration
}

// Decide решает судьбу instance после неудачной попытки attempt (≥1).
//
// GiveUp при attempt ≥ MaxAttempts или fatal-классе ошибки.
// Иначе Retry с задержкой Backoff(attempt).
func Decide(p Policy, attempt int, lastErr error) Decision {
	if domain.IsFatal(lastErr) {
		return Decision{}
	}
	if attempt >= p.MaxAttempts {
		return Decision{}
	}
	return Decision{Retry: true, Delay: Backoff(p, attempt)}
}

// Backoff вычисляет задержку после попытки attempt (≥1):
// min(InitialBackoff × BackoffMultiplier^(attempt-1), MaxBackoff).
// Задержка монотонно не убывает с ростом attempt.
func Backoff(p Policy, attempt int) time.Duration {
	initial := p.InitialBackoff
	if initial <= 0 {
		initial = time.Second
	}

	mult := p.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}

	max := p.MaxBackoff
	if max <= 0 {
		max = 30 * time.Second
	}

	delay := time.Duration(float64(initial) * math.Pow(mult, float64(attempt-1)))
	if delay > max || delay <= 0 {
		delay = max
	}

	return delay
}
