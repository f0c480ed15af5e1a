package domain

// Status — статус выполнения workflow instance.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ FAILED
//	                  ↘ TIMED_OUT (общий дедлайн instance истёк)
//
// Переходы строго монотонны: терминальный статус не меняется.
type Status string

const (
	// StatusPending — instance создан, ожидает воркера.
	StatusPending Status = "PENDING"

	// StatusRunning — instance выполняется (включая паузы между retry).
	StatusRunning Status = "RUNNING"

	// StatusCompleted — instance успешно завершён, результат сохранён.
	StatusCompleted Status = "COMPLETED"

	// StatusFailed — instance завершился с ошибкой (fatal или retry исчерпаны).
	StatusFailed Status = "FAILED"

	// StatusTimedOut — общий дедлайн instance истёк до получения результата.
	StatusTimedOut Status = "TIMED_OUT"
)

// IsTerminal возвращает true, если статус финальный.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimedOut:
		return true
	default:
		return false
	}
}

// ActivityKind — вид activity, выполняемой внутри workflow.
type ActivityKind string

const (
	// KindReverse — чистое вычисление: переворот строки.
	KindReverse ActivityKind = "reverse"

	// KindText — внешний вызов: обработка текста LLM-сервисом.
	KindText ActivityKind = "text"
)

// Valid проверяет, что вид activity известен системе.
func (k ActivityKind) Valid() bool {
	return k == KindReverse || k == KindText
}
