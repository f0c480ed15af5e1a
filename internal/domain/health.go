package domain

import "time"

// HealthSnapshot — последний результат проверки одного компонента.
// История не хранится: каждая проверка замещает предыдущий снапшот.
type HealthSnapshot struct {
	// Component — имя компонента ("workflow_engine", "text_service").
	Component string `json:"component"`

	// Healthy — результат последней проверки.
	Healthy bool `json:"healthy"`

	// CheckedAt — время последней проверки.
	CheckedAt time.Time `json:"checked_at"`

	// Error — текст ошибки последней неудачной проверки.
	Error string `json:"error,omitempty"`
}

// HealthReport — агрегированный статус всех зависимостей.
// Healthy == true только если все компоненты здоровы.
type HealthReport struct {
	Healthy    bool                      `json:"healthy"`
	Components map[string]HealthSnapshot `json:"components"`
}
