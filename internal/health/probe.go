package health

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okrasov/textflow/internal/llm"
	"github.com/okrasov/textflow/internal/mq"
)

// Probe — проверка здоровья одного компонента.
type Probe interface {
	// Name — имя компонента в отчёте ("workflow_engine", "text_service").
	Name() string

	// Check выполняет проверку. nil — компонент здоров.
	Check(ctx context.Context) error
}

// EngineProbe проверяет доступность workflow-движка:
// БД с instances и подключение к брокеру.
type EngineProbe struct {
	Pool *pgxpool.Pool
	Conn *mq.Connection
}

// Name возвращает имя компонента.
func (p *EngineProbe) Name() string { return "workflow_engine" }

// Check пингует БД и проверяет подключение к брокеру.
func (p *EngineProbe) Check(ctx context.Context) error {
	if p.Pool == nil {
		return fmt.Errorf("database pool is not configured")
	}
	if err := p.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}

	if p.Conn != nil && !p.Conn.IsConnected() {
		return fmt.Errorf("message broker is not connected")
	}

	return nil
}

// TextServiceProbe проверяет доступность внешнего LLM-сервиса
// минимальным реальным вызовом.
type TextServiceProbe struct {
	Client *llm.Client
}

// Name возвращает имя компонента.
func (p *TextServiceProbe) Name() string { return "text_service" }

// Check выполняет probe-вызов к LLM-сервису.
func (p *TextServiceProbe) Check(ctx context.Context) error {
	if p.Client == nil {
		return fmt.Errorf("llm client is not configured")
	}
	return p.Client.Healthz(ctx)
}

// ProbeFunc — адаптер функции к интерфейсу Probe.
type ProbeFunc struct {
	ComponentName string
	CheckFunc     func(ctx context.Context) error
}

// Name возвращает имя компонента.
func (p ProbeFunc) Name() string { return p.ComponentName }

// Check вызывает функцию проверки.
func (p ProbeFunc) Check(ctx context.Context) error { return p.CheckFunc(ctx) }
