package worker

import (
	"fmt"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/llm"
	"github.com/okrasov/textflow/internal/workflow"
)

// Registry — реестр executor'ов по виду activity.
type Registry struct {
	executors map[domain.ActivityKind]workflow.Executor
}

// NewRegistry создаёт реестр с зарегистрированными executor'ами по умолчанию.
//
// Регистрирует: reverse, text.
func NewRegistry(llmClient *llm.Client) *Registry {
	r := &Registry{executors: make(map[domain.ActivityKind]workflow.Executor)}
	r.Register(domain.KindReverse, &ReverseExecutor{})
	r.Register(domain.KindText, &TextExecutor{Client: llmClient})
	return r
}

// Register добавляет executor для вида activity.
func (r *Registry) Register(kind domain.ActivityKind, executor workflow.Executor) {
	r.executors[kind] = executor
}

// Get возвращает executor для вида activity.
func (r *Registry) Get(kind domain.ActivityKind) (workflow.Executor, error) {
	executor, ok := r.executors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivityKind, kind)
	}
	return executor, nil
}
