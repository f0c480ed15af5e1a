package worker

import (
	"context"
	"fmt"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/llm"
)

// TextExecutor — executor для activity вида "text".
//
// Выполняет один исходящий запрос к LLM-сервису на каждую попытку;
// результаты не кэшируются. Классификацию ошибок (transient/fatal)
// делает llm.Client, здесь проверяются только предусловия входа.
type TextExecutor struct {
	Client *llm.Client
}

// Execute выполняет операцию обработки текста.
func (e *TextExecutor) Execute(ctx context.Context, inst *domain.WorkflowInstance) (string, error) {
	if len(inst.Input) > domain.MaxInputLength {
		return "", fmt.Errorf("%w: input text too long (max %d characters)",
			domain.ErrValidation, domain.MaxInputLength)
	}

	op := llm.Operation(inst.Operation)
	if !op.Valid() {
		return "", fmt.Errorf("%w: unsupported operation %q", domain.ErrValidation, inst.Operation)
	}

	return e.Client.Process(ctx, inst.Input, op)
}
