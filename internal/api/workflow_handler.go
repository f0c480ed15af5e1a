package api

import (
	"net/http"
)

// GetWorkflow возвращает текущее состояние instance.
// GET /api/v1/workflows/{id}
//
// Дополнение к блокирующему Submit: вызывающий, ушедший по таймауту
// ожидания, забирает результат отсюда.
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID := r.PathValue("id")
	if workflowID == "" {
		BadRequest(w, "workflow id is required")
		return
	}

	inst, err := h.gateway.Lookup(r.Context(), workflowID)
	if HandleLookupError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(inst))
}
