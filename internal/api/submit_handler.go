package api

import (
	"encoding/json"
	"net/http"
)

// SubmitReverse принимает текст на разворот и блокируется до результата.
// POST /api/v1/reverse
func (h *Handler) SubmitReverse(w http.ResponseWriter, r *http.Request) {
	var req ReverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	completion, err := h.gateway.SubmitReverse(r.Context(), req.Text)
	if HandleSubmitError(w, h.logger, err) {
		return
	}

	Success(w, CompletionFromGateway(completion))
}

// SubmitText принимает текст на обработку и блокируется до результата.
// POST /api/v1/text
func (h *Handler) SubmitText(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	completion, err := h.gateway.SubmitText(r.Context(), req.Text, req.Operation)
	if HandleSubmitError(w, h.logger, err) {
		return
	}

	Success(w, CompletionFromGateway(completion))
}
