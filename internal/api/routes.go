package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Submit
	mux.Handle("POST /api/v1/reverse", chain(http.HandlerFunc(h.SubmitReverse)))
	mux.Handle("POST /api/v1/text", chain(http.HandlerFunc(h.SubmitText)))

	// Workflows
	mux.Handle("GET /api/v1/workflows/{id}", chain(http.HandlerFunc(h.GetWorkflow)))

	// Health
	mux.Handle("GET /api/v1/health", chain(http.HandlerFunc(h.GetHealth)))
}
