package api

import (
	"net/http"
)

// GetHealth возвращает агрегированное здоровье зависимостей.
// GET /api/v1/health
//
// Ответ собирается из закэшированного отчёта: хэндлер не выполняет
// реальных проверок и отвечает мгновенно. Деградация не прячется
// за статус-кодом — 200 с healthy=false, чтобы вызывающий видел,
// какой именно компонент нездоров.
func (h *Handler) GetHealth(w http.ResponseWriter, _ *http.Request) {
	report := h.health.Report()
	JSON(w, http.StatusOK, HealthFromDomain(report))
}
