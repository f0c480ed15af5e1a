package api

import (
	"time"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/gateway"
)

// Submit DTOs

// ReverseRequest — запрос на разворот строки.
type ReverseRequest struct {
	Text string `json:"text"`
}

// TextRequest — запрос на обработку текста.
type TextRequest struct {
	Text      string `json:"text"`
	Operation string `json:"operation"`
}

// CompletionResponse — результат завершённого instance.
type CompletionResponse struct {
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	Attempts   int    `json:"attempts"`
	ElapsedMs  int64  `json:"elapsed_ms"`
}

// CompletionFromGateway конвертирует gateway.Completion в CompletionResponse.
func CompletionFromGateway(c *gateway.Completion) CompletionResponse {
	return CompletionResponse{
		WorkflowID: c.WorkflowID,
		Status:     c.Status,
		Result:     c.Result,
		Error:      c.Error,
		Attempts:   c.Attempts,
		ElapsedMs:  c.ElapsedMs,
	}
}

// Workflow DTOs

// WorkflowResponse — текущее состояние instance.
type WorkflowResponse struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Operation  string     `json:"operation,omitempty"`
	Status     string     `json:"status"`
	Attempt    int        `json:"attempt"`
	Result     string     `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	Deadline   time.Time  `json:"deadline"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// WorkflowFromDomain конвертирует domain.WorkflowInstance в WorkflowResponse.
func WorkflowFromDomain(w *domain.WorkflowInstance) WorkflowResponse {
	return WorkflowResponse{
		ID:         w.ID,
		Kind:       string(w.Kind),
		Operation:  w.Operation,
		Status:     string(w.Status),
		Attempt:    w.Attempt,
		Result:     w.Result,
		Error:      w.Error,
		Deadline:   w.Deadline,
		StartedAt:  w.StartedAt,
		FinishedAt: w.FinishedAt,
		CreatedAt:  w.CreatedAt,
	}
}

// Health DTOs

// ComponentResponse — здоровье одного компонента.
type ComponentResponse struct {
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// HealthResponse — агрегированный отчёт о здоровье.
type HealthResponse struct {
	Healthy    bool                         `json:"healthy"`
	Components map[string]ComponentResponse `json:"components"`
}

// HealthFromDomain конвертирует domain.HealthReport в HealthResponse.
func HealthFromDomain(r domain.HealthReport) HealthResponse {
	components := make(map[string]ComponentResponse, len(r.Components))
	for name, snapshot := range r.Components {
		components[name] = ComponentResponse{
			Healthy:   snapshot.Healthy,
			CheckedAt: snapshot.CheckedAt,
			Error:     snapshot.Error,
		}
	}
	return HealthResponse{
		Healthy:    r.Healthy,
		Components: components,
	}
}
