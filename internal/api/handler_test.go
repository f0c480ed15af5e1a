package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/gateway"
	"github.com/okrasov/textflow/internal/repo"
)

// stubGateway — управляемая реализация Submitter.
type stubGateway struct {
	completion *gateway.Completion
	instance   *domain.WorkflowInstance
	err        error

	lastText      string
	lastOperation string
}

func (s *stubGateway) SubmitReverse(_ context.Context, text string) (*gateway.Completion, error) {
	s.lastText = text
	return s.completion, s.err
}

func (s *stubGateway) SubmitText(_ context.Context, text, operation string) (*gateway.Completion, error) {
	s.lastText = text
	s.lastOperation = operation
	return s.completion, s.err
}

func (s *stubGateway) Lookup(_ context.Context, _ string) (*domain.WorkflowInstance, error) {
	return s.instance, s.err
}

// stubHealth — фиксированный отчёт о здоровье.
type stubHealth struct {
	report domain.HealthReport
}

func (s *stubHealth) Report() domain.HealthReport { return s.report }

func newTestServer(gw Submitter, hr HealthReporter) *httptest.Server {
	handler := NewHandler(Config{Gateway: gw, Health: hr})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func decodeError(t *testing.T, resp *http.Response) ErrorDetail {
	t.Helper()
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return body.Error
}

func TestSubmitReverse_OK(t *testing.T) {
	gw := &stubGateway{completion: &gateway.Completion{
		WorkflowID: "reverse-a1b2c3d4",
		Status:     string(domain.StatusCompleted),
		Result:     "dlroW olleH",
		Attempts:   1,
		ElapsedMs:  7,
	}}
	server := newTestServer(gw, &stubHealth{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/reverse", "application/json",
		strings.NewReader(`{"text":"Hello World"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gw.lastText != "Hello World" {
		t.Errorf("gateway received %q", gw.lastText)
	}

	var body struct {
		Data CompletionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.Result != "dlroW olleH" {
		t.Errorf("expected reversed result, got %q", body.Data.Result)
	}
	if body.Data.WorkflowID != "reverse-a1b2c3d4" {
		t.Errorf("response must carry the workflow id, got %q", body.Data.WorkflowID)
	}
}

func TestSubmitText_PassesOperation(t *testing.T) {
	gw := &stubGateway{completion: &gateway.Completion{
		WorkflowID: "text-deadbeef",
		Status:     string(domain.StatusCompleted),
		Result:     "A summary.",
	}}
	server := newTestServer(gw, &stubHealth{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/text", "application/json",
		strings.NewReader(`{"text":"long article","operation":"summarize"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gw.lastOperation != "summarize" {
		t.Errorf("gateway received operation %q", gw.lastOperation)
	}
}

func TestSubmit_ValidationErrorIs400(t *testing.T) {
	gw := &stubGateway{err: fmt.Errorf("%w: text cannot be empty", domain.ErrValidation)}
	server := newTestServer(gw, &stubHealth{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/reverse", "application/json",
		strings.NewReader(`{"text":""}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	detail := decodeError(t, resp)
	if detail.Code != ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", detail.Code)
	}
}

func TestSubmit_EngineUnavailableIs503(t *testing.T) {
	gw := &stubGateway{err: fmt.Errorf("%w: create workflow: connection refused", domain.ErrEngineUnavailable)}
	server := newTestServer(gw, &stubHealth{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/reverse", "application/json",
		strings.NewReader(`{"text":"abc"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	detail := decodeError(t, resp)
	if detail.Code != ErrCodeEngineUnavailable {
		t.Errorf("expected ENGINE_UNAVAILABLE, got %s", detail.Code)
	}
}

func TestSubmit_WaitTimeoutIs504WithWorkflowID(t *testing.T) {
	gw := &stubGateway{err: &gateway.WaitTimeoutError{WorkflowID: "text-12345678"}}
	server := newTestServer(gw, &stubHealth{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/text", "application/json",
		strings.NewReader(`{"text":"abc","operation":"expand"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", resp.StatusCode)
	}
	detail := decodeError(t, resp)
	if detail.Code != ErrCodeWaitTimeout {
		t.Errorf("expected WAIT_TIMEOUT, got %s", detail.Code)
	}
	if detail.WorkflowID != "text-12345678" {
		t.Errorf("timeout response must carry the workflow id, got %q", detail.WorkflowID)
	}
}

func TestSubmit_MalformedBodyIs400(t *testing.T) {
	server := newTestServer(&stubGateway{}, &stubHealth{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/reverse", "application/json",
		strings.NewReader(`{not json`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetWorkflow_OK(t *testing.T) {
	started := time.Now().Add(-time.Second)
	gw := &stubGateway{instance: &domain.WorkflowInstance{
		ID:        "text-deadbeef",
		Kind:      domain.KindText,
		Operation: "analyze",
		Status:    domain.StatusRunning,
		Attempt:   2,
		Deadline:  time.Now().Add(time.Minute),
		StartedAt: &started,
		CreatedAt: time.Now().Add(-2 * time.Second),
	}}
	server := newTestServer(gw, &stubHealth{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/workflows/text-deadbeef")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Data WorkflowResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.Status != string(domain.StatusRunning) {
		t.Errorf("expected RUNNING, got %s", body.Data.Status)
	}
	if body.Data.Attempt != 2 {
		t.Errorf("expected attempt 2, got %d", body.Data.Attempt)
	}
}

func TestGetWorkflow_NotFoundIs404(t *testing.T) {
	gw := &stubGateway{err: fmt.Errorf("%w: workflow text-missing", repo.ErrNotFound)}
	server := newTestServer(gw, &stubHealth{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/workflows/text-missing")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetHealth_ReportsComponents(t *testing.T) {
	hr := &stubHealth{report: domain.HealthReport{
		Healthy: false,
		Components: map[string]domain.HealthSnapshot{
			"workflow_engine": {Component: "workflow_engine", Healthy: true, CheckedAt: time.Now()},
			"text_service":    {Component: "text_service", Healthy: false, CheckedAt: time.Now(), Error: "api returned status 503"},
		},
	}}
	server := newTestServer(&stubGateway{}, hr)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Healthy {
		t.Error("report with an unhealthy component must not be healthy")
	}
	if !body.Components["workflow_engine"].Healthy {
		t.Error("workflow_engine should be healthy")
	}
	if body.Components["text_service"].Error == "" {
		t.Error("unhealthy component must carry its error")
	}
}
