package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/llm"
)

// --- ReverseExecutor Tests ---

func reverseInstance(input string) *domain.WorkflowInstance {
	return domain.NewInstance(domain.KindReverse, input, "", time.Now().Add(time.Minute))
}

func TestReverseExecutor_HelloWorld(t *testing.T) {
	executor := &ReverseExecutor{}

	result, err := executor.Execute(context.Background(), reverseInstance("Hello World"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "dlroW olleH" {
		t.Errorf("expected %q, got %q", "dlroW olleH", result)
	}
}

func TestReverseExecutor_EmptyString(t *testing.T) {
	executor := &ReverseExecutor{}

	result, err := executor.Execute(context.Background(), reverseInstance(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "" {
		t.Errorf("reversing empty string should yield empty string, got %q", result)
	}
}

func TestReverseExecutor_Unicode(t *testing.T) {
	executor := &ReverseExecutor{}

	cases := []struct {
		input string
		want  string
	}{
		{"привет", "тевирп"},
		{"ab🙂cd", "dc🙂ba"},
		{"a", "a"},
	}

	for _, c := range cases {
		got, err := executor.Execute(context.Background(), reverseInstance(c.input))
		if err != nil {
			t.Fatalf("input %q: unexpected error: %v", c.input, err)
		}
		if got != c.want {
			t.Errorf("input %q: expected %q, got %q", c.input, c.want, got)
		}
	}
}

func TestReverseExecutor_OversizedInputIsFatal(t *testing.T) {
	executor := &ReverseExecutor{}
	input := strings.Repeat("x", domain.MaxInputLength+1)

	_, err := executor.Execute(context.Background(), reverseInstance(input))

	if !domain.IsFatal(err) {
		t.Fatalf("expected fatal validation error for oversized input, got %v", err)
	}
}

func TestReverseExecutor_MaxLengthInputAccepted(t *testing.T) {
	executor := &ReverseExecutor{}
	input := strings.Repeat("y", domain.MaxInputLength)

	result, err := executor.Execute(context.Background(), reverseInstance(input))
	if err != nil {
		t.Fatalf("input at the limit should be accepted: %v", err)
	}
	if len(result) != domain.MaxInputLength {
		t.Errorf("expected %d characters, got %d", domain.MaxInputLength, len(result))
	}
}

// --- TextExecutor Tests ---

func textInstance(input, operation string) *domain.WorkflowInstance {
	return domain.NewInstance(domain.KindText, input, operation, time.Now().Add(time.Minute))
}

func TestTextExecutor_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "A summary."}},
			},
		})
	}))
	defer server.Close()

	executor := &TextExecutor{Client: llm.NewClient(llm.Config{BaseURL: server.URL})}

	result, err := executor.Execute(context.Background(), textInstance("long text", "summarize"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "A summary." {
		t.Errorf("expected summary result, got %q", result)
	}
}

func TestTextExecutor_UnknownOperationIsFatal(t *testing.T) {
	executor := &TextExecutor{Client: llm.NewClient(llm.Config{})}

	_, err := executor.Execute(context.Background(), textInstance("text", "translate"))

	if !domain.IsFatal(err) {
		t.Fatalf("expected fatal error for unsupported operation, got %v", err)
	}
}

func TestTextExecutor_RemoteFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	executor := &TextExecutor{Client: llm.NewClient(llm.Config{BaseURL: server.URL})}

	_, err := executor.Execute(context.Background(), textInstance("text", "rephrase"))

	if !domain.IsTransient(err) {
		t.Fatalf("expected transient error for 503, got %v", err)
	}
}

func TestTextExecutor_DeadlinePropagates(t *testing.T) {
	// Сервер отвечает дольше, чем живёт контекст попытки
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	executor := &TextExecutor{Client: llm.NewClient(llm.Config{BaseURL: server.URL})}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := executor.Execute(ctx, textInstance("text", "analyze"))
	if err == nil {
		t.Fatal("expected error when attempt deadline expires")
	}
}

// --- Registry Tests ---

func TestRegistry_KnownKinds(t *testing.T) {
	registry := NewRegistry(llm.NewClient(llm.Config{}))

	if _, err := registry.Get(domain.KindReverse); err != nil {
		t.Errorf("reverse executor should be registered: %v", err)
	}
	if _, err := registry.Get(domain.KindText); err != nil {
		t.Errorf("text executor should be registered: %v", err)
	}
}

func TestRegistry_UnknownKind(t *testing.T) {
	registry := NewRegistry(llm.NewClient(llm.Config{}))

	_, err := registry.Get(domain.ActivityKind("batch"))
	if err == nil {
		t.Fatal("expected error for unknown activity kind")
	}
}
