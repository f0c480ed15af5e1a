package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// CompletionResponse — результат завершённого instance из API.
type CompletionResponse struct {
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	Attempts   int    `json:"attempts"`
	ElapsedMs  int64  `json:"elapsed_ms"`
}

// WorkflowResponse — состояние instance из API.
type WorkflowResponse struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Operation  string `json:"operation,omitempty"`
	Status     string `json:"status"`
	Attempt    int    `json:"attempt"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	Deadline   string `json:"deadline"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ComponentResponse — здоровье компонента из API.
type ComponentResponse struct {
	Healthy   bool   `json:"healthy"`
	CheckedAt string `json:"checked_at"`
	Error     string `json:"error,omitempty"`
}

// HealthResponse — агрегированный отчёт из API.
type HealthResponse struct {
	Healthy    bool                         `json:"healthy"`
	Components map[string]ComponentResponse `json:"components"`
}

// --- Request types ---

// ReverseRequest — запрос на разворот строки.
type ReverseRequest struct {
	Text string `json:"text"`
}

// TextRequest — запрос на обработку текста.
type TextRequest struct {
	Text      string `json:"text"`
	Operation string `json:"operation"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		WorkflowID string `json:"workflow_id,omitempty"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Textflow API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
// Submit-вызовы блокируются до завершения instance на стороне
// gateway, поэтому таймаут клиента заметно больше обычного.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Reverse отправляет текст на разворот и ждёт результат.
func (c *Client) Reverse(text string) (*CompletionResponse, error) {
	var completion CompletionResponse
	err := c.post("/api/v1/reverse", ReverseRequest{Text: text}, &completion)
	return &completion, err
}

// Text отправляет текст на обработку и ждёт результат.
func (c *Client) Text(text, operation string) (*CompletionResponse, error) {
	var completion CompletionResponse
	err := c.post("/api/v1/text", TextRequest{Text: text, Operation: operation}, &completion)
	return &completion, err
}

// GetWorkflow возвращает состояние instance по id.
func (c *Client) GetWorkflow(id string) (*WorkflowResponse, error) {
	var workflow WorkflowResponse
	err := c.get("/api/v1/workflows/"+id, &workflow)
	return &workflow, err
}

// Health возвращает агрегированный отчёт о здоровье.
// Ответ не обёрнут в DataResponse.
func (c *Client) Health() (*HealthResponse, error) {
	resp, err := c.do(http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &health, nil
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	// Таймаут ожидания: instance продолжает выполняться,
	// подсказываем как забрать результат
	if er.Error.WorkflowID != "" {
		return fmt.Errorf("%s: %s (check later: textflow workflow show %s)",
			er.Error.Code, er.Error.Message, er.Error.WorkflowID)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
