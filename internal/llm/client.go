// Package llm — клиент внешнего сервиса обработки текста
// (OpenAI-совместимый chat completions API).
//
// Сервис рассматривается как непрозрачная удалённая функция с задержкой
// и отказами. Классификация ошибок:
//   - сеть, 5xx, 429, таймаут → domain.ErrTransient (retry по политике)
//   - 400/413/422 (некорректный или слишком большой вход) → domain.ErrValidation
//
// Результаты не кэшируются: один исходящий запрос на каждую попытку.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Значения по умолчанию.
const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4-turbo-preview"
	defaultHTTPTimeout = 30 * time.Second

	maxTokens   = 500
	temperature = 0.7

	// healthMaxTokens — минимальный запрос для liveness-проверки.
	healthMaxTokens = 5
)

// Client — клиент chat completions API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	logger  *slog.Logger
}

// Config — конфигурация клиента.
type Config struct {
	// BaseURL — базовый URL API (default: https://api.openai.com/v1).
	BaseURL string

	// APIKey — ключ API.
	APIKey string

	// Model — идентификатор модели (default: gpt-4-turbo-preview).
	Model string

	// Timeout — таймаут HTTP-запроса (default: 30s).
	Timeout time.Duration

	// Logger
	Logger *slog.Logger
}

// NewClient создаёт новый Client.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ConfigFromEnv читает конфигурацию из окружения:
// LLM_BASE_URL, LLM_API_KEY, LLM_MODEL.
func ConfigFromEnv(logger *slog.Logger) Config {
	return Config{
		BaseURL: os.Getenv("LLM_BASE_URL"),
		APIKey:  os.Getenv("LLM_API_KEY"),
		Model:   os.Getenv("LLM_MODEL"),
		Logger:  logger,
	}
}

// Model возвращает идентификатор модели, отправляемый в каждом запросе.
func (c *Client) Model() string {
	return c.model
}

// chatRequest — тело запроса chat completions.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse — тело ответа chat completions.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Process выполняет операцию обработки текста.
// Один исходящий запрос на вызов; retry — ответственность координатора.
func (c *Client) Process(ctx context.Context, text string, op Operation) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: Prompt(op, text)},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	c.logger.Debug("processing text", "operation", op, "model", c.model)

	resp, err := c.complete(ctx, req)
	if err != nil {
		return "", err
	}

	return resp, nil
}

// Healthz — liveness-проба: минимальный запрос к API.
// Любая ошибка или не-2xx ответ означает unhealthy.
func (c *Client) Healthz(ctx context.Context) error {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: "Hello"},
		},
		MaxTokens: healthMaxTokens,
	}

	_, err := c.complete(ctx, req)
	return err
}

// complete выполняет один запрос chat completions и возвращает текст ответа.
func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return "", transientf("request failed: %v", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", transientf("read response: %v", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", classifyStatus(httpResp.StatusCode, respBody)
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", transientf("unmarshal response: %v", err)
	}

	if len(resp.Choices) == 0 {
		return "", transientf("empty choices in response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
