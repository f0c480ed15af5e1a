package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/okrasov/textflow/internal/domain"
	"github.com/okrasov/textflow/internal/gateway"
	"github.com/okrasov/textflow/internal/repo"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrCodeWaitTimeout       ErrorCode = "WAIT_TIMEOUT"
	ErrCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
// WorkflowID заполняется, когда instance уже создан: вызывающий
// может дождаться результата через GET /api/v1/workflows/{id}.
type ErrorDetail struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	WorkflowID string    `json:"workflow_id,omitempty"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleSubmitError преобразует ошибку gateway.Submit* в HTTP ответ.
// Возвращает true, если ошибка обработана.
func HandleSubmitError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		Error(w, http.StatusBadRequest, ErrCodeValidation, err.Error())

	case errors.Is(err, domain.ErrEngineUnavailable):
		logger.Error("workflow engine unavailable", "error", err)
		Error(w, http.StatusServiceUnavailable, ErrCodeEngineUnavailable,
			"workflow engine is unavailable, try again later")

	case errors.Is(err, gateway.ErrWaitTimeout):
		detail := ErrorDetail{
			Code:    ErrCodeWaitTimeout,
			Message: err.Error(),
		}
		var waitErr *gateway.WaitTimeoutError
		if errors.As(err, &waitErr) {
			detail.WorkflowID = waitErr.WorkflowID
		}
		JSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: detail})

	default:
		InternalError(w, logger, err)
	}

	return true
}

// HandleLookupError преобразует ошибку поиска instance в HTTP ответ.
func HandleLookupError(w http.ResponseWriter, logger *slog.Logger, err error, notFoundMsg string) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, repo.ErrNotFound) {
		NotFound(w, notFoundMsg)
		return true
	}

	InternalError(w, logger, err)
	return true
}
