// Package errors maps assistant failures to API error codes and HTTP statuses.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/shvkateryna/internship/plugin/ai/agent"
	"github.com/shvkateryna/internship/plugin/ai/agent/tools"
	"github.com/shvkateryna/internship/plugin/ai/rag"
	"github.com/shvkateryna/internship/plugin/ai/session"
	"github.com/shvkateryna/internship/plugin/translate"
)

// ErrorCode represents a specific error type for assistant operations.
type ErrorCode string

const (
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeServiceUnavailable indicates the service is not available.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeToolNotFound indicates the requested tool is not registered.
	ErrCodeToolNotFound ErrorCode = "TOOL_NOT_FOUND"
	// ErrCodeToolExecutionFailed indicates a tool invocation failed.
	ErrCodeToolExecutionFailed ErrorCode = "TOOL_EXECUTION_FAILED"
	// ErrCodeSessionStoreFailed indicates session history could not be read or written.
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"
	// ErrCodeReindexFailed indicates a reindex failed and the old index kept serving.
	ErrCodeReindexFailed ErrorCode = "REINDEX_FAILED"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal is used for anything unclassified.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AIError represents a structured error for assistant operations.
type AIError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AIError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AIError) WithContext(key string, value any) *AIError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *AIError) GetCode() ErrorCode {
	return e.Code
}

// HTTPStatus returns the status code the API answers with for this error.
func (e *AIError) HTTPStatus() int {
	return StatusFor(e.Code)
}

// Convenience constructors for common error types.

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *AIError {
	return &AIError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AIError {
	return &AIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(msg string) *AIError {
	return &AIError{Code: ErrCodeServiceUnavailable, Message: msg}
}

// ToolNotFound creates a tool not found error.
func ToolNotFound(name string) *AIError {
	return &AIError{
		Code:    ErrCodeToolNotFound,
		Message: fmt.Sprintf("tool not found: %s", name),
	}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *AIError {
	return &AIError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string) *AIError {
	return &AIError{Code: ErrCodeTimeout, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *AIError {
	return &AIError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an AIError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code
	}
	return defaultCode
}

// Classify converts an error from the assistant plugins into an AIError.
// An AIError anywhere in the chain is returned as is.
func Classify(err error) *AIError {
	if err == nil {
		return nil
	}
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr
	}

	var (
		notFound *tools.NotFoundError
		toolErr  *tools.ToolExecutionError
		storeErr *session.SessionStoreError
	)
	switch {
	case stderrors.As(err, &notFound):
		return &AIError{Code: ErrCodeToolNotFound, Message: "tool not found", Cause: err}
	case stderrors.Is(err, tools.ErrInvalidArguments),
		stderrors.Is(err, agent.ErrEmptyInput),
		stderrors.Is(err, session.ErrEmptySessionID),
		stderrors.Is(err, translate.ErrEmptyInput):
		return &AIError{Code: ErrCodeInvalidArgument, Message: "invalid argument", Cause: err}
	case stderrors.Is(err, context.DeadlineExceeded):
		return &AIError{Code: ErrCodeTimeout, Message: "operation timed out", Cause: err}
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, agent.ErrAborted):
		return ContextCanceled(err)
	case rag.IsReindexError(err):
		return &AIError{Code: ErrCodeReindexFailed, Message: "reindex failed, previous index kept", Cause: err}
	case stderrors.As(err, &storeErr):
		return &AIError{Code: ErrCodeSessionStoreFailed, Message: "session store unavailable", Cause: err}
	case stderrors.As(err, &toolErr):
		return &AIError{Code: ErrCodeToolExecutionFailed, Message: "tool execution failed", Cause: err}
	default:
		return &AIError{Code: ErrCodeInternal, Message: "internal error", Cause: err}
	}
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeToolNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeServiceUnavailable, ErrCodeSessionStoreFailed:
		return http.StatusServiceUnavailable
	case ErrCodeToolExecutionFailed, ErrCodeReindexFailed:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeContextCanceled:
		// nginx's "client closed request"
		return 499
	default:
		return http.StatusInternalServerError
	}
}
