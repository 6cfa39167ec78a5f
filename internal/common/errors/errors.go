// Package errors provides standardized error handling for the search service.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeProviderFailed    ErrorCode = "PROVIDER_FAILED"
	ErrCodeProviderTimeout   ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderBadStatus ErrorCode = "PROVIDER_BAD_STATUS"
	ErrCodeProviderDecode    ErrorCode = "PROVIDER_DECODE_FAILED"
	ErrCodeMissingAPIKey     ErrorCode = "MISSING_API_KEY"

	ErrCodeAnswerGenerationFailed ErrorCode = "ANSWER_GENERATION_FAILED"
	ErrCodeAnswerParseFailed      ErrorCode = "ANSWER_PARSE_FAILED"

	ErrCodeUploadStoreFailed   ErrorCode = "UPLOAD_STORE_FAILED"
	ErrCodeUploadCleanupFailed ErrorCode = "UPLOAD_CLEANUP_FAILED"
)

// ErrNoResults marks a provider response that succeeded at the HTTP level
// but carried no usable web results, which the caller treats as a failure.
var ErrNoResults = errors.New("provider returned no results")

// StandardError is a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match two StandardErrors by code.
func (e *StandardError) Is(target error) bool {
	var std *StandardError
	if errors.As(target, &std) {
		return e.Code == std.Code
	}
	return false
}

// CodeOf extracts the ErrorCode from any error, or "INTERNAL_ERROR" when the
// error is not a StandardError.
func CodeOf(err error) ErrorCode {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Code
	}
	return "INTERNAL_ERROR"
}

// IsRetryable reports whether the error is worth retrying. Unknown errors
// are treated as retryable so transient network failures are not dropped.
func IsRetryable(err error) bool {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Retryable
	}
	return true
}

// NewInvalidInputError is the only error surfaced raw to callers: both the
// query and the image references were empty.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Query and image references are both empty",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderFailedError wraps any network or protocol failure of a single
// provider call.
func NewProviderFailedError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderFailed,
		Message:   "Search provider call failed",
		Details:   fmt.Sprintf("provider: %s, error: %s", provider, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"provider": provider},
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError marks a provider call aborted by its deadline.
func NewProviderTimeoutError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   "Search provider call timed out",
		Details:   fmt.Sprintf("provider: %s", provider),
		Retryable: true,
		Metadata:  map[string]interface{}{"provider": provider},
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderBadStatusError marks a non-2xx provider response.
func NewProviderBadStatusError(provider string, status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderBadStatus,
		Message:   "Search provider returned an error status",
		Details:   fmt.Sprintf("provider: %s, status: %d", provider, status),
		Retryable: status >= 500 || status == 429,
		Metadata:  map[string]interface{}{"provider": provider, "status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderDecodeError marks a malformed provider response body.
func NewProviderDecodeError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderDecode,
		Message:   "Search provider response could not be decoded",
		Details:   fmt.Sprintf("provider: %s, error: %s", provider, err.Error()),
		Retryable: false,
		Metadata:  map[string]interface{}{"provider": provider},
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingAPIKeyError fails a provider fast when its key is not configured.
func NewMissingAPIKeyError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingAPIKey,
		Message:   "Provider API key is not configured",
		Details:   fmt.Sprintf("provider: %s", provider),
		Retryable: false,
		Metadata:  map[string]interface{}{"provider": provider},
		Timestamp: time.Now().UTC(),
	}
}

// NewAnswerGenerationFailedError marks LLM failure after retry exhaustion.
func NewAnswerGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnswerGenerationFailed,
		Message:   "Answer generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnswerParseFailedError marks an unusable LLM response body.
func NewAnswerParseFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnswerParseFailed,
		Message:   "Generated answer could not be parsed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadStoreFailedError marks a failure to stage an uploaded image.
func NewUploadStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadStoreFailed,
		Message:   "Transient upload could not be stored",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadCleanupFailedError marks a best-effort deletion failure. Logged
// only, never affects the search outcome.
func NewUploadCleanupFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadCleanupFailed,
		Message:   "Transient upload could not be deleted",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
