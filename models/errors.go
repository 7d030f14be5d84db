package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeUnsupportedURL = "UNSUPPORTED_URL"
	ErrCodeFetch          = "FETCH_FAILED"
	ErrCodeFetchTimeout   = "FETCH_TIMEOUT"
	ErrCodeParse          = "PARSE_FAILED"
	ErrCodeValidation     = "VALIDATION_FAILED"

	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error

	// StatusCode is the upstream HTTP status for fetch failures, 0 otherwise.
	StatusCode int
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// Retryable reports whether the caller may retry the same URL later.
// Only fetch failures qualify; the pipeline itself never retries.
func (e *ScrapeError) Retryable() bool {
	return e.Code == ErrCodeFetch || e.Code == ErrCodeFetchTimeout
}

// AsScrapeError extracts a ScrapeError from err, wrapping unknown errors
// as INTERNAL_ERROR.
func AsScrapeError(err error) *ScrapeError {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return NewScrapeError(ErrCodeInternal, err.Error(), err)
}

// HasCode reports whether err is a ScrapeError with the given code.
func HasCode(err error, code string) bool {
	var se *ScrapeError
	return errors.As(err, &se) && se.Code == code
}
