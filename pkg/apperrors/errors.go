// Package apperrors carries the error kinds spec'd for the harvesting
// pipeline: each kind is a CustomError annotated with an HTTP status so the
// API layer can translate a job failure into a response without re-deriving
// what went wrong.
package apperrors

import (
	"fmt"
	"net/http"
)

// Kind classifies a CustomError by pipeline error kind. The Router and
// Worker do not branch on it: the Router falls back to the browser on any
// static-fetch error, and the Worker acks every handler error as a failure.
type Kind string

const (
	KindInvalidPayload Kind = "invalid_payload"
	KindTransport      Kind = "transport_error"
	KindBrowser        Kind = "browser_error"
	KindStore          Kind = "store_error"
	KindTimeout        Kind = "timeout"
)

// CustomError is an application error carrying an HTTP status and a kind
// for programmatic dispatch.
type CustomError struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// NewInvalidPayloadError is raised for a missing url, malformed JSON, or an
// unknown classifier result. Not retried; surfaced as ack_failure.
func NewInvalidPayloadError(detail string) *CustomError {
	return &CustomError{Kind: KindInvalidPayload, Code: http.StatusBadRequest, Message: "invalid payload", Detail: detail}
}

// NewTransportError is raised for network/DNS/TLS/non-2xx conditions a
// HttpFetcher chooses to raise on. The router retries once via
// BrowserSession; if that also fails it is surfaced as ack_failure.
func NewTransportError(detail string) *CustomError {
	return &CustomError{Kind: KindTransport, Code: http.StatusBadGateway, Message: "transport error", Detail: detail}
}

// NewBrowserError is raised for navigation timeouts or session launch
// failures. Surfaced as ack_failure; not retried by the router.
func NewBrowserError(detail string) *CustomError {
	return &CustomError{Kind: KindBrowser, Code: http.StatusBadGateway, Message: "browser error", Detail: detail}
}

// NewStoreError is raised when the underlying key-value store is
// unavailable. The worker loop logs it and backs off; never swallowed.
func NewStoreError(detail string) *CustomError {
	return &CustomError{Kind: KindStore, Code: http.StatusServiceUnavailable, Message: "store error", Detail: detail}
}

// NewTimeoutError marks the supervisory timeout kind requeue_stale detects.
func NewTimeoutError(detail string) *CustomError {
	return &CustomError{Kind: KindTimeout, Code: http.StatusRequestTimeout, Message: "timeout", Detail: detail}
}

// NewValidationError wraps a go-playground/validator failure for the HTTP API.
func NewValidationError(detail string) *CustomError {
	return &CustomError{Kind: KindInvalidPayload, Code: http.StatusBadRequest, Message: "validation failed", Detail: detail}
}

// NewInternalServerError is the catch-all for unexpected failures at the API boundary.
func NewInternalServerError(message string) *CustomError {
	return &CustomError{Code: http.StatusInternalServerError, Message: message}
}
