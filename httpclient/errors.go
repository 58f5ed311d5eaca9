package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"strconv"
	"time"
)

// ClientError represents a classified client failure. Every error the
// pipeline surfaces implements it; raw transport errors never escape.
type ClientError interface {
	error
	Kind() Kind
}

// Kind is the closed set of failure classifications.
type Kind string

const (
	KindConnectivity   Kind = "connectivity"
	KindTimeout        Kind = "timeout"
	KindCancelled      Kind = "cancelled"
	KindAuthentication Kind = "authentication"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindValidation     Kind = "validation"
	KindRateLimited    Kind = "rate_limited"
	KindServer         Kind = "server"
	KindUnknown        Kind = "unknown"
)

// connectivityError represents unreachable-server failures
type connectivityError struct {
	message string
	wrapped error
}

func (e *connectivityError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("connectivity error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("connectivity error: %s", e.message)
}

func (e *connectivityError) Kind() Kind { return KindConnectivity }

func (e *connectivityError) Unwrap() error { return e.wrapped }

// timeoutError represents exceeded deadlines
type timeoutError struct {
	message string
	timeout time.Duration
}

func (e *timeoutError) Error() string {
	if e.timeout > 0 {
		return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
	}
	return fmt.Sprintf("timeout error: %s", e.message)
}

func (e *timeoutError) Kind() Kind { return KindTimeout }

// cancelledError represents caller-initiated aborts
type cancelledError struct {
	message string
	wrapped error
}

func (e *cancelledError) Error() string {
	return fmt.Sprintf("cancelled: %s", e.message)
}

func (e *cancelledError) Kind() Kind { return KindCancelled }

func (e *cancelledError) Unwrap() error { return e.wrapped }

// authenticationError represents expired or invalid credentials (401),
// recoverable through a token refresh.
type authenticationError struct {
	message string
}

func (e *authenticationError) Error() string {
	return fmt.Sprintf("authentication error: %s", e.message)
}

func (e *authenticationError) Kind() Kind { return KindAuthentication }

// forbiddenError represents authenticated-but-not-permitted failures (403)
type forbiddenError struct {
	message string
}

func (e *forbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.message)
}

func (e *forbiddenError) Kind() Kind { return KindForbidden }

// notFoundError represents missing resources (404)
type notFoundError struct {
	message string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.message)
}

func (e *notFoundError) Kind() Kind { return KindNotFound }

// validationError represents malformed requests (400/422) and carries the
// server's field-level messages verbatim.
type validationError struct {
	message string
	fields  map[string][]string
}

func (e *validationError) Error() string {
	if len(e.fields) > 0 {
		return fmt.Sprintf("validation error: %s (%d invalid fields)", e.message, len(e.fields))
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Kind() Kind { return KindValidation }

// rateLimitError represents throttled requests (429) with the server's
// minimum wait.
type rateLimitError struct {
	message    string
	retryAfter time.Duration
}

func (e *rateLimitError) Error() string {
	if e.retryAfter > 0 {
		return fmt.Sprintf("rate limited: %s (retry after %v)", e.message, e.retryAfter)
	}
	return fmt.Sprintf("rate limited: %s", e.message)
}

func (e *rateLimitError) Kind() Kind { return KindRateLimited }

// serverError represents 5xx responses
type serverError struct {
	message    string
	statusCode int
	body       []byte
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error: %s (status: %d)", e.message, e.statusCode)
}

func (e *serverError) Kind() Kind { return KindServer }

func (e *serverError) StatusCode() int { return e.statusCode }

func (e *serverError) Body() []byte { return e.body }

// unknownError represents unclassifiable outcomes, preserving the original
// cause for diagnostics.
type unknownError struct {
	message    string
	statusCode int
	wrapped    error
}

func (e *unknownError) Error() string {
	if e.statusCode != 0 {
		return fmt.Sprintf("unknown error: %s (status: %d)", e.message, e.statusCode)
	}
	return fmt.Sprintf("unknown error: %s", e.message)
}

func (e *unknownError) Kind() Kind { return KindUnknown }

func (e *unknownError) Unwrap() error { return e.wrapped }

// NewConnectivityError creates a new connectivity error
func NewConnectivityError(message string, wrapped error) ClientError {
	return &connectivityError{message: message, wrapped: wrapped}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, timeout time.Duration) ClientError {
	return &timeoutError{message: message, timeout: timeout}
}

// NewCancelledError creates a new cancellation error
func NewCancelledError(message string, wrapped error) ClientError {
	return &cancelledError{message: message, wrapped: wrapped}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) ClientError {
	return &authenticationError{message: message}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) ClientError {
	return &forbiddenError{message: message}
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(message string) ClientError {
	return &notFoundError{message: message}
}

// NewValidationError creates a new validation error carrying field-level
// messages.
func NewValidationError(message string, fields map[string][]string) ClientError {
	return &validationError{message: message, fields: fields}
}

// NewRateLimitError creates a new rate-limit error
func NewRateLimitError(message string, retryAfter time.Duration) ClientError {
	return &rateLimitError{message: message, retryAfter: retryAfter}
}

// NewServerError creates a new server error
func NewServerError(message string, statusCode int, body []byte) ClientError {
	return &serverError{message: message, statusCode: statusCode, body: body}
}

// NewUnknownError creates a new unknown error
func NewUnknownError(message string, statusCode int, wrapped error) ClientError {
	return &unknownError{message: message, statusCode: statusCode, wrapped: wrapped}
}

// IsKind checks if an error is classified as the given kind
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Kind() == kind
	}
	return false
}

// ValidationFields returns the field-level messages carried by a validation
// error.
func ValidationFields(err error) (map[string][]string, bool) {
	var ve *validationError
	if errors.As(err, &ve) {
		return ve.fields, true
	}
	return nil, false
}

// RetryAfterHint returns the server-supplied minimum wait carried by a
// rate-limit error.
func RetryAfterHint(err error) (time.Duration, bool) {
	var re *rateLimitError
	if errors.As(err, &re) {
		return re.retryAfter, true
	}
	return 0, false
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// ClassifyTransport maps a transport-level failure (no response received)
// into the taxonomy. Together with ClassifyResponse it is the single place
// that derives error kinds; no other component inspects raw causes or
// status codes.
func ClassifyTransport(err error) ClientError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return NewCancelledError("request aborted by caller", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError("deadline exceeded before response", 0)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError("deadline exceeded before response", 0)
	}

	return NewConnectivityError("request execution failed", err)
}

// ClassifyResponse maps a non-2xx response into the taxonomy.
func ClassifyResponse(statusCode int, header nethttp.Header, body []byte) ClientError {
	switch {
	case statusCode == nethttp.StatusUnauthorized:
		return NewAuthenticationError("credential rejected")
	case statusCode == nethttp.StatusForbidden:
		return NewForbiddenError("access denied")
	case statusCode == nethttp.StatusNotFound:
		return NewNotFoundError("resource does not exist")
	case statusCode == nethttp.StatusBadRequest || statusCode == nethttp.StatusUnprocessableEntity:
		return NewValidationError("request rejected by server", parseFieldErrors(body))
	case statusCode == nethttp.StatusTooManyRequests:
		return NewRateLimitError("request throttled by server", parseRetryAfter(header))
	case statusCode >= 500 && statusCode < 600:
		return NewServerError("request failed upstream", statusCode, body)
	default:
		return NewUnknownError("unexpected response status", statusCode, nil)
	}
}

// parseFieldErrors extracts field-level messages from a validation response
// body. Both the enveloped form {"errors":{"field":["msg"]}} and the flat
// form {"field":["msg"]} are accepted; anything else yields an empty map.
func parseFieldErrors(body []byte) map[string][]string {
	if len(body) == 0 {
		return nil
	}

	var envelope struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
		return envelope.Errors
	}

	var flat map[string][]string
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		return flat
	}

	return nil
}

// parseRetryAfter reads the Retry-After header as delay seconds or as an
// HTTP date.
func parseRetryAfter(header nethttp.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}

	if at, err := nethttp.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}

	return 0
}
