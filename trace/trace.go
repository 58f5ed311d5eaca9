// Package trace provides request-correlation helpers for the HTTP client
// pipeline. A trace ID travels in the request context and is stamped onto
// outbound requests so retries and refresh replays of the same logical
// request share one correlation ID.
package trace

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// requestIDKey is the context key for request correlation IDs
	requestIDKey contextKey = "request_id"
	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = "X-Request-ID"
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = "traceparent"
)

// WithRequestID adds a correlation ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation ID from context if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureRequestID returns an existing correlation ID from context or
// generates a new one.
func EnsureRequestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.New().String()
}

// GenerateTraceParent creates a minimal W3C traceparent header value.
// Format: version(2)-trace-id(32)-span-id(16)-flags(2), e.g., "00-<32>-<16>-01"
func GenerateTraceParent() string {
	traceID := make([]byte, 16)
	spanID := make([]byte, 8)
	if _, err := crand.Read(traceID); err != nil || allZero(traceID) {
		traceID[len(traceID)-1] = 0x01
	}
	if _, err := crand.Read(spanID); err != nil || allZero(spanID) {
		spanID[len(spanID)-1] = 0x01
	}
	return "00-" + hex.EncodeToString(traceID) + "-" + hex.EncodeToString(spanID) + "-01"
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
