package httpclient

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetError struct {
	timeout bool
}

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

func TestClassifyTransport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{
			name:     "caller cancellation",
			err:      context.Canceled,
			expected: KindCancelled,
		},
		{
			name:     "wrapped cancellation",
			err:      fmt.Errorf("Get \"http://x\": %w", context.Canceled),
			expected: KindCancelled,
		},
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			expected: KindTimeout,
		},
		{
			name:     "net timeout",
			err:      &fakeNetError{timeout: true},
			expected: KindTimeout,
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:1: connect: connection refused"),
			expected: KindConnectivity,
		},
		{
			name:     "non-timeout net error",
			err:      &fakeNetError{},
			expected: KindConnectivity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyTransport(tt.err)
			require.NotNil(t, classified)
			assert.Equal(t, tt.expected, classified.Kind())
		})
	}
}

func TestClassifyTransportNil(t *testing.T) {
	assert.Nil(t, ClassifyTransport(nil))
}

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		header   nethttp.Header
		body     []byte
		expected Kind
	}{
		{name: "unauthorized", status: 401, expected: KindAuthentication},
		{name: "forbidden", status: 403, expected: KindForbidden},
		{name: "not found", status: 404, expected: KindNotFound},
		{name: "bad request", status: 400, expected: KindValidation},
		{name: "unprocessable entity", status: 422, expected: KindValidation},
		{name: "too many requests", status: 429, expected: KindRateLimited},
		{name: "internal server error", status: 500, expected: KindServer},
		{name: "bad gateway", status: 502, expected: KindServer},
		{name: "service unavailable", status: 503, expected: KindServer},
		{name: "teapot", status: 418, expected: KindUnknown},
		{name: "redirect leak", status: 302, expected: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := tt.header
			if header == nil {
				header = nethttp.Header{}
			}
			classified := ClassifyResponse(tt.status, header, tt.body)
			require.NotNil(t, classified)
			assert.Equal(t, tt.expected, classified.Kind())
		})
	}
}

func TestClassifyResponseValidationFields(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected map[string][]string
	}{
		{
			name:     "enveloped field errors",
			body:     `{"errors":{"email":["already registered"]}}`,
			expected: map[string][]string{"email": {"already registered"}},
		},
		{
			name:     "flat field errors",
			body:     `{"email":["already registered"],"name":["too short","required"]}`,
			expected: map[string][]string{"email": {"already registered"}, "name": {"too short", "required"}},
		},
		{
			name:     "unstructured body",
			body:     `"bad request"`,
			expected: nil,
		},
		{
			name:     "empty body",
			body:     "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyResponse(422, nethttp.Header{}, []byte(tt.body))
			fields, ok := ValidationFields(err)
			require.True(t, ok)
			assert.Equal(t, tt.expected, fields)
		})
	}
}

func TestClassifyResponseRetryAfter(t *testing.T) {
	t.Run("seconds", func(t *testing.T) {
		header := nethttp.Header{}
		header.Set("Retry-After", "7")
		err := ClassifyResponse(429, header, nil)
		hint, ok := RetryAfterHint(err)
		require.True(t, ok)
		assert.Equal(t, 7*time.Second, hint)
	})

	t.Run("http date", func(t *testing.T) {
		header := nethttp.Header{}
		header.Set("Retry-After", time.Now().Add(30*time.Second).UTC().Format(nethttp.TimeFormat))
		err := ClassifyResponse(429, header, nil)
		hint, ok := RetryAfterHint(err)
		require.True(t, ok)
		assert.Greater(t, hint, 20*time.Second)
		assert.LessOrEqual(t, hint, 30*time.Second)
	})

	t.Run("missing header", func(t *testing.T) {
		err := ClassifyResponse(429, nethttp.Header{}, nil)
		hint, ok := RetryAfterHint(err)
		require.True(t, ok)
		assert.Equal(t, time.Duration(0), hint)
	})
}

func TestIsKind(t *testing.T) {
	err := NewTimeoutError("deadline", time.Second)
	assert.True(t, IsKind(err, KindTimeout))
	assert.False(t, IsKind(err, KindServer))
	assert.False(t, IsKind(nil, KindTimeout))
	assert.False(t, IsKind(errors.New("plain"), KindTimeout))

	wrapped := fmt.Errorf("context: %w", err)
	assert.True(t, IsKind(wrapped, KindTimeout))
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      ClientError
		contains []string
	}{
		{
			name:     "connectivity with cause",
			err:      NewConnectivityError("request execution failed", errors.New("connection refused")),
			contains: []string{"connectivity error", "request execution failed", "connection refused"},
		},
		{
			name:     "timeout with duration",
			err:      NewTimeoutError("request timeout", 30 * time.Second),
			contains: []string{"timeout error", "request timeout", "30s"},
		},
		{
			name:     "validation with fields",
			err:      NewValidationError("request rejected", map[string][]string{"email": {"taken"}}),
			contains: []string{"validation error", "request rejected", "1 invalid fields"},
		},
		{
			name:     "rate limited with hint",
			err:      NewRateLimitError("throttled", 5 * time.Second),
			contains: []string{"rate limited", "throttled", "5s"},
		},
		{
			name:     "server with status",
			err:      NewServerError("upstream failure", 503, nil),
			contains: []string{"server error", "upstream failure", "503"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, expected := range tt.contains {
				assert.Contains(t, msg, expected)
			}
		})
	}
}

func TestUnknownErrorPreservesCause(t *testing.T) {
	cause := errors.New("original cause")
	err := NewUnknownError("unexpected", 302, cause)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "302")
}

func TestIsSuccessStatus(t *testing.T) {
	assert.True(t, IsSuccessStatus(200))
	assert.True(t, IsSuccessStatus(204))
	assert.True(t, IsSuccessStatus(299))
	assert.False(t, IsSuccessStatus(199))
	assert.False(t, IsSuccessStatus(301))
	assert.False(t, IsSuccessStatus(500))
}
