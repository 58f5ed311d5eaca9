package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactString(t *testing.T) {
	r := NewRedactor(nil)

	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{name: "authorization header", key: "Authorization", value: "Bearer abc", expected: DefaultMaskValue},
		{name: "access token", key: "access_token", value: "tok-1", expected: DefaultMaskValue},
		{name: "refresh token", key: "refresh_token", value: "tok-2", expected: DefaultMaskValue},
		{name: "substring match", key: "x-api-key-id", value: "k-1", expected: DefaultMaskValue},
		{name: "case insensitive", key: "PASSWORD", value: "hunter2", expected: DefaultMaskValue},
		{name: "plain field", key: "method", value: "GET", expected: "GET"},
		{name: "path passes through", key: "path", value: "/users/me", expected: "/users/me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.RedactString(tt.key, tt.value))
		})
	}
}

func TestRedactValueHeaderMaps(t *testing.T) {
	r := NewRedactor(nil)

	t.Run("string map", func(t *testing.T) {
		in := map[string]string{
			"Authorization": "Bearer abc",
			"Content-Type":  "application/json",
		}
		out := r.RedactValue("headers", in).(map[string]string)
		assert.Equal(t, DefaultMaskValue, out["Authorization"])
		assert.Equal(t, "application/json", out["Content-Type"])
		// The input map is untouched
		assert.Equal(t, "Bearer abc", in["Authorization"])
	})

	t.Run("multi-value map", func(t *testing.T) {
		in := map[string][]string{
			"Set-Cookie": {"session=a", "session=b"},
			"Accept":     {"application/json"},
		}
		out := r.RedactValue("headers", in).(map[string][]string)
		assert.Equal(t, []string{DefaultMaskValue}, out["Set-Cookie"])
		assert.Equal(t, []string{"application/json"}, out["Accept"])
	})

	t.Run("any map", func(t *testing.T) {
		in := map[string]any{"token": "t", "count": 3}
		out := r.RedactValue("fields", in).(map[string]any)
		assert.Equal(t, DefaultMaskValue, out["token"])
		assert.Equal(t, 3, out["count"])
	})

	t.Run("sensitive top-level key masks the whole value", func(t *testing.T) {
		assert.Equal(t, DefaultMaskValue, r.RedactValue("credentials", map[string]string{"a": "b"}))
	})
}

func TestRedactFields(t *testing.T) {
	r := NewRedactor(nil)

	out := r.RedactFields(map[string]any{
		"password": "hunter2",
		"service":  "billing",
	})
	assert.Equal(t, DefaultMaskValue, out["password"])
	assert.Equal(t, "billing", out["service"])

	assert.Nil(t, r.RedactFields(nil))
}

func TestRedactorExtraKeys(t *testing.T) {
	r := NewRedactor([]string{"X-Tenant-Secret"})

	assert.Equal(t, DefaultMaskValue, r.RedactString("x-tenant-secret", "s"))
	// Defaults still apply alongside the extras
	assert.Equal(t, DefaultMaskValue, r.RedactString("token", "t"))
}
