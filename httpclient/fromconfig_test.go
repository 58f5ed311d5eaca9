package httpclient

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	libconfig "github.com/gaborage/go-mortar/config"
	"github.com/gaborage/go-mortar/credentials"
)

func TestNewFromConfig(t *testing.T) {
	var hits int32
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, "Bearer cfg-token", r.Header.Get("Authorization"))
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(nethttp.StatusBadGateway)
			return
		}
		w.WriteHeader(nethttp.StatusOK)
	}))
	defer server.Close()

	cfg := &libconfig.Config{
		Client: libconfig.ClientConfig{
			BaseURL: server.URL,
			Env:     libconfig.EnvDevelopment,
			Timeout: libconfig.TimeoutConfig{Connect: time.Second, Receive: 5 * time.Second},
			Retry:   libconfig.RetryConfig{Max: 2, BaseDelay: time.Millisecond, JitterMax: time.Millisecond},
			Auth:    libconfig.AuthConfig{RefreshPath: "/oauth/token"},
		},
		Log: libconfig.LogConfig{Level: "disabled"},
	}

	store := credentials.NewMemoryStore()
	require.NoError(t, store.Save(credentials.Pair{AccessToken: "cfg-token"}))

	client := NewFromConfig(cfg, testLogger(), store, nil)

	resp, err := client.Get(context.Background(), &Request{Path: "/status"})
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, resp.Stats.Attempts, "retry settings from the config are honored")
}
