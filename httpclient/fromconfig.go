package httpclient

import (
	libconfig "github.com/gaborage/go-mortar/config"
	"github.com/gaborage/go-mortar/credentials"
	"github.com/gaborage/go-mortar/logger"
)

// NewFromConfig builds a client from a loaded configuration. store and
// refresh may be nil: a nil store falls back to an in-memory one and a nil
// refresh disables the refresh coordinator.
func NewFromConfig(cfg *libconfig.Config, log logger.Logger, store credentials.Store, refresh credentials.RefreshFunc) Client {
	b := NewBuilder(log).
		WithBaseURL(cfg.Client.BaseURL).
		WithTimeouts(cfg.Client.Timeout.Connect, cfg.Client.Timeout.Receive).
		WithRetries(cfg.Client.Retry.Max, cfg.Client.Retry.BaseDelay, cfg.Client.Retry.JitterMax).
		WithRefreshPath(cfg.Client.Auth.RefreshPath)

	if cfg.Client.Rate.Limit > 0 {
		b = b.WithRateLimit(cfg.Client.Rate.Limit, cfg.Client.Rate.Burst)
	}
	if cfg.Log.Payloads {
		b = b.WithPayloadLogging(cfg.Log.MaxPayloadBytes)
	}
	if store != nil {
		b = b.WithCredentialStore(store)
	}
	if refresh != nil {
		b = b.WithRefresh(refresh)
	}

	return b.Build()
}
