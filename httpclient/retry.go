package httpclient

import (
	crand "crypto/rand"
	"errors"
	"math/big"
	nethttp "net/http"
	"time"
)

// maxBackoff caps the exponential component to avoid excessive sleeps.
const maxBackoff = 30 * time.Second

// RetryPolicy decides whether a failed attempt is re-issued and after what
// delay. Retries of one logical request are strictly sequential; the
// pipeline never re-issues the same request in parallel.
type RetryPolicy struct {
	// MaxRetries is the number of re-issues after the initial attempt.
	MaxRetries int
	// BaseDelay is the backoff base: delay k = BaseDelay * 2^(k-1).
	BaseDelay time.Duration
	// JitterMax bounds the uniform random jitter added to each delay.
	JitterMax time.Duration
}

// retryableKinds are the failure classifications worth re-issuing.
// Authentication failures are deliberately absent: the refresh coordinator
// owns those.
var retryableKinds = map[Kind]bool{
	KindConnectivity: true,
	KindTimeout:      true,
	KindServer:       true,
	KindRateLimited:  true,
}

// idempotentMethods are retried by default. Non-idempotent verbs require
// an explicit per-request opt-in.
var idempotentMethods = map[string]bool{
	nethttp.MethodGet:     true,
	nethttp.MethodHead:    true,
	nethttp.MethodPut:     true,
	nethttp.MethodDelete:  true,
	nethttp.MethodOptions: true,
}

// ShouldRetry reports whether a request that just completed attempt number
// attempt (1-based) with the given classified error should be re-issued.
// override is the request's Retryable flag; nil defers to the verb default.
func (p RetryPolicy) ShouldRetry(method string, override *bool, attempt int, err error) bool {
	if attempt > p.MaxRetries {
		return false
	}

	var clientErr ClientError
	if !errors.As(err, &clientErr) || !retryableKinds[clientErr.Kind()] {
		return false
	}

	if override != nil {
		return *override
	}
	return idempotentMethods[method]
}

// NextDelay computes the wait before re-issuing after attempt number
// attempt (1-based): BaseDelay * 2^(attempt-1), capped, plus uniform jitter
// in [0, JitterMax]. Rate-limited failures never wait less than the
// server's Retry-After hint.
func (p RetryPolicy) NextDelay(attempt int, err error) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if attempt < 1 {
		attempt = 1
	}
	// Cap the shift to avoid overflow when computing the multiplier
	shift := attempt - 1
	if shift > 20 { // 2^20 = 1,048,576
		shift = 20
	}

	delay := base * time.Duration(1<<shift)
	if delay > maxBackoff || delay <= 0 {
		delay = maxBackoff
	}

	delay += jitter(p.JitterMax)

	if hint, ok := RetryAfterHint(err); ok && hint > delay {
		delay = hint
	}

	return delay
}

// jitter returns a uniform random duration in [0, ceiling].
func jitter(ceiling time.Duration) time.Duration {
	if ceiling <= 0 {
		return 0
	}
	n, err := crand.Int(crand.Reader, big.NewInt(int64(ceiling)+1))
	if err != nil {
		// On RNG failure, fall back to the full ceiling
		return ceiling
	}
	return time.Duration(n.Int64())
}
