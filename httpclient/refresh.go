package httpclient

import (
	"context"
	"sync"
	"time"

	"github.com/gaborage/go-mortar/credentials"
	"github.com/gaborage/go-mortar/logger"
)

// DefaultRefreshTimeout bounds a single token refresh call.
const DefaultRefreshTimeout = 30 * time.Second

// SessionInvalidatedFunc is notified when a refresh fails terminally and
// the stored session has been cleared. Upstream logic typically reacts by
// forcing re-authentication.
type SessionInvalidatedFunc func()

// replayFunc re-issues a waiter's original request with a freshly injected
// token. It must not re-enter the coordinator on failure.
type replayFunc func(ctx context.Context) (*Response, error)

// RefreshCoordinator guarantees at most one token refresh in flight.
// Callers that observe an authentication failure park as waiters; the first
// one flips the coordinator from idle to refreshing. When the refresh
// resolves, waiters are replayed in FIFO order (on success) or uniformly
// failed (on failure). The mutex-guarded mode plus queue is the only shared
// state; waiters communicate over per-waiter channels.
type RefreshCoordinator struct {
	mu         sync.Mutex
	refreshing bool
	waiters    []*refreshWaiter

	store         credentials.Store
	refresh       credentials.RefreshFunc
	timeout       time.Duration
	onInvalidated SessionInvalidatedFunc
	log           logger.Logger
}

type refreshWaiter struct {
	ctx    context.Context
	replay replayFunc
	// result is buffered so the coordinator never blocks on a waiter that
	// gave up.
	result chan waiterResult
}

type waiterResult struct {
	resp *Response
	err  error
}

// NewRefreshCoordinator creates a coordinator in the idle state.
// onInvalidated may be nil.
func NewRefreshCoordinator(store credentials.Store, refresh credentials.RefreshFunc, onInvalidated SessionInvalidatedFunc, log logger.Logger) *RefreshCoordinator {
	return &RefreshCoordinator{
		store:         store,
		refresh:       refresh,
		timeout:       DefaultRefreshTimeout,
		onInvalidated: onInvalidated,
		log:           log,
	}
}

// Resolve parks the caller until the in-flight refresh completes, starting
// one if the coordinator is idle, and returns the result of replaying the
// caller's original request. The triggering caller is a waiter like any
// other. Cancelling ctx removes the waiter from the queue without
// disturbing the refresh or the other waiters.
func (c *RefreshCoordinator) Resolve(ctx context.Context, replay replayFunc) (*Response, error) {
	w := &refreshWaiter{
		ctx:    ctx,
		replay: replay,
		result: make(chan waiterResult, 1),
	}

	c.mu.Lock()
	c.waiters = append(c.waiters, w)
	pending := len(c.waiters)
	if !c.refreshing {
		c.refreshing = true
		go c.runRefresh()
	}
	c.mu.Unlock()

	c.log.Debug().Int("pending_waiters", pending).Msg("request parked awaiting token refresh")

	select {
	case res := <-w.result:
		return res.resp, res.err
	case <-ctx.Done():
		c.removeWaiter(w)
		return nil, NewCancelledError("request cancelled while awaiting token refresh", ctx.Err())
	}
}

// Refreshing reports whether a refresh is currently in flight.
func (c *RefreshCoordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// runRefresh performs the single refresh call, then drains the waiter
// queue. The queue snapshot and the idle transition happen atomically, so
// authentication failures arriving after the refresh resolved start a new
// cycle instead of joining a finished one.
func (c *RefreshCoordinator) runRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var pair credentials.Pair
	refreshToken, ok := c.store.RefreshToken()
	var err error
	if !ok {
		err = NewAuthenticationError("no refresh token available")
	} else {
		pair, err = c.refresh(ctx, refreshToken)
	}

	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.refreshing = false
	c.mu.Unlock()

	if err != nil {
		c.failSession(waiters, err)
		return
	}

	if saveErr := c.store.Save(credentials.WithExpiryHint(pair)); saveErr != nil {
		c.failSession(waiters, saveErr)
		return
	}

	c.log.Info().Int("waiters", len(waiters)).Msg("token refresh succeeded, replaying queued requests")

	for _, w := range waiters {
		if w.ctx.Err() != nil {
			w.result <- waiterResult{err: NewCancelledError("request cancelled while awaiting token refresh", w.ctx.Err())}
			continue
		}
		resp, replayErr := w.replay(w.ctx)
		w.result <- waiterResult{resp: resp, err: replayErr}
	}
}

// failSession clears stored tokens, fails every waiter with an
// authentication error, and notifies the session-invalidated observer.
func (c *RefreshCoordinator) failSession(waiters []*refreshWaiter, cause error) {
	c.log.Warn().Err(cause).Int("waiters", len(waiters)).Msg("token refresh failed, session invalidated")

	if clearErr := c.store.Clear(); clearErr != nil {
		c.log.Error().Err(clearErr).Msg("failed to clear credential store")
	}

	for _, w := range waiters {
		w.result <- waiterResult{err: NewAuthenticationError("session refresh failed")}
	}

	if c.onInvalidated != nil {
		c.onInvalidated()
	}
}

func (c *RefreshCoordinator) removeWaiter(w *refreshWaiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cand := range c.waiters {
		if cand == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}
