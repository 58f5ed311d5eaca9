package httpclient

import (
	"bytes"
	"context"
	"io"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/gaborage/go-mortar/credentials"
	"github.com/gaborage/go-mortar/logger"
	"github.com/gaborage/go-mortar/trace"
)

const (
	// DefaultConnectTimeout is the default connection establishment deadline
	DefaultConnectTimeout = 10 * time.Second

	// DefaultReceiveTimeout is the default per-attempt response deadline
	DefaultReceiveTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of re-issues after the
	// initial attempt
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay is the default backoff base
	DefaultRetryBaseDelay = 500 * time.Millisecond

	// DefaultRetryJitterMax is the default jitter ceiling
	DefaultRetryJitterMax = 250 * time.Millisecond
)

// client implements the Client interface. Each instance owns its transport
// and shares nothing with other instances; callers hold it as an explicit
// dependency rather than through a package-level singleton.
type client struct {
	httpClient  *nethttp.Client
	log         logger.Logger
	config      *Config
	store       credentials.Store
	coordinator *RefreshCoordinator
	retry       RetryPolicy
	limiter     *rate.Limiter
	authInject  RequestInterceptor
}

// Builder provides a fluent interface for configuring the client.
type Builder struct {
	config        *Config
	log           logger.Logger
	store         credentials.Store
	refresh       credentials.RefreshFunc
	onInvalidated SessionInvalidatedFunc
}

// NewBuilder creates a new client builder with default configuration.
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			ConnectTimeout:     DefaultConnectTimeout,
			ReceiveTimeout:     DefaultReceiveTimeout,
			MaxRetries:         DefaultMaxRetries,
			RetryBaseDelay:     DefaultRetryBaseDelay,
			RetryJitterMax:     DefaultRetryJitterMax,
			DefaultHeaders:     make(map[string]string),
			MaxPayloadLogBytes: 2048,
		},
		log: log,
	}
}

// WithBaseURL sets the base URL request paths are joined to.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = strings.TrimRight(baseURL, "/")
	return b
}

// WithTimeouts sets the connect and per-attempt receive deadlines.
func (b *Builder) WithTimeouts(connect, receive time.Duration) *Builder {
	b.config.ConnectTimeout = connect
	b.config.ReceiveTimeout = receive
	return b
}

// WithRetries sets the retry policy knobs.
func (b *Builder) WithRetries(maxRetries int, baseDelay, jitterMax time.Duration) *Builder {
	b.config.MaxRetries = maxRetries
	b.config.RetryBaseDelay = baseDelay
	b.config.RetryJitterMax = jitterMax
	return b
}

// WithRateLimit enables the client-side rate limiter.
func (b *Builder) WithRateLimit(requestsPerSecond float64, burst int) *Builder {
	b.config.RateLimit = requestsPerSecond
	b.config.RateBurst = burst
	return b
}

// WithCredentialStore sets the credential store consulted by the auth
// injector and the refresh coordinator.
func (b *Builder) WithCredentialStore(store credentials.Store) *Builder {
	b.store = store
	return b
}

// WithRefresh enables transparent token refresh using the given operation.
func (b *Builder) WithRefresh(refresh credentials.RefreshFunc) *Builder {
	b.refresh = refresh
	return b
}

// WithRefreshPath marks the token endpoint path so requests against it can
// never trigger a recursive refresh.
func (b *Builder) WithRefreshPath(path string) *Builder {
	b.config.RefreshPath = path
	return b
}

// OnSessionInvalidated registers the observer notified after a terminally
// failed refresh.
func (b *Builder) OnSessionInvalidated(fn SessionInvalidatedFunc) *Builder {
	b.onInvalidated = fn
	return b
}

// WithDefaultHeader adds a header sent with every request.
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor.
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor.
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithPayloadLogging enables debug logging of headers and bodies, capped at
// maxBytes per body.
func (b *Builder) WithPayloadLogging(maxBytes int) *Builder {
	b.config.LogPayloads = true
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// Build creates the client with the configured options. The configuration
// is immutable from this point on.
func (b *Builder) Build() Client {
	store := b.store
	if store == nil {
		store = credentials.NewMemoryStore()
	}

	c := &client{
		httpClient: newHTTPClient(b.config.ConnectTimeout),
		log:        b.log,
		config:     b.config,
		store:      store,
		retry: RetryPolicy{
			MaxRetries: b.config.MaxRetries,
			BaseDelay:  b.config.RetryBaseDelay,
			JitterMax:  b.config.RetryJitterMax,
		},
		authInject: NewAuthInjector(store),
	}

	if b.refresh != nil {
		c.coordinator = NewRefreshCoordinator(store, b.refresh, b.onInvalidated, b.log)
	}
	if b.config.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(b.config.RateLimit), b.config.RateBurst)
	}

	return c
}

// newHTTPClient builds the underlying transport. Receive deadlines are
// enforced per attempt through the request context, so the net/http client
// itself carries no overall timeout.
func newHTTPClient(connectTimeout time.Duration) *nethttp.Client {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &nethttp.Client{
		Transport: &nethttp.Transport{
			Proxy:               nethttp.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: connectTimeout,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// Do performs an HTTP request with the specified method, running the full
// pipeline: rate limiting, auth injection, transport, classification,
// refresh coordination, and retries.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	for attempt := 1; ; attempt++ {
		resp, err := c.attemptBuffered(ctx, method, req, attempt)
		if err == nil {
			c.finish(resp, start, attempt)
			c.logResponse(resp)
			return resp, nil
		}

		if c.shouldRefresh(req, err) {
			replayAttempt := attempt + 1
			return c.coordinator.Resolve(ctx, func(rctx context.Context) (*Response, error) {
				replayResp, replayErr := c.attemptBuffered(rctx, method, req, replayAttempt)
				if replayErr != nil {
					return nil, replayErr
				}
				c.finish(replayResp, start, replayAttempt)
				c.logResponse(replayResp)
				return replayResp, nil
			})
		}

		if !c.retry.ShouldRetry(method, req.Retryable, attempt, err) {
			return nil, err
		}

		delay := c.retry.NextDelay(attempt, err)
		c.logRetry(method, req, attempt, delay, err)

		select {
		case <-ctx.Done():
			return nil, ClassifyTransport(ctx.Err())
		case <-time.After(delay):
		}
	}
}

// Upload POSTs a streaming body with progress reporting. Streaming bodies
// that cannot be rewound make the request effectively single-attempt.
func (c *client) Upload(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.BodyReader == nil {
		return nil, NewValidationError("upload requires a body reader", nil)
	}
	r := *req
	if r.BodySize <= 0 {
		r.BodySize = -1
	}
	return c.Do(ctx, nethttp.MethodPost, &r)
}

// Download GETs a resource and streams the body into w with progress
// reporting. Once bytes have been written the attempt is never re-issued,
// since the destination cannot be rewound.
func (c *client) Download(ctx context.Context, req *Request, w io.Writer) (*Response, error) {
	if w == nil {
		return nil, NewValidationError("download requires a destination writer", nil)
	}
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	for attempt := 1; ; attempt++ {
		resp, written, err := c.attemptDownload(ctx, req, w, attempt)
		if err == nil {
			c.finish(resp, start, attempt)
			c.logResponse(resp)
			return resp, nil
		}

		if c.shouldRefresh(req, err) {
			replayAttempt := attempt + 1
			return c.coordinator.Resolve(ctx, func(rctx context.Context) (*Response, error) {
				replayResp, _, replayErr := c.attemptDownload(rctx, req, w, replayAttempt)
				if replayErr != nil {
					return nil, replayErr
				}
				c.finish(replayResp, start, replayAttempt)
				c.logResponse(replayResp)
				return replayResp, nil
			})
		}

		if written > 0 || !c.retry.ShouldRetry(nethttp.MethodGet, req.Retryable, attempt, err) {
			return nil, err
		}

		delay := c.retry.NextDelay(attempt, err)
		c.logRetry(nethttp.MethodGet, req, attempt, delay, err)

		select {
		case <-ctx.Done():
			return nil, ClassifyTransport(ctx.Err())
		case <-time.After(delay):
		}
	}
}

// attemptBuffered runs a single attempt and buffers the response body.
func (c *client) attemptBuffered(ctx context.Context, method string, req *Request, attempt int) (*Response, error) {
	httpResp, pr, cancel, err := c.send(ctx, method, req, attempt)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer httpResp.Body.Close()

	body, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil {
		return nil, ClassifyTransport(readErr)
	}

	if !IsSuccessStatus(httpResp.StatusCode) {
		return nil, ClassifyResponse(httpResp.StatusCode, httpResp.Header, body)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}
	if pr != nil {
		resp.Stats.BytesTransferred = pr.Transferred()
	}
	return resp, nil
}

// attemptDownload runs a single attempt and streams the body to w,
// reporting how many bytes were written.
func (c *client) attemptDownload(ctx context.Context, req *Request, w io.Writer, attempt int) (*Response, int64, error) {
	httpResp, _, cancel, err := c.send(ctx, nethttp.MethodGet, req, attempt)
	if err != nil {
		return nil, 0, err
	}
	defer cancel()
	defer httpResp.Body.Close()

	if !IsSuccessStatus(httpResp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 64<<10))
		return nil, 0, ClassifyResponse(httpResp.StatusCode, httpResp.Header, body)
	}

	written, copyErr := copyWithProgress(ctx, w, httpResp.Body, httpResp.ContentLength, req.Progress)
	if copyErr != nil {
		return nil, written, ClassifyTransport(copyErr)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Stats:      Stats{BytesTransferred: written},
	}
	return resp, written, nil
}

// send builds and executes one outbound request. The returned cancel func
// releases the per-attempt deadline and must be called after the body has
// been consumed.
func (c *client) send(ctx context.Context, method string, req *Request, attempt int) (*nethttp.Response, *progressReader, context.CancelFunc, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, nil, nil, ClassifyTransport(ctx.Err())
			}
			return nil, nil, nil, NewUnknownError("rate limiter rejected request", 0, err)
		}
	}

	httpReq, pr, err := c.buildRequest(ctx, method, req)
	if err != nil {
		return nil, nil, nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.config.ReceiveTimeout
	}
	attemptCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	httpReq = httpReq.WithContext(attemptCtx)

	c.logRequest(method, req, attempt)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, nil, nil, ClassifyTransport(err)
	}

	if err := c.runResponseInterceptors(ctx, httpReq, httpResp); err != nil {
		httpResp.Body.Close()
		cancel()
		return nil, nil, nil, NewUnknownError("response interceptor failed", 0, err)
	}

	return httpResp, pr, cancel, nil
}

// buildRequest constructs an *http.Request, applies headers, trace
// propagation, and auth, then runs request interceptors.
func (c *client) buildRequest(ctx context.Context, method string, req *Request) (*nethttp.Request, *progressReader, error) {
	target, err := c.buildURL(req)
	if err != nil {
		return nil, nil, err
	}

	var body io.Reader
	var pr *progressReader
	switch {
	case req.BodyReader != nil:
		// Rewind replayable bodies so retries and refresh replays resend
		// from the start
		if seeker, ok := req.BodyReader.(io.Seeker); ok {
			if _, seekErr := seeker.Seek(0, io.SeekStart); seekErr != nil {
				return nil, nil, NewUnknownError("failed to rewind request body", 0, seekErr)
			}
		}
		// Always wrap streaming bodies so every read observes the request
		// context, with or without a progress sink
		pr = newProgressReader(ctx, req.BodyReader, req.BodySize, req.Progress)
		body = pr
	case req.Body != nil:
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, nil, NewUnknownError("failed to create HTTP request", 0, err)
	}
	if req.BodyReader != nil && req.BodySize >= 0 {
		httpReq.ContentLength = req.BodySize
	}

	c.applyHeaders(httpReq, req)
	c.applyTrace(ctx, httpReq)

	if !req.SkipAuth {
		if err := c.authInject(ctx, httpReq); err != nil {
			return nil, nil, NewUnknownError("auth injection failed", 0, err)
		}
	}

	for _, interceptor := range c.config.RequestInterceptors {
		if err := interceptor(ctx, httpReq); err != nil {
			return nil, nil, NewUnknownError("request interceptor failed", 0, err)
		}
	}

	return httpReq, pr, nil
}

// buildURL joins the request path to the base URL and merges query
// parameters. Absolute request paths bypass the base URL.
func (c *client) buildURL(req *Request) (string, error) {
	raw := req.Path
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = c.config.BaseURL + "/" + strings.TrimLeft(req.Path, "/")
	}

	if len(req.Query) == 0 {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", NewValidationError("invalid request URL", nil)
	}
	q := u.Query()
	for key, values := range req.Query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// applyHeaders applies default and per-request headers.
func (c *client) applyHeaders(httpReq *nethttp.Request, req *Request) {
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if httpReq.Header.Get("Content-Type") == "" && (req.Body != nil || req.BodyReader != nil) {
		httpReq.Header.Set("Content-Type", "application/json")
	}
}

// applyTrace stamps correlation headers so retries and refresh replays of
// the same logical request share one ID.
func (c *client) applyTrace(ctx context.Context, httpReq *nethttp.Request) {
	if httpReq.Header.Get(trace.HeaderXRequestID) == "" {
		httpReq.Header.Set(trace.HeaderXRequestID, trace.EnsureRequestID(ctx))
	}
	if httpReq.Header.Get(trace.HeaderTraceParent) == "" {
		httpReq.Header.Set(trace.HeaderTraceParent, trace.GenerateTraceParent())
	}
}

// runResponseInterceptors executes all response interceptors
func (c *client) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range c.config.ResponseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}

// shouldRefresh reports whether an authentication failure enters the
// refresh state machine. Skip-auth requests and requests against the
// refresh endpoint itself never do, even on a 401.
func (c *client) shouldRefresh(req *Request, err error) bool {
	if c.coordinator == nil || req.SkipAuth {
		return false
	}
	if !IsKind(err, KindAuthentication) {
		return false
	}
	return !c.isRefreshTarget(req.Path)
}

func (c *client) isRefreshTarget(path string) bool {
	refreshPath := c.config.RefreshPath
	if refreshPath == "" {
		return false
	}
	// Compare the resolved URL path only, so query strings and absolute
	// URLs against the same endpoint are recognized, while sibling paths
	// that merely end in the refresh path are not.
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	return normalizePath(path) == normalizePath(refreshPath)
}

func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

func (c *client) finish(resp *Response, start time.Time, attempts int) {
	resp.Stats.ElapsedTime = time.Since(start)
	resp.Stats.Attempts = attempts
}

// validateRequest validates the request before sending
func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", nil)
	}
	if req.Path == "" && c.config.BaseURL == "" {
		return NewValidationError("request path cannot be empty without a base URL", nil)
	}
	return nil
}
