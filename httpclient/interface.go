package httpclient

import (
	"context"
	"io"
	nethttp "net/http"
	"net/url"
	"time"
)

// Client defines the resilient REST client interface. Every verb runs the
// full pipeline: auth injection, transport, error classification, retry,
// and transparent token refresh.
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)
	// Upload POSTs a streaming body with progress reporting.
	Upload(ctx context.Context, req *Request) (*Response, error)
	// Download GETs a resource and streams the body to w with progress
	// reporting. The returned Response carries no buffered body.
	Download(ctx context.Context, req *Request, w io.Writer) (*Response, error)
}

// Request represents an HTTP request with all necessary data.
// It is treated as immutable by the pipeline: retries and refresh replays
// rebuild the outbound *http.Request from it on every attempt.
type Request struct {
	// Path is joined to the client's base URL. Absolute URLs are used as-is.
	Path string
	// Query parameters appended to the URL.
	Query url.Values
	// Headers are per-request headers; they override client defaults.
	Headers map[string]string
	// Body is a buffered request body. Ignored when BodyReader is set.
	Body []byte
	// BodyReader is a streaming request body for uploads. Readers that also
	// implement io.Seeker can be replayed across retries and refresh
	// replays; others make the request effectively single-attempt.
	BodyReader io.Reader
	// BodySize is the total size of BodyReader in bytes, or -1 when unknown.
	BodySize int64
	// SkipAuth disables bearer-token injection and exempts the request from
	// the refresh state machine, even on a 401.
	SkipAuth bool
	// Retryable overrides the verb-based retry default. Non-idempotent
	// verbs are only retried when this is explicitly true.
	Retryable *bool
	// Timeout overrides the client receive timeout for each attempt.
	Timeout time.Duration
	// Progress receives cumulative transfer progress for uploads and
	// downloads.
	Progress ProgressFunc
}

// Response represents an HTTP response with tracking information.
// Responses are only constructed for successful (2xx) outcomes; every
// failure surfaces as a taxonomy error instead.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
}

// Stats contains request execution statistics.
type Stats struct {
	ElapsedTime      time.Duration
	Attempts         int
	BytesTransferred int64
}

// ProgressFunc receives cumulative transfer progress. total is -1 when the
// overall size is unknown.
type ProgressFunc func(transferred, total int64)

// RequestInterceptor is called before sending the request
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving the response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// Config holds the client configuration. It is fixed at Build time; a
// pipeline instance never mutates it.
type Config struct {
	BaseURL        string
	ConnectTimeout time.Duration
	ReceiveTimeout time.Duration

	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryJitterMax time.Duration

	// RateLimit is the client-side request rate in requests/second; zero
	// disables the limiter. Burst must be positive when RateLimit is set.
	RateLimit float64
	RateBurst int

	// RefreshPath is the token refresh endpoint path. Requests targeting it
	// never trigger a recursive refresh.
	RefreshPath string

	DefaultHeaders       map[string]string
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor

	// LogPayloads enables debug-level logging of headers and body payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
}
