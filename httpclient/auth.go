package httpclient

import (
	"context"
	nethttp "net/http"

	"github.com/gaborage/go-mortar/credentials"
)

const authorizationHeader = "Authorization"

// NewAuthInjector returns a request interceptor that attaches the current
// access token as a bearer credential. It reads the store on every call and
// never blocks; when no token exists the request proceeds unauthenticated
// and the server decides whether that is acceptable. An Authorization
// header already present on the request is left untouched.
func NewAuthInjector(store credentials.Store) RequestInterceptor {
	return func(_ context.Context, req *nethttp.Request) error {
		if req.Header.Get(authorizationHeader) != "" {
			return nil
		}
		if token, ok := store.AccessToken(); ok {
			req.Header.Set(authorizationHeader, "Bearer "+token)
		}
		return nil
	}
}
