// Package httpclient provides a resilient REST client: bearer-token
// injection from a credential store, transparent single-flight token
// refresh shared across concurrent callers, bounded exponential-backoff
// retries with jitter, client-side rate limiting, transfer progress
// tracking, and a closed error taxonomy.
//
// Every failure surfaced by the client is a ClientError carrying one of
// the taxonomy kinds; raw transport errors never escape the pipeline, so
// callers can switch on Kind without knowledge of the transport.
//
// A minimal authenticated client:
//
//	store := credentials.NewMemoryStore()
//	client := httpclient.NewBuilder(log).
//		WithBaseURL("https://api.example.com").
//		WithCredentialStore(store).
//		WithRefresh(credentials.OAuth2Refresher(oauthConf)).
//		WithRefreshPath("/oauth/token").
//		Build()
//
//	resp, err := client.Get(ctx, &httpclient.Request{Path: "/users/me"})
//	if httpclient.IsKind(err, httpclient.KindAuthentication) {
//		// refresh failed terminally; force re-login
//	}
package httpclient
