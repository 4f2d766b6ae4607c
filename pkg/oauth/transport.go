package oauth

import (
	"fmt"
	"log/slog"
	"net/http"
)

// Transport is an http.RoundTripper that authenticates all requests
// using the provided TokenSource.
//
// A 401 from the upstream is returned to the caller as is; the request is
// not replayed with a refreshed token.
type Transport struct {
	// Source supplies the token to be used.
	Source TokenSource

	// Base is the base RoundTripper used to make the actual HTTP requests.
	// If nil, http.DefaultTransport is used.
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	token, err := t.Source.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("oauth: cannot get token: %w", err)
	}

	req2 := cloneRequest(req)
	req2.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := base.RoundTrip(req2)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		slog.Warn("Got 401 Unauthorized", "component", "oauth", "url", req.URL.Redacted())
	}
	return resp, nil
}

// NewClient returns an HTTP client that sends src's token on every request.
// base may be nil; its Timeout and Transport are kept.
func NewClient(src TokenSource, base *http.Client) *http.Client {
	c := &http.Client{}
	if base != nil {
		*c = *base
	}
	c.Transport = &Transport{Source: src, Base: c.Transport}
	return c
}

// cloneRequest returns a clone of the provided *http.Request.
// The clone is a shallow copy of the struct and its Header map.
func cloneRequest(r *http.Request) *http.Request {
	r2 := new(http.Request)
	*r2 = *r
	r2.Header = make(http.Header, len(r.Header))
	for k, s := range r.Header {
		r2.Header[k] = append([]string(nil), s...)
	}
	return r2
}
