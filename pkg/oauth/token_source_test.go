package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
)

type tokenServer struct {
	*httptest.Server
	calls     atomic.Int32
	lastForm  chan map[string]string
	expiresIn int
	rotateTo  string
	status    int
}

func newTokenServer(t *testing.T) *tokenServer {
	ts := &tokenServer{expiresIn: 21600, lastForm: make(chan map[string]string, 10)}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := ts.calls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		ts.lastForm <- map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"refresh_token": r.PostForm.Get("refresh_token"),
			"client_id":     r.PostForm.Get("client_id"),
			"client_secret": r.PostForm.Get("client_secret"),
		}
		if ts.status != 0 {
			w.WriteHeader(ts.status)
			return
		}
		refresh := r.PostForm.Get("refresh_token")
		if ts.rotateTo != "" {
			refresh = ts.rotateTo
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"access-%d","refresh_token":%q,"token_type":"Bearer","expires_in":%d}`, n, refresh, ts.expiresIn)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(ts *tokenServer) *Config {
	return &Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		TokenURL:     ts.URL,
		HTTPClient:   ts.Client(),
	}
}

func TestRefreshTokenSource_Token(t *testing.T) {
	ts := newTokenServer(t)
	src := testConfig(ts).TokenSource("42", "refresh-abc")

	tok, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok.AccessToken != "access-1" {
		t.Errorf("Expected access-1, got %s", tok.AccessToken)
	}

	form := <-ts.lastForm
	want := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": "refresh-abc",
		"client_id":     "client-1",
		"client_secret": "secret-1",
	}
	for k, v := range want {
		if form[k] != v {
			t.Errorf("Form %s: expected %q, got %q", k, v, form[k])
		}
	}

	// Cached until close to expiry.
	tok, err = src.Token(context.Background())
	if err != nil {
		t.Fatalf("Second Token failed: %v", err)
	}
	if tok.AccessToken != "access-1" || ts.calls.Load() != 1 {
		t.Errorf("Expected cached token and 1 call, got %s and %d calls", tok.AccessToken, ts.calls.Load())
	}
}

func TestRefreshTokenSource_RefreshesNearExpiry(t *testing.T) {
	ts := newTokenServer(t)
	ts.expiresIn = 30
	src := testConfig(ts).TokenSource("42", "refresh-abc")

	if _, err := src.Token(context.Background()); err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	tok, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok.AccessToken != "access-2" {
		t.Errorf("Expected refreshed token access-2, got %s", tok.AccessToken)
	}
}

func TestRefreshTokenSource_UsesRotatedRefreshToken(t *testing.T) {
	ts := newTokenServer(t)
	ts.rotateTo = "refresh-rotated"
	ts.expiresIn = 30
	src := testConfig(ts).TokenSource("42", "refresh-abc")

	tok, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok.RefreshToken != "refresh-rotated" {
		t.Errorf("Expected rotated refresh token, got %s", tok.RefreshToken)
	}
	<-ts.lastForm

	// Inside the expiry window, so the next call exchanges the rotated token.
	if _, err := src.Token(context.Background()); err != nil {
		t.Fatalf("Second Token failed: %v", err)
	}
	if form := <-ts.lastForm; form["refresh_token"] != "refresh-rotated" {
		t.Errorf("Expected rotated token to be sent, got %q", form["refresh_token"])
	}
}

func TestRefreshTokenSource_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantErr  error
		wantText string
	}{
		{"bad request", http.StatusBadRequest, lberrors.ErrTokenRefreshFailed, "failed to get access token: 400 Bad Request"},
		{"unauthorized", http.StatusUnauthorized, lberrors.ErrTokenRefreshFailed, "401 Unauthorized"},
		{"rate limited", http.StatusTooManyRequests, lberrors.ErrIntegrationRateLimited, "429 Too Many Requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTokenServer(t)
			ts.status = tt.status
			src := testConfig(ts).TokenSource("42", "refresh-abc")

			_, err := src.Token(context.Background())
			if err == nil {
				t.Fatal("Expected error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("Expected %q in %q", tt.wantText, err.Error())
			}
		})
	}
}

func TestRefreshTokenSource_MissingRefreshToken(t *testing.T) {
	ts := newTokenServer(t)
	src := testConfig(ts).TokenSource("42", "")

	_, err := src.Token(context.Background())
	if !errors.Is(err, lberrors.ErrConfigMissing) {
		t.Errorf("Expected ErrConfigMissing, got %v", err)
	}
	if ts.calls.Load() != 0 {
		t.Errorf("Expected no token request, got %d", ts.calls.Load())
	}
}

func TestConfig_OAuth2Defaults(t *testing.T) {
	conf := (&Config{ClientID: "id"}).OAuth2("http://localhost:3000/callback", "activity:read_all")
	if conf.Endpoint.TokenURL != "https://www.strava.com/oauth/token" {
		t.Errorf("Unexpected token URL %s", conf.Endpoint.TokenURL)
	}
	if conf.Endpoint.AuthURL != "https://www.strava.com/oauth/authorize" {
		t.Errorf("Unexpected auth URL %s", conf.Endpoint.AuthURL)
	}
	if len(conf.Scopes) != 1 || conf.Scopes[0] != "activity:read_all" {
		t.Errorf("Unexpected scopes %v", conf.Scopes)
	}
}
