package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	shared "github.com/ripixel/fitglue-leaderboard/pkg"
	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
)

// Token represents the OAuth token structure we care about
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// TokenSource returns a valid token.
// It is safe for concurrent use by multiple goroutines.
type TokenSource interface {
	Token(context.Context) (*Token, error)
}

// expiryWindow is how close to expiry a cached token is still handed out.
const expiryWindow = 1 * time.Minute

// Config holds the application credentials shared by every athlete.
type Config struct {
	ClientID     string
	ClientSecret string

	// AuthURL and TokenURL default to the Strava endpoints.
	AuthURL  string
	TokenURL string

	// HTTPClient is used for token requests. Its Timeout bounds each refresh.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// OAuth2 returns the x/oauth2 view of the configuration.
// Strava expects the client credentials in the form body.
func (c *Config) OAuth2(redirectURL string, scopes ...string) *oauth2.Config {
	authURL := c.AuthURL
	if authURL == "" {
		authURL = shared.StravaAuthURL
	}
	tokenURL := c.TokenURL
	if tokenURL == "" {
		tokenURL = shared.StravaTokenURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirectURL,
		Scopes:      scopes,
	}
}

// WithHTTPClient attaches the configured client to ctx for x/oauth2.
func (c *Config) WithHTTPClient(ctx context.Context) context.Context {
	if c.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
}

// TokenSource returns a source that trades the athlete's stored refresh
// token for access tokens.
func (c *Config) TokenSource(athleteID, refreshToken string) *RefreshTokenSource {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshTokenSource{
		cfg:          c,
		conf:         c.OAuth2(""),
		athleteID:    athleteID,
		refreshToken: refreshToken,
		logger:       logger.With("component", "oauth", "athlete_id", athleteID),
		now:          time.Now,
	}
}

// RefreshTokenSource caches the access token of one athlete and refreshes it
// when it is missing or about to expire.
type RefreshTokenSource struct {
	cfg       *Config
	conf      *oauth2.Config
	athleteID string
	logger    *slog.Logger
	now       func() time.Time

	mu           sync.Mutex
	refreshToken string
	current      *Token
}

// Token returns a cached token, refreshing it if necessary.
func (s *RefreshTokenSource) Token(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.now().Add(expiryWindow).Before(s.current.Expiry) {
		return s.current, nil
	}
	return s.refresh(ctx)
}

func (s *RefreshTokenSource) refresh(ctx context.Context) (*Token, error) {
	if s.refreshToken == "" {
		return nil, lberrors.ErrConfigMissing.WithMessage("missing refresh token").
			WithMetadata("athlete_id", s.athleteID)
	}

	src := s.conf.TokenSource(s.cfg.WithHTTPClient(ctx), &oauth2.Token{RefreshToken: s.refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, classifyRefreshError(err).WithMetadata("athlete_id", s.athleteID)
	}

	if tok.RefreshToken != "" && tok.RefreshToken != s.refreshToken {
		// Strava may rotate the refresh token.
		s.logger.Info("Refresh token rotated")
		s.refreshToken = tok.RefreshToken
	}

	s.current = &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: s.refreshToken,
		Expiry:       tok.Expiry,
	}
	s.logger.Debug("Access token refreshed", "expires_at", tok.Expiry)
	return s.current, nil
}

// classifyRefreshError maps a token endpoint failure to a structured error.
// The cause text is the endpoint's HTTP status when one was returned.
func classifyRefreshError(err error) *lberrors.LeaderboardError {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) && rErr.Response != nil {
		cause := fmt.Errorf("%s", rErr.Response.Status)
		if rErr.Response.StatusCode == http.StatusTooManyRequests {
			return lberrors.ErrIntegrationRateLimited.WithMessage(lberrors.ErrTokenRefreshFailed.Message).WithCause(cause)
		}
		return lberrors.ErrTokenRefreshFailed.WithCause(cause)
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return lberrors.ErrTimeout.WithMessage(lberrors.ErrTokenRefreshFailed.Message).WithCause(err)
	}
	return lberrors.ErrTokenRefreshFailed.WithCause(err)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
