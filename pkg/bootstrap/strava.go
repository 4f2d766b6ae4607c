package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	shared "github.com/ripixel/fitglue-leaderboard/pkg"
	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
	"github.com/ripixel/fitglue-leaderboard/pkg/leaderboard"
	"github.com/ripixel/fitglue-leaderboard/pkg/oauth"
	"github.com/ripixel/fitglue-leaderboard/pkg/snapshot"
	"github.com/ripixel/fitglue-leaderboard/pkg/strava"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

// StravaConfig is everything the snapshot builder needs to talk to Strava.
type StravaConfig struct {
	ClientID     string
	ClientSecret string
	Athletes     []types.AthleteConfig

	PerPage           int
	MaxPages          int
	CallTimeout       time.Duration
	RequestsPerSecond float64
	Concurrency       int
}

// LoadStravaConfig resolves the credentials and athlete list through the
// secret store and the tuning knobs from the environment. Every failure is a
// CONFIG_* error and happens before any call to Strava.
func LoadStravaConfig(ctx context.Context, secrets shared.SecretStore, projectID string) (*StravaConfig, error) {
	clientID, err := requireSecret(ctx, secrets, projectID, shared.SecretStravaClientID)
	if err != nil {
		return nil, err
	}
	clientSecret, err := requireSecret(ctx, secrets, projectID, shared.SecretStravaClientSecret)
	if err != nil {
		return nil, err
	}
	rawAthletes, err := requireSecret(ctx, secrets, projectID, shared.SecretStravaAthletes)
	if err != nil {
		return nil, err
	}
	athletes, err := ParseAthletes(rawAthletes)
	if err != nil {
		return nil, err
	}

	cfg := &StravaConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Athletes:     athletes,
	}
	if cfg.PerPage, err = envInt("STRAVA_PER_PAGE", shared.DefaultPerPage); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = envInt("STRAVA_MAX_PAGES", shared.DefaultMaxPages); err != nil {
		return nil, err
	}
	if cfg.CallTimeout, err = envDuration("STRAVA_CALL_TIMEOUT", shared.DefaultCallTimeout); err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond, err = envFloat("STRAVA_REQUESTS_PER_SECOND", 0); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = envInt("SNAPSHOT_CONCURRENCY", shared.DefaultConcurrency); err != nil {
		return nil, err
	}
	return cfg, nil
}

// requireSecret reads one secret. An absent or blank value is CONFIG_MISSING;
// a failing secret store is SECRET_ERROR.
func requireSecret(ctx context.Context, secrets shared.SecretStore, projectID, name string) (string, error) {
	val, err := secrets.GetSecret(ctx, projectID, name)
	if err != nil {
		if lberrors.GetCode(err) == lberrors.CodeConfigMissing {
			return "", lberrors.ErrConfigMissing.WithMessage(fmt.Sprintf("%s is not set", name)).WithCause(err)
		}
		return "", lberrors.ErrSecretError.WithMessage(fmt.Sprintf("failed to read %s", name)).WithCause(err)
	}
	if strings.TrimSpace(val) == "" {
		return "", lberrors.ErrConfigMissing.WithMessage(fmt.Sprintf("%s is not set", name))
	}
	return val, nil
}

// ParseAthletes decodes the athlete list: a non-empty JSON array of
// {id, name, token} objects.
func ParseAthletes(raw string) ([]types.AthleteConfig, error) {
	var athletes []types.AthleteConfig
	if err := json.Unmarshal([]byte(raw), &athletes); err != nil {
		return nil, lberrors.ErrConfigInvalid.WithMessage("athletes must be a JSON array").WithCause(err)
	}
	if len(athletes) == 0 {
		return nil, lberrors.ErrConfigInvalid.WithMessage("no athletes configured")
	}
	for i, a := range athletes {
		if a.ID.IsZero() {
			return nil, lberrors.ErrConfigInvalid.WithMessage(fmt.Sprintf("athlete %d has no id", i))
		}
		if a.Token == "" {
			return nil, lberrors.ErrConfigInvalid.WithMessage(fmt.Sprintf("athlete %s has no token", a.ID))
		}
	}
	return athletes, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, lberrors.ErrConfigInvalid.WithMessage(fmt.Sprintf("%s must be a non-negative integer, got %q", key, v))
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, lberrors.ErrConfigInvalid.WithMessage(fmt.Sprintf("%s must be a non-negative number, got %q", key, v))
	}
	return f, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, lberrors.ErrConfigInvalid.WithMessage(fmt.Sprintf("%s must be a positive duration, got %q", key, v))
	}
	return d, nil
}

// NewSnapshotBuilder wires the builder for a service: token refresh and
// activity calls share the configured timeout, the snapshot goes to the
// local file and, when a bucket is set, to the object store.
func NewSnapshotBuilder(svc *Service, sc *StravaConfig, logger *slog.Logger) *snapshot.Builder {
	oauthCfg := &oauth.Config{
		ClientID:     sc.ClientID,
		ClientSecret: sc.ClientSecret,
		HTTPClient:   &http.Client{Timeout: sc.CallTimeout},
		Logger:       logger,
	}

	client := strava.NewClient(sc.CallTimeout, sc.RequestsPerSecond)
	if sc.PerPage > 0 {
		client.PerPage = sc.PerPage
	}
	if sc.MaxPages > 0 {
		client.MaxPages = sc.MaxPages
	}
	client.Logger = logger

	writers := []snapshot.Writer{&snapshot.FileStore{Path: svc.Config.OutputPath}}
	if svc.Store != nil && svc.Config.SnapshotBucket != "" {
		writers = append(writers, &snapshot.BlobWriter{
			Store:  svc.Store,
			Bucket: svc.Config.SnapshotBucket,
			Object: svc.Config.SnapshotObject,
		})
	}

	return &snapshot.Builder{
		Tokens: func(a types.AthleteConfig) oauth.TokenSource {
			return oauthCfg.TokenSource(a.ID.String(), a.Token)
		},
		Fetcher:     client,
		Writers:     writers,
		Publisher:   svc.Pub,
		Concurrency: sc.Concurrency,
		Logger:      logger,
	}
}

// NewSnapshotSource picks where the renderer reads the snapshot from:
// an HTTP URL, then the object store mirror, then the local file.
func NewSnapshotSource(svc *Service) leaderboard.Source {
	cfg := svc.Config
	switch {
	case cfg.SourceURL != "":
		return &leaderboard.HTTPSource{URL: cfg.SourceURL, Client: &http.Client{Timeout: shared.DefaultCallTimeout}}
	case svc.Store != nil && cfg.SnapshotBucket != "":
		return &leaderboard.BlobSource{Store: svc.Store, Bucket: cfg.SnapshotBucket, Object: cfg.SnapshotObject}
	default:
		return &leaderboard.FileSource{Path: cfg.OutputPath}
	}
}

// NewRenderer returns a renderer in the configured display zone.
func NewRenderer(cfg *Config, logger *slog.Logger) (*leaderboard.Renderer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, lberrors.ErrConfigInvalid.WithCause(err)
	}
	return &leaderboard.Renderer{Location: loc, Logger: logger}, nil
}
