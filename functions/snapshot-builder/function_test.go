package snapshotbuilder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudevents/sdk-go/v2/event"

	shared "github.com/ripixel/fitglue-leaderboard/pkg"
	"github.com/ripixel/fitglue-leaderboard/pkg/bootstrap"
	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
	"github.com/ripixel/fitglue-leaderboard/pkg/oauth"
	"github.com/ripixel/fitglue-leaderboard/pkg/snapshot"
	"github.com/ripixel/fitglue-leaderboard/pkg/strava"
	"github.com/ripixel/fitglue-leaderboard/pkg/testing/mocks"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

// fakeStrava serves the token endpoint and the activities list. The access
// token handed out is "access-<refresh token>"; "rt-revoked" gets a 401 from
// the activities endpoint.
func fakeStrava(t *testing.T) *httptest.Server {
	activities := map[string]string{
		"access-rt-alice": `[{"type":"Ride","distance":42000,"moving_time":5400,"total_elevation_gain":300},{"type":"Run","distance":5000,"moving_time":1500}]`,
		"access-rt-bob":   `[{"type":"Run","distance":10000,"moving_time":3000,"total_elevation_gain":40}]`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"access-%s","refresh_token":%q,"token_type":"Bearer","expires_in":21600}`,
			r.PostForm.Get("refresh_token"), r.PostForm.Get("refresh_token"))
	})
	mux.HandleFunc("/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		body, ok := activities[token]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("page") != "1" {
			body = "[]"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func setup(t *testing.T, secrets map[string]string, pub *mocks.MockPublisher) string {
	t.Helper()
	ts := fakeStrava(t)
	out := filepath.Join(t.TempDir(), "data", "weekly.json")

	svc = &bootstrap.Service{
		DB:  &mocks.MockDatabase{},
		Pub: pub,
		Secrets: &mocks.MockSecretStore{
			GetSecretFunc: func(ctx context.Context, projectID, name string) (string, error) {
				if v, ok := secrets[name]; ok {
					return v, nil
				}
				return "", lberrors.ErrConfigMissing.WithMessage("secret not found")
			},
		},
		Config: &bootstrap.Config{ProjectID: "test-project", OutputPath: out},
	}

	newBuilder = func(s *bootstrap.Service, sc *bootstrap.StravaConfig, logger *slog.Logger) *snapshot.Builder {
		b := bootstrap.NewSnapshotBuilder(s, sc, logger)
		oauthCfg := &oauth.Config{
			ClientID:     sc.ClientID,
			ClientSecret: sc.ClientSecret,
			TokenURL:     ts.URL + "/oauth/token",
			HTTPClient:   ts.Client(),
		}
		b.Tokens = func(a types.AthleteConfig) oauth.TokenSource {
			return oauthCfg.TokenSource(a.ID.String(), a.Token)
		}
		b.Fetcher.(*strava.Client).BaseURL = ts.URL
		return b
	}
	t.Cleanup(func() {
		svc = nil
		newBuilder = bootstrap.NewSnapshotBuilder
	})
	return out
}

func validSecrets() map[string]string {
	return map[string]string{
		shared.SecretStravaClientID:     "client",
		shared.SecretStravaClientSecret: "secret",
		shared.SecretStravaAthletes: `[
			{"id": 1, "name": "Alice", "token": "rt-alice"},
			{"id": 2, "name": "Revoked", "token": "rt-revoked"},
			{"id": 3, "name": "Bob", "token": "rt-bob"}
		]`,
	}
}

func schedulerTick() event.Event {
	var msg types.PubSubMessage
	msg.Message.Data = []byte("tick")
	e := event.New()
	e.SetID("tick-1")
	e.SetType("google.cloud.pubsub.topic.v1.messagePublished")
	e.SetSource("//pubsub.googleapis.com/projects/test/topics/weekly-tick")
	e.SetData(event.ApplicationJSON, msg)
	return e
}

func TestBuildWeeklySnapshot(t *testing.T) {
	var published []types.SnapshotUpdatedEvent
	pub := &mocks.MockPublisher{
		PublishCloudEventFunc: func(ctx context.Context, topic string, e event.Event) (string, error) {
			if topic != shared.TopicSnapshotUpdated {
				t.Errorf("Unexpected topic %s", topic)
			}
			var payload types.SnapshotUpdatedEvent
			if err := e.DataAs(&payload); err != nil {
				t.Errorf("DataAs: %v", err)
			}
			published = append(published, payload)
			return "msg-1", nil
		},
	}
	out := setup(t, validSecrets(), pub)

	if err := BuildWeeklySnapshot(context.Background(), schedulerTick()); err != nil {
		t.Fatalf("BuildWeeklySnapshot failed: %v", err)
	}

	s, err := (&snapshot.FileStore{Path: out}).Read(context.Background())
	if err != nil {
		t.Fatalf("Snapshot not written: %v", err)
	}
	if len(s.Athletes) != 3 {
		t.Fatalf("Expected 3 athletes, got %d", len(s.Athletes))
	}

	alice, revoked, bob := s.Athletes[0], s.Athletes[1], s.Athletes[2]
	wantAlice := types.WeeklyTotals{
		Cycling: types.TypeTotals{Count: 1, DistanceKm: 42, TimeHours: 1.5, ElevationM: 300},
		Running: types.TypeTotals{Count: 1, DistanceKm: 5, TimeHours: 0.42, ElevationM: 0},
	}
	if alice.Name != "Alice" || alice.Weekly != wantAlice || alice.Error != "" {
		t.Errorf("Unexpected Alice entry: %+v", alice)
	}
	if revoked.Weekly != (types.WeeklyTotals{}) || revoked.Error == "" {
		t.Errorf("Expected zeroed entry with error, got %+v", revoked)
	}
	if bob.Weekly.Running.Count != 1 || bob.Weekly.Running.DistanceKm != 10 {
		t.Errorf("Unexpected Bob entry: %+v", bob)
	}

	if len(published) != 1 {
		t.Fatalf("Expected one published event, got %d", len(published))
	}
	if published[0].AthleteCount != 3 || published[0].FailedCount != 1 || published[0].WeekStart != s.WeekStart {
		t.Errorf("Unexpected event payload: %+v", published[0])
	}
}

func TestBuildWeeklySnapshot_ConfigErrorStopsBeforeStrava(t *testing.T) {
	secrets := validSecrets()
	secrets[shared.SecretStravaAthletes] = `[]`

	var outputs string
	out := setup(t, secrets, &mocks.MockPublisher{
		PublishCloudEventFunc: func(ctx context.Context, topic string, e event.Event) (string, error) {
			t.Error("Nothing should be published on a config error")
			return "", nil
		},
	})
	svc.DB = &mocks.MockDatabase{
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if s, ok := data["outputs_json"].(string); ok {
				outputs = s
			}
			return nil
		},
	}
	newBuilder = func(s *bootstrap.Service, sc *bootstrap.StravaConfig, logger *slog.Logger) *snapshot.Builder {
		t.Error("Builder must not be created on a config error")
		return bootstrap.NewSnapshotBuilder(s, sc, logger)
	}

	err := BuildWeeklySnapshot(context.Background(), schedulerTick())
	if !errors.Is(err, lberrors.ErrConfigInvalid) {
		t.Fatalf("Expected ErrConfigInvalid, got %v", err)
	}
	if _, statErr := (&snapshot.FileStore{Path: out}).Read(context.Background()); statErr == nil {
		t.Error("Expected no snapshot to be written")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(outputs), &decoded); err != nil || decoded["status"] != "CONFIG_ERROR" {
		t.Errorf("Expected CONFIG_ERROR outputs, got %q", outputs)
	}
}
