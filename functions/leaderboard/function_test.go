package leaderboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ripixel/fitglue-leaderboard/pkg/bootstrap"
	lb "github.com/ripixel/fitglue-leaderboard/pkg/leaderboard"
	"github.com/ripixel/fitglue-leaderboard/pkg/snapshot"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

func injectFileHandler(t *testing.T, path string) {
	t.Helper()
	svc := &bootstrap.Service{Config: &bootstrap.Config{OutputPath: path}}
	handler = &lb.Handler{
		Renderer: &lb.Renderer{Location: time.UTC},
		Source:   bootstrap.NewSnapshotSource(svc),
	}
	t.Cleanup(func() { handler = nil })
}

func TestServeLeaderboard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekly.json")
	s := &types.Snapshot{
		LastUpdated: "2026-10-15T08:30:00.000Z",
		WeekStart:   "2026-10-12",
		WeekEnd:     "2026-10-18",
		Athletes: []types.AthleteWeekly{{
			ID:     types.NewNumericAthleteID(1),
			Name:   "Alice",
			Weekly: types.WeeklyTotals{Running: types.TypeTotals{Count: 2, DistanceKm: 12.34, TimeHours: 1.1}},
		}},
	}
	if err := (&snapshot.FileStore{Path: path}).Write(context.Background(), s); err != nil {
		t.Fatalf("Write: %v", err)
	}
	injectFileHandler(t, path)

	rec := httptest.NewRecorder()
	ServeLeaderboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"12 Oct 2026 - 18 Oct 2026", "No cycling data for this week", "Alice", "12.3"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in page", want)
		}
	}
}

func TestServeLeaderboard_MissingSnapshot(t *testing.T) {
	injectFileHandler(t, filepath.Join(t.TempDir(), "missing.json"))

	rec := httptest.NewRecorder()
	ServeLeaderboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Unable to Load Leaderboard") {
		t.Error("Expected error panel")
	}

	rec = httptest.NewRecorder()
	ServeLeaderboard(rec, httptest.NewRequest(http.MethodGet, "/weekly.json", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 for raw data, got %d", rec.Code)
	}
}
