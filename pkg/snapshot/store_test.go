package snapshot

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
	"github.com/ripixel/fitglue-leaderboard/pkg/testing/mocks"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

func sampleSnapshot() *types.Snapshot {
	return &types.Snapshot{
		LastUpdated: "2026-10-15T08:30:00.000Z",
		WeekStart:   "2026-10-12",
		WeekEnd:     "2026-10-18",
		Athletes: []types.AthleteWeekly{
			{
				ID:   types.NewNumericAthleteID(1),
				Name: "Alice",
				Weekly: types.WeeklyTotals{
					Cycling: types.TypeTotals{Count: 2, DistanceKm: 50.5, TimeHours: 2.5, ElevationM: 460.4},
				},
			},
			{ID: types.NewAthleteID("b"), Name: "Bob", Error: "Failed to fetch activities: 401 Unauthorized"},
		},
	}
}

func TestEncode_Indented(t *testing.T) {
	data, err := Encode(sampleSnapshot())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("{\n  \"lastUpdated\": ")) {
		t.Errorf("Expected 2-space indentation, got %s", data[:40])
	}
	if !bytes.HasSuffix(data, []byte("}\n")) {
		t.Error("Expected trailing newline")
	}
}

func TestFileStore_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "weekly.json")
	store := &FileStore{Path: path}

	if err := store.Write(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.WeekStart != "2026-10-12" || len(got.Athletes) != 2 {
		t.Errorf("Unexpected snapshot %+v", got)
	}
	if got.Athletes[0].ID.String() != "1" || got.Athletes[1].Error == "" {
		t.Errorf("Unexpected athletes %+v", got.Athletes)
	}
	if got.Athletes[0].Weekly.Cycling.ElevationM != 460.4 {
		t.Errorf("Unexpected totals %+v", got.Athletes[0].Weekly)
	}
}

func TestFileStore_OverwritesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := &FileStore{Path: filepath.Join(dir, "weekly.json")}

	first := sampleSnapshot()
	if err := store.Write(context.Background(), first); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	second := sampleSnapshot()
	second.Athletes = second.Athletes[:1]
	if err := store.Write(context.Background(), second); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got.Athletes) != 1 {
		t.Errorf("Expected the second document, got %d athletes", len(got.Athletes))
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only weekly.json, found %v", names)
	}
}

func TestFileStore_WriteFailureKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weekly.json")
	if err := os.WriteFile(path, []byte(`{"weekStart":"old"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	// A directory in place of the target makes the rename fail.
	blocked := &FileStore{Path: filepath.Join(dir, "sub")}
	if err := os.MkdirAll(filepath.Join(dir, "sub", "child"), 0o755); err != nil {
		t.Fatal(err)
	}
	err := blocked.Write(context.Background(), sampleSnapshot())
	if !errors.Is(err, lberrors.ErrStorageError) {
		t.Errorf("Expected ErrStorageError, got %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != `{"weekStart":"old"}` {
		t.Errorf("Existing document changed: %s", data)
	}
}

func TestFileStore_ReadMissing(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "missing.json")}
	_, err := store.Read(context.Background())
	if !errors.Is(err, lberrors.ErrSnapshotFetchFailed) {
		t.Errorf("Expected ErrSnapshotFetchFailed, got %v", err)
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, in := range []string{"", "[]", "<html>", `{"athletes": 5}`} {
		if _, err := Decode([]byte(in)); !errors.Is(err, lberrors.ErrSnapshotInvalid) {
			t.Errorf("Decode(%q): expected ErrSnapshotInvalid, got %v", in, err)
		}
	}
}

func TestBlobWriter(t *testing.T) {
	var gotBucket, gotObject string
	var gotData []byte
	store := &mocks.MockBlobStore{
		WriteFunc: func(ctx context.Context, bucket, object string, data []byte) error {
			gotBucket, gotObject, gotData = bucket, object, data
			return nil
		},
	}

	w := &BlobWriter{Store: store, Bucket: "leaderboard", Object: "weekly.json"}
	if w.Location() != "gs://leaderboard/weekly.json" {
		t.Errorf("Unexpected location %s", w.Location())
	}
	if err := w.Write(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if gotBucket != "leaderboard" || gotObject != "weekly.json" {
		t.Errorf("Unexpected target %s/%s", gotBucket, gotObject)
	}
	if !strings.Contains(string(gotData), `"weekStart": "2026-10-12"`) {
		t.Errorf("Unexpected data %s", gotData)
	}
}

func TestBlobWriter_Error(t *testing.T) {
	store := &mocks.MockBlobStore{
		WriteFunc: func(ctx context.Context, bucket, object string, data []byte) error {
			return errors.New("permission denied")
		},
	}
	err := (&BlobWriter{Store: store, Bucket: "b", Object: "o"}).Write(context.Background(), sampleSnapshot())
	if !errors.Is(err, lberrors.ErrStorageError) {
		t.Errorf("Expected ErrStorageError, got %v", err)
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummary(&buf, sampleSnapshot()); err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Week 2026-10-12 - 2026-10-18", "ATHLETE", "Alice", "50.50", "401 Unauthorized"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in summary:\n%s", want, out)
		}
	}
}
