package pubsub

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNewCloudEvent(t *testing.T) {
	payload := map[string]interface{}{"week_start": "2026-10-12", "athlete_count": 3}

	e, err := NewCloudEvent("/leaderboard/test", "com.fitglue.leaderboard.snapshot.updated", payload)
	if err != nil {
		t.Fatalf("NewCloudEvent failed: %v", err)
	}
	if e.SpecVersion() != "1.0" {
		t.Errorf("Expected spec version 1.0, got %s", e.SpecVersion())
	}
	if e.ID() == "" {
		t.Error("Expected an event ID")
	}
	if e.Type() != "com.fitglue.leaderboard.snapshot.updated" || e.Source() != "/leaderboard/test" {
		t.Errorf("Unexpected type/source %s %s", e.Type(), e.Source())
	}
	if err := e.Validate(); err != nil {
		t.Errorf("Expected valid event, got %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(e.Data(), &got); err != nil {
		t.Fatalf("Data is not JSON: %v", err)
	}
	if got["week_start"] != "2026-10-12" {
		t.Errorf("Unexpected data %v", got)
	}
}

func TestLogPublisher(t *testing.T) {
	e, _ := NewCloudEvent("/leaderboard/test", "com.fitglue.test", map[string]string{"a": "b"})
	id, err := (&LogPublisher{}).PublishCloudEvent(context.Background(), "topic-x", e)
	if err != nil {
		t.Fatalf("PublishCloudEvent failed: %v", err)
	}
	if id != "mock-msg-id" {
		t.Errorf("Expected mock-msg-id, got %s", id)
	}
}
