package types

import "time"

// ExecutionStatus is the lifecycle state of a recorded function run.
type ExecutionStatus int32

const (
	ExecutionStatusUnspecified ExecutionStatus = iota
	ExecutionStatusPending
	ExecutionStatusStarted
	ExecutionStatusSuccess
	ExecutionStatusFailed
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionStatusPending:
		return "PENDING"
	case ExecutionStatusStarted:
		return "STARTED"
	case ExecutionStatusSuccess:
		return "SUCCESS"
	case ExecutionStatusFailed:
		return "FAILED"
	}
	return "UNSPECIFIED"
}

// ExecutionRecord is one document of the executions collection.
type ExecutionRecord struct {
	ExecutionID  string          `firestore:"execution_id"`
	Service      string          `firestore:"service"`
	Status       ExecutionStatus `firestore:"status"`
	TriggerType  string          `firestore:"trigger_type,omitempty"`
	Timestamp    time.Time       `firestore:"timestamp"`
	StartTime    time.Time       `firestore:"start_time"`
	EndTime      *time.Time      `firestore:"end_time,omitempty"`
	InputsJSON   string          `firestore:"inputs_json,omitempty"`
	OutputsJSON  string          `firestore:"outputs_json,omitempty"`
	ErrorMessage string          `firestore:"error_message,omitempty"`
}

// SnapshotUpdatedEvent is the payload published after a snapshot is written.
type SnapshotUpdatedEvent struct {
	WeekStart    string   `json:"week_start"`
	WeekEnd      string   `json:"week_end"`
	LastUpdated  string   `json:"last_updated"`
	AthleteCount int      `json:"athlete_count"`
	FailedCount  int      `json:"failed_count"`
	Locations    []string `json:"locations"`
}
