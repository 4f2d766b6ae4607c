package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Metric is a numeric field from the activities API.
// Absent, null, non-numeric or non-finite values decode to 0 instead of failing.
type Metric float64

func (m *Metric) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*m = 0
		return nil
	}
	*m = Metric(f)
	return nil
}

// ActivityRecord is one activity as returned by the activities-list endpoint.
type ActivityRecord struct {
	Type               string    `json:"type"`
	Distance           Metric    `json:"distance"`             // meters
	MovingTime         Metric    `json:"moving_time"`          // seconds
	TotalElevationGain Metric    `json:"total_elevation_gain"` // meters
	StartDate          Timestamp `json:"start_date"`
}

// Timestamp is an RFC 3339 time from the activities API. Values that are not
// strings decode to empty.
type Timestamp string

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*ts = ""
		return nil
	}
	*ts = Timestamp(s)
	return nil
}

// StartedAt parses StartDate. It reports false when the field is absent or
// malformed.
func (r ActivityRecord) StartedAt() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, string(r.StartDate))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// TypeTotals aggregates one activity category for one athlete in one week.
type TypeTotals struct {
	Count      int     `json:"count"`
	DistanceKm float64 `json:"distance_km"`
	TimeHours  float64 `json:"time_hours"`
	ElevationM float64 `json:"elevation_m"`
}

// WeeklyTotals holds the per-category totals of an athlete.
type WeeklyTotals struct {
	Cycling TypeTotals `json:"cycling"`
	Running TypeTotals `json:"running"`
}

// AthleteID is an athlete identifier that may be configured as a JSON
// number or string. It is written back in the form it was read.
type AthleteID struct {
	value   string
	numeric bool
}

// NewAthleteID returns an ID that marshals as a string.
func NewAthleteID(s string) AthleteID {
	return AthleteID{value: s}
}

// NewNumericAthleteID returns an ID that marshals as a JSON number.
func NewNumericAthleteID(n int64) AthleteID {
	return AthleteID{value: strconv.FormatInt(n, 10), numeric: true}
}

func (id AthleteID) String() string {
	return id.value
}

func (id AthleteID) IsZero() bool {
	return id.value == ""
}

func (id AthleteID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *AthleteID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = AthleteID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = AthleteID{value: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("athlete id must be a number or string: %w", err)
	}
	*id = AthleteID{value: n.String(), numeric: true}
	return nil
}

// AthleteConfig is one configured athlete: its identity and the long-lived
// refresh token used to obtain access tokens.
type AthleteConfig struct {
	ID    AthleteID `json:"id"`
	Name  string    `json:"name"`
	Token string    `json:"token"`
}

// AthleteWeekly is the per-athlete entry of a snapshot.
// Error is set when the athlete could not be fetched; Weekly is then all zeros.
type AthleteWeekly struct {
	ID     AthleteID    `json:"id"`
	Name   string       `json:"name"`
	Weekly WeeklyTotals `json:"weekly"`
	Error  string       `json:"error,omitempty"`
}

// Snapshot is the persisted weekly leaderboard document.
type Snapshot struct {
	LastUpdated string          `json:"lastUpdated"`
	WeekStart   string          `json:"weekStart"`
	WeekEnd     string          `json:"weekEnd"`
	Athletes    []AthleteWeekly `json:"athletes"`
}

// LastUpdatedLayout renders instants the way the snapshot stores them
// (ISO-8601, UTC, millisecond precision).
const LastUpdatedLayout = "2006-01-02T15:04:05.000Z07:00"

// DateLayout is the calendar-date layout of WeekStart and WeekEnd.
const DateLayout = "2006-01-02"
