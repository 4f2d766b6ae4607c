package shared

import "time"

const (
	ProjectID = "fitglue-leaderboard" // Overridden by GOOGLE_CLOUD_PROJECT

	TopicSnapshotUpdated = "topic-leaderboard-snapshot-updated"

	CollectionExecutions = "executions"

	EventTypeSnapshotUpdated   = "com.fitglue.leaderboard.snapshot.updated"
	EventSourceSnapshotBuilder = "/leaderboard/snapshot-builder"
)

// Secret names, resolved through SecretStore (env var first).
const (
	SecretStravaClientID     = "STRAVA_CLIENT_ID"
	SecretStravaClientSecret = "STRAVA_CLIENT_SECRET"
	SecretStravaAthletes     = "STRAVA_ATHLETES"
)

// Defaults
const (
	DefaultSnapshotPath   = "data/weekly.json"
	DefaultSnapshotObject = "weekly.json"

	DefaultPerPage     = 200
	DefaultMaxPages    = 10
	DefaultCallTimeout = 30 * time.Second
	DefaultConcurrency = 1
)

// Strava endpoints
const (
	StravaAuthURL  = "https://www.strava.com/oauth/authorize"
	StravaTokenURL = "https://www.strava.com/oauth/token"
	StravaAPIBase  = "https://www.strava.com/api/v3"
)
