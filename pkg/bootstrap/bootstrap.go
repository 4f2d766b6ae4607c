package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"

	shared "github.com/ripixel/fitglue-leaderboard/pkg"
	"github.com/ripixel/fitglue-leaderboard/pkg/infrastructure/database"
	infrapubsub "github.com/ripixel/fitglue-leaderboard/pkg/infrastructure/pubsub"
	"github.com/ripixel/fitglue-leaderboard/pkg/infrastructure/secrets"
	infrastorage "github.com/ripixel/fitglue-leaderboard/pkg/infrastructure/storage"
)

// Config holds standard configuration for all services
type Config struct {
	ProjectID          string
	EnablePublish      bool
	EnableExecutionLog bool

	// ExecutionLogPath switches the execution log to a local SQLite file
	ExecutionLogPath string

	// Snapshot locations
	OutputPath     string
	SnapshotBucket string
	SnapshotObject string

	// Renderer
	SourceURL string
	Timezone  string
}

// Service holds initialized dependencies
type Service struct {
	DB      shared.Database
	Store   shared.BlobStore // nil when no snapshot bucket is configured
	Pub     shared.Publisher
	Secrets shared.SecretStore
	Config  *Config
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = shared.ProjectID // Fallback
	}

	return &Config{
		ProjectID:          projectID,
		EnablePublish:      os.Getenv("ENABLE_PUBLISH") == "true",
		EnableExecutionLog: os.Getenv("ENABLE_EXECUTION_LOG") == "true",
		ExecutionLogPath:   os.Getenv("EXECUTION_LOG_DB"),
		OutputPath:         envOr("SNAPSHOT_OUTPUT_PATH", shared.DefaultSnapshotPath),
		SnapshotBucket:     os.Getenv("SNAPSHOT_BUCKET"),
		SnapshotObject:     envOr("SNAPSHOT_OBJECT", shared.DefaultSnapshotObject),
		SourceURL:          os.Getenv("LEADERBOARD_SOURCE_URL"),
		Timezone:           os.Getenv("LEADERBOARD_TIMEZONE"),
	}
}

// Location resolves the display time zone; empty means the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("LEADERBOARD_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message
type ComponentHandler struct {
	slog.Handler
	component string
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	component := h.component

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = a.Value.String()
			return false
		}
		return true
	})

	if component != "" {
		newRecord := slog.NewRecord(r.Time, r.Level, fmt.Sprintf("[%s] %s", component, r.Message), r.PC)
		r.Attrs(func(a slog.Attr) bool {
			if a.Key != "component" {
				newRecord.AddAttrs(a)
			}
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// WithAttrs keeps a logger-level component (logger.With("component", ...))
// out of the JSON attrs and in the message prefix.
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	component := h.component
	rest := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "component" {
			component = a.Value.String()
			continue
		}
		rest = append(rest, a)
	}
	return &ComponentHandler{Handler: h.Handler.WithAttrs(rest), component: component}
}

// WithGroup implements slog.Handler
func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{Handler: h.Handler.WithGroup(name), component: h.component}
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger configures the default logger with Cloud Logging compatible keys
func InitLogger(serviceName string) *slog.Logger {
	logger := NewLogger(serviceName)
	slog.SetDefault(logger)
	return logger
}

// NewLogger creates a configured logger instance
func NewLogger(serviceName string) *slog.Logger {
	opts := GetSlogHandlerOptions(ParseLevel(os.Getenv("LOG_LEVEL")))
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
}

// NewService initializes all standard dependencies
func NewService(ctx context.Context, serviceName string) (*Service, error) {
	logger := InitLogger(serviceName)
	cfg := LoadConfig()

	logger.Info("Initializing service", "project_id", cfg.ProjectID)

	// Execution log
	var db shared.Database = database.NoopDatabase{}
	switch {
	case cfg.EnableExecutionLog && cfg.ExecutionLogPath != "":
		sqliteDB, err := database.OpenSQLite(cfg.ExecutionLogPath)
		if err != nil {
			logger.Error("SQLite init failed", "error", err)
			return nil, fmt.Errorf("sqlite init: %w", err)
		}
		db = sqliteDB
		logger.Info("Execution log: SQLite", "path", cfg.ExecutionLogPath)
	case cfg.EnableExecutionLog:
		fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			logger.Error("Firestore init failed", "error", err)
			return nil, fmt.Errorf("firestore init: %w", err)
		}
		db = database.NewFirestoreAdapter(fsClient)
		logger.Info("Execution log: Firestore (ENABLE_EXECUTION_LOG=true)")
	}

	// Pub/Sub
	var pubAdapter shared.Publisher
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			logger.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		pubAdapter = &infrapubsub.PubSubAdapter{Client: psClient}
		logger.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		pubAdapter = &infrapubsub.LogPublisher{}
		logger.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	// Storage
	var store shared.BlobStore
	if cfg.SnapshotBucket != "" {
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			logger.Error("Storage init failed", "error", err)
			return nil, fmt.Errorf("storage init: %w", err)
		}
		store = &infrastorage.StorageAdapter{Client: gcsClient, CacheControl: "no-cache, max-age=0"}
		logger.Info("Snapshot mirror enabled", "bucket", cfg.SnapshotBucket, "object", cfg.SnapshotObject)
	}

	return &Service{
		DB:      db,
		Pub:     pubAdapter,
		Store:   store,
		Secrets: &secrets.SecretsAdapter{},
		Config:  cfg,
	}, nil
}
