package snapshotbuilder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/ripixel/fitglue-leaderboard/pkg/bootstrap"
	"github.com/ripixel/fitglue-leaderboard/pkg/framework"
	"github.com/ripixel/fitglue-leaderboard/pkg/snapshot"
)

const serviceName = "snapshot-builder"

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error

	// Swapped in tests
	loadStravaConfig = bootstrap.LoadStravaConfig
	newBuilder       = bootstrap.NewSnapshotBuilder
)

func init() {
	functions.CloudEvent("BuildWeeklySnapshot", BuildWeeklySnapshot)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx, serviceName)
		if svcErr != nil {
			slog.Error("Failed to initialize service", "error", svcErr)
		}
	})
	return svc, svcErr
}

// BuildWeeklySnapshot is the entry point. It is triggered on a schedule and
// rebuilds the current week's snapshot for every configured athlete.
func BuildWeeklySnapshot(ctx context.Context, e event.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return framework.WrapCloudEvent(serviceName, svc, buildHandler)(ctx, e)
}

func buildHandler(ctx context.Context, e event.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
	svc := fwCtx.Service

	sc, err := loadStravaConfig(ctx, svc.Secrets, svc.Config.ProjectID)
	if err != nil {
		return map[string]interface{}{"status": "CONFIG_ERROR"}, err
	}

	builder := newBuilder(svc, sc, fwCtx.Logger.With("component", "snapshot"))
	s, err := builder.Run(ctx, sc.Athletes)
	if err != nil {
		return map[string]interface{}{"status": "FAILED"}, err
	}

	locations := make([]string, 0, len(builder.Writers))
	for _, w := range builder.Writers {
		locations = append(locations, w.Location())
	}

	return map[string]interface{}{
		"status":        "SUCCESS",
		"week_start":    s.WeekStart,
		"week_end":      s.WeekEnd,
		"last_updated":  s.LastUpdated,
		"athlete_count": len(s.Athletes),
		"failed_count":  snapshot.FailedCount(s),
		"locations":     locations,
	}, nil
}
