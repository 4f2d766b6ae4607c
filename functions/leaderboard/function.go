package leaderboard

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/ripixel/fitglue-leaderboard/pkg/bootstrap"
	lb "github.com/ripixel/fitglue-leaderboard/pkg/leaderboard"
)

const serviceName = "leaderboard"

var (
	handler     http.Handler
	handlerOnce sync.Once
	handlerErr  error
)

func init() {
	functions.HTTP("ServeLeaderboard", ServeLeaderboard)
}

func initHandler(ctx context.Context) (http.Handler, error) {
	if handler != nil {
		return handler, nil
	}
	handlerOnce.Do(func() {
		handler, handlerErr = newHandler(ctx)
		if handlerErr != nil {
			slog.Error("Failed to initialize service", "error", handlerErr)
		}
	})
	return handler, handlerErr
}

func newHandler(ctx context.Context) (http.Handler, error) {
	svc, err := bootstrap.NewService(ctx, serviceName)
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("component", "leaderboard")
	renderer, err := bootstrap.NewRenderer(svc.Config, logger)
	if err != nil {
		return nil, err
	}
	return &lb.Handler{
		Renderer: renderer,
		Source:   bootstrap.NewSnapshotSource(svc),
		Logger:   logger,
	}, nil
}

// ServeLeaderboard is the entry point. It renders the current snapshot as the
// leaderboard page and also serves the raw document.
func ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	h, err := initHandler(r.Context())
	if err != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	h.ServeHTTP(w, r)
}
