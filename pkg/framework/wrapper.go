package framework

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/ripixel/fitglue-leaderboard/pkg/bootstrap"
	"github.com/ripixel/fitglue-leaderboard/pkg/execution"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

const pubsubMessagePublished = "google.cloud.pubsub.topic.v1.messagePublished"

// FrameworkContext carries the per-invocation dependencies handed to a handler
type FrameworkContext struct {
	Service     *bootstrap.Service
	Logger      *slog.Logger
	ExecutionID string
}

// HandlerFunc is the signature for a cloud function handler.
// Returns outputs (for the execution record) and error.
type HandlerFunc func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error)

// WrapCloudEvent wraps a handler with execution logging.
// Pub/Sub deliveries whose payload is itself a CloudEvent are unwrapped so the
// handler sees the inner event.
func WrapCloudEvent(serviceName string, svc *bootstrap.Service, handler HandlerFunc) func(context.Context, event.Event) error {
	return func(ctx context.Context, e event.Event) error {
		logger := slog.Default().With("service", serviceName)

		trigger := triggerType(e)
		e = unwrapPubSub(e, logger)

		execID, err := execution.LogPending(ctx, svc.DB, serviceName, execution.ExecutionOptions{
			TriggerType: trigger,
		})
		if err != nil {
			// Logging failures never fail the function
			logger.Error("Failed to log execution pending", "error", err)
		}

		logger = logger.With("execution_id", execID)
		if err := execution.LogStart(ctx, svc.DB, execID, map[string]string{
			"event_id":   e.ID(),
			"event_type": e.Type(),
		}); err != nil {
			logger.Warn("Failed to log execution start", "error", err)
		}
		logger.Info("Function started", "event_id", e.ID(), "event_type", e.Type())

		outputs, handlerErr := handler(ctx, e, &FrameworkContext{
			Service:     svc,
			Logger:      logger,
			ExecutionID: execID,
		})

		if handlerErr != nil {
			logger.Error("Function failed", "error", handlerErr)
			if logErr := execution.LogFailure(ctx, svc.DB, execID, handlerErr, outputs); logErr != nil {
				logger.Warn("Failed to log execution failure", "error", logErr)
			}
			return handlerErr
		}

		logger.Info("Function completed successfully")
		if logErr := execution.LogSuccess(ctx, svc.DB, execID, outputs); logErr != nil {
			logger.Warn("Failed to log execution success", "error", logErr)
		}
		return nil
	}
}

// unwrapPubSub returns the CloudEvent carried in a Pub/Sub message body, or e
// unchanged when the body is not one (a scheduler tick, for example).
func unwrapPubSub(e event.Event, logger *slog.Logger) event.Event {
	if e.Type() != pubsubMessagePublished {
		return e
	}
	var msg types.PubSubMessage
	if err := json.Unmarshal(e.Data(), &msg); err != nil || len(msg.Message.Data) == 0 {
		return e
	}
	var inner event.Event
	if err := json.Unmarshal(msg.Message.Data, &inner); err != nil {
		return e
	}
	if inner.ID() == "" || inner.Type() == "" {
		return e
	}
	logger.Debug("Unwrapped nested CloudEvent", "outer_id", e.ID(), "inner_id", inner.ID())
	return inner
}

func triggerType(e event.Event) string {
	if e.Type() == pubsubMessagePublished {
		return "pubsub"
	}
	if e.Type() == "" {
		return "manual"
	}
	return "event"
}
