package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/cloudevents/sdk-go/v2/event"
)

// PubSubAdapter provides message publishing using Google Cloud Pub/Sub
type PubSubAdapter struct {
	Client *pubsub.Client
}

func (a *PubSubAdapter) PublishCloudEvent(ctx context.Context, topicID string, e event.Event) (string, error) {
	bytes, err := json.Marshal(e)
	if err != nil {
		slog.Error("Failed to marshal CloudEvent", "component", "pubsub", "topic", topicID, "error", err)
		return "", err
	}
	slog.Info("Publishing CloudEvent",
		"component", "pubsub",
		"topic", topicID,
		"event_type", e.Type(),
		"event_id", e.ID(),
		"source", e.Source(),
		"size_bytes", len(bytes))

	res := a.Client.Topic(topicID).Publish(ctx, &pubsub.Message{
		Data:       bytes,
		Attributes: map[string]string{"ce-type": e.Type()},
	})
	msgID, err := res.Get(ctx)
	if err != nil {
		slog.Error("Failed to publish message", "component", "pubsub", "topic", topicID, "error", err)
		return "", err
	}
	slog.Info("Message published successfully", "component", "pubsub", "topic", topicID, "message_id", msgID)
	return msgID, nil
}

// LogPublisher is a mock publisher for local development
type LogPublisher struct{}

func (p *LogPublisher) PublishCloudEvent(ctx context.Context, topicID string, e event.Event) (string, error) {
	bytes, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	slog.Info("MOCK PUBLISH", "component", "pubsub", "topic", topicID, "event_type", e.Type(), "data", string(bytes))
	return "mock-msg-id", nil
}
