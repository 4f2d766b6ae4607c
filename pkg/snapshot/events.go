package snapshot

import (
	"context"

	shared "github.com/ripixel/fitglue-leaderboard/pkg"
	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
	infrapubsub "github.com/ripixel/fitglue-leaderboard/pkg/infrastructure/pubsub"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

// PublishUpdated announces a written snapshot on the snapshot-updated topic.
func PublishUpdated(ctx context.Context, pub shared.Publisher, s *types.Snapshot, locations []string) (string, error) {
	payload := types.SnapshotUpdatedEvent{
		WeekStart:    s.WeekStart,
		WeekEnd:      s.WeekEnd,
		LastUpdated:  s.LastUpdated,
		AthleteCount: len(s.Athletes),
		FailedCount:  FailedCount(s),
		Locations:    locations,
	}

	e, err := infrapubsub.NewCloudEvent(shared.EventSourceSnapshotBuilder, shared.EventTypeSnapshotUpdated, payload)
	if err != nil {
		return "", lberrors.ErrPubSubError.WithCause(err)
	}

	msgID, err := pub.PublishCloudEvent(ctx, shared.TopicSnapshotUpdated, e)
	if err != nil {
		return "", lberrors.ErrPubSubError.WithCause(err)
	}
	return msgID, nil
}
