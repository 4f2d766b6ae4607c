// Package snapshot builds the weekly leaderboard document and persists it.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	shared "github.com/ripixel/fitglue-leaderboard/pkg"
	"github.com/ripixel/fitglue-leaderboard/pkg/domain/activity"
	"github.com/ripixel/fitglue-leaderboard/pkg/domain/week"
	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
	"github.com/ripixel/fitglue-leaderboard/pkg/oauth"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

// Fetcher lists the activities an athlete started inside a week.
type Fetcher interface {
	ListActivities(ctx context.Context, src oauth.TokenSource, bounds week.Bounds) ([]types.ActivityRecord, error)
}

// Writer persists a finished snapshot.
type Writer interface {
	Write(ctx context.Context, s *types.Snapshot) error
	Location() string
}

// Builder produces one snapshot per run.
type Builder struct {
	// Tokens returns the credential source of an athlete.
	Tokens  func(a types.AthleteConfig) oauth.TokenSource
	Fetcher Fetcher
	Writers []Writer

	// Publisher, when set, announces each written snapshot.
	Publisher shared.Publisher

	// Now defaults to time.Now. The week is computed in Now's location.
	Now func() time.Time

	// Concurrency is the number of athletes processed at once; <= 1 is sequential.
	Concurrency int

	Logger *slog.Logger
}

// Build fetches and aggregates every athlete. An athlete that fails is kept
// with zero totals and its error, so the result always lists every input
// athlete in input order. If ctx is cancelled part way, athletes not yet
// fetched are flagged as interrupted and the partial snapshot is returned.
func (b *Builder) Build(ctx context.Context, athletes []types.AthleteConfig) (*types.Snapshot, error) {
	if len(athletes) == 0 {
		return nil, lberrors.ErrConfigInvalid.WithMessage("no athletes configured")
	}

	now := b.now()
	bounds := week.Current(now)
	logger := b.logger()
	logger.Info("Building snapshot",
		"week_start", bounds.StartISO(),
		"week_end", bounds.EndISO(),
		"athletes", len(athletes),
		"concurrency", b.Concurrency)

	results := make([]types.AthleteWeekly, len(athletes))
	if b.Concurrency <= 1 {
		for i, a := range athletes {
			results[i] = b.buildAthlete(ctx, a, bounds)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(b.Concurrency)
		for i, a := range athletes {
			i, a := i, a
			g.Go(func() error {
				results[i] = b.buildAthlete(ctx, a, bounds)
				return nil
			})
		}
		g.Wait()
	}

	if err := ctx.Err(); err != nil {
		logger.Warn("Snapshot build interrupted, returning partial results", "error", err)
	}

	s := &types.Snapshot{
		LastUpdated: now.UTC().Format(types.LastUpdatedLayout),
		WeekStart:   bounds.StartISO(),
		WeekEnd:     bounds.EndISO(),
		Athletes:    results,
	}
	logSummary(logger, s)
	return s, nil
}

// Run builds a snapshot and hands it to every writer. A write failure fails
// the run; the built snapshot is still returned. Publishing is best effort.
// An interrupted build is still persisted.
func (b *Builder) Run(ctx context.Context, athletes []types.AthleteConfig) (*types.Snapshot, error) {
	s, err := b.Build(ctx, athletes)
	if err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		b.logger().Warn("Persisting partial snapshot after interruption", "failed", FailedCount(s))
		ctx = context.WithoutCancel(ctx)
	}

	locations := make([]string, 0, len(b.Writers))
	for _, w := range b.Writers {
		if err := w.Write(ctx, s); err != nil {
			return s, fmt.Errorf("write snapshot to %s: %w", w.Location(), err)
		}
		b.logger().Info("Snapshot written", "location", w.Location())
		locations = append(locations, w.Location())
	}

	if b.Publisher != nil {
		if _, err := PublishUpdated(ctx, b.Publisher, s, locations); err != nil {
			b.logger().Warn("Failed to publish snapshot update", "error", err)
		}
	}
	return s, nil
}

func (b *Builder) buildAthlete(ctx context.Context, a types.AthleteConfig, bounds week.Bounds) types.AthleteWeekly {
	logger := b.logger().With("athlete_id", a.ID.String(), "athlete", a.Name)
	logger.Info("Fetching activities")

	entry := types.AthleteWeekly{ID: a.ID, Name: a.Name}
	if err := ctx.Err(); err != nil {
		return failed(logger, entry, lberrors.ErrTimeout.WithMessage("snapshot build interrupted").WithCause(err))
	}

	src := b.Tokens(a)
	if _, err := src.Token(ctx); err != nil {
		return failed(logger, entry, err)
	}

	records, err := b.Fetcher.ListActivities(ctx, src, bounds)
	if err != nil {
		return failed(logger, entry, err)
	}

	entry.Weekly = activity.Aggregate(records)
	logger.Info("Athlete processed",
		"activities", len(records),
		"rides", entry.Weekly.Cycling.Count,
		"runs", entry.Weekly.Running.Count)
	return entry
}

func failed(logger *slog.Logger, entry types.AthleteWeekly, err error) types.AthleteWeekly {
	logger.Error("Athlete fetch failed",
		"error", err,
		"code", lberrors.GetCode(err),
		"retryable", lberrors.IsRetryable(err))
	entry.Weekly = types.WeeklyTotals{}
	entry.Error = Describe(err)
	return entry
}

// Describe returns the error text shown to readers of a snapshot, without the
// code prefix and starting with a capital, e.g.
// "Failed to fetch activities: 401 Unauthorized".
func Describe(err error) string {
	msg := err.Error()
	var lbErr *lberrors.LeaderboardError
	if errors.As(err, &lbErr) {
		msg = lbErr.Message
		if lbErr.Cause != nil {
			msg += ": " + lbErr.Cause.Error()
		}
	}
	return capitalize(msg)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default().With("component", "snapshot")
}
