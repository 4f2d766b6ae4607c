// Package strava lists an athlete's activities from the Strava API.
package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	shared "github.com/ripixel/fitglue-leaderboard/pkg"
	"github.com/ripixel/fitglue-leaderboard/pkg/domain/week"
	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
	"github.com/ripixel/fitglue-leaderboard/pkg/oauth"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

// Client calls the activities-list endpoint.
type Client struct {
	// BaseURL defaults to the public v3 API.
	BaseURL string

	// HTTPClient is the base client; its Timeout bounds every call.
	HTTPClient *http.Client

	// PerPage and MaxPages cap how much of a week is read.
	PerPage  int
	MaxPages int

	// Limiter, when set, paces requests across all athletes.
	Limiter *rate.Limiter

	Logger *slog.Logger
}

// NewClient returns a client with the default page caps and the given
// per-call timeout. rps <= 0 disables client-side rate limiting.
func NewClient(timeout time.Duration, rps float64) *Client {
	c := &Client{
		BaseURL:    shared.StravaAPIBase,
		HTTPClient: &http.Client{Timeout: timeout},
		PerPage:    shared.DefaultPerPage,
		MaxPages:   shared.DefaultMaxPages,
	}
	if rps > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// ListActivities returns the activities started inside bounds, reading pages
// until a short page or the page cap. Records whose start date falls outside
// bounds are dropped; records without a readable start date are kept.
func (c *Client) ListActivities(ctx context.Context, src oauth.TokenSource, bounds week.Bounds) ([]types.ActivityRecord, error) {
	httpClient := oauth.NewClient(src, c.HTTPClient)

	perPage := c.PerPage
	if perPage <= 0 {
		perPage = shared.DefaultPerPage
	}
	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = shared.DefaultMaxPages
	}

	var all []types.ActivityRecord
	for page := 1; page <= maxPages; page++ {
		records, err := c.fetchPage(ctx, httpClient, bounds, perPage, page)
		if err != nil {
			return nil, err
		}
		all = append(all, inWeek(records, bounds)...)
		if len(records) < perPage {
			return all, nil
		}
	}

	c.logger().Warn("Page cap reached, remaining activities ignored",
		"max_pages", maxPages, "per_page", perPage, "count", len(all))
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, httpClient *http.Client, bounds week.Bounds, perPage, page int) ([]types.ActivityRecord, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, lberrors.ErrTimeout.WithMessage(lberrors.ErrActivityFetchFailed.Message).WithCause(err)
		}
	}

	base := c.BaseURL
	if base == "" {
		base = shared.StravaAPIBase
	}
	q := url.Values{}
	q.Set("after", strconv.FormatInt(bounds.Start.Unix(), 10))
	q.Set("before", strconv.FormatInt(bounds.End.Unix(), 10))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/athlete/activities?"+q.Encode(), nil)
	if err != nil {
		return nil, lberrors.ErrInternal.WithCause(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, statusError(resp)
	}

	var records []types.ActivityRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		if isTimeout(err) {
			return nil, lberrors.ErrTimeout.WithMessage(lberrors.ErrActivityFetchFailed.Message).WithCause(err)
		}
		return nil, lberrors.ErrActivityInvalidFormat.WithCause(err)
	}
	c.logger().Debug("Fetched activity page", "page", page, "count", len(records))
	return records, nil
}

func inWeek(records []types.ActivityRecord, bounds week.Bounds) []types.ActivityRecord {
	kept := records[:0]
	for _, r := range records {
		if start, ok := r.StartedAt(); ok && !bounds.Contains(start) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default().With("component", "strava")
}

// statusError carries the HTTP status text, e.g. "401 Unauthorized".
func statusError(resp *http.Response) error {
	cause := fmt.Errorf("%s", resp.Status)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return lberrors.ErrIntegrationAuthFailed.WithMessage(lberrors.ErrActivityFetchFailed.Message).WithCause(cause)
	case http.StatusTooManyRequests:
		return lberrors.ErrIntegrationRateLimited.WithMessage(lberrors.ErrActivityFetchFailed.Message).WithCause(cause)
	}
	return lberrors.ErrActivityFetchFailed.WithCause(cause)
}

// classifyTransportError separates timeouts and token failures from other
// network errors.
func classifyTransportError(err error) error {
	var lbErr *lberrors.LeaderboardError
	if errors.As(err, &lbErr) {
		return lbErr
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return lberrors.ErrTimeout.WithMessage(lberrors.ErrActivityFetchFailed.Message).WithCause(err)
	}
	return lberrors.ErrActivityFetchFailed.WithCause(err)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
