// Package week computes the Monday-to-Sunday window a leaderboard covers.
package week

import (
	"time"

	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

// Bounds is the inclusive window of one week in a single location.
type Bounds struct {
	Start time.Time // Monday 00:00:00.000
	End   time.Time // Sunday 23:59:59.999
}

// Current returns the week containing now, in now's location.
// Bounds are wall-clock times, so a week spanning a DST change is 167 or 169 hours long.
func Current(now time.Time) Bounds {
	y, m, d := now.Date()
	loc := now.Location()

	// Weekday counts from Sunday; shift so Monday is 0.
	sinceMonday := (int(now.Weekday()) + 6) % 7

	return Bounds{
		Start: time.Date(y, m, d-sinceMonday, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d-sinceMonday+6, 23, 59, 59, int(999*time.Millisecond), loc),
	}
}

// StartISO returns the calendar date of Start as YYYY-MM-DD.
// The date is the local calendar date in the week's location, not the UTC date.
func (b Bounds) StartISO() string {
	return b.Start.Format(types.DateLayout)
}

// EndISO returns the local calendar date of End as YYYY-MM-DD.
func (b Bounds) EndISO() string {
	return b.End.Format(types.DateLayout)
}

// Contains reports whether t falls inside the week.
func (b Bounds) Contains(t time.Time) bool {
	return !t.Before(b.Start) && !t.After(b.End)
}
