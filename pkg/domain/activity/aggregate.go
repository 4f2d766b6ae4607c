package activity

import (
	"math"

	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

const (
	metersPerKm    = 1000
	secondsPerHour = 3600
)

// accumulator sums one category at full precision.
type accumulator struct {
	count     int
	distance  float64
	time      float64
	elevation float64
}

func (a *accumulator) add(r types.ActivityRecord) {
	a.count++
	a.distance += float64(r.Distance) / metersPerKm
	a.time += float64(r.MovingTime) / secondsPerHour
	a.elevation += float64(r.TotalElevationGain)
}

func (a *accumulator) totals() types.TypeTotals {
	return types.TypeTotals{
		Count:      a.count,
		DistanceKm: Round2(a.distance),
		TimeHours:  Round2(a.time),
		ElevationM: Round2(a.elevation),
	}
}

// Aggregate sums Ride and Run records into weekly totals.
// Other activity types are skipped. Sums are rounded once, after accumulation.
func Aggregate(records []types.ActivityRecord) types.WeeklyTotals {
	var cycling, running accumulator

	for _, r := range records {
		category, ok := CategoryForStravaType(r.Type)
		if !ok {
			continue
		}
		switch category {
		case CategoryCycling:
			cycling.add(r)
		case CategoryRunning:
			running.add(r)
		}
	}

	return types.WeeklyTotals{
		Cycling: cycling.totals(),
		Running: running.totals(),
	}
}

// Round2 rounds to 2 decimal places, halves away from zero on v*100.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Totals returns the totals of one category.
func Totals(w types.WeeklyTotals, c Category) types.TypeTotals {
	if c == CategoryCycling {
		return w.Cycling
	}
	return w.Running
}
