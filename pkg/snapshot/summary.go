package snapshot

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

// AthleteSummary is the one-line digest of an athlete's week.
type AthleteSummary struct {
	Name   string
	Rides  int
	RideKm float64
	Runs   int
	RunKm  float64
	Error  string
}

// Summarize digests a snapshot in athlete order.
func Summarize(s *types.Snapshot) []AthleteSummary {
	out := make([]AthleteSummary, 0, len(s.Athletes))
	for _, a := range s.Athletes {
		out = append(out, AthleteSummary{
			Name:   a.Name,
			Rides:  a.Weekly.Cycling.Count,
			RideKm: a.Weekly.Cycling.DistanceKm,
			Runs:   a.Weekly.Running.Count,
			RunKm:  a.Weekly.Running.DistanceKm,
			Error:  a.Error,
		})
	}
	return out
}

// FailedCount returns how many athletes carry an error.
func FailedCount(s *types.Snapshot) int {
	n := 0
	for _, a := range s.Athletes {
		if a.Error != "" {
			n++
		}
	}
	return n
}

// WriteSummary prints the digest as an aligned table.
func WriteSummary(w io.Writer, s *types.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Week %s - %s (updated %s)\n", s.WeekStart, s.WeekEnd, s.LastUpdated)
	fmt.Fprintln(tw, "ATHLETE\tRIDES\tRIDE KM\tRUNS\tRUN KM\tERROR")
	for _, a := range Summarize(s) {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%d\t%.2f\t%s\n", a.Name, a.Rides, a.RideKm, a.Runs, a.RunKm, a.Error)
	}
	return tw.Flush()
}

func logSummary(logger *slog.Logger, s *types.Snapshot) {
	for _, a := range Summarize(s) {
		if a.Error != "" {
			logger.Warn("Summary", "athlete", a.Name, "error", a.Error)
			continue
		}
		logger.Info("Summary",
			"athlete", a.Name,
			"rides", a.Rides,
			"ride_km", a.RideKm,
			"runs", a.Runs,
			"run_km", a.RunKm)
	}
	logger.Info("Snapshot built", "athletes", len(s.Athletes), "failed", FailedCount(s))
}
