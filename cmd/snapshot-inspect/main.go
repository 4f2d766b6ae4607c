package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/ripixel/fitglue-leaderboard/pkg/domain/activity"
	"github.com/ripixel/fitglue-leaderboard/pkg/leaderboard"
	"github.com/ripixel/fitglue-leaderboard/pkg/snapshot"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

func main() {
	input := flag.String("input", "data/weekly.json", "Snapshot file to inspect")
	url := flag.String("url", "", "Fetch the snapshot from this URL instead of a file")
	ranked := flag.Bool("ranked", false, "Also print the ranked rows of each category")
	category := flag.String("category", "", "Limit -ranked to one category (e.g. ride, run)")
	flag.Parse()

	categories, err := selectCategories(*category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	var src leaderboard.Source = &leaderboard.FileSource{Path: *input}
	if *url != "" {
		src = &leaderboard.HTTPSource{URL: *url}
	}

	s, err := src.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Athletes: %d (failed: %d)\n\n", len(s.Athletes), snapshot.FailedCount(s))
	if err := snapshot.WriteSummary(os.Stdout, s); err != nil {
		fmt.Fprintf(os.Stderr, "Error printing summary: %v\n", err)
		os.Exit(1)
	}

	if *ranked {
		for _, c := range categories {
			printRanked(os.Stdout, s, c)
		}
	}
}

// selectCategories resolves the -category flag; empty means every category.
func selectCategories(name string) ([]activity.Category, error) {
	if name == "" {
		return activity.Categories, nil
	}
	c, ok := activity.ParseCategory(name)
	if !ok {
		return nil, fmt.Errorf("unknown category %q", name)
	}
	return []activity.Category{c}, nil
}

func printRanked(out io.Writer, s *types.Snapshot, c activity.Category) {
	fmt.Fprintf(out, "\n--- %s ---\n", c.Title())
	rows := leaderboard.Rows(s, c)
	if len(rows) == 0 {
		fmt.Fprintf(out, "No %s data for this week\n", c)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tATHLETE\t%s\tKM\tHOURS\tELEV M\n", c.CountLabel())
	for i, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n", i+1, r.Name, r.Count,
			leaderboard.FormatFixed(r.DistanceKm, 1),
			leaderboard.FormatFixed(r.TimeHours, 1),
			leaderboard.FormatFixed(r.ElevationM, 0))
	}
	w.Flush()
}
