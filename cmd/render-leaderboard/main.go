package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ripixel/fitglue-leaderboard/pkg/bootstrap"
	"github.com/ripixel/fitglue-leaderboard/pkg/leaderboard"
)

func main() {
	input := flag.String("input", "", "Snapshot file to render (default $SNAPSHOT_OUTPUT_PATH or data/weekly.json)")
	url := flag.String("url", "", "Fetch the snapshot from this URL instead of a file")
	output := flag.String("output", "index.html", "Path of the generated page")
	tz := flag.String("tz", "", "IANA time zone for dates (default $LEADERBOARD_TIMEZONE or local)")
	flag.Parse()

	ctx := context.Background()
	svc, err := bootstrap.NewService(ctx, "render-leaderboard")
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}
	if *input != "" {
		svc.Config.OutputPath = *input
		svc.Config.SnapshotBucket = ""
		svc.Config.SourceURL = ""
	}
	if *url != "" {
		svc.Config.SourceURL = *url
	}
	if *tz != "" {
		svc.Config.Timezone = *tz
	}

	logger := slog.Default().With("component", "leaderboard")
	renderer, err := bootstrap.NewRenderer(svc.Config, logger)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	page := renderer.Render(ctx, bootstrap.NewSnapshotSource(svc))

	var buf bytes.Buffer
	if err := leaderboard.WritePage(&buf, page); err != nil {
		log.Fatalf("Failed to render page: %v", err)
	}
	if dir := filepath.Dir(*output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}
	if err := os.WriteFile(*output, buf.Bytes(), 0644); err != nil {
		log.Fatalf("Failed to write output file: %v", err)
	}

	if page.Err != nil {
		fmt.Fprintf(os.Stderr, "Wrote %s with an error panel: %v\n", *output, page.Err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote leaderboard to %s (%d bytes)\n", *output, buf.Len())
}
