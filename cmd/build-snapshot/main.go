package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ripixel/fitglue-leaderboard/pkg/bootstrap"
	lberrors "github.com/ripixel/fitglue-leaderboard/pkg/errors"
	"github.com/ripixel/fitglue-leaderboard/pkg/execution"
	"github.com/ripixel/fitglue-leaderboard/pkg/snapshot"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

const serviceName = "build-snapshot"

func main() {
	output := flag.String("output", "", "Path of the snapshot file (default $SNAPSHOT_OUTPUT_PATH or data/weekly.json)")
	quiet := flag.Bool("quiet", false, "Do not print the summary table")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.NewService(ctx, serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}
	if *output != "" {
		svc.Config.OutputPath = *output
	}

	execID, err := execution.LogPending(ctx, svc.DB, serviceName, execution.ExecutionOptions{
		TriggerType: "manual",
		Inputs:      map[string]string{"output": svc.Config.OutputPath},
	})
	if err != nil {
		log.Printf("Failed to log execution pending: %v", err)
	}
	if err := execution.LogStart(ctx, svc.DB, execID, nil); err != nil {
		log.Printf("Failed to log execution start: %v", err)
	}

	s, err := run(ctx, svc)
	if err != nil {
		if logErr := execution.LogFailure(ctx, svc.DB, execID, err, nil); logErr != nil {
			log.Printf("Failed to log execution failure: %v", logErr)
		}
		if lberrors.GetCode(err) == lberrors.CodeConfigMissing || lberrors.GetCode(err) == lberrors.CodeConfigInvalid {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "snapshot build failed: %v\n", err)
		os.Exit(1)
	}

	if logErr := execution.LogSuccess(ctx, svc.DB, execID, map[string]interface{}{
		"week_start":    s.WeekStart,
		"athlete_count": len(s.Athletes),
		"failed_count":  snapshot.FailedCount(s),
	}); logErr != nil {
		log.Printf("Failed to log execution success: %v", logErr)
	}

	if !*quiet {
		if err := snapshot.WriteSummary(os.Stdout, s); err != nil {
			log.Fatalf("Failed to print summary: %v", err)
		}
	}
}

func run(ctx context.Context, svc *bootstrap.Service) (*types.Snapshot, error) {
	sc, err := bootstrap.LoadStravaConfig(ctx, svc.Secrets, svc.Config.ProjectID)
	if err != nil {
		return nil, err
	}
	builder := bootstrap.NewSnapshotBuilder(svc, sc, slog.Default().With("component", "snapshot"))
	return builder.Run(ctx, sc.Athletes)
}
