package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	service "github.com/pablo-ross/komornicka100/internal/app"
	"github.com/pablo-ross/komornicka100/internal/config"
	"github.com/pablo-ross/komornicka100/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	userID := flag.String("user-id", "", "ID of the user owning the activity")
	activityID := flag.String("activity-id", "", "Strava activity ID to verify")
	routeID := flag.String("route-id", "", "optional source route ID; all active routes when empty")
	flag.Parse()

	if *userID == "" || *activityID == "" {
		fmt.Fprintln(os.Stderr, "usage: verify -user-id <id> -activity-id <id> [-route-id <id>]")
		return 2
	}

	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := service.New(cfg, service.WithLogger(log))
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return 1
	}
	defer svc.Stop()

	outcome, err := svc.Verifier().Verify(ctx, *userID, *activityID, *routeID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verification failed: %s\n", err)
		return 1
	}

	fmt.Printf("status:  %s\n", outcome.Status)
	fmt.Printf("score:   %.4f\n", outcome.Score)
	fmt.Printf("message: %s\n", outcome.Message)
	if outcome.RouteName != "" {
		fmt.Printf("route:   %s (%s)\n", outcome.RouteName, outcome.RouteID)
	}
	if outcome.AlreadyRecorded {
		fmt.Println("note:    activity was already verified and counted")
	}

	if outcome.Verified() {
		return 0
	}
	return 1
}
