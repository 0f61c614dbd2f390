// Command main runs a single expiry sweep against the ban table and exits.
// Useful as a cron fallback when the in-process sweeper is disabled.
package main

import (
	"context"
	"log"
	"time"

	"warden/internal/bootstrap"
	"warden/internal/config"
	"warden/internal/notifications"
	"warden/internal/repository"
	"warden/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, redisClient, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	var notifier *notifications.Notifier
	if redisClient != nil {
		notifier = notifications.NewNotifier(redisClient)
	}

	sweeper := service.NewSweeper(repository.NewBanRepository(db), notifier, cfg.SweepInterval)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	expired, err := sweeper.SweepOnce(ctx)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	log.Printf("Sweep complete: %d bans expired", expired)
}
