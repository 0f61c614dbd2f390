// Command main runs the database seeder for Warden.
package main

import (
	"flag"
	"log"

	"warden/internal/config"
	"warden/internal/database"
	"warden/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numBans := flag.Int("bans", 120, "Number of ban episodes to create")
	numTopups := flag.Int("topups", 80, "Number of top-up records to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d bans, %d topups, clean=%v\n", *numUsers, *numBans, *numTopups, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(database.DB, seed.Options{
		NumUsers:    *numUsers,
		NumBans:     *numBans,
		NumTopups:   *numTopups,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with moderation data.")
	log.Println("📧 All seeded accounts have the password: password123")
}
