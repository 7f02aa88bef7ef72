package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"livepoll/config"
	"livepoll/pkg/database"
)

const usage = `
Livepoll - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Run GORM migrations
  status      Show database connection status
  seed        Seed the database with the admin user
  seed-dev    Seed with development/test data

Flags:
  -admin-email string  Admin email for seeding (default "admin@livepoll.local")
  -admin-pass string   Admin password for seeding (default "Admin@123!")

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed
  go run cmd/migrate/main.go seed-dev
`

func main() {
	adminEmail := flag.String("admin-email", "admin@livepoll.local", "Admin email for seeding")
	adminPass := flag.String("admin-pass", "Admin@123!", "Admin password for seeding")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	database.Connect(cfg)

	seedCfg := database.DefaultSeedConfig()
	seedCfg.AdminEmail = *adminEmail
	seedCfg.AdminPassword = *adminPass

	switch command {
	case "up":
		if err := database.Migrate(database.DB); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations applied")
	case "status":
		if err := database.HealthCheck(); err != nil {
			log.Fatalf("Database unreachable: %v", err)
		}
		log.Println("Database connection OK")
	case "seed":
		if err := database.Migrate(database.DB); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		if _, err := database.SeedMinimal(seedCfg); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Admin user seeded")
	case "seed-dev":
		if err := database.Migrate(database.DB); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		seedCfg.CreateTestUsers = true
		if _, err := database.Seed(seedCfg); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Development data seeded")
	default:
		flag.Usage()
		os.Exit(1)
	}
}
