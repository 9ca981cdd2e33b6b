package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"tennis-ledger-api/config"
	"tennis-ledger-api/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer config.CloseDatabase(db)

	migrator, err := migrations.NewMigrator(db)
	if err != nil {
		log.Fatal(err)
	}
	for _, migration := range migrations.GetCoreMigrations() {
		migrator.AddMigration(migration)
	}

	if len(os.Args) < 2 {
		printUsage()
		return
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		applied, err := migrator.Migrate()
		if err != nil {
			log.Fatal("Migration failed:", err)
		}
		fmt.Printf("Migration completed: %d applied\n", applied)
	case "rollback":
		steps := 1
		if len(os.Args) > 2 {
			if s, err := strconv.Atoi(os.Args[2]); err == nil {
				steps = s
			}
		}
		reverted, err := migrator.Rollback(steps)
		if err != nil {
			log.Fatal("Rollback failed:", err)
		}
		fmt.Printf("Rollback completed: %d reverted\n", reverted)
	case "status":
		showStatus(migrator)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/migrate migrate          - Run pending migrations")
	fmt.Println("  go run ./cmd/migrate rollback [steps] - Rollback migration batches (default: 1)")
	fmt.Println("  go run ./cmd/migrate status           - Show migration status")
}

func showStatus(migrator *migrations.Migrator) {
	status, err := migrator.Status()
	if err != nil {
		log.Fatal("Failed to read migration status:", err)
	}

	fmt.Println("Migration Status:")
	fmt.Println("Batch | Name")
	fmt.Println("------|-----")

	for _, s := range status {
		batch := "-"
		if s.Ran {
			batch = strconv.Itoa(s.Batch)
		}
		fmt.Printf("%-5s | %s\n", batch, s.Name)
	}
}
