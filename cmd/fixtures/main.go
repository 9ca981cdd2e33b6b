package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"tennis-ledger-api/config"
	"tennis-ledger-api/fixtures"
	"tennis-ledger-api/packages/core"
	"tennis-ledger-api/packages/core/events"
	"tennis-ledger-api/packages/core/store/gormstore"
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

	module := core.NewModule(gormstore.NewGormStore(db), events.NewLogPublisher(), cfg.ReconcileSchedule)
	fixtureManager := fixtures.NewFixtures(db, module, time.Now().UnixNano())

	if len(os.Args) < 2 {
		printUsage()
		return
	}

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "generate":
		generate(ctx, fixtureManager)
	case "clear":
		if err := fixtureManager.ClearAllData(); err != nil {
			log.Fatal("Failed to clear fixtures:", err)
		}
		fmt.Println("All fixture data cleared")
	case "regenerate":
		fmt.Println("Clearing existing data...")
		if err := fixtureManager.ClearAllData(); err != nil {
			log.Fatal("Failed to clear fixtures:", err)
		}
		generate(ctx, fixtureManager)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func generate(ctx context.Context, f *fixtures.Fixtures) {
	summary, err := f.GenerateTestData(ctx)
	if err != nil {
		log.Fatal("Failed to generate fixtures:", err)
	}
	fmt.Printf("Fixtures generated: %d players, %d settled matches, %d active\n",
		summary.Players, summary.Settled, summary.ActiveMatches)
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/fixtures generate    - Create demo players and play matches")
	fmt.Println("  go run ./cmd/fixtures clear       - Delete all players and matches")
	fmt.Println("  go run ./cmd/fixtures regenerate  - Clear and generate again")
}
