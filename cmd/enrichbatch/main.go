// Command enrichbatch re-enriches stored locations from the third-party
// place API, one lookup at a time with a throttle between calls.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"platemap/internal/app/enrich"
	"platemap/internal/logging"
	"platemap/internal/placeapi"
	"platemap/internal/store"
)

func main() {
	var (
		status = flag.String("status", store.StatusApproved, "only re-enrich records with this status")
		delay  = flag.Duration("delay", time.Second, "pause between external lookups")
	)
	flag.Parse()

	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL env var is required")
	}
	apiKey := os.Getenv("PLACES_API_KEY")
	if apiKey == "" {
		log.Fatal("PLACES_API_KEY env var is required for batch enrichment")
	}

	logger := logging.New(logging.Config{Level: "info", Format: "text"})

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	batch := &enrich.Batch{
		Store:  store.New(db),
		Lookup: placeapi.NewGoogleClient(placeapi.Config{APIKey: apiKey}),
		Delay:  *delay,
		Logger: logger,
	}

	report, err := batch.Run(ctx, store.LocationFilter{Status: *status})
	if err != nil {
		log.Fatalf("batch enrichment: %v", err)
	}

	fmt.Printf("processed=%d enriched=%d skipped=%d failed=%d\n",
		report.Processed, report.Enriched, report.Skipped, len(report.Failed))
}
