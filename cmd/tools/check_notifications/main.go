package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/licitaciones-radar/internal/backend"
	"github.com/david/licitaciones-radar/internal/config"
	"github.com/david/licitaciones-radar/internal/db"
	"github.com/david/licitaciones-radar/internal/ingest"
	"github.com/david/licitaciones-radar/internal/notify"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required to read the persisted read flags")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	loc, _ := cfg.Location()
	registry, err := ingest.LoadRegistry(cfg.ContractFile)
	if err != nil {
		log.Fatalf("Failed to load contract registry: %v", err)
	}
	client, err := backend.New(backend.Config{
		BaseURL:      cfg.BackendBaseURL,
		Timeout:      cfg.BackendTimeout(),
		RateLimitRPS: cfg.BackendRateLimitRPS,
		MaxRetries:   cfg.BackendMaxRetries,
	}, ingest.NewNormalizer(registry.Merge(), loc))
	if err != nil {
		log.Fatal(err)
	}

	tracker := notify.NewReadTracker(db.NewReadStore(pool), cfg.ReadScope)
	listing, err := notify.NewFeed(client, tracker, time.Now).List(ctx)
	if err != nil {
		log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Title", "Success", "Executed", "Read"})
	for _, n := range listing.Items {
		t.AppendRow(table.Row{n.ID, n.Title, n.Success, n.ExecutionDate, n.Read})
	}
	t.AppendFooter(table.Row{"", "Since " + listing.Since.Format("2006-01-02 15:04"), "", "Unread", listing.Unread})
	t.Render()
}
