package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/david/licitaciones-radar/internal/api"
	"github.com/david/licitaciones-radar/internal/auth"
	"github.com/david/licitaciones-radar/internal/backend"
	"github.com/david/licitaciones-radar/internal/config"
	"github.com/david/licitaciones-radar/internal/db"
	"github.com/david/licitaciones-radar/internal/ingest"
	"github.com/david/licitaciones-radar/internal/notify"
	"github.com/david/licitaciones-radar/internal/roster"
	"github.com/david/licitaciones-radar/internal/session"
)

// Read flags older than this are purged at startup.
const readRetentionDays = 90

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	loc, _ := cfg.Location()

	registry, err := ingest.LoadRegistry(cfg.ContractFile)
	if err != nil {
		log.Fatalf("Failed to load contract registry: %v", err)
	}
	norm := ingest.NewNormalizer(registry.Merge(), loc)

	client, err := backend.New(backend.Config{
		BaseURL:      cfg.BackendBaseURL,
		Timeout:      cfg.BackendTimeout(),
		RateLimitRPS: cfg.BackendRateLimitRPS,
		MaxRetries:   cfg.BackendMaxRetries,
	}, norm)
	if err != nil {
		log.Fatalf("Failed to build backend client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var kv notify.KV = notify.NewMemoryKV()
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		if err := db.ApplyMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		store := db.NewReadStore(pool)
		if n, err := store.Purge(ctx, readRetentionDays); err != nil {
			log.Printf("[db] purge read flags: %v", err)
		} else if n > 0 {
			log.Printf("[db] purged %d read flags", n)
		}
		kv = store
	} else {
		log.Printf("DATABASE_URL not set, read flags are kept in memory")
	}

	authSvc, err := auth.NewService(cfg.SessionSecret, 0)
	if err != nil {
		log.Fatalf("Failed to init auth: %v", err)
	}

	sessions := session.NewStore(client, norm, cfg.SessionIdle(), time.Now)
	go sessions.Run(ctx)

	srv := api.NewServer(api.Deps{
		Backend:        client,
		Normalizer:     norm,
		Sessions:       sessions,
		Roster:         roster.NewManager(client),
		Feed:           notify.NewFeed(client, notify.NewReadTracker(kv, cfg.ReadScope), time.Now),
		Auth:           authSvc,
		Clock:          time.Now,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on port %s (backend %s, tz %s)...", cfg.Port, cfg.BackendBaseURL, loc)
	if err := srv.Start(cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
