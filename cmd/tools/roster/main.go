package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/licitaciones-radar/internal/backend"
	"github.com/david/licitaciones-radar/internal/config"
	"github.com/david/licitaciones-radar/internal/ingest"
	"github.com/david/licitaciones-radar/internal/roster"
)

func main() {
	add := flag.String("add", "", "Address to add to the notification roster")
	remove := flag.String("remove", "", "Address to remove from the notification roster")
	flag.Parse()

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
	client, err := backend.New(backend.Config{
		BaseURL:      cfg.BackendBaseURL,
		Timeout:      cfg.BackendTimeout(),
		RateLimitRPS: cfg.BackendRateLimitRPS,
		MaxRetries:   cfg.BackendMaxRetries,
	}, ingest.NewNormalizer(registry.Merge(), loc))
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m := roster.NewManager(client)
	switch {
	case *add != "":
		err = m.Add(ctx, *add)
	case *remove != "":
		err = m.Remove(ctx, *remove)
	default:
		err = m.Refresh(ctx)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if *add != "" && !m.Contains(strings.TrimSpace(*add)) {
		fmt.Printf("Warning: the backend accepted %q but does not list it\n", *add)
	}
	if *remove != "" && m.Contains(*remove) {
		fmt.Printf("Warning: %q is still listed after removal\n", *remove)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Address"})
	for i, e := range m.Emails() {
		t.AppendRow(table.Row{i + 1, e.Address})
	}
	t.Render()
}
