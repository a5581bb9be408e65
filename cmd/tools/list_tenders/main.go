package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/licitaciones-radar/internal/backend"
	"github.com/david/licitaciones-radar/internal/config"
	"github.com/david/licitaciones-radar/internal/filter"
	"github.com/david/licitaciones-radar/internal/ingest"
	"github.com/david/licitaciones-radar/internal/models"
)

func main() {
	search := flag.String("q", "", "Search text matched against title and description")
	title := flag.String("title", "", "Ask the backend for tenders by title instead of by catalog")
	types := flag.String("type", "", "Comma-separated tender types")
	windows := flag.String("window", "", "Comma-separated date windows (today, under_7_days, between_7_and_15_days, over_15_days)")
	family := flag.Int64("family", 0, "Family code")
	subfamily := flag.Int64("subfamily", 0, "Subfamily code (requires -family)")
	sortBy := flag.String("sort", "", "Set to 'closing' to sort by closing date")
	flag.Parse()

	if *subfamily != 0 && *family == 0 {
		log.Fatal("Please provide -family together with -subfamily")
	}

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
		log.Fatal(err)
	}

	var dw []filter.DateWindow
	for _, raw := range strings.Split(*windows, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		w, err := filter.ParseDateWindow(raw)
		if err != nil {
			log.Fatal(err)
		}
		dw = append(dw, w)
	}
	var tt []string
	for _, raw := range strings.Split(*types, ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			tt = append(tt, raw)
		}
	}

	criteria := filter.Criteria{}.
		WithSearchText(*search).
		WithTenderTypes(filter.SelectionFrom(tt)).
		WithDateWindows(filter.SelectionFrom(dw)).
		SelectFamily(*family).
		SelectSubfamily(*subfamily)

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.BackendTimeout())
	defer cancel()

	var tenders []models.Tender
	if *title != "" {
		tenders, err = client.FetchTendersByTitle(ctx, *title)
	} else {
		tenders, err = client.Tenders(ctx, criteria.Query(loc))
	}
	if err != nil {
		log.Fatalf("Failed to fetch tenders: %v", err)
	}

	now := time.Now()
	matched := filter.Evaluate(tenders, criteria, now)
	if *sortBy == "closing" {
		matched = filter.SortByClosing(matched)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Type", "Title", "Published", "Closes", "Urgency"})
	for _, tender := range matched {
		urgency := "-"
		if u, ok := filter.ClassifyTender(tender, now); ok {
			urgency = u.Label()
		}
		t.AppendRow(table.Row{tender.ID, tender.TenderType, ingest.TruncateText(tender.Title, 60), tender.PublicationDate, tender.ClosingDateTime, urgency})
	}
	t.AppendFooter(table.Row{"", "", "Shown", len(matched), "Loaded", len(tenders)})
	t.Render()
}
