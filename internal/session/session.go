package session

import (
	"context"
	"errors"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/david/licitaciones-radar/internal/filter"
	"github.com/david/licitaciones-radar/internal/ingest"
	"github.com/david/licitaciones-radar/internal/models"
)

const (
	sourceTenders     = "tenders"
	sourceFamilies    = "families"
	sourceSubfamilies = "subfamilies"
)

// ErrSuperseded is returned when a newer request replaced the one whose
// result arrived. The result is discarded.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Backend is the slice of the tender backend a session needs.
type Backend interface {
	FetchTenders(ctx context.Context, q models.TenderQuery) ([]byte, error)
	FetchFamilies(ctx context.Context) ([]models.Family, error)
	FetchSubfamilies(ctx context.Context, familyCode int64) ([]models.Subfamily, error)
}

// Session is the state of one dashboard tab: criteria, the cascading catalog
// lists and the last tender batch. Failed loads keep whatever was held before.
type Session struct {
	ID string

	backend Backend
	norm    *ingest.Normalizer

	mu          sync.Mutex
	criteria    filter.Criteria
	families    []models.Family
	subfamilies []models.Subfamily
	tenders     []models.Tender
	loadedAt    time.Time
	errs        map[string]string // last failure per load, by source
	lastSeen    time.Time

	subfamilyGen Generation
	tenderGen    Generation
}

func New(id string, backend Backend, norm *ingest.Normalizer) *Session {
	if norm == nil {
		norm = ingest.NewNormalizer(nil, time.UTC)
	}
	return &Session{
		ID:          id,
		backend:     backend,
		norm:        norm,
		families:    []models.Family{},
		subfamilies: []models.Subfamily{},
		tenders:     []models.Tender{},
		errs:        map[string]string{},
	}
}

func (s *Session) Criteria() filter.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// SetFilters replaces the local predicates and date ranges. The catalog
// selection is kept; it only changes through SelectFamily and
// SelectSubfamily.
func (s *Session) SetFilters(c filter.Criteria) filter.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.FamilyCode = s.criteria.FamilyCode
	c.SubfamilyCode = s.criteria.SubfamilyCode
	s.criteria = c
	return c
}

// SelectFamily selects a family, clears the subfamily selection and list, and
// loads the subfamilies of the new family. Tender loads started under the old
// selection are superseded.
func (s *Session) SelectFamily(ctx context.Context, code int64) ([]models.Subfamily, error) {
	s.mu.Lock()
	s.criteria = s.criteria.SelectFamily(code)
	s.subfamilies = []models.Subfamily{}
	s.tenderGen.Invalidate()
	ctx, tok := s.subfamilyGen.Begin(ctx)
	s.mu.Unlock()
	defer s.subfamilyGen.Finish(tok)

	var (
		subs []models.Subfamily
		err  error
	)
	if code != 0 {
		subs, err = s.backend.FetchSubfamilies(ctx, code)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.subfamilyGen.IsCurrent(tok) {
		return nil, ErrSuperseded
	}
	if err != nil {
		s.errs[sourceSubfamilies] = err.Error()
		log.Printf("[session] %s: load subfamilies of %d: %v", s.ID, code, err)
		return nil, err
	}
	if subs == nil {
		subs = []models.Subfamily{}
	}
	s.subfamilies = subs
	delete(s.errs, sourceSubfamilies)
	return slices.Clone(subs), nil
}

// SelectSubfamily expects a family to be selected and code to be one of its
// subfamilies.
func (s *Session) SelectSubfamily(code int64) filter.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.criteria = s.criteria.SelectSubfamily(code)
	s.tenderGen.Invalidate()
	return s.criteria
}

// LoadTenders fetches the tenders matching the server-side part of the
// current criteria.
func (s *Session) LoadTenders(ctx context.Context) error {
	s.mu.Lock()
	q := s.criteria.Query(s.norm.Location())
	ctx, tok := s.tenderGen.Begin(ctx)
	s.mu.Unlock()
	defer s.tenderGen.Finish(tok)

	data, err := s.backend.FetchTenders(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tenderGen.IsCurrent(tok) {
		return ErrSuperseded
	}
	if err != nil {
		s.errs[sourceTenders] = err.Error()
		log.Printf("[session] %s: load tenders: %v", s.ID, err)
		return err
	}
	s.tenders = s.norm.Normalize(data)
	s.loadedAt = time.Now()
	delete(s.errs, sourceTenders)
	return nil
}

// LoadFamilies refreshes the family catalog.
func (s *Session) LoadFamilies(ctx context.Context) error {
	fams, err := s.backend.FetchFamilies(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errs[sourceFamilies] = err.Error()
		log.Printf("[session] %s: load families: %v", s.ID, err)
		return err
	}
	if fams == nil {
		fams = []models.Family{}
	}
	s.families = fams
	delete(s.errs, sourceFamilies)
	return nil
}

// Refresh loads tenders and the family catalog concurrently.
func (s *Session) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.LoadTenders(ctx) })
	g.Go(func() error { return s.LoadFamilies(ctx) })
	return g.Wait()
}

func (s *Session) Families() []models.Family {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.families)
}

func (s *Session) Subfamilies() []models.Subfamily {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.subfamilies)
}

// lastError joins the failures still standing, tenders first. A load that
// succeeds clears only its own entry. Callers hold s.mu.
func (s *Session) lastError() string {
	var msgs []string
	for _, src := range []string{sourceTenders, sourceFamilies, sourceSubfamilies} {
		if msg := s.errs[src]; msg != "" {
			msgs = append(msgs, msg)
		}
	}
	return strings.Join(msgs, "; ")
}

// Item is a tender with its urgency, when the closing date parsed.
type Item struct {
	models.Tender
	Urgency      *filter.Urgency `json:"urgency,omitempty"`
	UrgencyLabel string          `json:"urgency_label,omitempty"`
}

type View struct {
	Tenders  []Item          `json:"tenders"`
	Total    int             `json:"total"`
	Loaded   int             `json:"loaded"`
	Types    []string        `json:"types"`
	Criteria filter.Criteria `json:"criteria"`
	LoadedAt time.Time       `json:"loaded_at"`
	Error    string          `json:"error,omitempty"`
}

// View evaluates the held tenders against the criteria at now.
func (s *Session) View(now time.Time, byClosing bool) View {
	s.mu.Lock()
	tenders := s.tenders
	c := s.criteria
	v := View{
		Loaded:   len(s.tenders),
		Criteria: c,
		LoadedAt: s.loadedAt,
		Error:    s.lastError(),
	}
	s.mu.Unlock()

	matched := filter.Evaluate(tenders, c, now)
	if byClosing {
		matched = filter.SortByClosing(matched)
	}

	v.Types = filter.TenderTypes(tenders)
	if v.Types == nil {
		v.Types = []string{}
	}
	v.Total = len(matched)
	v.Tenders = make([]Item, 0, len(matched))
	for _, t := range matched {
		it := Item{Tender: t}
		if u, ok := filter.ClassifyTender(t, now); ok {
			it.Urgency = &u
			it.UrgencyLabel = u.Label()
		}
		v.Tenders = append(v.Tenders, it)
	}
	return v
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
