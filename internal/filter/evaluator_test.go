package filter

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/david/licitaciones-radar/internal/models"
)

var now = time.Date(2026, 2, 12, 12, 0, 0, 0, time.UTC)

func closingIn(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func ids(tenders []models.Tender) []int64 {
	out := make([]int64, 0, len(tenders))
	for _, t := range tenders {
		out = append(out, t.ID)
	}
	return out
}

func sampleTenders() []models.Tender {
	return []models.Tender{
		{ID: 1, Title: "Compra de insumos", TenderType: "Direct Purchase", ClosesAt: closingIn(10 * time.Hour), PublishedOn: day(2026, 2, 1)},
		{ID: 2, Title: "Obra vial", Description: "Repavimentación de INSUMOS viales", TenderType: "Public Tender", ClosesAt: closingIn(50 * time.Hour), PublishedOn: day(2026, 2, 5)},
		{ID: 3, Title: "Servicio de limpieza", TenderType: "Direct Purchase", ClosesAt: closingIn(200 * time.Hour), PublishedOn: day(2026, 2, 10)},
		{ID: 4, Title: "Consultoría", TenderType: "", ClosesAt: closingIn(400 * time.Hour)},
		{ID: 5, Title: "Sin fecha", TenderType: "Public Tender", ClosingDateTime: "pronto"},
		{ID: 6, Title: "Vencida", TenderType: "Public Tender", ClosesAt: closingIn(-3 * time.Hour), PublishedOn: day(2026, 1, 20)},
	}
}

func TestEvaluateSearchText(t *testing.T) {
	tenders := []models.Tender{{ID: 1, Title: "Compra de insumos", Description: "", TenderType: "Direct Purchase"}}

	for _, q := range []string{"insumos", "INSUMOS", "compra de", ""} {
		got := Evaluate(tenders, Criteria{}.WithSearchText(q), now)
		if len(got) != 1 {
			t.Fatalf("expected %q to match, got %v", q, ids(got))
		}
	}

	// Only the empty string disables the predicate; blanks are searched as typed.
	for _, q := range []string{"   ", "  Compra ", "insumos "} {
		got := Evaluate(tenders, Criteria{}.WithSearchText(q), now)
		if len(got) != 0 {
			t.Fatalf("expected %q to match nothing, got %v", q, ids(got))
		}
	}

	words := []models.Tender{{ID: 1, Title: "Consultoria"}, {ID: 2, Title: "Obra de vialidad"}}
	viaSetter := Evaluate(words, Criteria{}.WithSearchText("ria "), now)
	viaField := Evaluate(words, Criteria{SearchText: "ria "}, now)
	if !reflect.DeepEqual(ids(viaSetter), ids(viaField)) || len(viaField) != 0 {
		t.Fatalf("setter and field disagree: %v vs %v", ids(viaSetter), ids(viaField))
	}

	got := Evaluate(sampleTenders(), Criteria{}.WithSearchText("insumos"), now)
	if want := []int64{1, 2}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected title or description match %v, got %v", want, ids(got))
	}
}

func TestEvaluateEmptyCriteriaKeepsEverything(t *testing.T) {
	tenders := sampleTenders()
	got := Evaluate(tenders, Criteria{}, now)
	if !reflect.DeepEqual(got, tenders) {
		t.Fatalf("expected all tenders in input order, got %v", ids(got))
	}

	got = Evaluate(tenders, Criteria{}.WithTenderTypes(SelectionFrom([]string{})), now)
	if len(got) != len(tenders) {
		t.Fatalf("expected empty type list to keep all tenders, got %v", ids(got))
	}
}

func TestEvaluateTenderTypes(t *testing.T) {
	tenders := sampleTenders()

	got := Evaluate(tenders, Criteria{}.WithTenderTypes(Only("Direct Purchase")), now)
	if want := []int64{1, 3}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}

	got = Evaluate(tenders, Criteria{}.WithTenderTypes(Only[string]()), now)
	if len(got) != 0 {
		t.Fatalf("expected explicit empty selection to match nothing, got %v", ids(got))
	}
}

func TestEvaluateDateWindows(t *testing.T) {
	tenders := []models.Tender{
		{ID: 1, ClosesAt: closingIn(50 * time.Hour)},
		{ID: 2, ClosesAt: closingIn(200 * time.Hour)},
	}
	got := Evaluate(tenders, Criteria{}.WithDateWindows(Only(WindowUnder7Days)), now)
	if want := []int64{1}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}

	tests := []struct {
		name    string
		windows Selection[DateWindow]
		want    []int64
	}{
		{"today", Only(WindowToday), []int64{1}},
		{"under 7 days", Only(WindowUnder7Days), []int64{1, 2}},
		{"today and under 7 days overlap", Only(WindowToday, WindowUnder7Days), []int64{1, 2}},
		{"between 7 and 15 days", Only(WindowBetween7And15Days), []int64{3}},
		{"over 15 days", Only(WindowOver15Days), []int64{4}},
		{"union", Only(WindowToday, WindowOver15Days), []int64{1, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(sampleTenders(), Criteria{}.WithDateWindows(tt.windows), now)
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, ids(got))
			}
		})
	}
}

func TestDateWindowBoundaries(t *testing.T) {
	tests := []struct {
		hours   float64
		window  DateWindow
		matches bool
	}{
		{168, WindowUnder7Days, true},
		{168, WindowBetween7And15Days, false},
		{169, WindowUnder7Days, false},
		{169, WindowBetween7And15Days, true},
		{0, WindowToday, true},
		{23.99, WindowToday, true},
		{24, WindowToday, false},
		{-0.01, WindowToday, false},
		{-0.01, WindowUnder7Days, false},
		{360, WindowBetween7And15Days, true},
		{360, WindowOver15Days, false},
		{360.5, WindowOver15Days, true},
	}
	for _, tt := range tests {
		if got := tt.window.Contains(tt.hours); got != tt.matches {
			t.Fatalf("%s at %vh: expected %v, got %v", tt.window, tt.hours, tt.matches, got)
		}
	}

	tender := models.Tender{ID: 1, ClosesAt: closingIn(168 * time.Hour)}
	if !Matches(tender, Criteria{}.WithDateWindows(Only(WindowUnder7Days)), now) {
		t.Fatalf("expected tender at 168h to match under_7_days")
	}
	if Matches(tender, Criteria{}.WithDateWindows(Only(WindowBetween7And15Days)), now) {
		t.Fatalf("expected tender at 168h not to match between_7_and_15_days")
	}
}

func TestEvaluateCustomRanges(t *testing.T) {
	tenders := sampleTenders()

	pub := &DateRange{From: day(2026, 2, 5), To: day(2026, 2, 10)}
	got := Evaluate(tenders, Criteria{}.WithPublicationRange(pub), now)
	if want := []int64{2, 3}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected inclusive publication range %v, got %v", want, ids(got))
	}

	openEnded := &DateRange{To: day(2026, 2, 1)}
	got = Evaluate(tenders, Criteria{}.WithPublicationRange(openEnded), now)
	if want := []int64{1, 6}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected open-ended publication range %v, got %v", want, ids(got))
	}

	closing := &DateRange{From: closingIn(10 * time.Hour), To: closingIn(50 * time.Hour)}
	got = Evaluate(tenders, Criteria{}.WithClosingRange(closing), now)
	if want := []int64{1, 2}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected inclusive closing range %v, got %v", want, ids(got))
	}

	got = Evaluate(tenders, Criteria{}.WithClosingRange(&DateRange{}), now)
	if len(got) != len(tenders) {
		t.Fatalf("expected a range without bounds to filter nothing, got %v", ids(got))
	}
}

func TestEvaluateNarrowsMonotonically(t *testing.T) {
	tenders := sampleTenders()
	steps := []Criteria{
		{},
		Criteria{}.WithTenderTypes(Only("Direct Purchase", "Public Tender")),
		Criteria{}.WithTenderTypes(Only("Direct Purchase", "Public Tender")).
			WithDateWindows(Only(WindowUnder7Days, WindowBetween7And15Days)),
		Criteria{}.WithTenderTypes(Only("Direct Purchase", "Public Tender")).
			WithDateWindows(Only(WindowUnder7Days, WindowBetween7And15Days)).
			WithSearchText("de"),
		Criteria{}.WithTenderTypes(Only("Direct Purchase", "Public Tender")).
			WithDateWindows(Only(WindowUnder7Days, WindowBetween7And15Days)).
			WithSearchText("de").
			WithPublicationRange(&DateRange{From: day(2026, 2, 6)}),
	}

	prev := map[int64]bool{}
	for _, t := range tenders {
		prev[t.ID] = true
	}
	for i, c := range steps {
		got := Evaluate(tenders, c, now)
		cur := map[int64]bool{}
		for _, tender := range got {
			if !prev[tender.ID] {
				t.Fatalf("step %d: tender %d appeared after adding a predicate", i, tender.ID)
			}
			cur[tender.ID] = true
		}
		prev = cur
	}
	if len(prev) != 1 || !prev[3] {
		t.Fatalf("expected only tender 3 to survive every predicate, got %v", prev)
	}
}

func TestEvaluateUnparseableDatesFailOnlyDatePredicates(t *testing.T) {
	tenders := sampleTenders()

	got := Evaluate(tenders, Criteria{}.WithSearchText("sin fecha"), now)
	if want := []int64{5}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}
	got = Evaluate(tenders, Criteria{}.WithSearchText("sin fecha").WithDateWindows(Only(WindowOver15Days)), now)
	if len(got) != 0 {
		t.Fatalf("expected unparseable closing date to fail window, got %v", ids(got))
	}
}

func TestEvaluateIgnoresCatalogSelection(t *testing.T) {
	tenders := sampleTenders()
	c := Criteria{}.SelectFamily(99).SelectSubfamily(991)
	if got := Evaluate(tenders, c, now); len(got) != len(tenders) {
		t.Fatalf("expected family codes not to filter locally, got %v", ids(got))
	}
}

func TestSortByClosing(t *testing.T) {
	tenders := sampleTenders()
	got := SortByClosing(tenders)
	if want := []int64{6, 1, 2, 3, 4, 5}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("expected %v, got %v", want, ids(got))
	}
	if tenders[0].ID != 1 {
		t.Fatalf("expected input to be left untouched")
	}
}

func TestTenderTypes(t *testing.T) {
	got := TenderTypes(sampleTenders())
	if want := []string{"Direct Purchase", "Public Tender"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCriteriaJSON(t *testing.T) {
	c := Criteria{}.
		WithSearchText("obra").
		WithTenderTypes(Only("B", "A")).
		WithClosingRange(&DateRange{From: closingIn(0)}).
		SelectFamily(3)

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"search_text":"obra","tender_types":["A","B"],"date_windows":null,"closing_range":{"from":"2026-02-12T12:00:00Z"},"family_code":3,"subfamily_code":0}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}

	var back Criteria
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.DateWindows.IsAll() || back.TenderTypes.IsAll() || !back.TenderTypes.Matches("A") {
		t.Fatalf("unexpected selections after decode: %+v", back)
	}

	var nothing Criteria
	if err := json.Unmarshal([]byte(`{"tender_types":[]}`), &nothing); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if nothing.TenderTypes.IsAll() || nothing.TenderTypes.Matches("A") {
		t.Fatalf("expected explicit empty list to match nothing")
	}
}
