package filter

import (
	"time"

	"github.com/david/licitaciones-radar/internal/models"
)

// Criteria is the user's filter state. It is a value type: every setter
// returns a modified copy and leaves the receiver untouched. The zero value
// filters nothing.
type Criteria struct {
	SearchText       string                `json:"search_text"`
	TenderTypes      Selection[string]     `json:"tender_types"`
	DateWindows      Selection[DateWindow] `json:"date_windows"`
	PublicationRange *DateRange            `json:"publication_range,omitempty"`
	ClosingRange     *DateRange            `json:"closing_range,omitempty"`

	// Server-side query parameters, never evaluated locally. 0 is unselected.
	FamilyCode    int64 `json:"family_code"`
	SubfamilyCode int64 `json:"subfamily_code"`
}

// WithSearchText stores the text as typed; only "" disables the predicate.
func (c Criteria) WithSearchText(s string) Criteria {
	c.SearchText = s
	return c
}

func (c Criteria) WithTenderTypes(s Selection[string]) Criteria {
	c.TenderTypes = s
	return c
}

func (c Criteria) WithDateWindows(s Selection[DateWindow]) Criteria {
	c.DateWindows = s
	return c
}

func (c Criteria) WithPublicationRange(r *DateRange) Criteria {
	c.PublicationRange = copyRange(r)
	return c
}

func (c Criteria) WithClosingRange(r *DateRange) Criteria {
	c.ClosingRange = copyRange(r)
	return c
}

// SelectFamily changes the family and always clears the subfamily, even when
// the code is unchanged. SelectFamily(0) deselects.
func (c Criteria) SelectFamily(code int64) Criteria {
	c.FamilyCode = code
	c.SubfamilyCode = 0
	return c
}

// SelectSubfamily expects a family to be selected already and the code to
// belong to it. The catalog owns that relation, so it is not checked here.
func (c Criteria) SelectSubfamily(code int64) Criteria {
	c.SubfamilyCode = code
	return c
}

// HasFamily reports whether a family is selected.
func (c Criteria) HasFamily() bool {
	return c.FamilyCode != 0
}

// Query builds the tender source query. Unset fields stay zero and are not
// sent. The backend reads zone-less closing bounds in its own local time, so
// they are rendered in loc; nil keeps each bound's zone. Publication bounds
// are civil dates and are sent as stored.
func (c Criteria) Query(loc *time.Location) models.TenderQuery {
	q := models.TenderQuery{
		FamilyCode:    c.FamilyCode,
		SubfamilyCode: c.SubfamilyCode,
	}
	if r := c.PublicationRange; r != nil {
		if r.From != nil {
			q.PublicationFrom = r.From.Format("2006-01-02")
		}
		if r.To != nil {
			q.PublicationTo = r.To.Format("2006-01-02")
		}
	}
	if r := c.ClosingRange; r != nil {
		if r.From != nil {
			q.ClosingFrom = closingBound(*r.From, loc)
		}
		if r.To != nil {
			q.ClosingTo = closingBound(*r.To, loc)
		}
	}
	return q
}

func closingBound(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01-02T15:04:05")
}

func copyRange(r *DateRange) *DateRange {
	if r.isOpen() {
		return nil
	}
	out := &DateRange{}
	if r.From != nil {
		from := *r.From
		out.From = &from
	}
	if r.To != nil {
		to := *r.To
		out.To = &to
	}
	return out
}
