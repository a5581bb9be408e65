package ingest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/david/licitaciones-radar/internal/models"
)

// maxEnvelopeDepth bounds how many wrapper objects are peeled off a payload.
const maxEnvelopeDepth = 4

// Normalizer maps backend payloads of any known contract version onto the
// canonical models. It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	contract *Contract
	loc      *time.Location
	strip    *bluemonday.Policy
}

// NewNormalizer builds a Normalizer. A nil contract selects the embedded
// registry and a nil location selects UTC.
func NewNormalizer(contract *Contract, loc *time.Location) *Normalizer {
	if contract == nil {
		contract = DefaultContract()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{
		contract: contract,
		loc:      loc,
		strip:    bluemonday.StrictPolicy(),
	}
}

// Location is the zone used for values that carry none.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Normalize decodes a raw tender payload. It never fails: invalid JSON and
// unknown shapes yield an empty slice.
func (n *Normalizer) Normalize(raw []byte) []models.Tender {
	return n.NormalizeValue(decode(raw))
}

// NormalizeValue normalizes an already decoded payload.
func (n *Normalizer) NormalizeValue(v any) []models.Tender {
	recs := n.records(v, n.contract.Tender.ID, 0)
	out := make([]models.Tender, 0, len(recs))
	for _, rec := range recs {
		out = append(out, n.tender(rec))
	}
	return out
}

// NormalizeTender normalizes a single-record payload such as the detail
// endpoint returns. ok is false when the payload holds no record.
func (n *Normalizer) NormalizeTender(raw []byte) (models.Tender, bool) {
	list := n.Normalize(raw)
	if len(list) == 0 {
		return models.Tender{}, false
	}
	return list[0], true
}

func (n *Normalizer) NormalizeFamilies(raw []byte) []models.Family {
	f := n.contract.Family
	recs := n.records(decode(raw), f.Code, 0)
	out := make([]models.Family, 0, len(recs))
	for _, rec := range recs {
		m := asMap(rec)
		out = append(out, models.Family{
			Code: lookupInt64(m, f.Code),
			Name: n.text(lookupString(m, f.Name)),
		})
	}
	return out
}

func (n *Normalizer) NormalizeSubfamilies(raw []byte) []models.Subfamily {
	f := n.contract.Subfamily
	recs := n.records(decode(raw), f.Code, 0)
	out := make([]models.Subfamily, 0, len(recs))
	for _, rec := range recs {
		out = append(out, n.subfamily(asMap(rec)))
	}
	return out
}

func (n *Normalizer) NormalizeNotifications(raw []byte) []models.NotificationSummary {
	f := n.contract.Notification
	recs := n.records(decode(raw), f.ID, 0)
	out := make([]models.NotificationSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, n.notification(asMap(rec)))
	}
	return out
}

// NormalizeNotification maps a notification detail payload. Detail and
// Content stay nil when the backend omits them.
func (n *Normalizer) NormalizeNotification(raw []byte) (models.NotificationDetail, bool) {
	f := n.contract.Notification
	recs := n.records(decode(raw), f.ID, 0)
	if len(recs) == 0 {
		return models.NotificationDetail{}, false
	}
	m := asMap(recs[0])
	return models.NotificationDetail{
		NotificationSummary: n.notification(m),
		Detail:              lookupOptional(m, f.Detail),
		Content:             lookupOptional(m, f.Content),
	}, true
}

// NormalizeEmails accepts a list of address objects or of bare strings.
// Addresses are kept verbatim; uniqueness is owned by the backend.
func (n *Normalizer) NormalizeEmails(raw []byte) []models.EmailEntry {
	f := n.contract.Email
	recs := n.records(decode(raw), f.Address, 0)
	out := make([]models.EmailEntry, 0, len(recs))
	for _, rec := range recs {
		if s, ok := rec.(string); ok {
			out = append(out, models.EmailEntry{Address: s})
			continue
		}
		out = append(out, models.EmailEntry{Address: lookupString(asMap(rec), f.Address)})
	}
	return out
}

func decode(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// records finds the record list inside a payload: a bare array, an object
// wrapping it under a known envelope key, or a single object recognised by
// one of its id aliases.
func (n *Normalizer) records(v any, idAliases []string, depth int) []any {
	switch x := v.(type) {
	case []any:
		return x
	case map[string]any:
		if depth < maxEnvelopeDepth {
			for _, key := range n.contract.Envelopes {
				inner, ok := x[key]
				if !ok {
					continue
				}
				if recs := n.records(inner, idAliases, depth+1); recs != nil {
					return recs
				}
			}
		}
		if _, ok := lookup(x, idAliases); ok {
			return []any{x}
		}
	}
	return nil
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func (n *Normalizer) tender(rec any) models.Tender {
	m := asMap(rec)
	f := n.contract.Tender

	t := models.Tender{
		ID:              lookupInt64(m, f.ID),
		Title:           n.text(lookupString(m, f.Title)),
		Description:     n.text(lookupString(m, f.Description)),
		TenderType:      lookupString(m, f.TenderType),
		ClosingDateTime: lookupString(m, f.ClosingDateTime),
		Link:            lookupString(m, f.Link),
		Family:          n.family(m),
		Subfamily:       n.tenderSubfamily(m),
	}

	if pub := truncateDatePart(lookupString(m, f.PublicationDate)); pub != "" {
		t.PublicationDate = pub
		if d, err := ParseDate(pub, n.loc); err == nil {
			t.PublicationDate = d.Format("2006-01-02")
			t.PublishedOn = &d
		}
	}
	if t.ClosingDateTime != "" {
		if c, err := ParseDateTime(t.ClosingDateTime, n.loc); err == nil {
			t.ClosesAt = &c
		}
	}
	return t
}

// family reads the nested family object, a bare family code, or the flat
// fallback fields, in that order.
func (n *Normalizer) family(m map[string]any) models.Family {
	f := n.contract.Tender
	var fam models.Family
	if v, ok := lookup(m, f.Family); ok {
		if nested, isMap := v.(map[string]any); isMap {
			fam.Code = lookupInt64(nested, n.contract.Family.Code)
			fam.Name = n.text(lookupString(nested, n.contract.Family.Name))
		} else {
			fam.Code = toInt64(v)
		}
	}
	if fam.Code == 0 {
		fam.Code = lookupInt64(m, f.FamilyCode)
	}
	if fam.Name == "" {
		fam.Name = n.text(lookupString(m, f.FamilyName))
	}
	return fam
}

func (n *Normalizer) tenderSubfamily(m map[string]any) models.Subfamily {
	f := n.contract.Tender
	var sub models.Subfamily
	if v, ok := lookup(m, f.Subfamily); ok {
		if nested, isMap := v.(map[string]any); isMap {
			sub = n.subfamily(nested)
		} else {
			sub.Code = toInt64(v)
		}
	}
	if sub.Code == 0 {
		sub.Code = lookupInt64(m, f.SubfamilyCode)
	}
	if sub.Name == "" {
		sub.Name = n.text(lookupString(m, f.SubfamilyName))
	}
	return sub
}

func (n *Normalizer) subfamily(m map[string]any) models.Subfamily {
	f := n.contract.Subfamily
	return models.Subfamily{
		Code:       lookupInt64(m, f.Code),
		Name:       n.text(lookupString(m, f.Name)),
		FamilyCode: lookupInt64(m, f.FamilyCode),
	}
}

func (n *Normalizer) notification(m map[string]any) models.NotificationSummary {
	f := n.contract.Notification
	return models.NotificationSummary{
		ID:            lookupInt64(m, f.ID),
		Title:         n.text(lookupString(m, f.Title)),
		Success:       lookupBool(m, f.Success),
		ExecutionDate: lookupString(m, f.ExecutionDate),
	}
}

// text strips markup from scraped values and collapses whitespace.
func (n *Normalizer) text(s string) string {
	if strings.ContainsAny(s, "<>") {
		s = unescapeText(n.strip.Sanitize(s))
	}
	return normalizeSpace(s)
}
