package models

import "time"

// Family is the top-level category of a tender.
type Family struct {
	Code int64  `json:"code"`
	Name string `json:"name"`
}

// Subfamily is the second-level category; FamilyCode points at its parent.
type Subfamily struct {
	Code       int64  `json:"code"`
	Name       string `json:"name"`
	FamilyCode int64  `json:"family_code"`
}

// Tender is the canonical record produced by the normalizer, whatever the
// backend payload version looked like.
type Tender struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	TenderType      string    `json:"tender_type"`
	PublicationDate string    `json:"publication_date"`  // YYYY-MM-DD
	ClosingDateTime string    `json:"closing_date_time"` // as received, trimmed
	Link            string    `json:"link"`
	Family          Family    `json:"family"`
	Subfamily       Subfamily `json:"subfamily"`

	// Parsed companions of the two date strings. Nil when the upstream value
	// could not be parsed.
	PublishedOn *time.Time `json:"published_on"`
	ClosesAt    *time.Time `json:"closes_at"`
}

// TenderQuery carries the server-side filters accepted by the tender source.
// Zero values are not sent.
type TenderQuery struct {
	FamilyCode      int64
	SubfamilyCode   int64
	PublicationFrom string // YYYY-MM-DD
	PublicationTo   string // YYYY-MM-DD
	ClosingFrom     string // YYYY-MM-DDTHH:MM:SS
	ClosingTo       string // YYYY-MM-DDTHH:MM:SS
}

// FamilyConfig is the family/subfamily selection persisted by the backend.
type FamilyConfig struct {
	FamilyCode    *int64 `json:"familiaCod"`
	SubfamilyCode *int64 `json:"subfamiliaCod"`
}
