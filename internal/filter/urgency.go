package filter

import (
	"fmt"
	"time"

	"github.com/david/licitaciones-radar/internal/models"
)

type Tier string

const (
	TierCritical Tier = "critical"
	TierWarning  Tier = "warning"
	TierOK       Tier = "ok"
)

const (
	criticalHours = 48
	warningHours  = 96
)

// Urgency is the display classification of the time left before closing.
type Urgency struct {
	Tier           Tier  `json:"tier"`
	HoursRemaining int64 `json:"hours_remaining"`
}

// ClassifyUrgency floors the remaining time to whole hours. Tenders that have
// already closed report 0 hours, the same as one closing within the hour.
func ClassifyUrgency(closesAt, now time.Time) Urgency {
	hours := int64(closesAt.Sub(now) / time.Hour)
	if closesAt.Before(now) {
		hours = 0
	}

	tier := TierOK
	switch {
	case hours <= criticalHours:
		tier = TierCritical
	case hours <= warningHours:
		tier = TierWarning
	}
	return Urgency{Tier: tier, HoursRemaining: hours}
}

// ClassifyTender is ClassifyUrgency for a tender; ok is false when its closing
// date could not be parsed.
func ClassifyTender(t models.Tender, now time.Time) (Urgency, bool) {
	if t.ClosesAt == nil {
		return Urgency{}, false
	}
	return ClassifyUrgency(*t.ClosesAt, now), true
}

// Label renders "{h}h remaining" below a day and "{d}d remaining" above.
func (u Urgency) Label() string {
	if u.HoursRemaining < 24 {
		return fmt.Sprintf("%dh remaining", u.HoursRemaining)
	}
	return fmt.Sprintf("%dd remaining", u.HoursRemaining/24)
}
