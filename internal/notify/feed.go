package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/david/licitaciones-radar/internal/ingest"
	"github.com/david/licitaciones-radar/internal/models"
)

// DefaultWindow is how far back the feed lists notification runs.
const DefaultWindow = 7 * 24 * time.Hour

var ErrNotFound = errors.New("notification not found")

// Source is the notification side of the tender backend.
type Source interface {
	FetchNotifications(ctx context.Context, since time.Time) ([]models.NotificationSummary, error)
	FetchNotification(ctx context.Context, id int64) (models.NotificationDetail, bool, error)
}

type Entry struct {
	models.NotificationSummary
	Read bool `json:"read"`
}

type Listing struct {
	Items  []Entry   `json:"items"`
	Unread int       `json:"unread"`
	Since  time.Time `json:"since"`
}

type Opened struct {
	models.NotificationDetail
	Read bool `json:"read"`
}

type Feed struct {
	src     Source
	tracker *ReadTracker
	now     func() time.Time
	window  time.Duration
	policy  *bluemonday.Policy
}

func NewFeed(src Source, tracker *ReadTracker, now func() time.Time) *Feed {
	if now == nil {
		now = time.Now
	}
	return &Feed{
		src:     src,
		tracker: tracker,
		now:     now,
		window:  DefaultWindow,
		policy:  bluemonday.UGCPolicy(),
	}
}

// List returns the runs of the last window with their read flags.
func (f *Feed) List(ctx context.Context) (Listing, error) {
	since := f.now().Add(-f.window)
	items, err := f.src.FetchNotifications(ctx, since)
	if err != nil {
		return Listing{}, err
	}

	out := Listing{Items: make([]Entry, 0, len(items)), Since: since}
	for _, n := range items {
		read, err := f.tracker.IsRead(ctx, n.ID)
		if err != nil {
			return Listing{}, err
		}
		if !read {
			out.Unread++
		}
		out.Items = append(out.Items, Entry{NotificationSummary: n, Read: read})
	}
	return out, nil
}

// Open loads a run, sanitizes its content and marks it read. A failure to
// record the read flag is logged and does not fail the call.
func (f *Feed) Open(ctx context.Context, id int64) (Opened, error) {
	detail, found, err := f.src.FetchNotification(ctx, id)
	if err != nil {
		return Opened{}, err
	}
	if !found {
		return Opened{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	if detail.Content != nil {
		safe := f.policy.Sanitize(*detail.Content)
		detail.Content = &safe
		detail.ContentText = ingest.HTMLToText(safe)
	}

	opened := Opened{NotificationDetail: detail}
	if err := f.tracker.MarkRead(ctx, id); err != nil {
		log.Printf("[notify] %v", err)
		return opened, nil
	}
	opened.Read = true
	return opened, nil
}
