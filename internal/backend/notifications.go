package backend

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/david/licitaciones-radar/internal/models"
)

// FetchNotifications lists notification runs executed since the given instant.
func (c *Client) FetchNotifications(ctx context.Context, since time.Time) ([]models.NotificationSummary, error) {
	p := params{}
	if !since.IsZero() {
		p.set("fechaEjecucion", since.UTC().Format(time.RFC3339))
	}
	data, err := c.get(ctx, "/notificacion", p)
	if err != nil {
		return nil, fmt.Errorf("fetch notifications: %w", err)
	}
	return c.norm.NormalizeNotifications(data), nil
}

// FetchNotification loads one run with its detail and content.
func (c *Client) FetchNotification(ctx context.Context, id int64) (models.NotificationDetail, bool, error) {
	data, err := c.get(ctx, "/notificacion/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return models.NotificationDetail{}, false, fmt.Errorf("fetch notification %d: %w", id, err)
	}
	detail, ok := c.norm.NormalizeNotification(data)
	return detail, ok, nil
}
