package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/david/licitaciones-radar/internal/models"
)

// FetchTenders returns the raw GET /licitaciones payload. Only the filters
// set in q are sent.
func (c *Client) FetchTenders(ctx context.Context, q models.TenderQuery) ([]byte, error) {
	p := params{}
	p.setInt("familia", q.FamilyCode)
	p.setInt("subfamilia", q.SubfamilyCode)
	p.set("fecha_publicacion_desde", q.PublicationFrom)
	p.set("fecha_publicacion_hasta", q.PublicationTo)
	p.set("fecha_cierre_desde", q.ClosingFrom)
	p.set("fecha_cierre_hasta", q.ClosingTo)

	data, err := c.get(ctx, "/licitaciones", p)
	if err != nil {
		return nil, fmt.Errorf("fetch tenders: %w", err)
	}
	return data, nil
}

// Tenders fetches and normalizes in one step.
func (c *Client) Tenders(ctx context.Context, q models.TenderQuery) ([]models.Tender, error) {
	data, err := c.FetchTenders(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.norm.Normalize(data), nil
}

// FetchTender loads a single tender. found is false when the backend answers
// with an empty or unrecognised payload.
func (c *Client) FetchTender(ctx context.Context, id int64) (tender models.Tender, found bool, err error) {
	data, err := c.get(ctx, "/licitaciones/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return models.Tender{}, false, fmt.Errorf("fetch tender %d: %w", id, err)
	}
	tender, found = c.norm.NormalizeTender(data)
	return tender, found, nil
}

// FetchTendersByTitle searches by exact title.
func (c *Client) FetchTendersByTitle(ctx context.Context, title string) ([]models.Tender, error) {
	if title == "" {
		return []models.Tender{}, nil
	}
	data, err := c.get(ctx, "/licitaciones/titulo/"+url.PathEscape(title), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch tenders by title: %w", err)
	}
	return c.norm.Normalize(data), nil
}
