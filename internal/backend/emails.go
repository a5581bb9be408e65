package backend

import (
	"context"
	"net/http"

	"github.com/david/licitaciones-radar/internal/models"
)

const emailConfigPath = "/config/email"

// ListEmails, CreateEmail and DeleteEmail satisfy roster.Source. Errors are
// returned unwrapped so the roster shows the backend's own message.
func (c *Client) ListEmails(ctx context.Context) ([]models.EmailEntry, error) {
	data, err := c.get(ctx, emailConfigPath, nil)
	if err != nil {
		return nil, err
	}
	return c.norm.NormalizeEmails(data), nil
}

func (c *Client) CreateEmail(ctx context.Context, address string) error {
	_, err := c.do(ctx, http.MethodPost, emailConfigPath, nil, models.EmailEntry{Address: address})
	return err
}

func (c *Client) DeleteEmail(ctx context.Context, address string) error {
	p := params{}
	p.set("direccion", address)
	_, err := c.do(ctx, http.MethodDelete, emailConfigPath, p, nil)
	return err
}
