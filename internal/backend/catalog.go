package backend

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/david/licitaciones-radar/internal/models"
)

func (c *Client) FetchFamilies(ctx context.Context) ([]models.Family, error) {
	data, err := c.get(ctx, "/familias", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch families: %w", err)
	}
	return c.norm.NormalizeFamilies(data), nil
}

// FetchSubfamilies lists the subfamilies of a family. Code 0 has none.
func (c *Client) FetchSubfamilies(ctx context.Context, familyCode int64) ([]models.Subfamily, error) {
	if familyCode == 0 {
		return []models.Subfamily{}, nil
	}
	data, err := c.get(ctx, "/subfamilias/familia/"+strconv.FormatInt(familyCode, 10), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch subfamilies of family %d: %w", familyCode, err)
	}
	return c.norm.NormalizeSubfamilies(data), nil
}

// GetFamilyConfig reads the persisted family selection. A backend without a
// stored selection answers with an empty body, reported as both codes nil.
func (c *Client) GetFamilyConfig(ctx context.Context) (models.FamilyConfig, error) {
	data, err := c.get(ctx, "/config", nil)
	if err != nil {
		return models.FamilyConfig{}, fmt.Errorf("fetch family config: %w", err)
	}
	var cfg models.FamilyConfig
	if data == nil {
		return cfg, nil
	}
	if err := decodeJSON(data, &cfg); err != nil {
		return models.FamilyConfig{}, fmt.Errorf("decode family config: %w", err)
	}
	return cfg, nil
}

func (c *Client) SaveFamilyConfig(ctx context.Context, cfg models.FamilyConfig) error {
	if _, err := c.do(ctx, http.MethodPost, "/config", nil, cfg); err != nil {
		return fmt.Errorf("save family config: %w", err)
	}
	return nil
}
