package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"keyadmin/internal/pkg/errors"
	"keyadmin/internal/platform/models"
)

// Capability-to-endpoint dispatch. There is no generic create call on the
// backend; each capability has its own.
var createPaths = map[models.KeyCapability]string{
	models.CapabilityFull:   "/private-ai-keys",
	models.CapabilityLLM:    "/private-ai-keys/token",
	models.CapabilityVector: "/private-ai-keys/vector-db",
}

type createKeyRequest struct {
	RegionID int    `json:"region_id"`
	Name     string `json:"name"`
}

type budgetPeriodRequest struct {
	BudgetDuration string `json:"budget_duration"`
}

// ListKeys fetches the raw key set, optionally filtered to one owner.
func (c *Client) ListKeys(ctx context.Context, ownerID int) ([]models.PrivateAIKey, error) {
	query := url.Values{}
	if ownerID != 0 {
		query.Set("owner_id", strconv.Itoa(ownerID))
	}

	var keys []models.PrivateAIKey
	if err := c.do(ctx, http.MethodGet, "/private-ai-keys", query, nil, &keys); err != nil {
		return nil, err
	}
	for i := range keys {
		if err := validateKey(&keys[i]); err != nil {
			return nil, &errors.DecodeError{Op: "GET /private-ai-keys", Err: err}
		}
	}
	return keys, nil
}

func (c *Client) CreateKey(ctx context.Context, regionID int, name string, capability models.KeyCapability) (*models.PrivateAIKey, error) {
	path, ok := createPaths[capability]
	if !ok {
		return nil, fmt.Errorf("unknown key capability %q", capability)
	}

	var key models.PrivateAIKey
	req := createKeyRequest{RegionID: regionID, Name: name}
	if err := c.do(ctx, http.MethodPost, path, nil, req, &key); err != nil {
		return nil, err
	}
	if err := validateKey(&key); err != nil {
		return nil, &errors.DecodeError{Op: "POST " + path, Err: err}
	}
	return &key, nil
}

// DeleteKey tombstones the key server-side; the caller drops it locally and
// re-fetches.
func (c *Client) DeleteKey(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/private-ai-keys/%d/delete", id), nil, nil, nil)
}

func (c *Client) UpdateBudgetPeriod(ctx context.Context, id int, duration string) error {
	path := fmt.Sprintf("/private-ai-keys/%d/budget-period", id)
	return c.do(ctx, http.MethodPost, path, nil, budgetPeriodRequest{BudgetDuration: duration}, nil)
}

func (c *Client) FetchSpend(ctx context.Context, id int) (*models.SpendSnapshot, error) {
	var snap models.SpendSnapshot
	path := fmt.Sprintf("/private-ai-keys/%d/spend", id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func validateKey(k *models.PrivateAIKey) error {
	if k.ID == 0 {
		return fmt.Errorf("key missing id")
	}
	if k.Name == "" {
		return fmt.Errorf("key %d missing name", k.ID)
	}
	// Ownership is exactly one of user or team.
	if k.OwnerID != nil && k.TeamID != nil {
		return fmt.Errorf("key %d owned by both user and team", k.ID)
	}
	if k.OwnerID == nil && k.TeamID == nil {
		return fmt.Errorf("key %d has no owner", k.ID)
	}
	return nil
}
