package api

import (
	"context"
	"fmt"
	"net/http"

	"keyadmin/internal/pkg/errors"
	"keyadmin/internal/platform/models"
)

func (c *Client) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	var team models.Team
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/teams/%d", id), nil, nil, &team); err != nil {
		return nil, err
	}
	if team.ID == 0 {
		return nil, &errors.DecodeError{Op: "GET /teams", Err: fmt.Errorf("team missing id")}
	}
	return &team, nil
}

// ListUsers returns the full user directory in one bulk call.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) ListRegions(ctx context.Context) ([]models.Region, error) {
	var regions []models.Region
	if err := c.do(ctx, http.MethodGet, "/regions", nil, nil, &regions); err != nil {
		return nil, err
	}
	return regions, nil
}

// Me resolves the identity behind the current session token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, &errors.DecodeError{Op: "GET /auth/me", Err: fmt.Errorf("user missing id")}
	}
	return &user, nil
}
