package api

import (
	"context"
	"net/http"

	"gidvion/internal/domain"
)

// CurrentUser returns the authenticated account. A 401 triggers the
// client's OnUnauthorized hook (local token eviction) before the error
// is returned.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
