package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/avetikov/polisdesk/pkg/domain"
)

// UserPage is one page of the user-administration list.
type UserPage struct {
	Users []domain.UserProfile `json:"users"`
	Total int                  `json:"total"`
	Skip  int                  `json:"skip"`
	Limit int                  `json:"limit"`
}

// ListUsers fetches a page of back-office users. Admin/manager only,
// enforced server-side.
func (g *Gateway) ListUsers(ctx context.Context, skip, limit int) (*UserPage, error) {
	params := url.Values{}
	params.Set("skip", strconv.Itoa(skip))
	params.Set("limit", strconv.Itoa(limit))

	var page UserPage
	if err := g.get(ctx, "/users/?"+params.Encode(), &page); err != nil {
		return nil, fmt.Errorf("api.ListUsers: %w", err)
	}
	return &page, nil
}

// UpdateUserRole changes a user's role.
func (g *Gateway) UpdateUserRole(ctx context.Context, id, role string) (*domain.UserProfile, error) {
	var updated domain.UserProfile
	body := map[string]string{"role": role}
	if err := g.patch(ctx, "/users/"+url.PathEscape(id)+"/role", body, &updated); err != nil {
		return nil, fmt.Errorf("api.UpdateUserRole: %w", err)
	}
	return &updated, nil
}
