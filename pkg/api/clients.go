package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/avetikov/polisdesk/pkg/domain"
)

// ClientForm is the payload for creating or updating a client record.
type ClientForm struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Phone                string `json:"phone,omitempty"`
	Address              string `json:"address,omitempty"`
	DateOfBirth          string `json:"date_of_birth,omitempty"`
	IdentificationNumber string `json:"identification_number,omitempty"`
}

// ClientPage is one page of the client list.
type ClientPage struct {
	Clients []domain.Client `json:"clients"`
	Total   int             `json:"total"`
	Skip    int             `json:"skip"`
	Limit   int             `json:"limit"`
}

// ListClients fetches a page of client records.
func (g *Gateway) ListClients(ctx context.Context, skip, limit int) (*ClientPage, error) {
	params := url.Values{}
	params.Set("skip", strconv.Itoa(skip))
	params.Set("limit", strconv.Itoa(limit))

	var page ClientPage
	if err := g.get(ctx, "/clients/?"+params.Encode(), &page); err != nil {
		return nil, fmt.Errorf("api.ListClients: %w", err)
	}
	return &page, nil
}

// GetClient fetches a single client by ID.
func (g *Gateway) GetClient(ctx context.Context, id int) (*domain.Client, error) {
	var client domain.Client
	if err := g.get(ctx, fmt.Sprintf("/clients/%d/", id), &client); err != nil {
		return nil, fmt.Errorf("api.GetClient: %w", err)
	}
	return &client, nil
}

// CreateClient creates a new client record.
func (g *Gateway) CreateClient(ctx context.Context, form ClientForm) (*domain.Client, error) {
	var created domain.Client
	if err := g.post(ctx, "/clients/", form, &created); err != nil {
		return nil, fmt.Errorf("api.CreateClient: %w", err)
	}
	return &created, nil
}

// UpdateClient updates an existing client record.
func (g *Gateway) UpdateClient(ctx context.Context, id int, form ClientForm) (*domain.Client, error) {
	var updated domain.Client
	if err := g.put(ctx, fmt.Sprintf("/clients/%d/", id), form, &updated); err != nil {
		return nil, fmt.Errorf("api.UpdateClient: %w", err)
	}
	return &updated, nil
}

// DeleteClient deletes a client record.
func (g *Gateway) DeleteClient(ctx context.Context, id int) error {
	if err := g.Do(ctx, http.MethodDelete, fmt.Sprintf("/clients/%d/", id), nil, nil); err != nil {
		return fmt.Errorf("api.DeleteClient: %w", err)
	}
	return nil
}
