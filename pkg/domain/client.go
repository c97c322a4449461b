package domain

import "time"

// Client represents an insured client record.
type Client struct {
	ID                   int        `json:"id"`
	FirstName            string     `json:"first_name"`
	LastName             string     `json:"last_name"`
	Email                string     `json:"email"`
	Phone                string     `json:"phone,omitempty"`
	Address              string     `json:"address,omitempty"`
	DateOfBirth          string     `json:"date_of_birth,omitempty"`
	IdentificationNumber string     `json:"identification_number,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
}

// FullName returns "First Last" for list and detail rendering.
func (c Client) FullName() string {
	return c.FirstName + " " + c.LastName
}
