package domain

import "time"

// Contract status values, as reported by the back-office API.
const (
	ContractDraft     = "draft"
	ContractActive    = "active"
	ContractSuspended = "suspended"
	ContractExpired   = "expired"
	ContractCancelled = "cancelled"
)

// Contract represents an insurance contract with joined display names.
type Contract struct {
	ID             int        `json:"id"`
	ContractNumber string     `json:"contract_number"`
	ClientID       int        `json:"client_id"`
	ProductID      int        `json:"product_id"`
	PremiumAmount  float64    `json:"premium_amount"`
	CoverageAmount float64    `json:"coverage_amount"`
	StartDate      string     `json:"start_date"`
	EndDate        string     `json:"end_date"`
	Status         string     `json:"status"`
	ClientName     string     `json:"client_name,omitempty"`
	ProductName    string     `json:"product_name,omitempty"`
	AgentName      string     `json:"agent_name,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}
