package domain

import "time"

// Claim status values, as reported by the back-office API.
const (
	ClaimSubmitted   = "submitted"
	ClaimUnderReview = "under_review"
	ClaimApproved    = "approved"
	ClaimRejected    = "rejected"
	ClaimPaid        = "paid"
)

// Claim represents an insurance claim with joined display names.
type Claim struct {
	ID             int        `json:"id"`
	ClaimNumber    string     `json:"claim_number"`
	ContractID     int        `json:"contract_id"`
	IncidentDate   string     `json:"incident_date"`
	ReportedDate   string     `json:"reported_date"`
	Description    string     `json:"description"`
	ClaimedAmount  float64    `json:"claimed_amount,omitempty"`
	ApprovedAmount *float64   `json:"approved_amount,omitempty"`
	Status         string     `json:"status"`
	AdjusterNotes  string     `json:"adjuster_notes,omitempty"`
	ContractNumber string     `json:"contract_number,omitempty"`
	ClientName     string     `json:"client_name,omitempty"`
	AdjusterName   string     `json:"adjuster_name,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}
