package models

import (
	"time"

	"github.com/google/uuid"
)

// BillingEntry represents a time entry recorded against a case
type BillingEntry struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	CaseID        *uuid.UUID `json:"case_id,omitempty"`
	CaseName      string     `json:"case_name"`
	Description   string     `json:"description"`
	Hours         float64    `json:"hours"`
	Rate          *float64   `json:"rate,omitempty"`
	Amount        *float64   `json:"amount,omitempty"`
	BillingDate   string     `json:"billing_date"` // YYYY-MM-DD
	IsAIGenerated bool       `json:"is_ai_generated"`
	CreatedAt     time.Time  `json:"created_at"`
}
