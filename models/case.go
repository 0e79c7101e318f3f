package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Deadline represents a single calendar entry stored on a case
type Deadline struct {
	ID           string `json:"id"`
	Date         string `json:"date"` // YYYY-MM-DD
	Description  string `json:"description"`
	Completed    bool   `json:"completed"`
	IsCalculated bool   `json:"isCalculated,omitempty"`
}

// Deadlines represents the deadline list of a case
type Deadlines []Deadline

// Value implements driver.Valuer for JSONB
func (d Deadlines) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB
func (d *Deadlines) Scan(value interface{}) error {
	if value == nil {
		*d = make(Deadlines, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*d = make(Deadlines, 0)
		return nil
	}

	if len(bytes) == 0 {
		*d = make(Deadlines, 0)
		return nil
	}

	return json.Unmarshal(bytes, d)
}

// Incomplete returns the deadlines not yet marked completed, in stored order
func (d Deadlines) Incomplete() Deadlines {
	out := make(Deadlines, 0, len(d))
	for _, dl := range d {
		if !dl.Completed {
			out = append(out, dl)
		}
	}
	return out
}

// Case represents a litigation matter owned by a single user
type Case struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	CaseName       string    `json:"case_name"`
	CaseNumber     string    `json:"case_number"`
	CaseType       *string   `json:"case_type,omitempty"`
	Client         *string   `json:"client,omitempty"`
	TrialDate      *string   `json:"trial_date,omitempty"` // YYYY-MM-DD
	MSCDate        *string   `json:"msc_date,omitempty"`   // mandatory settlement conference
	Court          *string   `json:"court,omitempty"`
	CourtCounty    *string   `json:"court_county,omitempty"`
	Deadlines      Deadlines `json:"deadlines"`
	PlaintiffCount int       `json:"plaintiff_count"`
	DefendantCount int       `json:"defendant_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Str dereferences an optional text column, returning "" for nil
func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
