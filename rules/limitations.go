package rules

import (
	"time"
)

// LimitationStatus bands the time left before a limitations period runs
type LimitationStatus string

const (
	LimitationExpired  LimitationStatus = "expired"
	LimitationCritical LimitationStatus = "critical"
	LimitationWarning  LimitationStatus = "warning"
	LimitationOK       LimitationStatus = "ok"
)

const (
	criticalWindowDays = 30
	warningWindowDays  = 180
)

// LimitationResult is the outcome of a statute of limitations check
type LimitationResult struct {
	CaseType       string
	Rule           LimitationRule
	DateOfLoss     time.Time
	ExpirationDate time.Time
	DaysRemaining  int
	Status         LimitationStatus
}

// StatusFor bands daysRemaining; the first matching band wins
func StatusFor(daysRemaining int) LimitationStatus {
	switch {
	case daysRemaining < 0:
		return LimitationExpired
	case daysRemaining <= criticalWindowDays:
		return LimitationCritical
	case daysRemaining <= warningWindowDays:
		return LimitationWarning
	default:
		return LimitationOK
	}
}

// EvaluateLimitation checks caseType's limitations period for a loss on
// dateOfLoss as of today. Years are added on the calendar, so leap days
// are respected.
func (c *Calculator) EvaluateLimitation(caseType, dateOfLoss string, today time.Time) (*LimitationResult, error) {
	rule, err := c.tables.Limitation(caseType)
	if err != nil {
		return nil, err
	}
	loss, err := ParseDate(dateOfLoss)
	if err != nil {
		return nil, err
	}

	expires := loss.AddDate(rule.Years, 0, 0)
	remaining := DaysBetween(CivilDate(today, time.UTC), expires)

	return &LimitationResult{
		CaseType:       caseType,
		Rule:           rule,
		DateOfLoss:     loss,
		ExpirationDate: expires,
		DaysRemaining:  remaining,
		Status:         StatusFor(remaining),
	}, nil
}
