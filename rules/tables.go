package rules

import (
	"errors"
	"fmt"
	"sort"
)

// ComputationMode selects how a rule's day count is applied
type ComputationMode string

const (
	CalendarDays ComputationMode = "calendar_days"
	CourtDays    ComputationMode = "court_days"
)

// DeadlineRule represents a procedural deadline measured from a trigger date
type DeadlineRule struct {
	DayCount    int             `yaml:"day_count" json:"dayCount"`
	Citation    string          `yaml:"citation" json:"citation"`
	Mode        ComputationMode `yaml:"mode" json:"computationMode"`
	Description string          `yaml:"description" json:"description"`
}

// LimitationRule represents a statute of limitations for one case type
type LimitationRule struct {
	Years       int    `yaml:"years" json:"years"`
	Citation    string `yaml:"citation" json:"citation"`
	Description string `yaml:"description" json:"description"`
}

var (
	ErrUnknownDeadlineType = errors.New("unknown deadline type")
	ErrUnknownCaseType     = errors.New("unknown case type")
)

// Tables holds the immutable rule data of one jurisdiction.
// A Tables value is safe for concurrent use once constructed.
type Tables struct {
	jurisdiction string
	deadlines    map[string]DeadlineRule
	limitations  map[string]LimitationRule
	deadlineKeys []string
	caseTypeKeys []string
}

// NewTables validates and copies the supplied rules
func NewTables(jurisdiction string, deadlines map[string]DeadlineRule, limitations map[string]LimitationRule) (*Tables, error) {
	if jurisdiction == "" {
		return nil, errors.New("jurisdiction is required")
	}
	if len(deadlines) == 0 || len(limitations) == 0 {
		return nil, errors.New("rule tables must not be empty")
	}

	t := &Tables{
		jurisdiction: jurisdiction,
		deadlines:    make(map[string]DeadlineRule, len(deadlines)),
		limitations:  make(map[string]LimitationRule, len(limitations)),
	}

	for key, rule := range deadlines {
		if rule.DayCount <= 0 {
			return nil, fmt.Errorf("deadline rule %q: day count must be positive", key)
		}
		if rule.Mode != CalendarDays && rule.Mode != CourtDays {
			return nil, fmt.Errorf("deadline rule %q: unknown computation mode %q", key, rule.Mode)
		}
		if rule.Citation == "" {
			return nil, fmt.Errorf("deadline rule %q: citation is required", key)
		}
		t.deadlines[key] = rule
		t.deadlineKeys = append(t.deadlineKeys, key)
	}

	for key, rule := range limitations {
		if rule.Years <= 0 {
			return nil, fmt.Errorf("limitation rule %q: years must be positive", key)
		}
		if rule.Citation == "" {
			return nil, fmt.Errorf("limitation rule %q: citation is required", key)
		}
		t.limitations[key] = rule
		t.caseTypeKeys = append(t.caseTypeKeys, key)
	}

	sort.Strings(t.deadlineKeys)
	sort.Strings(t.caseTypeKeys)
	return t, nil
}

// Jurisdiction returns the name the tables were built for
func (t *Tables) Jurisdiction() string {
	return t.jurisdiction
}

// Deadline looks up a procedural deadline rule
func (t *Tables) Deadline(deadlineType string) (DeadlineRule, error) {
	rule, ok := t.deadlines[deadlineType]
	if !ok {
		return DeadlineRule{}, fmt.Errorf("%w: %s", ErrUnknownDeadlineType, deadlineType)
	}
	return rule, nil
}

// Limitation looks up a statute of limitations rule
func (t *Tables) Limitation(caseType string) (LimitationRule, error) {
	rule, ok := t.limitations[caseType]
	if !ok {
		return LimitationRule{}, fmt.Errorf("%w: %s", ErrUnknownCaseType, caseType)
	}
	return rule, nil
}

// DeadlineTypes returns the known deadline types in sorted order
func (t *Tables) DeadlineTypes() []string {
	return append([]string(nil), t.deadlineKeys...)
}

// CaseTypes returns the known case types in sorted order
func (t *Tables) CaseTypes() []string {
	return append([]string(nil), t.caseTypeKeys...)
}
