package rules

import (
	"fmt"
	"time"
)

// ComputeDeadline applies rule to a YYYY-MM-DD start date
func ComputeDeadline(start string, rule DeadlineRule) (time.Time, error) {
	from, err := ParseDate(start)
	if err != nil {
		return time.Time{}, err
	}
	switch rule.Mode {
	case CourtDays:
		return AddCourtDays(from, rule.DayCount), nil
	case CalendarDays:
		return from.AddDate(0, 0, rule.DayCount), nil
	default:
		return time.Time{}, fmt.Errorf("unknown computation mode %q", rule.Mode)
	}
}

// AddCourtDays moves n weekdays away from start, backwards when n is negative.
// The start date itself is never counted.
func AddCourtDays(start time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	d := start
	for n > 0 {
		d = d.AddDate(0, 0, step)
		if !IsWeekend(d) {
			n--
		}
	}
	return d
}

// Computation is a resolved procedural deadline
type Computation struct {
	DeadlineType string
	Rule         DeadlineRule
	From         time.Time
	Due          time.Time
}

// Summary renders the computation for a human reader
func (c *Computation) Summary() string {
	unit := "calendar days"
	if c.Rule.Mode == CourtDays {
		unit = "court days"
	}
	return fmt.Sprintf("%s: %d %s from %s is %s (%s)",
		c.Rule.Description, c.Rule.DayCount, unit, FormatDate(c.From), FormatDate(c.Due), c.Rule.Citation)
}

// Calculator evaluates deadlines against an injected set of tables
type Calculator struct {
	tables *Tables
}

// NewCalculator creates a new calculator over tables
func NewCalculator(tables *Tables) *Calculator {
	return &Calculator{tables: tables}
}

// Tables returns the rule tables backing the calculator
func (c *Calculator) Tables() *Tables {
	return c.tables
}

// Compute resolves deadlineType and applies it to from
func (c *Calculator) Compute(deadlineType, from string) (*Computation, error) {
	rule, err := c.tables.Deadline(deadlineType)
	if err != nil {
		return nil, err
	}
	due, err := ComputeDeadline(from, rule)
	if err != nil {
		return nil, err
	}
	start, _ := ParseDate(from)
	return &Computation{DeadlineType: deadlineType, Rule: rule, From: start, Due: due}, nil
}
