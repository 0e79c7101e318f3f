package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/repository"
	"skeptical-attorney-backend/rules"

	"github.com/google/uuid"
)

const (
	urgentWindowDays  = 14
	upcomingTrialDays = 90
)

// ErrCaseNotFound covers both a missing case and one owned by someone else
var ErrCaseNotFound = errors.New("case not found or access denied")

// ContextBuilder assembles the per-request view of a principal's practice.
// It reads the store on every call and keeps nothing between requests.
type ContextBuilder struct {
	cases CaseStore
	loc   *time.Location
	now   func() time.Time
}

// NewContextBuilder creates a new context builder.
// Dates are evaluated in loc; now defaults to time.Now.
func NewContextBuilder(cases CaseStore, loc *time.Location, now func() time.Time) *ContextBuilder {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ContextBuilder{cases: cases, loc: loc, now: now}
}

// Today returns the current civil date in the builder's timezone
func (b *ContextBuilder) Today() time.Time {
	return rules.CivilDate(b.now(), b.loc)
}

// LocalNow returns the current instant in the builder's timezone
func (b *ContextBuilder) LocalNow() time.Time {
	return b.now().In(b.loc)
}

// Build returns a case-scoped context when mode is case and a dashboard
// context otherwise.
func (b *ContextBuilder) Build(ctx context.Context, principal models.Principal, mode models.Mode, caseID string) (*models.AssistantContext, error) {
	if b.cases == nil {
		return nil, errors.New("case store not set")
	}
	if mode == models.ModeCase {
		return b.buildCase(ctx, principal, caseID)
	}
	return b.buildDashboard(ctx, principal)
}

func (b *ContextBuilder) buildCase(ctx context.Context, principal models.Principal, caseID string) (*models.AssistantContext, error) {
	id, err := uuid.Parse(caseID)
	if err != nil {
		// a malformed id looks exactly like an unknown one
		return nil, ErrCaseNotFound
	}

	c, err := b.cases.GetForOwner(ctx, principal.UserID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	if c.UserID != principal.UserID {
		return nil, ErrCaseNotFound
	}

	today := b.Today()
	return &models.AssistantContext{
		Mode:            models.ModeCase,
		Principal:       principal,
		Today:           today,
		Case:            &models.CaseSnapshot{Case: c, Deadlines: c.Deadlines.Incomplete()},
		UrgentDeadlines: UrgentDeadlines([]*models.Case{c}, today),
	}, nil
}

func (b *ContextBuilder) buildDashboard(ctx context.Context, principal models.Principal) (*models.AssistantContext, error) {
	cases, err := b.cases.ListByOwner(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	owned := cases[:0:0]
	for _, c := range cases {
		if c.UserID == principal.UserID {
			owned = append(owned, c)
		}
	}

	today := b.Today()
	return &models.AssistantContext{
		Mode:            models.ModeDashboard,
		Principal:       principal,
		Today:           today,
		Overview:        Overview(owned, today),
		UrgentDeadlines: UrgentDeadlines(owned, today),
	}, nil
}

// UrgentDeadlines collects incomplete deadlines due in [0, 14] days from
// today, soonest first. Deadlines with unparseable dates are skipped.
func UrgentDeadlines(cases []*models.Case, today time.Time) []models.UrgentDeadline {
	out := make([]models.UrgentDeadline, 0)
	for _, c := range cases {
		for _, d := range c.Deadlines {
			if d.Completed {
				continue
			}
			days, err := rules.DaysUntil(today, d.Date)
			if err != nil || days < 0 || days > urgentWindowDays {
				continue
			}
			out = append(out, models.UrgentDeadline{
				CaseID:      c.ID,
				CaseName:    c.CaseName,
				Date:        d.Date,
				Description: d.Description,
				DaysUntil:   days,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntil < out[j].DaysUntil
	})
	return out
}

// Overview summarizes a caseload as of today
func Overview(cases []*models.Case, today time.Time) *models.CaseOverview {
	ov := &models.CaseOverview{Cases: cases}
	for _, c := range cases {
		if c.TrialDate != nil && *c.TrialDate != "" {
			ov.CasesWithTrial++
			if days, err := rules.DaysUntil(today, *c.TrialDate); err == nil && days >= 0 && days <= upcomingTrialDays {
				ov.UpcomingTrials++
			}
		}
		for _, d := range c.Deadlines {
			if d.Completed {
				continue
			}
			ov.PendingDeadlines++
			days, err := rules.DaysUntil(today, d.Date)
			if err != nil {
				continue
			}
			if days < 0 {
				ov.OverdueDeadlines++
				continue
			}
			if ov.NextDeadline == nil || days < ov.NextDeadline.DaysUntil {
				ov.NextDeadline = &models.UrgentDeadline{
					CaseID:      c.ID,
					CaseName:    c.CaseName,
					Date:        d.Date,
					Description: d.Description,
					DaysUntil:   days,
				}
			}
		}
	}
	return ov
}
