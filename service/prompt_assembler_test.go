package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolNames(p Prompt) []string {
	names := make([]string, 0, len(p.Tools))
	for _, t := range p.Tools {
		names = append(names, t.Name)
	}
	return names
}

func TestAssemble_CaseModeStaysOnTheCase(t *testing.T) {
	store := newFakeCaseStore(fixtureCases()...)
	tables := rules.California()
	p := NewPromptAssembler(tables).Assemble(caseContext(store, smithID))

	assert.Contains(t, p.System, "You are a helpful legal assistant for Jane Counsel at Counsel LLP.")
	assert.Contains(t, p.System, "CRITICAL RULES:")
	assert.Contains(t, p.System, "TODAY: 2024-03-01 (Friday)")
	assert.Contains(t, p.System, "JURISDICTION: "+tables.Jurisdiction())
	assert.Contains(t, p.System, "MODE: CASE-SPECIFIC")
	assert.Contains(t, p.System, "I'm currently focused on Smith v. Jones")
	assert.Contains(t, p.System, "- Case Number: 23STCV04567")
	assert.Contains(t, p.System, "- Trial Date: 2024-06-03")
	assert.Contains(t, p.System, "UPCOMING DEADLINES FOR THIS CASE (4 incomplete):")
	assert.Contains(t, p.System, "- 2024-03-01 (0 days): Serve discovery responses")
	assert.Contains(t, p.System, "- 2024-02-29: Overdue meet and confer letter")
	assert.NotContains(t, p.System, "Already done")

	for _, other := range []string{"Doe v. Acme Corp", "Rivera", "Other Firm", "Not yours", "BILLING GOAL"} {
		assert.NotContains(t, p.System, other)
	}

	assert.ElementsMatch(t, []string{
		"add_deadline", "navigate_to_document", "calculate_deadline", "analyze_case_strategy",
		"check_statute_of_limitations", "suggest_discovery", "log_billing_entry", "generate_case_summary",
	}, toolNames(p))
}

func TestAssemble_DashboardMode(t *testing.T) {
	store := newFakeCaseStore(fixtureCases()...)
	p := NewPromptAssembler(rules.California()).Assemble(dashboardContext(store))

	assert.Contains(t, p.System, "MODE: DASHBOARD OVERVIEW")
	assert.Contains(t, p.System, "BILLING GOAL: 160 hours per month")
	assert.Contains(t, p.System, "- Total Active Cases: 3")
	assert.Contains(t, p.System, "- Cases with trials in next 90 days: 1")
	assert.Contains(t, p.System, "- Pending deadlines: 5 (1 overdue)")
	assert.Contains(t, p.System, "- Rivera v. City of Los Angeles (22STCV09999)")
	assert.Contains(t, p.System, "Trial: Not set | 1 pending tasks | Client: John Doe")
	assert.Contains(t, p.System, "- 2024-03-01 (TODAY): Smith v. Jones - Serve discovery responses")
	assert.NotContains(t, p.System, "MODE: CASE-SPECIFIC")
	assert.NotContains(t, p.System, "Other Firm")
	assert.NotContains(t, p.System, "Not yours")

	names := toolNames(p)
	assert.Len(t, names, 8)
	assert.Contains(t, names, "get_morning_briefing")
	assert.NotContains(t, names, "add_deadline")
}

func TestAssemble_DashboardLimitsUrgentList(t *testing.T) {
	ac := &models.AssistantContext{
		Mode:      models.ModeDashboard,
		Principal: testPrincipal(),
		Today:     rules.CivilDate(fixedNow, pacific),
		Overview:  &models.CaseOverview{},
	}
	for i := 0; i < 20; i++ {
		ac.UrgentDeadlines = append(ac.UrgentDeadlines, models.UrgentDeadline{
			CaseName:    "Big Case",
			Date:        "2024-03-05",
			Description: fmt.Sprintf("item-%02d %s", i, strings.Repeat("x", 100)),
			DaysUntil:   4,
		})
	}
	p := NewPromptAssembler(rules.California()).Assemble(ac)

	assert.Contains(t, p.System, "item-14")
	assert.NotContains(t, p.System, "item-15")
	assert.Contains(t, p.System, "(4 days): Big Case - item-00 "+strings.Repeat("x", 72)+"...")
	assert.Contains(t, p.System, "- No cases yet")
}

func TestOpeningMessage_Case(t *testing.T) {
	store := newFakeCaseStore(fixtureCases()...)
	a := NewPromptAssembler(rules.California())
	local := fixedNow.In(pacific)

	msg := a.OpeningMessage(caseContext(store, smithID), local)
	assert.True(t, strings.HasPrefix(msg, "Good morning, Jane! I'm here to help with **Smith v. Jones** (23STCV04567)."))
	assert.NotContains(t, msg, "Trial in", "94 days out is beyond the banner window")
	assert.Contains(t, msg, "**2 deadlines coming up:**")
	assert.Contains(t, msg, "- TODAY: Serve discovery responses")
	assert.Contains(t, msg, "- 14 days: Opposition to motion due")
	assert.Contains(t, msg, "4 total tasks pending")
	assert.True(t, strings.HasSuffix(msg, "What would you like help with on this case?"))

	msg = a.OpeningMessage(caseContext(store, riveraID), local)
	assert.Contains(t, msg, "**Trial in 14 days** (2024-03-15)")
	assert.Contains(t, msg, "0 total tasks pending")
	assert.NotContains(t, msg, "coming up")
}

func TestOpeningMessage_Dashboard(t *testing.T) {
	store := newFakeCaseStore(fixtureCases()...)
	a := NewPromptAssembler(rules.California())

	msg := a.OpeningMessage(dashboardContext(store), fixedNow.In(pacific))
	assert.True(t, strings.HasPrefix(msg, "Good morning, Jane! Here's your practice overview:"))
	assert.Contains(t, msg, "**3 active cases** (1 with trials in 90 days)")
	assert.Contains(t, msg, "**1 deadline due TODAY**")
	assert.NotContains(t, msg, "more this week")
	assert.Contains(t, msg, "- [TODAY] Smith v. Jones: Serve discovery responses")
	assert.Contains(t, msg, "- [14d] ")
	assert.Contains(t, msg, "Billing goal: 160 hours per month")
	assert.True(t, strings.HasSuffix(msg, "How can I help you today?"))
}

func TestOpeningMessage_NoUrgentDeadlines(t *testing.T) {
	store := newFakeCaseStore(&models.Case{ID: riveraID, UserID: ownerID, CaseName: "Quiet v. Case"})
	msg := NewPromptAssembler(rules.California()).OpeningMessage(dashboardContext(store), fixedNow.In(pacific))
	assert.Contains(t, msg, "**1 active case**")
	assert.Contains(t, msg, "No urgent deadlines in the next 2 weeks")
}

func TestOpeningMessage_BlankProfileName(t *testing.T) {
	store := newFakeCaseStore(fixtureCases()...)
	a := NewPromptAssembler(rules.California())

	ac := dashboardContext(store)
	ac.Principal.Name = "   "
	ac.Principal.Email = ""
	var msg string
	require.NotPanics(t, func() { msg = a.OpeningMessage(ac, fixedNow.In(pacific)) })
	assert.True(t, strings.HasPrefix(msg, "Good morning, Counselor!"))

	ac.Principal.Email = " jane@example.com "
	msg = a.OpeningMessage(ac, fixedNow.In(pacific))
	assert.True(t, strings.HasPrefix(msg, "Good morning, jane@example.com!"))
}

func TestTimeGreeting(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2024, 3, 1, h, 0, 0, 0, pacific) }
	assert.Equal(t, "Good morning", timeGreeting(at(0)))
	assert.Equal(t, "Good morning", timeGreeting(at(11)))
	assert.Equal(t, "Good afternoon", timeGreeting(at(12)))
	assert.Equal(t, "Good afternoon", timeGreeting(at(16)))
	assert.Equal(t, "Good evening", timeGreeting(at(17)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	require.Equal(t, "§§§...", truncate("§§§§§", 3), "cuts on runes, not bytes")
}
