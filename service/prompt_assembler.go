package service

import (
	"fmt"
	"strings"
	"time"

	"skeptical-attorney-backend/llm"
	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/rules"
)

const (
	casePromptDeadlineLimit   = 20
	dashboardUrgentLimit      = 15
	dashboardDescriptionLimit = 80
	openingCaseUrgentLimit    = 3
	openingDashUrgentLimit    = 4
)

// Prompt is the system prompt and tool catalog for one model call
type Prompt struct {
	System string
	Tools  []llm.ToolSchema
}

// PromptAssembler renders an AssistantContext into model instructions
type PromptAssembler struct {
	tables *rules.Tables
}

// NewPromptAssembler creates a new prompt assembler
func NewPromptAssembler(tables *rules.Tables) *PromptAssembler {
	return &PromptAssembler{tables: tables}
}

// Assemble builds the system prompt and the catalog for ac's mode.
// Nothing outside ac is rendered.
func (a *PromptAssembler) Assemble(ac *models.AssistantContext) Prompt {
	var b strings.Builder
	writeBasePrompt(&b, ac, a.tables.Jurisdiction())

	switch {
	case ac.Mode == models.ModeCase && ac.Case != nil:
		writeCaseBlock(&b, ac)
	case ac.Mode == models.ModeDashboard && ac.Overview != nil:
		writeDashboardBlock(&b, ac)
	}

	return Prompt{
		System: b.String(),
		Tools:  Catalog(ac.Mode, a.tables),
	}
}

func writeBasePrompt(b *strings.Builder, ac *models.AssistantContext, jurisdiction string) {
	fmt.Fprintf(b, "You are a helpful legal assistant for %s", ac.Principal.DisplayName())
	if ac.Principal.FirmName != "" {
		fmt.Fprintf(b, " at %s", ac.Principal.FirmName)
	}
	b.WriteString(".\nYou help manage their legal practice, track deadlines, and provide guidance on case workflow.\n\n")
	b.WriteString(`CRITICAL RULES:
1. Only discuss information provided in the context below
2. Never make up case details, dates, or deadlines
3. Be concise and actionable in your responses
4. If asked about information not in context, say "I don't have that information"
5. Use markdown formatting for better readability
`)
	fmt.Fprintf(b, "\nTODAY: %s (%s)\n", rules.FormatDate(ac.Today), ac.Today.Weekday())
	fmt.Fprintf(b, "JURISDICTION: %s\n", jurisdiction)
	b.WriteString("Use the available tools to compute deadlines and to change the calendar or billing records. " +
		"Pass every date as YYYY-MM-DD. Report tool failures to the user instead of guessing.\n")
}

func writeCaseBlock(b *strings.Builder, ac *models.AssistantContext) {
	c := ac.Case.Case
	b.WriteString("\nMODE: CASE-SPECIFIC\n")
	b.WriteString("You are currently helping with ONE specific case. DO NOT discuss or reference any other cases.\n")
	fmt.Fprintf(b, "If asked about other matters, say: \"I'm currently focused on %s. To discuss other cases, please navigate to your dashboard.\"\n\n", c.CaseName)

	b.WriteString("CURRENT CASE:\n")
	fmt.Fprintf(b, "- Name: %s\n", c.CaseName)
	fmt.Fprintf(b, "- Case Number: %s\n", c.CaseNumber)
	optionalLine(b, "Type", models.Str(c.CaseType))
	optionalLine(b, "Client", models.Str(c.Client))
	if trial := models.Str(c.TrialDate); trial != "" {
		fmt.Fprintf(b, "- Trial Date: %s\n", trial)
	} else {
		b.WriteString("- Trial Date: Not set\n")
	}
	optionalLine(b, "MSC Date", models.Str(c.MSCDate))
	optionalLine(b, "Court", models.Str(c.Court))
	optionalLine(b, "County", models.Str(c.CourtCounty))
	fmt.Fprintf(b, "- Plaintiffs: %d\n", c.PlaintiffCount)
	fmt.Fprintf(b, "- Defendants: %d\n\n", c.DefendantCount)

	fmt.Fprintf(b, "UPCOMING DEADLINES FOR THIS CASE (%d incomplete):\n", len(ac.Case.Deadlines))
	if len(ac.UrgentDeadlines) == 0 {
		b.WriteString("- No urgent deadlines in the next 14 days\n")
	}
	for _, d := range ac.UrgentDeadlines {
		fmt.Fprintf(b, "- %s (%d days): %s\n", d.Date, d.DaysUntil, d.Description)
	}

	b.WriteString("\nALL INCOMPLETE DEADLINES:\n")
	if len(ac.Case.Deadlines) == 0 {
		b.WriteString("- No incomplete deadlines\n")
	}
	for i, d := range ac.Case.Deadlines {
		if i == casePromptDeadlineLimit {
			break
		}
		fmt.Fprintf(b, "- %s: %s\n", d.Date, d.Description)
	}
}

func writeDashboardBlock(b *strings.Builder, ac *models.AssistantContext) {
	ov := ac.Overview
	b.WriteString("\nMODE: DASHBOARD OVERVIEW\n")
	b.WriteString("You are helping manage the user's entire caseload. You can discuss any of their cases.\n")
	b.WriteString("Tools that act on a case take a case_identifier: use the case name, case number or client exactly as listed below.\n\n")
	if ac.Principal.BillingGoal != "" {
		fmt.Fprintf(b, "BILLING GOAL: %s\n\n", ac.Principal.BillingGoal)
	}

	b.WriteString("CASELOAD SUMMARY:\n")
	fmt.Fprintf(b, "- Total Active Cases: %d\n", len(ov.Cases))
	fmt.Fprintf(b, "- Cases with trials in next 90 days: %d\n", ov.UpcomingTrials)
	fmt.Fprintf(b, "- Pending deadlines: %d (%d overdue)\n\n", ov.PendingDeadlines, ov.OverdueDeadlines)

	b.WriteString("CASES:\n")
	if len(ov.Cases) == 0 {
		b.WriteString("- No cases yet\n")
	}
	for _, c := range ov.Cases {
		fmt.Fprintf(b, "- %s (%s)", c.CaseName, c.CaseNumber)
		if ct := models.Str(c.CaseType); ct != "" {
			fmt.Fprintf(b, " [%s]", ct)
		}
		trial := models.Str(c.TrialDate)
		if trial == "" {
			trial = "Not set"
		}
		fmt.Fprintf(b, "\n   Trial: %s | %d pending tasks", trial, len(c.Deadlines.Incomplete()))
		if client := models.Str(c.Client); client != "" {
			fmt.Fprintf(b, " | Client: %s", client)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nURGENT DEADLINES (next 14 days):\n")
	if len(ac.UrgentDeadlines) == 0 {
		b.WriteString("- No urgent deadlines\n")
	}
	for i, d := range ac.UrgentDeadlines {
		if i == dashboardUrgentLimit {
			break
		}
		fmt.Fprintf(b, "- %s (%s): %s - %s\n", d.Date, urgencyLabel(d.DaysUntil, "days"), d.CaseName,
			truncate(d.Description, dashboardDescriptionLimit))
	}
}

func optionalLine(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "- %s: %s\n", label, value)
	}
}

func urgencyLabel(days int, unit string) string {
	switch days {
	case 0:
		return "TODAY"
	case 1:
		return "Tomorrow"
	}
	if unit == "d" {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%d %s", days, unit)
}

// truncate shortens s to n runes, marking the cut with an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// OpeningMessage renders the greeting shown when the assistant panel opens.
// localNow decides the salutation.
func (a *PromptAssembler) OpeningMessage(ac *models.AssistantContext, localNow time.Time) string {
	greeting := timeGreeting(localNow)
	firstName := strings.Fields(ac.Principal.DisplayName() + " Counselor")[0]

	var b strings.Builder
	switch {
	case ac.Mode == models.ModeCase && ac.Case != nil:
		c := ac.Case.Case
		fmt.Fprintf(&b, "%s, %s! I'm here to help with **%s** (%s).\n\n", greeting, firstName, c.CaseName, c.CaseNumber)
		if trial, ok := trialDate(c); ok {
			if days := rules.DaysBetween(ac.Today, trial); days > 0 && days <= upcomingTrialDays {
				fmt.Fprintf(&b, "**Trial in %d days** (%s)\n\n", days, models.Str(c.TrialDate))
			}
		}
		if n := len(ac.UrgentDeadlines); n > 0 {
			fmt.Fprintf(&b, "**%d %s coming up:**\n", n, plural(n, "deadline"))
			for i, d := range ac.UrgentDeadlines {
				if i == openingCaseUrgentLimit {
					break
				}
				fmt.Fprintf(&b, "- %s: %s\n", urgencyLabel(d.DaysUntil, "days"), truncate(d.Description, 50))
			}
			b.WriteString("\n")
		}
		n := len(ac.Case.Deadlines)
		fmt.Fprintf(&b, "%d total %s pending\n\n", n, plural(n, "task"))
		b.WriteString("What would you like help with on this case?")

	case ac.Mode == models.ModeDashboard && ac.Overview != nil:
		ov := ac.Overview
		fmt.Fprintf(&b, "%s, %s! Here's your practice overview:\n\n", greeting, firstName)
		fmt.Fprintf(&b, "**%d active %s**", len(ov.Cases), plural(len(ov.Cases), "case"))
		if ov.UpcomingTrials > 0 {
			fmt.Fprintf(&b, " (%d with trials in 90 days)", ov.UpcomingTrials)
		}
		b.WriteString("\n\n")

		if len(ac.UrgentDeadlines) > 0 {
			todayCount, weekCount := 0, 0
			for _, d := range ac.UrgentDeadlines {
				if d.DaysUntil == 0 {
					todayCount++
				}
				if d.DaysUntil <= 7 {
					weekCount++
				}
			}
			if todayCount > 0 {
				fmt.Fprintf(&b, "**%d %s due TODAY**\n", todayCount, plural(todayCount, "deadline"))
			}
			if weekCount > todayCount {
				fmt.Fprintf(&b, "%d more this week\n", weekCount-todayCount)
			}
			b.WriteString("\n**Upcoming:**\n")
			for i, d := range ac.UrgentDeadlines {
				if i == openingDashUrgentLimit {
					break
				}
				fmt.Fprintf(&b, "- [%s] %s: %s\n", urgencyLabel(d.DaysUntil, "d"), d.CaseName, truncate(d.Description, 40))
			}
			b.WriteString("\n")
		} else {
			b.WriteString("No urgent deadlines in the next 2 weeks\n\n")
		}
		if ac.Principal.BillingGoal != "" {
			fmt.Fprintf(&b, "Billing goal: %s\n\n", ac.Principal.BillingGoal)
		}
		b.WriteString("How can I help you today?")

	default:
		fmt.Fprintf(&b, "%s! I'm your legal assistant. How can I help?", greeting)
	}
	return b.String()
}

func timeGreeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
