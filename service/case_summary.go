package service

import (
	"fmt"
	"strings"
	"time"

	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/rules"
)

const (
	summaryDeadlineLimit = 10
	nextStepLimit        = 5
)

// renderCaseSummary renders c in one of the summaryTypes layouts
func renderCaseSummary(c *models.Case, today time.Time, summaryType string, includeDeadlines, includeNextSteps bool) string {
	pending := pendingByDate(c, today)
	trial, hasTrial := trialDate(c)

	var b strings.Builder
	switch summaryType {
	case "client_update":
		writeClientUpdate(&b, c, today, pending, trial, hasTrial)
		includeDeadlines = false
	case "status_report":
		writeStatusReport(&b, c, today, pending, trial, hasTrial)
		includeDeadlines = false
	case "detailed":
		writeCaseHeader(&b, c, true)
		writeTrialLine(&b, c, today, trial, hasTrial)
	default:
		writeCaseHeader(&b, c, false)
		writeTrialLine(&b, c, today, trial, hasTrial)
		fmt.Fprintf(&b, "%d pending deadlines", len(pending))
		if next, ok := nextUpcoming(pending); ok {
			fmt.Fprintf(&b, ", next: %s on %s (%s)", next.Description, next.Date, next.when())
		}
		b.WriteString(".\n")
	}

	if includeDeadlines {
		writeDeadlines(&b, pending)
	}
	if includeNextSteps {
		if steps := nextSteps(c, today, pending, trial, hasTrial); len(steps) > 0 {
			b.WriteString("Suggested next steps:\n")
			for _, s := range steps {
				fmt.Fprintf(&b, "- %s\n", s)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func writeCaseHeader(b *strings.Builder, c *models.Case, detailed bool) {
	b.WriteString(c.CaseName)
	if c.CaseNumber != "" {
		fmt.Fprintf(b, " (%s)", c.CaseNumber)
	}
	if ct := models.Str(c.CaseType); ct != "" {
		fmt.Fprintf(b, ", %s", humanize(ct))
	}
	if client := models.Str(c.Client); client != "" {
		fmt.Fprintf(b, ", client %s", client)
	}
	b.WriteString(".\n")
	if !detailed {
		return
	}
	if court := models.Str(c.Court); court != "" {
		fmt.Fprintf(b, "Court: %s", court)
		if county := models.Str(c.CourtCounty); county != "" {
			fmt.Fprintf(b, ", %s County", county)
		}
		b.WriteString(".\n")
	}
	fmt.Fprintf(b, "Parties: %d plaintiff(s), %d defendant(s).\n", c.PlaintiffCount, c.DefendantCount)
	if msc := models.Str(c.MSCDate); msc != "" {
		fmt.Fprintf(b, "Mandatory settlement conference: %s.\n", msc)
	}
}

func writeTrialLine(b *strings.Builder, c *models.Case, today, trial time.Time, hasTrial bool) {
	if !hasTrial {
		b.WriteString("No trial date set.\n")
		return
	}
	fmt.Fprintf(b, "Trial: %s (%s).\n", models.Str(c.TrialDate), dayPhrase(rules.DaysBetween(today, trial)))
}

func writeStatusReport(b *strings.Builder, c *models.Case, today time.Time, pending []pendingDeadline, trial time.Time, hasTrial bool) {
	fmt.Fprintf(b, "Status report for %s as of %s.\n", c.CaseName, rules.FormatDate(today))
	writeTrialLine(b, c, today, trial, hasTrial)

	var overdue, soon []pendingDeadline
	for _, p := range pending {
		switch {
		case !p.dated:
		case p.days < 0:
			overdue = append(overdue, p)
		case p.days <= 30:
			soon = append(soon, p)
		}
	}
	if len(overdue) > 0 {
		fmt.Fprintf(b, "OVERDUE (%d):\n", len(overdue))
		for _, p := range overdue {
			fmt.Fprintf(b, "- %s: %s (%s)\n", p.Date, p.Description, p.when())
		}
	}
	if len(soon) > 0 {
		fmt.Fprintf(b, "Due in the next 30 days (%d):\n", len(soon))
		for _, p := range soon {
			fmt.Fprintf(b, "- %s: %s (%s)\n", p.Date, p.Description, p.when())
		}
	}
	if len(overdue) == 0 && len(soon) == 0 {
		b.WriteString("Nothing overdue and nothing due in the next 30 days.\n")
	}
	fmt.Fprintf(b, "%d deadlines pending in total.\n", len(pending))
}

func writeClientUpdate(b *strings.Builder, c *models.Case, today time.Time, pending []pendingDeadline, trial time.Time, hasTrial bool) {
	client := models.Str(c.Client)
	if client == "" {
		client = "client"
	}
	fmt.Fprintf(b, "Update for %s on %s.\n", client, c.CaseName)
	if hasTrial {
		fmt.Fprintf(b, "Your trial is scheduled for %s, %s from today.\n",
			trial.Format("January 2, 2006"), pluralDays(rules.DaysBetween(today, trial)))
	} else {
		b.WriteString("The court has not yet set a trial date.\n")
	}
	var upcoming int
	for _, p := range pending {
		if p.dated && p.days >= 0 && p.days <= 30 {
			upcoming++
		}
	}
	switch upcoming {
	case 0:
		b.WriteString("There are no filing deadlines in the next month.\n")
	case 1:
		b.WriteString("We have one deadline in the next month and are on track to meet it.\n")
	default:
		fmt.Fprintf(b, "We have %d deadlines in the next month and are working through them.\n", upcoming)
	}
}

func writeDeadlines(b *strings.Builder, pending []pendingDeadline) {
	if len(pending) == 0 {
		b.WriteString("No pending deadlines.\n")
		return
	}
	b.WriteString("Pending deadlines:\n")
	for i, p := range pending {
		if i == summaryDeadlineLimit {
			fmt.Fprintf(b, "- and %d more\n", len(pending)-summaryDeadlineLimit)
			break
		}
		fmt.Fprintf(b, "- %s: %s (%s)\n", p.Date, p.Description, p.when())
	}
}

// nextSteps derives follow-ups from the case's calendar
func nextSteps(c *models.Case, today time.Time, pending []pendingDeadline, trial time.Time, hasTrial bool) []string {
	var steps []string
	overdue := 0
	for _, p := range pending {
		if p.dated && p.days < 0 {
			overdue++
		}
	}
	if overdue > 0 {
		steps = append(steps, fmt.Sprintf("Resolve or mark complete %d overdue deadline(s)", overdue))
	}
	if next, ok := nextUpcoming(pending); ok {
		steps = append(steps, fmt.Sprintf("Prepare for %s due %s", next.Description, next.when()))
	}
	if !hasTrial {
		steps = append(steps, "Request a trial setting or case management conference to fix a trial date")
		return steps
	}
	if models.Str(c.MSCDate) == "" && rules.DaysBetween(today, trial) > 0 {
		steps = append(steps, "Calendar the mandatory settlement conference")
	}
	for _, m := range rules.TrialSchedule(trial, today) {
		if len(steps) >= nextStepLimit {
			break
		}
		steps = append(steps, fmt.Sprintf("%s by %s", m.Description, rules.FormatDate(m.Date)))
	}
	return steps
}

func nextUpcoming(pending []pendingDeadline) (pendingDeadline, bool) {
	for _, p := range pending {
		if p.dated && p.days >= 0 {
			return p, true
		}
	}
	return pendingDeadline{}, false
}

func pluralDays(n int) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d day", n)
	}
	return fmt.Sprintf("%d days", n)
}
