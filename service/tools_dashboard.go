package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/rules"

	"go.uber.org/zap"
)

const (
	briefingTrialDays   = 30
	maxConflictSpanDays = 366
	searchResultLimit   = 25
	detailedEntryLimit  = 50
	heavyWeekDeadlines  = 10
	moderateWeekLoad    = 5
)

// ownedCases lists the principal's cases fresh from storage
func (d *ToolDispatcher) ownedCases(ctx context.Context, call toolCall) ([]*models.Case, toolOutcome, bool) {
	cases, err := d.cases.ListByOwner(ctx, call.ac.Principal.UserID)
	if err != nil {
		d.logger.Error("failed to list cases", zap.String("user_id", call.ac.Principal.UserID.String()), zap.Error(err))
		return nil, fail("Could not load your cases right now."), false
	}
	owned := cases[:0:0]
	for _, c := range cases {
		if c.UserID == call.ac.Principal.UserID {
			owned = append(owned, c)
		}
	}
	return owned, toolOutcome{}, true
}

// resolveOwnedCase finds the principal's case named by identifier
func (d *ToolDispatcher) resolveOwnedCase(ctx context.Context, call toolCall, identifier string) (*models.Case, toolOutcome, bool) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fail("Invalid arguments: case_identifier is required."), false
	}
	cases, out, ok := d.ownedCases(ctx, call)
	if !ok {
		return nil, out, false
	}
	c, err := ResolveCase(cases, identifier)
	if err != nil {
		return nil, fail("%s", resolutionFailure(identifier, cases, err)), false
	}
	return c, toolOutcome{}, true
}

func (d *ToolDispatcher) addDeadlineToCase(ctx context.Context, call toolCall) toolOutcome {
	var args struct {
		CaseIdentifier string `json:"case_identifier"`
		deadlineArgs
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	dl, err := args.deadline(d.newID)
	if err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	c, out, ok := d.resolveOwnedCase(ctx, call, args.CaseIdentifier)
	if !ok {
		return out
	}
	return d.appendDeadline(ctx, call, c, dl)
}

// datedItem is a deadline or court date attached to a case
type datedItem struct {
	caseName    string
	date        string
	description string
	days        int
}

func (i datedItem) line() string {
	return fmt.Sprintf("- %s: %s, %s (%s)", i.date, i.caseName, i.description, dayPhrase(i.days))
}

// collectDeadlines gathers the incomplete, readable deadlines of cases
// with keep applied, ordered by date
func collectDeadlines(cases []*models.Case, today time.Time, keep func(days int, dl models.Deadline) bool) []datedItem {
	var out []datedItem
	for _, c := range cases {
		for _, dl := range c.Deadlines.Incomplete() {
			days, err := rules.DaysUntil(today, dl.Date)
			if err != nil || !keep(days, dl) {
				continue
			}
			out = append(out, datedItem{caseName: c.CaseName, date: dl.Date, description: dl.Description, days: days})
		}
	}
	sortItems(out)
	return out
}

// collectTrials gathers trial dates falling in [0, horizon] days
func collectTrials(cases []*models.Case, today time.Time, horizon int) []datedItem {
	var out []datedItem
	for _, c := range cases {
		trial, ok := trialDate(c)
		if !ok {
			continue
		}
		days := rules.DaysBetween(today, trial)
		if days < 0 || days > horizon {
			continue
		}
		out = append(out, datedItem{caseName: c.CaseName, date: rules.FormatDate(trial), description: "Trial", days: days})
	}
	sortItems(out)
	return out
}

func sortItems(items []datedItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].days < items[j].days })
}

func writeItems(b *strings.Builder, title string, items []datedItem, limit int) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n", title, len(items))
	for i, it := range items {
		if limit > 0 && i == limit {
			fmt.Fprintf(b, "- and %d more\n", len(items)-limit)
			break
		}
		b.WriteString(it.line())
		b.WriteString("\n")
	}
}

func (d *ToolDispatcher) getMorningBriefing(ctx context.Context, call toolCall) toolOutcome {
	var args struct {
		IncludeWeekAhead *bool `json:"include_week_ahead"`
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	cases, out, ok := d.ownedCases(ctx, call)
	if !ok {
		return out
	}
	today := call.ac.Today

	overdue := collectDeadlines(cases, today, func(days int, _ models.Deadline) bool { return days < 0 })
	dueToday := collectDeadlines(cases, today, func(days int, _ models.Deadline) bool { return days == 0 })
	trials := collectTrials(cases, today, briefingTrialDays)

	var b strings.Builder
	fmt.Fprintf(&b, "Briefing for %s, %s. %d active cases.\n",
		call.ac.Principal.DisplayName(), today.Format("Monday, January 2, 2006"), len(cases))
	writeItems(&b, "OVERDUE", overdue, searchResultLimit)
	writeItems(&b, "Due today", dueToday, 0)
	if boolOr(args.IncludeWeekAhead, true) {
		week := collectDeadlines(cases, today, func(days int, _ models.Deadline) bool { return days >= 1 && days <= 7 })
		writeItems(&b, "This week", week, searchResultLimit)
		if len(week) == 0 {
			b.WriteString("Nothing else is due in the next 7 days.\n")
		}
	}
	writeItems(&b, "Trials within 30 days", trials, 0)
	if len(overdue) == 0 && len(dueToday) == 0 {
		b.WriteString("Nothing is overdue or due today.")
	}
	return succeed(strings.TrimSpace(b.String()))
}

func (d *ToolDispatcher) analyzeWorkload(ctx context.Context, call toolCall) toolOutcome {
	var args struct {
		TimeHorizon string `json:"time_horizon"`
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	horizon, found := workloadHorizons[args.TimeHorizon]
	if !found {
		return fail("Unknown time horizon %q. Valid horizons: %s.",
			args.TimeHorizon, strings.Join(horizonNames(workloadHorizons), ", "))
	}
	cases, out, ok := d.ownedCases(ctx, call)
	if !ok {
		return out
	}
	today := call.ac.Today

	due := collectDeadlines(cases, today, func(days int, _ models.Deadline) bool { return days >= 0 && days <= horizon })
	overdue := collectDeadlines(cases, today, func(days int, _ models.Deadline) bool { return days < 0 })
	trials := collectTrials(cases, today, horizon)

	perCase := map[string]int{}
	perDate := map[string]int{}
	for _, it := range due {
		perCase[it.caseName]++
		perDate[it.date]++
	}

	weekly := float64(len(due)) * 7 / float64(horizon)
	level := "light"
	switch {
	case weekly >= heavyWeekDeadlines || len(trials) > 1:
		level = "heavy"
	case weekly >= moderateWeekLoad || len(trials) == 1:
		level = "moderate"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Workload for %s (%d days from %s): %s.\n",
		humanize(args.TimeHorizon), horizon, rules.FormatDate(today), level)
	fmt.Fprintf(&b, "%d deadlines due (about %.1f per week), %d overdue, %d trials.\n",
		len(due), weekly, len(overdue), len(trials))

	if len(perCase) > 0 {
		b.WriteString("By case:\n")
		for _, name := range rankByCount(perCase) {
			fmt.Fprintf(&b, "- %s: %d\n", name, perCase[name])
		}
	}
	var busy []string
	for date, n := range perDate {
		if n >= 3 {
			busy = append(busy, fmt.Sprintf("%s (%d deadlines)", date, n))
		}
	}
	sort.Strings(busy)
	if len(busy) > 0 {
		fmt.Fprintf(&b, "Busiest days: %s.\n", strings.Join(busy, ", "))
	}
	writeItems(&b, "Trials", trials, 0)
	if len(overdue) > 0 {
		b.WriteString("Clear the overdue items first; they are not counted in the horizon.")
	}
	return succeed(strings.TrimSpace(b.String()))
}

func rankByCount(m map[string]int) []string {
	keys := sortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool { return m[keys[i]] > m[keys[j]] })
	return keys
}

func (d *ToolDispatcher) checkConflicts(ctx context.Context, call toolCall) toolOutcome {
	var args struct {
		Start string `json:"date_range_start"`
		End   string `json:"date_range_end"`
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	start, err := requireDate("date_range_start", args.Start)
	if err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	end, err := requireDate("date_range_end", args.End)
	if err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	from, _ := rules.ParseDate(start)
	to, _ := rules.ParseDate(end)
	span := rules.DaysBetween(from, to)
	if span < 0 {
		return fail("Invalid arguments: date_range_end %s is before date_range_start %s.", end, start)
	}
	if span > maxConflictSpanDays {
		return fail("Invalid arguments: the range may span at most %d days, got %d.", maxConflictSpanDays, span)
	}

	cases, out, ok := d.ownedCases(ctx, call)
	if !ok {
		return out
	}
	today := call.ac.Today
	inRange := func(t time.Time) bool { return !t.Before(from) && !t.After(to) }

	byDate := map[string][]datedItem{}
	add := func(c *models.Case, t time.Time, what string) {
		if !inRange(t) {
			return
		}
		key := rules.FormatDate(t)
		byDate[key] = append(byDate[key], datedItem{
			caseName: c.CaseName, date: key, description: what, days: rules.DaysBetween(today, t),
		})
	}
	events := 0
	for _, c := range cases {
		if t, ok := trialDate(c); ok {
			add(c, t, "Trial")
		}
		if t, err := rules.ParseDate(models.Str(c.MSCDate)); err == nil {
			add(c, t, "Mandatory settlement conference")
		}
		for _, dl := range c.Deadlines.Incomplete() {
			if t, err := rules.ParseDate(dl.Date); err == nil {
				add(c, t, dl.Description)
			}
		}
	}

	var b strings.Builder
	conflicts := 0
	for _, date := range sortedKeys(byDate) {
		items := byDate[date]
		events += len(items)
		if len(items) < 2 {
			continue
		}
		conflicts++
		courtDates := 0
		for _, it := range items {
			if it.description == "Trial" || it.description == "Mandatory settlement conference" {
				courtDates++
			}
		}
		fmt.Fprintf(&b, "%s: %d items", date, len(items))
		if courtDates > 1 {
			b.WriteString(", DOUBLE-BOOKED court appearances")
		}
		b.WriteString("\n")
		for _, it := range items {
			fmt.Fprintf(&b, "  - %s: %s\n", it.caseName, it.description)
		}
	}
	if conflicts == 0 {
		return succeed(fmt.Sprintf("No conflicts between %s and %s (%d dated items checked).", start, end, events))
	}
	return succeed(fmt.Sprintf("%d conflicting dates between %s and %s:\n%s", conflicts, start, end, strings.TrimSpace(b.String())))
}

func (d *ToolDispatcher) crossCaseSearch(ctx context.Context, call toolCall) toolOutcome {
	var args struct {
		SearchType string `json:"search_type"`
		TimeFilter string `json:"time_filter"`
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	label, found := searchTypes[args.SearchType]
	if !found {
		return fail("Unknown search type %q. Valid types: %s.", args.SearchType, strings.Join(searchTypeNames(), ", "))
	}
	if args.TimeFilter == "" {
		args.TimeFilter = "this_month"
	}
	horizon, found := searchHorizons[args.TimeFilter]
	if !found {
		return fail("Unknown time filter %q. Valid filters: %s.",
			args.TimeFilter, strings.Join(horizonNames(searchHorizons), ", "))
	}
	cases, out, ok := d.ownedCases(ctx, call)
	if !ok {
		return out
	}
	today := call.ac.Today
	upcoming := func(days int) bool { return days >= 0 && days <= horizon }

	var items []datedItem
	switch args.SearchType {
	case "overdue_deadlines":
		items = collectDeadlines(cases, today, func(days int, _ models.Deadline) bool { return days < 0 })
	case "upcoming_deadlines":
		items = collectDeadlines(cases, today, func(days int, _ models.Deadline) bool { return upcoming(days) })
	case "upcoming_trials":
		items = collectTrials(cases, today, horizon)
	case "discovery_deadlines":
		items = collectDeadlines(cases, today, func(days int, dl models.Deadline) bool {
			return upcoming(days) && containsAny(dl.Description, discoveryKeywords)
		})
	case "motion_deadlines":
		items = collectDeadlines(cases, today, func(days int, dl models.Deadline) bool {
			return upcoming(days) && containsAny(dl.Description, motionKeywords)
		})
	case "missing_trial_date":
		var names []string
		for _, c := range cases {
			if _, ok := trialDate(c); !ok {
				names = append(names, c.CaseName)
			}
		}
		if len(names) == 0 {
			return succeed("Every case has a trial date.")
		}
		return succeed(fmt.Sprintf("%s (%d): %s.", label, len(names), strings.Join(names, ", ")))
	}

	window := fmt.Sprintf("within %s", humanize(args.TimeFilter))
	if args.SearchType == "overdue_deadlines" {
		window = "as of " + rules.FormatDate(today)
	}
	if len(items) == 0 {
		return succeed(fmt.Sprintf("No %s found %s.", strings.ToLower(label), window))
	}
	var b strings.Builder
	writeItems(&b, fmt.Sprintf("%s %s", label, window), items, searchResultLimit)
	return succeed(strings.TrimSpace(b.String()))
}

func (d *ToolDispatcher) logBillingToCase(ctx context.Context, call toolCall) toolOutcome {
	var args struct {
		CaseIdentifier string `json:"case_identifier"`
		billingArgs
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	hours, desc, err := args.normalize()
	if err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	c, out, ok := d.resolveOwnedCase(ctx, call, args.CaseIdentifier)
	if !ok {
		return out
	}
	return d.recordBilling(ctx, call, c, hours, desc)
}

// billingRange returns the inclusive YYYY-MM-DD bounds of period as of today
func billingRange(period string, today time.Time) (string, string, bool) {
	switch period {
	case "this_week":
		offset := (int(today.Weekday()) + 6) % 7 // weeks start on Monday
		return rules.FormatDate(today.AddDate(0, 0, -offset)), rules.FormatDate(today), true
	case "this_month":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return rules.FormatDate(first), rules.FormatDate(today), true
	case "last_month":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return rules.FormatDate(first.AddDate(0, -1, 0)), rules.FormatDate(first.AddDate(0, 0, -1)), true
	case "this_year":
		first := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return rules.FormatDate(first), rules.FormatDate(today), true
	}
	return "", "", false
}

func (d *ToolDispatcher) generateBillingSummary(ctx context.Context, call toolCall) toolOutcome {
	var args struct {
		Period           string `json:"period"`
		Format           string `json:"format"`
		IncludeAIEntries *bool  `json:"include_ai_entries"`
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	from, to, found := billingRange(args.Period, call.ac.Today)
	if !found {
		return fail("Unknown period %q. Valid periods: %s.", args.Period, strings.Join(billingPeriodNames(), ", "))
	}
	if _, found := billingFormats[args.Format]; !found {
		return fail("Unknown format %q. Valid formats: %s.", args.Format, strings.Join(billingFormatNames(), ", "))
	}

	all, err := d.billing.ListByOwner(ctx, call.ac.Principal.UserID, from, to)
	if err != nil {
		d.logger.Error("failed to list billing entries", zap.String("user_id", call.ac.Principal.UserID.String()), zap.Error(err))
		return fail("Could not load billing entries right now.")
	}
	includeAI := boolOr(args.IncludeAIEntries, true)
	entries := make([]*models.BillingEntry, 0, len(all))
	for _, e := range all {
		if e.UserID != call.ac.Principal.UserID {
			continue
		}
		if !includeAI && e.IsAIGenerated {
			continue
		}
		entries = append(entries, e)
	}

	var total, aiHours, amount float64
	perCase := map[string]float64{}
	perDay := map[string]float64{}
	for _, e := range entries {
		total += e.Hours
		if e.IsAIGenerated {
			aiHours += e.Hours
		}
		if e.Amount != nil {
			amount += *e.Amount
		}
		name := e.CaseName
		if name == "" {
			name = "Unassigned"
		}
		perCase[name] += e.Hours
		perDay[e.BillingDate] += e.Hours
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s to %s): %.1f hours across %d entries and %d cases.\n",
		billingPeriods[args.Period], from, to, total, len(entries), len(perCase))
	if len(entries) == 0 {
		b.WriteString("No time has been recorded for this period.\n")
	}

	switch args.Format {
	case "detailed":
		for i, e := range entries {
			if i == detailedEntryLimit {
				fmt.Fprintf(&b, "- and %d more entries\n", len(entries)-detailedEntryLimit)
				break
			}
			fmt.Fprintf(&b, "- %s | %s | %.1f h | %s\n", e.BillingDate, e.CaseName, e.Hours, e.Description)
		}
	case "by_case":
		names := sortedKeys(perCase)
		sort.SliceStable(names, func(i, j int) bool { return perCase[names[i]] > perCase[names[j]] })
		for _, name := range names {
			fmt.Fprintf(&b, "- %s: %.1f h\n", name, perCase[name])
		}
	case "by_day":
		for _, day := range sortedKeys(perDay) {
			fmt.Fprintf(&b, "- %s: %.1f h\n", day, perDay[day])
		}
	}

	if includeAI && aiHours > 0 {
		fmt.Fprintf(&b, "%.1f of those hours were logged through the assistant.\n", aiHours)
	}
	if amount > 0 {
		fmt.Fprintf(&b, "Billed amount: $%.2f.\n", amount)
	}
	if goal := call.ac.Principal.BillingGoal; goal != "" {
		fmt.Fprintf(&b, "Billing goal: %s.\n", goal)
	}
	return succeed(strings.TrimSpace(b.String()))
}

func (d *ToolDispatcher) generateCaseSummaryForCase(ctx context.Context, call toolCall) toolOutcome {
	var args struct {
		CaseIdentifier   string `json:"case_identifier"`
		SummaryType      string `json:"summary_type"`
		IncludeDeadlines *bool  `json:"include_deadlines"`
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	if _, found := summaryTypes[args.SummaryType]; !found {
		return fail("Unknown summary type %q. Valid types: %s.", args.SummaryType, strings.Join(summaryTypeNames(), ", "))
	}
	c, out, ok := d.resolveOwnedCase(ctx, call, args.CaseIdentifier)
	if !ok {
		return out
	}
	return succeed(renderCaseSummary(c, call.ac.Today, args.SummaryType, boolOr(args.IncludeDeadlines, true), true))
}
