package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/repository"
	"skeptical-attorney-backend/rules"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxBillableHours   = 24
	factCutoffDays     = 30
	expertCutoffDays   = 15
	expertExchangeDay  = 50
	strategyMilestones = 8
)

// scopedCase returns the case a case-mode call is bound to
func scopedCase(call toolCall) (*models.Case, toolOutcome, bool) {
	if call.ac == nil || call.ac.Case == nil || call.ac.Case.Case == nil {
		return nil, fail("No case is selected."), false
	}
	return call.ac.Case.Case, toolOutcome{}, true
}

// reloadCase re-reads the scoped case so earlier tools in the same batch
// are visible
func (d *ToolDispatcher) reloadCase(ctx context.Context, call toolCall) (*models.Case, toolOutcome, bool) {
	c, out, ok := scopedCase(call)
	if !ok {
		return nil, out, false
	}
	fresh, err := d.cases.GetForOwner(ctx, call.ac.Principal.UserID, c.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fail("Case %s is no longer available.", c.CaseName), false
	}
	if err != nil {
		d.logger.Error("failed to reload case", zap.String("case_id", c.ID.String()), zap.Error(err))
		return nil, fail("Could not load %s right now.", c.CaseName), false
	}
	return fresh, toolOutcome{}, true
}

type deadlineArgs struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

func (a deadlineArgs) deadline(newID func() string) (models.Deadline, error) {
	date, err := requireDate("date", a.Date)
	if err != nil {
		return models.Deadline{}, err
	}
	desc, err := requireText("description", a.Description)
	if err != nil {
		return models.Deadline{}, err
	}
	return models.Deadline{ID: newID(), Date: date, Description: desc}, nil
}

func (d *ToolDispatcher) addDeadline(ctx context.Context, call toolCall) toolOutcome {
	c, out, ok := scopedCase(call)
	if !ok {
		return out
	}
	var args deadlineArgs
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	dl, err := args.deadline(d.newID)
	if err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	return d.appendDeadline(ctx, call, c, dl)
}

// appendDeadline persists dl on c and reports the DeadlineAdded action
func (d *ToolDispatcher) appendDeadline(ctx context.Context, call toolCall, c *models.Case, dl models.Deadline) toolOutcome {
	err := d.cases.AppendDeadline(ctx, call.ac.Principal.UserID, c.ID, dl)
	if errors.Is(err, repository.ErrNotFound) {
		return fail("Case %s is no longer available.", c.CaseName)
	}
	if err != nil {
		d.logger.Error("failed to append deadline", zap.String("case_id", c.ID.String()), zap.Error(err))
		return fail("Could not save the deadline to %s.", c.CaseName)
	}

	msg := fmt.Sprintf("Added deadline %q on %s to %s.", dl.Description, dl.Date, c.CaseName)
	if days, err := rules.DaysUntil(call.ac.Today, dl.Date); err == nil && days < 0 {
		msg += fmt.Sprintf(" Note that this date was %s.", dayPhrase(days))
	}
	return succeed(msg, models.DeadlineAddedAction{CaseID: c.ID, CaseName: c.CaseName, Deadline: dl})
}

func (d *ToolDispatcher) navigateToDocument(_ context.Context, call toolCall) toolOutcome {
	c, out, ok := scopedCase(call)
	if !ok {
		return out
	}
	var args struct {
		DocumentType string `json:"document_type"`
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	route, found := documentRoutes[args.DocumentType]
	if !found {
		return fail("Unknown document type %q. Valid types: %s.", args.DocumentType, strings.Join(documentTypeNames(), ", "))
	}
	return succeed(
		fmt.Sprintf("Opening the %s for %s.", route.label, c.CaseName),
		models.NavigateAction{
			URL:          fmt.Sprintf(route.template, c.ID.String()),
			DocumentType: args.DocumentType,
			CaseID:       c.ID,
		},
	)
}

func (d *ToolDispatcher) calculateDeadline(ctx context.Context, call toolCall) toolOutcome {
	c, out, ok := scopedCase(call)
	if !ok {
		return out
	}
	var args struct {
		DeadlineType  string `json:"deadline_type"`
		FromDate      string `json:"from_date"`
		AddToCalendar *bool  `json:"add_to_calendar"`
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	from, err := requireDate("from_date", args.FromDate)
	if err != nil {
		return fail("Invalid arguments: %v.", err)
	}

	comp, err := d.calc.Compute(args.DeadlineType, from)
	if errors.Is(err, rules.ErrUnknownDeadlineType) {
		return fail("Unknown deadline type %q. Valid types: %s.",
			args.DeadlineType, strings.Join(d.calc.Tables().DeadlineTypes(), ", "))
	}
	if err != nil {
		return fail("Could not calculate the deadline: %v.", err)
	}

	due := rules.FormatDate(comp.Due)
	msg := comp.Summary() + "."
	if days := rules.DaysBetween(call.ac.Today, comp.Due); days < 0 {
		msg += fmt.Sprintf(" This deadline was %s.", dayPhrase(days))
	} else {
		msg += fmt.Sprintf(" That is %s.", dayPhrase(days))
	}

	if !boolOr(args.AddToCalendar, true) {
		return succeed(msg)
	}

	dl := models.Deadline{
		ID:           d.newID(),
		Date:         due,
		Description:  fmt.Sprintf("%s (%s)", comp.Rule.Description, comp.Rule.Citation),
		IsCalculated: true,
	}
	added := d.appendDeadline(ctx, call, c, dl)
	if !added.success {
		return succeed(msg + " It could not be added to the calendar: " + added.message)
	}
	return succeed(msg+fmt.Sprintf(" Added to the %s calendar.", c.CaseName), added.actions...)
}

func (d *ToolDispatcher) analyzeCaseStrategy(ctx context.Context, call toolCall) toolOutcome {
	var args struct {
		FocusArea string `json:"focus_area"`
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	area, found := focusAreas[args.FocusArea]
	if !found {
		return fail("Unknown focus area %q. Valid areas: %s.", args.FocusArea, strings.Join(focusAreaNames(), ", "))
	}
	c, out, ok := d.reloadCase(ctx, call)
	if !ok {
		return out
	}
	today := call.ac.Today

	var b strings.Builder
	fmt.Fprintf(&b, "%s analysis for %s", area.label, c.CaseName)
	if ct := models.Str(c.CaseType); ct != "" {
		fmt.Fprintf(&b, " (%s)", humanize(ct))
	}
	b.WriteString(".\nConsiderations:\n")
	for _, item := range area.considerations {
		fmt.Fprintf(&b, "- %s\n", item)
	}

	if kw := focusKeywords(args.FocusArea); kw != nil {
		related := filterPending(pendingByDate(c, today), kw)
		if len(related) > 0 {
			b.WriteString("Related pending deadlines:\n")
			for _, p := range related {
				fmt.Fprintf(&b, "- %s: %s (%s)\n", p.Date, p.Description, p.when())
			}
		}
	}

	trial, hasTrial := trialDate(c)
	if !hasTrial {
		b.WriteString("No trial date is set, so pretrial milestones cannot be scheduled yet.")
		return succeed(strings.TrimSpace(b.String()))
	}
	fmt.Fprintf(&b, "Trial is set for %s (%s).\n", rules.FormatDate(trial), dayPhrase(rules.DaysBetween(today, trial)))

	n := 0
	for _, m := range rules.TrialSchedule(trial, today) {
		if !hasAnyTopic(m.PretrialMilestone, area.topics) {
			continue
		}
		if n == 0 {
			b.WriteString("Upcoming milestones:\n")
		}
		fmt.Fprintf(&b, "- %s: %s%s\n", rules.FormatDate(m.Date), m.Description, citeSuffix(m.Citation))
		n++
		if n == strategyMilestones {
			break
		}
	}
	if n == 0 {
		b.WriteString("No remaining pretrial milestones for this area.")
	}
	return succeed(strings.TrimSpace(b.String()))
}

func (d *ToolDispatcher) checkStatuteOfLimitations(_ context.Context, call toolCall) toolOutcome {
	var args struct {
		CaseType   string `json:"case_type"`
		DateOfLoss string `json:"date_of_loss"`
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	dateOfLoss, err := requireDate("date_of_loss", args.DateOfLoss)
	if err != nil {
		return fail("Invalid arguments: %v.", err)
	}

	res, err := d.calc.EvaluateLimitation(args.CaseType, dateOfLoss, call.ac.Today)
	if errors.Is(err, rules.ErrUnknownCaseType) {
		return fail("Unknown case type %q. Valid types: %s.",
			args.CaseType, strings.Join(d.calc.Tables().CaseTypes(), ", "))
	}
	if err != nil {
		return fail("Could not evaluate the statute of limitations: %v.", err)
	}

	expires := rules.FormatDate(res.ExpirationDate)
	base := fmt.Sprintf("The %d-year statute of limitations for %s (%s) on a loss dated %s runs on %s.",
		res.Rule.Years, humanize(args.CaseType), res.Rule.Citation, dateOfLoss, expires)

	switch res.Status {
	case rules.LimitationExpired:
		msg := fmt.Sprintf("%s It EXPIRED %d days ago. Confirm whether tolling, delayed discovery or another exception applies.",
			base, -res.DaysRemaining)
		return succeed(msg, models.AlertAction{
			Severity: models.SeverityHigh,
			Title:    "Statute of limitations expired",
			Message:  fmt.Sprintf("The %s limitations period expired on %s.", humanize(args.CaseType), expires),
		})
	case rules.LimitationCritical:
		return succeed(fmt.Sprintf("%s CRITICAL: only %d days remain. File immediately.", base, res.DaysRemaining))
	case rules.LimitationWarning:
		return succeed(fmt.Sprintf("%s Warning: %d days remain.", base, res.DaysRemaining))
	default:
		return succeed(fmt.Sprintf("%s %d days remain.", base, res.DaysRemaining))
	}
}

func (d *ToolDispatcher) suggestDiscovery(_ context.Context, call toolCall) toolOutcome {
	c, out, ok := scopedCase(call)
	if !ok {
		return out
	}
	var args struct {
		DiscoveryPhase string `json:"discovery_phase"`
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	phase, found := discoveryPhases[args.DiscoveryPhase]
	if !found {
		return fail("Unknown discovery phase %q. Valid phases: %s.",
			args.DiscoveryPhase, strings.Join(discoveryPhaseNames(), ", "))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s plan for %s:\n", phase.label, c.CaseName)
	for i, step := range phase.steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	trial, hasTrial := trialDate(c)
	if !hasTrial {
		b.WriteString("No trial date is set. Discovery cutoffs run from the trial date, so set one to schedule this work.")
		return succeed(strings.TrimSpace(b.String()))
	}

	today := call.ac.Today
	cutoff := trial.AddDate(0, 0, -factCutoffDays)
	if args.DiscoveryPhase == "expert_discovery" {
		exchange := trial.AddDate(0, 0, -expertExchangeDay)
		fmt.Fprintf(&b, "Expert exchange: %s (%s).\n", rules.FormatDate(exchange), dayPhrase(rules.DaysBetween(today, exchange)))
		cutoff = trial.AddDate(0, 0, -expertCutoffDays)
	}
	left := rules.DaysBetween(today, cutoff)
	fmt.Fprintf(&b, "Cutoff: %s (%s).", rules.FormatDate(cutoff), dayPhrase(left))
	switch {
	case left < 0:
		b.WriteString(" The cutoff has passed; further discovery needs a stipulation or leave of court.")
	case left <= 30:
		b.WriteString(" Responses to written discovery take 30 days plus service time, so serve anything remaining now.")
	}
	return succeed(b.String())
}

type billingArgs struct {
	Hours        *flexFloat `json:"hours"`
	Description  string     `json:"description"`
	TaskCategory string     `json:"task_category"`
}

func (d *ToolDispatcher) logBillingEntry(ctx context.Context, call toolCall) toolOutcome {
	c, out, ok := scopedCase(call)
	if !ok {
		return out
	}
	var args billingArgs
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	hours, desc, err := args.normalize()
	if err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	return d.recordBilling(ctx, call, c, hours, desc)
}

// normalize rounds hours to a tenth and prefixes the task category label
func (a billingArgs) normalize() (float64, string, error) {
	if a.Hours == nil {
		return 0, "", errors.New("hours is required")
	}
	hours := math.Round(float64(*a.Hours)*10) / 10
	if hours <= 0 || hours > maxBillableHours {
		return 0, "", fmt.Errorf("hours must be between 0.1 and %d, got %v", maxBillableHours, float64(*a.Hours))
	}
	desc, err := requireText("description", a.Description)
	if err != nil {
		return 0, "", err
	}
	if a.TaskCategory != "" {
		label, found := taskCategories[a.TaskCategory]
		if !found {
			return 0, "", fmt.Errorf("unknown task category %q, valid categories: %s",
				a.TaskCategory, strings.Join(taskCategoryNames(), ", "))
		}
		desc = fmt.Sprintf("[%s] %s", label, desc)
	}
	return hours, desc, nil
}

// recordBilling inserts an assistant-authored entry for c
func (d *ToolDispatcher) recordBilling(ctx context.Context, call toolCall, c *models.Case, hours float64, desc string) toolOutcome {
	caseID := c.ID
	entry := &models.BillingEntry{
		ID:            uuid.New(),
		UserID:        call.ac.Principal.UserID,
		CaseID:        &caseID,
		CaseName:      c.CaseName,
		Description:   desc,
		Hours:         hours,
		BillingDate:   rules.FormatDate(call.ac.Today),
		IsAIGenerated: true,
	}
	if err := d.billing.Create(ctx, entry); err != nil {
		d.logger.Error("failed to create billing entry", zap.String("case_id", c.ID.String()), zap.Error(err))
		return fail("Could not log time to %s.", c.CaseName)
	}
	return succeed(
		fmt.Sprintf("Logged %.1f hours to %s on %s: %s", hours, c.CaseName, entry.BillingDate, desc),
		models.BillingLoggedAction{EntryID: entry.ID, CaseID: c.ID, CaseName: c.CaseName, Hours: hours},
	)
}

func (d *ToolDispatcher) generateCaseSummary(ctx context.Context, call toolCall) toolOutcome {
	var args struct {
		SummaryType      string `json:"summary_type"`
		IncludeDeadlines *bool  `json:"include_deadlines"`
		IncludeNextSteps *bool  `json:"include_next_steps"`
	}
	if err := call.bind(&args); err != nil {
		return fail("Invalid arguments: %v.", err)
	}
	if _, found := summaryTypes[args.SummaryType]; !found {
		return fail("Unknown summary type %q. Valid types: %s.", args.SummaryType, strings.Join(summaryTypeNames(), ", "))
	}
	c, out, ok := d.reloadCase(ctx, call)
	if !ok {
		return out
	}
	return succeed(renderCaseSummary(c, call.ac.Today, args.SummaryType,
		boolOr(args.IncludeDeadlines, true), boolOr(args.IncludeNextSteps, true)))
}

// pendingDeadline is an incomplete deadline positioned relative to today
type pendingDeadline struct {
	models.Deadline
	days  int
	dated bool
}

func (p pendingDeadline) when() string {
	if !p.dated {
		return "date unreadable"
	}
	return dayPhrase(p.days)
}

// pendingByDate lists c's incomplete deadlines by date; unparseable dates go last
func pendingByDate(c *models.Case, today time.Time) []pendingDeadline {
	out := make([]pendingDeadline, 0, len(c.Deadlines))
	for _, dl := range c.Deadlines.Incomplete() {
		days, err := rules.DaysUntil(today, dl.Date)
		out = append(out, pendingDeadline{Deadline: dl, days: days, dated: err == nil})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].dated != out[j].dated {
			return out[i].dated
		}
		return out[i].days < out[j].days
	})
	return out
}

func filterPending(p []pendingDeadline, keywords []string) []pendingDeadline {
	var out []pendingDeadline
	for _, dl := range p {
		if containsAny(dl.Description, keywords) {
			out = append(out, dl)
		}
	}
	return out
}

func focusKeywords(area string) []string {
	switch area {
	case "discovery":
		return discoveryKeywords
	case "motions":
		return motionKeywords
	}
	return nil
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func hasAnyTopic(m rules.PretrialMilestone, topics []string) bool {
	for _, t := range topics {
		if m.HasTopic(t) {
			return true
		}
	}
	return false
}

func trialDate(c *models.Case) (time.Time, bool) {
	t, err := rules.ParseDate(models.Str(c.TrialDate))
	return t, err == nil
}

func citeSuffix(citation string) string {
	if citation == "" {
		return ""
	}
	return " (" + citation + ")"
}

// dayPhrase renders a day offset from today
func dayPhrase(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

func humanize(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
