package rules

import (
	"sort"
	"time"
)

// Topic tags used to group pretrial milestones
const (
	TopicDiscovery  = "discovery"
	TopicExperts    = "experts"
	TopicMotions    = "motions"
	TopicSettlement = "settlement"
	TopicDamages    = "damages"
	TopicTrial      = "trial"
)

// PretrialMilestone is a task measured backwards from the trial date
type PretrialMilestone struct {
	DaysBeforeTrial int
	CourtDays       bool
	Description     string
	Citation        string
	Topics          []string
}

// ScheduledMilestone is a milestone resolved against a concrete trial date
type ScheduledMilestone struct {
	PretrialMilestone
	Date      time.Time
	DaysUntil int
}

// HasTopic reports whether the milestone is tagged with topic
func (m PretrialMilestone) HasTopic(topic string) bool {
	for _, t := range m.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

var pretrialMilestones = []PretrialMilestone{
	{150, false, "Confirm experts are retained and have the documents they need", "", []string{TopicExperts}},
	{150, false, "Reserve a summary judgment hearing date", "CCP § 437c(a)", []string{TopicMotions}},
	{120, false, "Demand and schedule defense medical exam if appropriate", "CCP §§ 2032.220, 2032.230", []string{TopicDiscovery, TopicDamages}},
	{105, false, "Last day to serve summary judgment motion by mail", "CCP §§ 437c(a), 1005(b)", []string{TopicMotions}},
	{75, false, "Last day to personally serve summary judgment motion", "CCP § 437c(a)", []string{TopicMotions}},
	{70, false, "Demand for exchange of expert witness information due", "CCP § 2034.220", []string{TopicExperts, TopicDiscovery}},
	{65, false, "Last day to mail serve requests for admission", "CCP §§ 2024.020, 2033.280", []string{TopicDiscovery}},
	{65, false, "Serve supplemental interrogatories and requests for production by mail", "CCP §§ 2030.070, 2031.050", []string{TopicDiscovery}},
	{60, false, "Last day to serve statement of damages", "CCP § 425.11", []string{TopicDamages}},
	{60, false, "Review client's discovery responses and supplement if necessary", "", []string{TopicDiscovery}},
	{60, false, "Personally serve deposition subpoenas on non-party witnesses", "CCP §§ 1985.3, 2025.270", []string{TopicDiscovery}},
	{50, false, "Exchange expert witness designations", "CCP § 2034.230", []string{TopicExperts}},
	{45, false, "All party and non-party depositions should be underway", "CCP § 2025.270", []string{TopicDiscovery}},
	{30, false, "Fact discovery cutoff", "CCP § 2024.020(a)", []string{TopicDiscovery}},
	{30, false, "Last day for summary judgment hearing", "CCP § 437c(a)", []string{TopicMotions}},
	{30, false, "Last day for hearing on motion to sever or bifurcate", "CCP § 598", []string{TopicMotions, TopicTrial}},
	{30, false, "Serve supplemental expert witness list", "CCP § 2034.280(a)", []string{TopicExperts}},
	{30, false, "Prepare trial brief, opening, closing and voir dire", "", []string{TopicTrial}},
	{30, false, "Meet with witnesses to prepare them for trial", "", []string{TopicTrial}},
	{20, false, "Serve notice of trial date", "CCP § 594", []string{TopicTrial}},
	{20, false, "Serve subpoenas on non-party witnesses without documents", "CCP § 1985", []string{TopicTrial}},
	{15, false, "Last day for discovery motions to be heard", "CCP § 2024.020(a)", []string{TopicDiscovery, TopicMotions}},
	{15, false, "Expert discovery cutoff", "CCP § 2024.030", []string{TopicExperts, TopicDiscovery}},
	{15, false, "Last day to mail serve a 998 offer", "CCP § 998", []string{TopicSettlement}},
	{10, false, "Last day to personally serve a 998 offer", "CCP § 998", []string{TopicSettlement}},
	{10, false, "Last day for expert discovery motions to be heard", "CCP § 2024.030", []string{TopicExperts, TopicMotions}},
	{5, true, "Last court day to stipulate to continue trial without good cause", "", []string{TopicTrial}},
	{1, false, "Deliver proposed jury instructions before the first witness is sworn", "CCP § 607a", []string{TopicTrial}},
}

// TrialSchedule resolves the pretrial milestones for trial that fall on or
// after today, ordered by date.
func TrialSchedule(trial, today time.Time) []ScheduledMilestone {
	out := make([]ScheduledMilestone, 0, len(pretrialMilestones))
	for _, m := range pretrialMilestones {
		var date time.Time
		if m.CourtDays {
			date = AddCourtDays(trial, -m.DaysBeforeTrial)
		} else {
			date = trial.AddDate(0, 0, -m.DaysBeforeTrial)
		}
		days := DaysBetween(today, date)
		if days < 0 {
			continue
		}
		out = append(out, ScheduledMilestone{PretrialMilestone: m, Date: date, DaysUntil: days})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
