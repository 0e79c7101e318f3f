package service

import (
	"sort"

	"skeptical-attorney-backend/rules"
)

type documentRoute struct {
	label    string
	template string // %s is the case id
}

var documentRoutes = map[string]documentRoute{
	"case_overview":        {"case overview", "/dashboard/cases/%s"},
	"litigation_planning":  {"litigation planning", "/dashboard/cases/%s/litigation-planning"},
	"discovery":            {"discovery center", "/dashboard/cases/%s/discovery"},
	"interrogatories":      {"special interrogatories", "/dashboard/cases/%s/discovery/interrogatories"},
	"discovery_responses":  {"discovery responses", "/dashboard/cases/%s/discovery/responses"},
	"form_interrogatories": {"form interrogatories", "/services/discovery/form-interrogatories?caseId=%s"},
	"meet_and_confer":      {"meet and confer letter", "/services/discovery/meet-and-confer?caseId=%s"},
	"complaint":            {"complaint drafting", "/services/pleadings/complaint?caseId=%s"},
	"answer":               {"answer drafting", "/services/pleadings/answer?caseId=%s"},
	"deposition":           {"deposition outlines", "/services/deposition?caseId=%s"},
}

func documentTypeNames() []string { return sortedKeys(documentRoutes) }

type focusArea struct {
	label          string
	topics         []string
	considerations []string
}

var focusAreas = map[string]focusArea{
	"liability": {
		label:  "Liability",
		topics: []string{rules.TopicDiscovery, rules.TopicExperts},
		considerations: []string{
			"Identify each element of every cause of action and the evidence that proves it",
			"Pin down the opposing party's version of events through special interrogatories and RFAs",
			"Confirm whether expert testimony is needed on standard of care or causation",
			"Evaluate comparative fault and affirmative defenses",
		},
	},
	"damages": {
		label:  "Damages",
		topics: []string{rules.TopicDamages, rules.TopicExperts},
		considerations: []string{
			"Gather medical bills, wage loss records and receipts supporting economic damages",
			"Distinguish amounts billed from amounts paid for past medical expenses",
			"Consider retaining an economist or life care planner for future damages",
			"Serve a statement of damages where punitive or personal injury damages are claimed",
		},
	},
	"discovery": {
		label:  "Discovery",
		topics: []string{rules.TopicDiscovery},
		considerations: []string{
			"Track response due dates and the 45-day window for motions to compel further",
			"Meet and confer in writing before any discovery motion",
			"Schedule depositions of key witnesses well before the discovery cutoff",
			"Supplement prior responses before trial",
		},
	},
	"motions": {
		label:  "Motions",
		topics: []string{rules.TopicMotions},
		considerations: []string{
			"Reserve hearing dates early, summary judgment calendars fill months out",
			"Summary judgment requires 75 days' notice plus service extensions",
			"Oppositions are due 9 court days and replies 5 court days before the hearing",
			"Evaluate motions in limine and bifurcation ahead of trial",
		},
	},
	"settlement": {
		label:  "Settlement",
		topics: []string{rules.TopicSettlement},
		considerations: []string{
			"Assess settlement value against litigation cost through trial",
			"Consider a CCP § 998 offer to shift costs",
			"Prepare a mediation or settlement conference brief",
			"Confirm client authority before any conference",
		},
	},
	"trial_preparation": {
		label:  "Trial preparation",
		topics: []string{rules.TopicTrial, rules.TopicExperts},
		considerations: []string{
			"Prepare witness and exhibit lists and exchange them as local rules require",
			"Draft jury instructions, verdict forms and motions in limine",
			"Subpoena witnesses and confirm expert availability",
			"Prepare opening, direct and cross outlines",
		},
	},
}

func focusAreaNames() []string { return sortedKeys(focusAreas) }

type discoveryPhase struct {
	label string
	steps []string
}

var discoveryPhases = map[string]discoveryPhase{
	"written_discovery": {
		label: "Written discovery",
		steps: []string{
			"Serve Judicial Council form interrogatories (DISC-001)",
			"Serve special interrogatories, limited to 35 without a declaration (CCP § 2030.030)",
			"Serve requests for production of documents (CCP § 2031.010)",
			"Serve requests for admission, limited to 35 beyond genuineness of documents (CCP § 2033.030)",
			"Calendar responses 30 days after service plus any service extension",
		},
	},
	"depositions": {
		label: "Depositions",
		steps: []string{
			"Notice party depositions at least 10 days ahead (CCP § 2025.270(a))",
			"Subpoena non-party witnesses and serve consumer notices for records (CCP § 1985.3)",
			"Remember the 7-hour limit for most depositions (CCP § 2025.290)",
			"Prepare your own client before their deposition",
		},
	},
	"expert_discovery": {
		label: "Expert discovery",
		steps: []string{
			"Serve a demand for exchange of expert information (CCP § 2034.220)",
			"Exchange designations 50 days before trial or 20 days after the demand (CCP § 2034.230)",
			"Serve any supplemental expert list within 20 days of the exchange (CCP § 2034.280)",
			"Depose opposing experts before the expert cutoff",
		},
	},
	"subpoenas": {
		label: "Third-party subpoenas",
		steps: []string{
			"Identify custodians of records for medical, employment and insurance files",
			"Serve deposition subpoenas for business records with consumer notice (CCP § 1985.3)",
			"Allow time for objections and motions to quash before the cutoff",
		},
	},
	"motions_to_compel": {
		label: "Motions to compel",
		steps: []string{
			"Send a detailed meet and confer letter identifying each deficient response",
			"File motions to compel further within 45 days of verified responses (CCP §§ 2030.300(c), 2031.310(c), 2033.290(c))",
			"Include a separate statement under CRC 3.1345",
			"Discovery motions must be heard 15 days before trial",
		},
	},
}

func discoveryPhaseNames() []string { return sortedKeys(discoveryPhases) }

var taskCategories = map[string]string{
	"research":         "Research",
	"drafting":         "Drafting",
	"correspondence":   "Correspondence",
	"court_appearance": "Court Appearance",
	"discovery":        "Discovery",
	"deposition":       "Deposition",
	"meeting":          "Meeting",
	"review":           "Review",
}

func taskCategoryNames() []string { return sortedKeys(taskCategories) }

var summaryTypes = map[string]string{
	"brief":         "Brief summary",
	"detailed":      "Detailed summary",
	"status_report": "Status report",
	"client_update": "Client update",
}

func summaryTypeNames() []string { return sortedKeys(summaryTypes) }

var workloadHorizons = map[string]int{
	"this_week":      7,
	"next_two_weeks": 14,
	"this_month":     30,
	"next_quarter":   90,
}

var searchHorizons = map[string]int{
	"this_week":    7,
	"this_month":   30,
	"next_quarter": 90,
}

// horizonNames orders horizon keys by their length in days
func horizonNames(m map[string]int) []string {
	keys := sortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool { return m[keys[i]] < m[keys[j]] })
	return keys
}

var searchTypes = map[string]string{
	"overdue_deadlines":   "Overdue deadlines",
	"upcoming_deadlines":  "Upcoming deadlines",
	"upcoming_trials":     "Upcoming trials",
	"missing_trial_date":  "Cases without a trial date",
	"discovery_deadlines": "Discovery deadlines",
	"motion_deadlines":    "Motion deadlines",
}

func searchTypeNames() []string { return sortedKeys(searchTypes) }

var billingPeriods = map[string]string{
	"this_week":  "This week",
	"this_month": "This month",
	"last_month": "Last month",
	"this_year":  "This year",
}

func billingPeriodNames() []string { return sortedKeys(billingPeriods) }

var billingFormats = map[string]string{
	"summary":  "Summary",
	"detailed": "Detailed",
	"by_case":  "By case",
	"by_day":   "By day",
}

func billingFormatNames() []string { return sortedKeys(billingFormats) }

var (
	discoveryKeywords = []string{"discovery", "interrogator", "rog", "rfa", "admission", "rfp", "production", "deposition", "depo", "subpoena", "expert", "meet and confer"}
	motionKeywords    = []string{"motion", "msj", "summary judgment", "demurrer", "opposition", "reply", "hearing", "in limine", "compel"}
)
