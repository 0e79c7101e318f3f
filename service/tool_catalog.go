package service

import (
	"sort"

	"skeptical-attorney-backend/llm"
	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/rules"
)

// ToolID enumerates every tool the assistant can dispatch
type ToolID int

const (
	toolInvalid ToolID = iota

	// case mode
	ToolAddDeadline
	ToolNavigateToDocument
	ToolCalculateDeadline
	ToolAnalyzeCaseStrategy
	ToolCheckStatuteOfLimitations
	ToolSuggestDiscovery
	ToolLogBillingEntry
	ToolGenerateCaseSummary

	// dashboard mode
	ToolAddDeadlineToCase
	ToolGetMorningBriefing
	ToolAnalyzeWorkload
	ToolCheckConflicts
	ToolCrossCaseSearch
	ToolLogBillingToCase
	ToolGenerateBillingSummary
	ToolGenerateCaseSummaryForCase

	toolCount
)

// AllTools lists every valid ToolID in declaration order
func AllTools() []ToolID {
	ids := make([]ToolID, 0, int(toolCount)-1)
	for id := toolInvalid + 1; id < toolCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

type toolSpec struct {
	name        string
	mode        models.Mode
	description string
	params      func(t *rules.Tables) *llm.Schema
}

var toolSpecs = map[ToolID]toolSpec{
	ToolAddDeadline: {
		name: "add_deadline", mode: models.ModeCase,
		description: "Add a deadline to the current case's calendar.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"date", "description"},
				prop("date", str("Deadline date in YYYY-MM-DD format")),
				prop("description", str("What is due")),
			)
		},
	},
	ToolNavigateToDocument: {
		name: "navigate_to_document", mode: models.ModeCase,
		description: "Open a document or workflow page for the current case.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"document_type"},
				prop("document_type", enum("Page to open", documentTypeNames()...)),
			)
		},
	},
	ToolCalculateDeadline: {
		name: "calculate_deadline", mode: models.ModeCase,
		description: "Calculate a procedural deadline from a trigger date using the jurisdiction's rules, and add it to the case calendar unless add_to_calendar is false.",
		params: func(t *rules.Tables) *llm.Schema {
			return object([]string{"deadline_type", "from_date"},
				prop("deadline_type", enum("Procedural deadline to calculate", t.DeadlineTypes()...)),
				prop("from_date", str("Trigger date (service, filing or hearing) in YYYY-MM-DD format")),
				prop("add_to_calendar", boolean("Add the result to the case calendar, default true")),
			)
		},
	},
	ToolAnalyzeCaseStrategy: {
		name: "analyze_case_strategy", mode: models.ModeCase,
		description: "Review the current case's posture for one focus area and list considerations and upcoming milestones.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"focus_area"},
				prop("focus_area", enum("Area to analyze", focusAreaNames()...)),
			)
		},
	},
	ToolCheckStatuteOfLimitations: {
		name: "check_statute_of_limitations", mode: models.ModeCase,
		description: "Check the statute of limitations for a case type and date of loss.",
		params: func(t *rules.Tables) *llm.Schema {
			return object([]string{"case_type", "date_of_loss"},
				prop("case_type", enum("Type of claim", t.CaseTypes()...)),
				prop("date_of_loss", str("Date of injury or loss in YYYY-MM-DD format")),
			)
		},
	},
	ToolSuggestDiscovery: {
		name: "suggest_discovery", mode: models.ModeCase,
		description: "Suggest discovery steps for a phase of the current case.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"discovery_phase"},
				prop("discovery_phase", enum("Discovery phase", discoveryPhaseNames()...)),
			)
		},
	},
	ToolLogBillingEntry: {
		name: "log_billing_entry", mode: models.ModeCase,
		description: "Record billable time against the current case.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"hours", "description"},
				prop("hours", number("Hours worked, between 0.1 and 24")),
				prop("description", str("Work performed")),
				prop("task_category", enum("Kind of work", taskCategoryNames()...)),
			)
		},
	},
	ToolGenerateCaseSummary: {
		name: "generate_case_summary", mode: models.ModeCase,
		description: "Summarize the current case.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"summary_type"},
				prop("summary_type", enum("Kind of summary", summaryTypeNames()...)),
				prop("include_deadlines", boolean("Include pending deadlines, default true")),
				prop("include_next_steps", boolean("Include suggested next steps, default true")),
			)
		},
	},

	ToolAddDeadlineToCase: {
		name: "add_deadline_to_case", mode: models.ModeDashboard,
		description: "Add a deadline to one of the user's cases, identified by case name, case number or client.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"case_identifier", "date", "description"},
				prop("case_identifier", str("Case name, case number or client name")),
				prop("date", str("Deadline date in YYYY-MM-DD format")),
				prop("description", str("What is due")),
			)
		},
	},
	ToolGetMorningBriefing: {
		name: "get_morning_briefing", mode: models.ModeDashboard,
		description: "Summarize what is overdue, due today and due soon across all cases.",
		params: func(*rules.Tables) *llm.Schema {
			return object(nil,
				prop("include_week_ahead", boolean("Include the next seven days, default true")),
			)
		},
	},
	ToolAnalyzeWorkload: {
		name: "analyze_workload", mode: models.ModeDashboard,
		description: "Analyze deadline and trial load across all cases for a time horizon.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"time_horizon"},
				prop("time_horizon", enum("Period to analyze", horizonNames(workloadHorizons)...)),
			)
		},
	},
	ToolCheckConflicts: {
		name: "check_conflicts", mode: models.ModeDashboard,
		description: "Find dates in a range where deadlines, trials or settlement conferences collide.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"date_range_start", "date_range_end"},
				prop("date_range_start", str("First date to check, YYYY-MM-DD")),
				prop("date_range_end", str("Last date to check, YYYY-MM-DD")),
			)
		},
	},
	ToolCrossCaseSearch: {
		name: "cross_case_search", mode: models.ModeDashboard,
		description: "Search all cases for deadlines or trial dates matching a category.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"search_type"},
				prop("search_type", enum("What to look for", searchTypeNames()...)),
				prop("time_filter", enum("Look-ahead window, default this_month", horizonNames(searchHorizons)...)),
			)
		},
	},
	ToolLogBillingToCase: {
		name: "log_billing_to_case", mode: models.ModeDashboard,
		description: "Record billable time against one of the user's cases, identified by case name, case number or client.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"case_identifier", "hours", "description"},
				prop("case_identifier", str("Case name, case number or client name")),
				prop("hours", number("Hours worked, between 0.1 and 24")),
				prop("description", str("Work performed")),
				prop("task_category", enum("Kind of work", taskCategoryNames()...)),
			)
		},
	},
	ToolGenerateBillingSummary: {
		name: "generate_billing_summary", mode: models.ModeDashboard,
		description: "Summarize recorded billable time for a period.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"period", "format"},
				prop("period", enum("Billing period", billingPeriodNames()...)),
				prop("format", enum("Report layout", billingFormatNames()...)),
				prop("include_ai_entries", boolean("Include entries logged by the assistant, default true")),
			)
		},
	},
	ToolGenerateCaseSummaryForCase: {
		name: "generate_case_summary_for_case", mode: models.ModeDashboard,
		description: "Summarize one of the user's cases, identified by case name, case number or client.",
		params: func(*rules.Tables) *llm.Schema {
			return object([]string{"case_identifier", "summary_type"},
				prop("case_identifier", str("Case name, case number or client name")),
				prop("summary_type", enum("Kind of summary", summaryTypeNames()...)),
				prop("include_deadlines", boolean("Include pending deadlines, default true")),
			)
		},
	},
}

var toolsByName = func() map[string]ToolID {
	m := make(map[string]ToolID, len(toolSpecs))
	for id, spec := range toolSpecs {
		m[spec.name] = id
	}
	return m
}()

// Name returns the wire name of the tool
func (id ToolID) Name() string {
	if spec, ok := toolSpecs[id]; ok {
		return spec.name
	}
	return "unknown"
}

func (id ToolID) String() string {
	return id.Name()
}

// Mode returns the only mode in which the tool may run
func (id ToolID) Mode() models.Mode {
	return toolSpecs[id].mode
}

// LookupTool resolves a tool name within mode. Tools belonging to the
// other mode are reported as not found.
func LookupTool(name string, mode models.Mode) (ToolID, bool) {
	id, ok := toolsByName[name]
	if !ok || toolSpecs[id].mode != mode {
		return toolInvalid, false
	}
	return id, true
}

// Catalog returns the tool schemas offered to the model in mode
func Catalog(mode models.Mode, tables *rules.Tables) []llm.ToolSchema {
	out := make([]llm.ToolSchema, 0, len(toolSpecs))
	for _, id := range AllTools() {
		spec := toolSpecs[id]
		if spec.mode != mode {
			continue
		}
		out = append(out, llm.ToolSchema{
			Name:        spec.name,
			Description: spec.description,
			Parameters:  spec.params(tables),
		})
	}
	return out
}

type namedSchema struct {
	name   string
	schema *llm.Schema
}

func prop(name string, s *llm.Schema) namedSchema {
	return namedSchema{name: name, schema: s}
}

func object(required []string, props ...namedSchema) *llm.Schema {
	s := &llm.Schema{Type: "object", Properties: make(map[string]*llm.Schema, len(props)), Required: required}
	for _, p := range props {
		s.Properties[p.name] = p.schema
	}
	return s
}

func str(desc string) *llm.Schema     { return &llm.Schema{Type: "string", Description: desc} }
func number(desc string) *llm.Schema  { return &llm.Schema{Type: "number", Description: desc} }
func boolean(desc string) *llm.Schema { return &llm.Schema{Type: "boolean", Description: desc} }

func enum(desc string, values ...string) *llm.Schema {
	return &llm.Schema{Type: "string", Description: desc, Enum: values}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
