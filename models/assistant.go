package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Mode selects which context and tool catalog an assistant request runs with
type Mode string

const (
	ModeCase      Mode = "case"
	ModeDashboard Mode = "dashboard"
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	return m == ModeCase || m == ModeDashboard
}

// ChatRole represents the author of a conversation turn
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage represents one prior turn supplied by the client
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// UrgentDeadline is an incomplete deadline due within the urgency window.
// It is derived on every request and never persisted.
type UrgentDeadline struct {
	CaseID      uuid.UUID `json:"caseId"`
	CaseName    string    `json:"caseName"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	DaysUntil   int       `json:"daysUntil"`
}

// CaseSnapshot is the view of one case placed in a case-scoped context
type CaseSnapshot struct {
	Case      *Case
	Deadlines Deadlines // incomplete only
}

// CaseOverview summarizes the caller's whole caseload for dashboard mode
type CaseOverview struct {
	Cases            []*Case
	CasesWithTrial   int
	UpcomingTrials   int // trial within 90 days
	PendingDeadlines int
	OverdueDeadlines int
	// NextDeadline is the earliest incomplete deadline not yet past.
	// It may fall outside the urgency window.
	NextDeadline *UrgentDeadline
}

// AssistantContext is the per-request, principal-scoped view of practice data.
// Case is set only in case mode and Overview only in dashboard mode.
type AssistantContext struct {
	Mode            Mode
	Principal       Principal
	Today           time.Time // local civil date at UTC midnight
	Case            *CaseSnapshot
	Overview        *CaseOverview
	UrgentDeadlines []UrgentDeadline
}

// CaseID returns the id of the scoped case, or uuid.Nil in dashboard mode
func (c *AssistantContext) CaseID() uuid.UUID {
	if c == nil || c.Case == nil || c.Case.Case == nil {
		return uuid.Nil
	}
	return c.Case.Case.ID
}

// ToolInvocation is a tool call as emitted by the model
type ToolInvocation struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RawArguments string `json:"arguments"`
}

// ToolResult is the outcome of one invocation, always fed back to the model
type ToolResult struct {
	InvocationID string `json:"invocationId"`
	ToolName     string `json:"toolName"`
	Success      bool   `json:"success"`
	Message      string `json:"message"`
}

// ActionType tags the variants of Action
type ActionType string

const (
	ActionNavigate      ActionType = "navigate"
	ActionDeadlineAdded ActionType = "deadline_added"
	ActionBillingLogged ActionType = "billing_logged"
	ActionAlert         ActionType = "alert"
)

// Action is an observable side effect surfaced to the client.
// The set of implementations is closed to this package.
type Action interface {
	Type() ActionType
	isAction()
}

// NavigateAction asks the client to open a page
type NavigateAction struct {
	URL          string    `json:"url"`
	DocumentType string    `json:"documentType"`
	CaseID       uuid.UUID `json:"caseId"`
}

// DeadlineAddedAction reports a deadline appended to a case
type DeadlineAddedAction struct {
	CaseID   uuid.UUID `json:"caseId"`
	CaseName string    `json:"caseName"`
	Deadline Deadline  `json:"deadline"`
}

// BillingLoggedAction reports a billing entry recorded against a case
type BillingLoggedAction struct {
	EntryID  uuid.UUID `json:"entryId"`
	CaseID   uuid.UUID `json:"caseId"`
	CaseName string    `json:"caseName"`
	Hours    float64   `json:"hours"`
}

// AlertSeverity grades an AlertAction
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// AlertAction flags something the user must see
type AlertAction struct {
	Severity AlertSeverity `json:"severity"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
}

func (NavigateAction) Type() ActionType      { return ActionNavigate }
func (DeadlineAddedAction) Type() ActionType { return ActionDeadlineAdded }
func (BillingLoggedAction) Type() ActionType { return ActionBillingLogged }
func (AlertAction) Type() ActionType         { return ActionAlert }

func (NavigateAction) isAction()      {}
func (DeadlineAddedAction) isAction() {}
func (BillingLoggedAction) isAction() {}
func (AlertAction) isAction()         {}

// MarshalJSON adds the type tag
func (a NavigateAction) MarshalJSON() ([]byte, error) {
	type plain NavigateAction
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{a.Type(), plain(a)})
}

// MarshalJSON adds the type tag
func (a DeadlineAddedAction) MarshalJSON() ([]byte, error) {
	type plain DeadlineAddedAction
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{a.Type(), plain(a)})
}

// MarshalJSON adds the type tag
func (a BillingLoggedAction) MarshalJSON() ([]byte, error) {
	type plain BillingLoggedAction
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{a.Type(), plain(a)})
}

// MarshalJSON adds the type tag
func (a AlertAction) MarshalJSON() ([]byte, error) {
	type plain AlertAction
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{a.Type(), plain(a)})
}
