package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"skeptical-attorney-backend/metrics"
	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/rules"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// invocationStage is where an invocation ended up in the dispatch pipeline
type invocationStage string

const (
	stageRejected    invocationStage = "rejected"     // unknown tool or wrong mode
	stageParseFailed invocationStage = "parse_failed" // arguments were not a JSON object
	stageFailed      invocationStage = "failed"       // handler ran and reported failure
	stageSucceeded   invocationStage = "succeeded"
	stagePanicked    invocationStage = "panicked"
)

// DispatchResult holds one result per invocation, in request order, plus
// the actions produced by successful handlers.
type DispatchResult struct {
	Results []models.ToolResult
	Actions []models.Action
}

// ToolDispatcher executes model-requested tools against the principal's data
type ToolDispatcher struct {
	cases   CaseStore
	billing BillingStore
	calc    *rules.Calculator
	logger  *zap.Logger
	metrics *metrics.Assistant
	newID   func() string
}

// ToolDispatcherOption is a functional option for ToolDispatcher
type ToolDispatcherOption func(*ToolDispatcher)

// WithDispatcherLogger sets the logger
func WithDispatcherLogger(logger *zap.Logger) ToolDispatcherOption {
	return func(d *ToolDispatcher) {
		d.logger = logger
	}
}

// WithDispatcherMetrics sets the metrics sink
func WithDispatcherMetrics(m *metrics.Assistant) ToolDispatcherOption {
	return func(d *ToolDispatcher) {
		d.metrics = m
	}
}

// WithDeadlineIDs overrides deadline id generation
func WithDeadlineIDs(newID func() string) ToolDispatcherOption {
	return func(d *ToolDispatcher) {
		d.newID = newID
	}
}

// NewToolDispatcher creates a new tool dispatcher
func NewToolDispatcher(cases CaseStore, billing BillingStore, calc *rules.Calculator, opts ...ToolDispatcherOption) *ToolDispatcher {
	d := &ToolDispatcher{
		cases:   cases,
		billing: billing,
		calc:    calc,
		logger:  zap.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs invocations sequentially in the order given. It always
// returns exactly one result per invocation; failures stay local to the
// invocation that caused them.
func (d *ToolDispatcher) Dispatch(ctx context.Context, invocations []models.ToolInvocation, ac *models.AssistantContext) DispatchResult {
	out := DispatchResult{
		Results: make([]models.ToolResult, 0, len(invocations)),
		Actions: make([]models.Action, 0),
	}
	for _, inv := range invocations {
		result, actions, stage := d.dispatchOne(ctx, inv, ac)
		d.metrics.ObserveTool(inv.Name, string(stage))
		d.logger.Info("tool invocation",
			zap.String("tool", inv.Name),
			zap.String("invocation_id", inv.ID),
			zap.String("stage", string(stage)),
			zap.String("user_id", ac.Principal.UserID.String()),
		)
		out.Results = append(out.Results, result)
		out.Actions = append(out.Actions, actions...)
	}
	return out
}

func (d *ToolDispatcher) dispatchOne(ctx context.Context, inv models.ToolInvocation, ac *models.AssistantContext) (result models.ToolResult, actions []models.Action, stage invocationStage) {
	result = models.ToolResult{InvocationID: inv.ID, ToolName: inv.Name}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panicked", zap.String("tool", inv.Name), zap.Any("panic", r))
			result.Success = false
			result.Message = fmt.Sprintf("The %s tool failed unexpectedly. Nothing further was changed.", inv.Name)
			actions = nil
			stage = stagePanicked
		}
	}()

	id, ok := LookupTool(inv.Name, ac.Mode)
	if !ok {
		result.Message = fmt.Sprintf("Tool %q is not available in %s mode.", inv.Name, ac.Mode)
		return result, nil, stageRejected
	}

	args, err := parseArguments(inv.RawArguments)
	if err != nil {
		result.Message = fmt.Sprintf("Could not read the arguments for %s: %v", inv.Name, err)
		return result, nil, stageParseFailed
	}

	outcome := d.execute(ctx, toolCall{id: id, args: args, ac: ac})
	result.Success = outcome.success
	result.Message = outcome.message
	if !outcome.success {
		return result, nil, stageFailed
	}
	return result, outcome.actions, stageSucceeded
}

// execute routes a parsed call to its handler. Every ToolID has a case.
func (d *ToolDispatcher) execute(ctx context.Context, call toolCall) toolOutcome {
	switch call.id {
	case ToolAddDeadline:
		return d.addDeadline(ctx, call)
	case ToolNavigateToDocument:
		return d.navigateToDocument(ctx, call)
	case ToolCalculateDeadline:
		return d.calculateDeadline(ctx, call)
	case ToolAnalyzeCaseStrategy:
		return d.analyzeCaseStrategy(ctx, call)
	case ToolCheckStatuteOfLimitations:
		return d.checkStatuteOfLimitations(ctx, call)
	case ToolSuggestDiscovery:
		return d.suggestDiscovery(ctx, call)
	case ToolLogBillingEntry:
		return d.logBillingEntry(ctx, call)
	case ToolGenerateCaseSummary:
		return d.generateCaseSummary(ctx, call)
	case ToolAddDeadlineToCase:
		return d.addDeadlineToCase(ctx, call)
	case ToolGetMorningBriefing:
		return d.getMorningBriefing(ctx, call)
	case ToolAnalyzeWorkload:
		return d.analyzeWorkload(ctx, call)
	case ToolCheckConflicts:
		return d.checkConflicts(ctx, call)
	case ToolCrossCaseSearch:
		return d.crossCaseSearch(ctx, call)
	case ToolLogBillingToCase:
		return d.logBillingToCase(ctx, call)
	case ToolGenerateBillingSummary:
		return d.generateBillingSummary(ctx, call)
	case ToolGenerateCaseSummaryForCase:
		return d.generateCaseSummaryForCase(ctx, call)
	}
	return fail("No handler is registered for %s.", call.id)
}

type toolCall struct {
	id   ToolID
	args json.RawMessage
	ac   *models.AssistantContext
}

// bind decodes the call's arguments into dst
func (c toolCall) bind(dst any) error {
	dec := json.NewDecoder(bytes.NewReader(c.args))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return fmt.Errorf("%s has the wrong type", typeErr.Field)
		}
		return err
	}
	return nil
}

type toolOutcome struct {
	success bool
	message string
	actions []models.Action
}

func succeed(message string, actions ...models.Action) toolOutcome {
	return toolOutcome{success: true, message: message, actions: actions}
}

func fail(format string, a ...any) toolOutcome {
	return toolOutcome{message: fmt.Sprintf(format, a...)}
}

// parseArguments accepts a JSON object; empty input means no arguments
func parseArguments(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return json.RawMessage("{}"), nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, errors.New("arguments are not a valid JSON object")
	}
	if obj == nil {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(trimmed), nil
}

// flexFloat accepts a JSON number or a numeric string
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	*f = flexFloat(v)
	return nil
}

// boolOr returns *b or def when unset
func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// requireDate validates a literal date argument before it is used
func requireDate(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	if _, err := rules.ParseDate(value); err != nil {
		return "", fmt.Errorf("%s must be a valid date in YYYY-MM-DD format, got %q", field, value)
	}
	return value, nil
}

func requireText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	return value, nil
}
