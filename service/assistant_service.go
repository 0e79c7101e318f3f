package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"skeptical-attorney-backend/llm"
	"skeptical-attorney-backend/metrics"
	"skeptical-attorney-backend/models"

	"go.uber.org/zap"
)

const historyLimit = 10

// TerminalState is how a chat exchange finished
type TerminalState string

const (
	TerminalAnswered           TerminalState = "answered"
	TerminalAnsweredAfterTools TerminalState = "answered_after_tools"
	TerminalCommittedFallback  TerminalState = "committed_fallback"
)

var (
	ErrMessageRequired    = errors.New("message is required")
	ErrInvalidMode        = errors.New("invalid mode")
	ErrModelNotConfigured = errors.New("AI assistant is not configured")
	ErrUpstreamModel      = errors.New("model request failed")
	ErrEmptyResponse      = errors.New("no response generated")
)

// AssistantService runs the two-phase tool-calling conversation
type AssistantService struct {
	contexts    *ContextBuilder
	prompts     *PromptAssembler
	dispatcher  *ToolDispatcher
	model       llm.Client
	audit       *AuditRecorder
	logger      *zap.Logger
	metrics     *metrics.Assistant
	temperature float32
	maxTokens   int
}

// AssistantServiceOption is a functional option for AssistantService
type AssistantServiceOption func(*AssistantService)

// WithContextBuilder sets the context builder
func WithContextBuilder(b *ContextBuilder) AssistantServiceOption {
	return func(s *AssistantService) {
		s.contexts = b
	}
}

// WithPromptAssembler sets the prompt assembler
func WithPromptAssembler(p *PromptAssembler) AssistantServiceOption {
	return func(s *AssistantService) {
		s.prompts = p
	}
}

// WithToolDispatcher sets the tool dispatcher
func WithToolDispatcher(d *ToolDispatcher) AssistantServiceOption {
	return func(s *AssistantService) {
		s.dispatcher = d
	}
}

// WithModelClient sets the chat model. Without one, Chat reports
// ErrModelNotConfigured.
func WithModelClient(c llm.Client) AssistantServiceOption {
	return func(s *AssistantService) {
		s.model = c
	}
}

// WithAuditRecorder sets where exchange records are written
func WithAuditRecorder(r *AuditRecorder) AssistantServiceOption {
	return func(s *AssistantService) {
		s.audit = r
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) AssistantServiceOption {
	return func(s *AssistantService) {
		s.logger = l
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Assistant) AssistantServiceOption {
	return func(s *AssistantService) {
		s.metrics = m
	}
}

// WithGenerationSettings sets sampling temperature and the token cap
func WithGenerationSettings(temperature float32, maxTokens int) AssistantServiceOption {
	return func(s *AssistantService) {
		s.temperature = temperature
		s.maxTokens = maxTokens
	}
}

// NewAssistantService creates a new assistant service
func NewAssistantService(opts ...AssistantServiceOption) *AssistantService {
	s := &AssistantService{
		logger:      zap.NewNop(),
		temperature: 0.4,
		maxTokens:   800,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveMode maps the requested mode to the one a request runs in.
// Case mode needs a case id; without one the request falls back to the
// dashboard. Unknown modes are rejected.
func ResolveMode(raw, caseID string) (models.Mode, error) {
	switch models.Mode(strings.TrimSpace(raw)) {
	case models.ModeCase:
		if strings.TrimSpace(caseID) == "" {
			return models.ModeDashboard, nil
		}
		return models.ModeCase, nil
	case models.ModeDashboard, "":
		return models.ModeDashboard, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
}

// ChatRequest represents one user turn
type ChatRequest struct {
	Principal models.Principal
	Message   string
	Mode      models.Mode
	CaseID    string
	History   []models.ChatMessage
}

// ChatResult represents the assistant's reply and everything it did
type ChatResult struct {
	Message  string
	Actions  []models.Action
	Results  []models.ToolResult
	Context  *models.AssistantContext
	Terminal TerminalState
}

// Chat answers req. Tool side effects that happened before a failed
// second model call stand, and the reply falls back to a fixed
// acknowledgment.
func (s *AssistantService) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	start := time.Now()
	result, ac, err := s.chat(ctx, req)

	status := "error"
	if err == nil {
		status = string(result.Terminal)
	}
	s.metrics.ObserveRequest(string(req.Mode), status, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	s.logger.Info("assistant exchange",
		zap.String("user_id", req.Principal.UserID.String()),
		zap.String("mode", string(ac.Mode)),
		zap.String("case_id", caseIDField(ac)),
		zap.Int("tool_count", len(result.Results)),
		zap.String("terminal", string(result.Terminal)),
	)
	provider := ""
	if s.model != nil {
		provider = s.model.Provider()
	}
	s.audit.Record(context.WithoutCancel(ctx), newAuditRecord(ac, result, provider, time.Since(start)))
	return result, nil
}

func (s *AssistantService) chat(ctx context.Context, req ChatRequest) (*ChatResult, *models.AssistantContext, error) {
	if s.contexts == nil {
		return nil, nil, errors.New("context builder not set")
	}
	if s.prompts == nil {
		return nil, nil, errors.New("prompt assembler not set")
	}
	if s.dispatcher == nil {
		return nil, nil, errors.New("tool dispatcher not set")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, nil, ErrMessageRequired
	}

	ac, err := s.contexts.Build(ctx, req.Principal, req.Mode, req.CaseID)
	if err != nil {
		return nil, nil, err
	}
	if s.model == nil {
		return nil, nil, ErrModelNotConfigured
	}

	prompt := s.prompts.Assemble(ac)
	messages := append(historyMessages(req.History), llm.Message{Role: llm.RoleUser, Content: message})

	first, err := s.model.Generate(ctx, llm.Request{
		SystemPrompt: prompt.System,
		Messages:     messages,
		Tools:        prompt.Tools,
		Temperature:  s.temperature,
		MaxTokens:    s.maxTokens,
	})
	if err != nil {
		s.metrics.ObserveModelCall("first", "error")
		return nil, nil, s.modelError(err)
	}

	if len(first.ToolCalls) == 0 {
		text := strings.TrimSpace(first.Text)
		if text == "" {
			s.metrics.ObserveModelCall("first", "empty")
			return nil, nil, ErrEmptyResponse
		}
		s.metrics.ObserveModelCall("first", "ok")
		return &ChatResult{
			Message:  text,
			Actions:  []models.Action{},
			Results:  []models.ToolResult{},
			Context:  ac,
			Terminal: TerminalAnswered,
		}, ac, nil
	}
	s.metrics.ObserveModelCall("first", "tool_calls")

	calls := withCallIDs(first.ToolCalls)
	invocations := make([]models.ToolInvocation, 0, len(calls))
	for _, tc := range calls {
		invocations = append(invocations, models.ToolInvocation{ID: tc.ID, Name: tc.Name, RawArguments: tc.Arguments})
	}
	dispatched := s.dispatcher.Dispatch(ctx, invocations, ac)

	messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: first.Text, ToolCalls: calls})
	for _, res := range dispatched.Results {
		messages = append(messages, llm.Message{
			Role:       llm.RoleTool,
			Content:    toolResultContent(res),
			ToolCallID: res.InvocationID,
			ToolName:   res.ToolName,
		})
	}

	result := &ChatResult{
		Actions: dispatched.Actions,
		Results: dispatched.Results,
		Context: ac,
	}

	second, err := s.model.Generate(ctx, llm.Request{
		SystemPrompt: prompt.System,
		Messages:     messages,
		Temperature:  s.temperature,
		MaxTokens:    s.maxTokens,
	})
	switch {
	case err != nil:
		s.metrics.ObserveModelCall("second", "error")
		s.logModelError("second model call failed, using fallback reply", err)
	case strings.TrimSpace(second.Text) == "":
		s.metrics.ObserveModelCall("second", "empty")
		s.logger.Warn("second model call returned no text, using fallback reply")
	default:
		s.metrics.ObserveModelCall("second", "ok")
		result.Message = strings.TrimSpace(second.Text)
		result.Terminal = TerminalAnsweredAfterTools
		return result, ac, nil
	}

	result.Message = fallbackReply(dispatched.Results)
	result.Terminal = TerminalCommittedFallback
	return result, ac, nil
}

// Opening returns the greeting for a freshly opened assistant panel
func (s *AssistantService) Opening(ctx context.Context, principal models.Principal, mode models.Mode, caseID string) (string, *models.AssistantContext, error) {
	if s.contexts == nil {
		return "", nil, errors.New("context builder not set")
	}
	if s.prompts == nil {
		return "", nil, errors.New("prompt assembler not set")
	}
	ac, err := s.contexts.Build(ctx, principal, mode, caseID)
	if err != nil {
		return "", nil, err
	}
	return s.prompts.OpeningMessage(ac, s.contexts.LocalNow()), ac, nil
}

func (s *AssistantService) modelError(err error) error {
	if errors.Is(err, llm.ErrNotConfigured) {
		return ErrModelNotConfigured
	}
	s.logModelError("model call failed", err)
	return fmt.Errorf("%w: %w", ErrUpstreamModel, err)
}

// logModelError logs the provider's raw reply, which never leaves the server
func (s *AssistantService) logModelError(msg string, err error) {
	fields := []zap.Field{zap.Error(err)}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields,
			zap.String("provider", apiErr.Provider),
			zap.Int("status", apiErr.StatusCode),
			zap.String("body", apiErr.Body),
		)
	}
	s.logger.Error(msg, fields...)
}

// historyMessages keeps the last turns of well-formed client history
func historyMessages(history []models.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, historyLimit+1)
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Role {
		case models.RoleUser:
			out = append(out, llm.Message{Role: llm.RoleUser, Content: m.Content})
		case models.RoleAssistant:
			out = append(out, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
		}
	}
	if len(out) > historyLimit {
		out = append(out[:0:0], out[len(out)-historyLimit:]...)
	}
	return out
}

// withCallIDs fills in ids for tool calls the provider left unnamed
func withCallIDs(calls []llm.ToolCall) []llm.ToolCall {
	out := make([]llm.ToolCall, len(calls))
	for i, c := range calls {
		if c.ID == "" {
			c.ID = fmt.Sprintf("call_%d", i)
		}
		out[i] = c
	}
	return out
}

func toolResultContent(res models.ToolResult) string {
	data, err := json.Marshal(struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{res.Success, res.Message})
	if err != nil {
		return res.Message
	}
	return string(data)
}

// fallbackReply acknowledges the tool results without the model
func fallbackReply(results []models.ToolResult) string {
	var b strings.Builder
	b.WriteString("I've processed your request.")
	for _, r := range results {
		if r.Success {
			fmt.Fprintf(&b, "\n- %s", r.Message)
		} else {
			fmt.Fprintf(&b, "\n- %s did not complete: %s", humanize(r.ToolName), r.Message)
		}
	}
	return b.String()
}

func caseIDField(ac *models.AssistantContext) string {
	if ac.Mode != models.ModeCase {
		return "N/A"
	}
	return ac.CaseID().String()
}
