// Package llm adapts chat models with function calling to a single
// provider-neutral request/response shape.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role identifies the author of a Message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation sent to the model
type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on assistant turns that requested tools
	ToolCalls []ToolCall

	// ToolCallID and ToolName are set on tool result turns
	ToolCallID string
	ToolName   string
}

// ToolCall is a function invocation requested by the model.
// Arguments holds the raw JSON text exactly as the model produced it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Schema is the JSON-schema subset used to describe tool parameters
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// ToolSchema declares one callable tool
type ToolSchema struct {
	Name        string
	Description string
	Parameters  *Schema
}

// Request is a single chat completion request
type Request struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolSchema
	Temperature  float32
	MaxTokens    int
}

// Response is the model's reply to a Request
type Response struct {
	Text         string
	ToolCalls    []ToolCall
	FinishReason string
}

// Client generates chat completions
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Provider() string
}

// ErrNotConfigured is returned when no credential is available for the provider
var ErrNotConfigured = errors.New("model client not configured")

// APIError is a non-success reply from the model provider.
// Body is the raw provider payload and is meant for server logs only.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API error: %s", e.Provider, e.Body)
	}
	return fmt.Sprintf("%s API error: status %d", e.Provider, e.StatusCode)
}
