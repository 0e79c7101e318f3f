package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient talks to Gemini through the generative-ai-go SDK
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Provider returns the provider name
func (c *GeminiClient) Provider() string {
	return "gemini"
}

// Close releases the underlying SDK client
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Generate sends the conversation and returns the model's reply
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}
	}
	if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: toGeminiDeclarations(req.Tools)}}
	}

	contents := toGeminiContents(req.Messages)
	if len(contents) == 0 {
		return nil, errors.New("no messages to send")
	}

	session := model.StartChat()
	session.History = contents[:len(contents)-1]
	resp, err := session.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return nil, wrapGeminiError(err)
	}
	return fromGeminiResponse(resp)
}

func wrapGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{Provider: "gemini", StatusCode: gerr.Code, Body: gerr.Body}
	}
	return &APIError{Provider: "gemini", Body: err.Error()}
}

func toGeminiDeclarations(tools []ToolSchema) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toGeminiSchema(t.Parameters),
		})
	}
	return decls
}

func toGeminiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        geminiType(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}
	if len(s.Enum) > 0 {
		out.Enum = s.Enum
		out.Format = "enum"
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGeminiSchema(prop)
		}
	}
	return out
}

func geminiType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeUnspecified
	}
}

// toGeminiContents maps the conversation onto Gemini's user/model turns.
// Tool results become function responses sent in a user turn, leading
// model turns are dropped and consecutive turns of one role are merged.
func toGeminiContents(messages []Message) []*genai.Content {
	var contents []*genai.Content
	for _, m := range messages {
		var role string
		var parts []genai.Part

		switch m.Role {
		case RoleUser:
			role = "user"
			parts = []genai.Part{genai.Text(m.Content)}
		case RoleAssistant:
			role = "model"
			if m.Content != "" {
				parts = append(parts, genai.Text(m.Content))
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: decodeArgs(call.Arguments)})
			}
		case RoleTool:
			role = "user"
			parts = []genai.Part{genai.FunctionResponse{
				Name:     m.ToolName,
				Response: map[string]any{"content": m.Content},
			}}
		default:
			continue
		}

		if len(parts) == 0 {
			continue
		}
		if len(contents) == 0 && role == "model" {
			continue
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents
}

func decodeArgs(raw string) map[string]any {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args
	}
	_ = json.Unmarshal([]byte(raw), &args)
	return args
}

func fromGeminiResponse(resp *genai.GenerateContentResponse) (*Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &APIError{Provider: "gemini", Body: "response contained no candidates"}
	}
	cand := resp.Candidates[0]
	out := &Response{FinishReason: cand.FinishReason.String()}
	if cand.Content == nil {
		return out, nil
	}

	var text strings.Builder
	for _, part := range cand.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				args = []byte("{}")
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				// Gemini does not assign call ids
				ID:        fmt.Sprintf("call_%d", len(out.ToolCalls)+1),
				Name:      p.Name,
				Arguments: string(args),
			})
		}
	}
	out.Text = text.String()
	return out, nil
}
