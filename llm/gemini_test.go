package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGeminiContents(t *testing.T) {
	contents := toGeminiContents([]Message{
		{Role: RoleAssistant, Content: "Good morning"}, // dropped, Gemini starts with a user turn
		{Role: RoleUser, Content: "add two deadlines"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "call_1", Name: "add_deadline", Arguments: `{"date":"2024-03-01"}`},
			{ID: "call_2", Name: "add_deadline", Arguments: `not json`},
		}},
		{Role: RoleTool, ToolCallID: "call_1", ToolName: "add_deadline", Content: "ok"},
		{Role: RoleTool, ToolCallID: "call_2", ToolName: "add_deadline", Content: "bad"},
	})

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	call := contents[1].Parts[0].(genai.FunctionCall)
	assert.Equal(t, "2024-03-01", call.Args["date"])
	assert.Empty(t, contents[1].Parts[1].(genai.FunctionCall).Args)

	assert.Equal(t, "user", contents[2].Role)
	require.Len(t, contents[2].Parts, 2)
	resp := contents[2].Parts[1].(genai.FunctionResponse)
	assert.Equal(t, "add_deadline", resp.Name)
	assert.Equal(t, "bad", resp.Response["content"])
}

func TestToGeminiSchema(t *testing.T) {
	s := toGeminiSchema(&Schema{
		Type:     "object",
		Required: []string{"kind"},
		Properties: map[string]*Schema{
			"kind":  {Type: "string", Enum: []string{"a", "b"}},
			"hours": {Type: "number"},
		},
	})
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"kind"}, s.Required)
	assert.Equal(t, genai.TypeString, s.Properties["kind"].Type)
	assert.Equal(t, "enum", s.Properties["kind"].Format)
	assert.Equal(t, genai.TypeNumber, s.Properties["hours"].Type)
}

func TestFromGeminiResponse(t *testing.T) {
	resp, err := fromGeminiResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []genai.Part{
				genai.Text("Let me check. "),
				genai.FunctionCall{Name: "get_morning_briefing", Args: map[string]any{"include_week_ahead": true}},
				genai.FunctionCall{Name: "analyze_workload", Args: map[string]any{"time_horizon": "this_week"}},
			}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Let me check. ", resp.Text)
	require.Len(t, resp.ToolCalls, 2)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "call_2", resp.ToolCalls[1].ID)
	assert.JSONEq(t, `{"time_horizon":"this_week"}`, resp.ToolCalls[1].Arguments)

	_, err = fromGeminiResponse(&genai.GenerateContentResponse{})
	assert.Error(t, err)
}
