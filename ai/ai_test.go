package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	for name, want := range map[string]Provider{
		"openai":    ProviderOpenAI,
		"anthropic": ProviderAnthropic,
		"claude":    ProviderAnthropic,
		"Claude":    ProviderAnthropic,
		" OPENAI ":  ProviderOpenAI,
	} {
		got, err := ParseProvider(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestParseProviderUnknown(t *testing.T) {
	_, err := ParseProvider("gemini")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(ClientConfig{Provider: ProviderAnthropic, APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, c.Provider())

	c, err = NewClient(ClientConfig{Provider: ProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, c.Provider())

	_, err = NewClient(ClientConfig{Provider: "mystery"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestBuildAnthropicMessages(t *testing.T) {
	history := []Message{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "list files"},
		{Role: "assistant", ToolCalls: []ToolCall{{
			ID:       "call_1",
			Function: ToolFunction{Name: "find_files", Arguments: map[string]any{"pattern": "*.go"}},
		}}},
		{Role: "tool", ToolCallID: "call_1", Content: "main.go"},
	}

	messages, system := buildAnthropicMessages(history)

	require.Len(t, system, 1)
	assert.Equal(t, "be terse", system[0].Text)

	// user turn, assistant tool_use turn, then the tool result as a user turn
	require.Len(t, messages, 3)
	assert.Equal(t, "user", string(messages[0].Role))
	assert.Equal(t, "assistant", string(messages[1].Role))
	assert.Equal(t, "user", string(messages[2].Role))
}

func TestBuildOpenAIMessages(t *testing.T) {
	history := []Message{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "list files"},
		{Role: "assistant", ToolCalls: []ToolCall{{
			ID:       "call_1",
			Function: ToolFunction{Name: "find_files", Arguments: map[string]any{"pattern": "*.go"}},
		}}},
		{Role: "tool", ToolCallID: "call_1", Content: "main.go"},
		{Role: "assistant", Content: "Found main.go"},
	}

	messages := buildOpenAIMessages(history)
	require.Len(t, messages, 5)

	require.NotNil(t, messages[2].OfAssistant)
	require.Len(t, messages[2].OfAssistant.ToolCalls, 1)
	call := messages[2].OfAssistant.ToolCalls[0]
	assert.Equal(t, "call_1", call.ID)
	assert.Equal(t, "find_files", call.Function.Name)
	assert.JSONEq(t, `{"pattern":"*.go"}`, call.Function.Arguments)

	require.NotNil(t, messages[3].OfTool)
	require.NotNil(t, messages[4].OfAssistant)
}

func TestBuildOpenAITools(t *testing.T) {
	defs := []ToolDefinition{{
		Type: "function",
		Function: FunctionDefinition{
			Name:        "read_file",
			Description: "Read a file",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"path": map[string]any{"type": "string"}},
				"required":   []string{"path"},
			},
		},
	}}

	tools := buildOpenAITools(defs)
	require.Len(t, tools, 1)
	assert.Equal(t, "read_file", tools[0].Function.Name)
}

func TestBuildAnthropicTools(t *testing.T) {
	defs := []ToolDefinition{{
		Type: "function",
		Function: FunctionDefinition{
			Name: "read_file",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"path": map[string]any{"type": "string"}},
				"required":   []any{"path"},
			},
		},
	}}

	tools := buildAnthropicTools(defs)
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "read_file", tools[0].OfTool.Name)
	assert.Equal(t, []string{"path"}, tools[0].OfTool.InputSchema.Required)
}

func TestToStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, toStringSlice([]string{"a", "b"}))
	assert.Equal(t, []string{"a"}, toStringSlice([]any{"a", 7}))
	assert.Nil(t, toStringSlice("nope"))
}
