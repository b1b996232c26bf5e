package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
)

// anthropicClient adapts the Anthropic Messages API to the Client interface.
type anthropicClient struct {
	client *anthropic.Client
}

func newAnthropicClient(cfg ClientConfig) *anthropicClient {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := anthropic.NewClient(opts...)
	return &anthropicClient{client: &client}
}

func (c *anthropicClient) Provider() Provider { return ProviderAnthropic }

func (c *anthropicClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	maxTokens := int64(defaultMaxTokens)
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		maxTokens = *req.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	messages, system := buildAnthropicMessages(req.Messages)
	params.Messages = messages
	if len(system) > 0 {
		params.System = system
	}
	if len(req.Tools) > 0 {
		params.Tools = buildAnthropicTools(req.Tools)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: anthropic: %v", ErrProvider, err)
	}

	msg := Message{Role: "assistant"}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			msg.Content += block.AsText().Text
		case "tool_use":
			tu := block.AsToolUse()
			args := make(map[string]any)
			if raw, err := json.Marshal(tu.Input); err == nil {
				_ = json.Unmarshal(raw, &args)
			}
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:       tu.ID,
				Type:     "function",
				Function: ToolFunction{Name: tu.Name, Arguments: args},
			})
		}
	}

	return &ChatResponse{
		Message: msg,
		Model:   string(resp.Model),
		Usage: &TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		FinishReason: string(resp.StopReason),
	}, nil
}

// buildAnthropicMessages converts the OpenAI-compatible history to Anthropic
// message params. System turns become top-level system blocks; tool results
// are re-attached as user tool_result blocks after the assistant turn that
// issued the calls.
func buildAnthropicMessages(history []Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	toolResults := make(map[string]string)
	for _, m := range history {
		if m.Role == "tool" && m.ToolCallID != "" {
			toolResults[m.ToolCallID] = m.Content
		}
	}

	var messages []anthropic.MessageParam
	var system []anthropic.TextBlockParam

	for _, m := range history {
		switch m.Role {
		case "system":
			if m.Content != "" {
				system = append(system, anthropic.TextBlockParam{Text: m.Content})
			}
		case "tool":
			// Re-attached after the issuing assistant turn.
		case "assistant":
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			var callIDs []string
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Function.Arguments, tc.Function.Name))
				callIDs = append(callIDs, tc.ID)
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}

			var results []anthropic.ContentBlockParamUnion
			for _, id := range callIDs {
				if result, ok := toolResults[id]; ok {
					results = append(results, anthropic.NewToolResultBlock(id, result, false))
					delete(toolResults, id)
				}
			}
			if len(results) > 0 {
				messages = append(messages, anthropic.NewUserMessage(results...))
			}
		default:
			if m.Content != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
			}
		}
	}

	return messages, system
}

// buildAnthropicTools converts function-shaped definitions to Anthropic tool
// params, lifting properties and required out of the JSON Schema.
func buildAnthropicTools(defs []ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(defs))
	for i, def := range defs {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if params := def.Function.Parameters; params != nil {
			if properties, ok := params["properties"]; ok {
				inputSchema.Properties = properties
			}
			if required, ok := params["required"]; ok {
				inputSchema.Required = toStringSlice(required)
			}
		}
		tools[i] = anthropic.ToolUnionParamOfTool(inputSchema, def.Function.Name)
	}
	return tools
}

func toStringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
