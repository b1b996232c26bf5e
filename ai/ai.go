// Package ai provides the AI-provider capability: a provider-agnostic chat
// client over the Anthropic and OpenAI APIs, with token usage tracking.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for provider failures.
var (
	// ErrProvider wraps any API failure from the underlying provider.
	ErrProvider = errors.New("provider error")

	// ErrUnknownProvider indicates a provider name outside the supported set.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Provider names a supported AI backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ParseProvider normalizes a provider name. "claude" is accepted as an alias
// for anthropic.
func ParseProvider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// Message is one turn of a conversation, in the OpenAI-compatible shape both
// providers are adapted to.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a model-issued tool invocation.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type,omitempty"`
	Function ToolFunction `json:"function"`
}

// ToolFunction names the tool and carries its arguments.
type ToolFunction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolDefinition advertises a callable tool to the model.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition carries a tool's name, description and input schema.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatRequest is one chat completion request.
type ChatRequest struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   *int64           `json:"max_tokens,omitempty"`
}

// TokenUsage reports the token counts of one completion.
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// ChatResponse is the model's reply to a ChatRequest.
type ChatResponse struct {
	Message      Message     `json:"message"`
	Model        string      `json:"model"`
	Usage        *TokenUsage `json:"usage,omitempty"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// Client is a provider-agnostic chat client.
type Client interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	Provider() Provider
}

// ClientConfig selects and configures a provider backend.
type ClientConfig struct {
	Provider Provider
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// NewClient builds a chat client for the configured provider.
func NewClient(cfg ClientConfig) (Client, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		return newAnthropicClient(cfg), nil
	case ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

const defaultMaxTokens = 4096
