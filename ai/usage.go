package ai

import (
	"sync"

	"github.com/shopspring/decimal"
)

// ModelPricing holds per-model token prices in USD per million tokens.
type ModelPricing struct {
	InputPerMTok  decimal.Decimal
	OutputPerMTok decimal.Decimal
}

var million = decimal.NewFromInt(1_000_000)

// Cost computes the USD cost of one completion at this pricing.
func (p ModelPricing) Cost(usage TokenUsage) decimal.Decimal {
	input := decimal.NewFromInt(usage.PromptTokens).Mul(p.InputPerMTok).Div(million)
	output := decimal.NewFromInt(usage.CompletionTokens).Mul(p.OutputPerMTok).Div(million)
	return input.Add(output)
}

// DefaultPricing contains built-in pricing for common models (USD per
// million tokens). Override via NewUsageTracker.
var DefaultPricing = map[string]ModelPricing{
	"claude-sonnet-4-5": {
		InputPerMTok:  decimal.NewFromFloat(3),
		OutputPerMTok: decimal.NewFromFloat(15),
	},
	"claude-haiku-4-5": {
		InputPerMTok:  decimal.NewFromFloat(1),
		OutputPerMTok: decimal.NewFromFloat(5),
	},
	"gpt-4o": {
		InputPerMTok:  decimal.NewFromFloat(2.5),
		OutputPerMTok: decimal.NewFromFloat(10),
	},
	"gpt-4o-mini": {
		InputPerMTok:  decimal.NewFromFloat(0.15),
		OutputPerMTok: decimal.NewFromFloat(0.6),
	},
}

// UsageTracker accumulates token usage and cost across chat completions.
// It is safe for concurrent use.
type UsageTracker struct {
	mu         sync.Mutex
	totalUsage TokenUsage
	totalCost  decimal.Decimal
	pricing    map[string]ModelPricing
}

// NewUsageTracker creates a tracker. A nil pricing map uses DefaultPricing.
func NewUsageTracker(pricing map[string]ModelPricing) *UsageTracker {
	if pricing == nil {
		pricing = DefaultPricing
	}
	return &UsageTracker{
		totalCost: decimal.Zero,
		pricing:   pricing,
	}
}

// Record adds one completion's usage. Unknown models count tokens but add no
// cost.
func (t *UsageTracker) Record(model string, usage TokenUsage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalUsage.PromptTokens += usage.PromptTokens
	t.totalUsage.CompletionTokens += usage.CompletionTokens
	t.totalUsage.TotalTokens += usage.TotalTokens

	if pricing, ok := t.pricing[model]; ok {
		t.totalCost = t.totalCost.Add(pricing.Cost(usage))
	}
}

// TotalUsage returns the cumulative token usage.
func (t *UsageTracker) TotalUsage() TokenUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalUsage
}

// TotalCost returns the cumulative cost across all recorded completions.
func (t *UsageTracker) TotalCost() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCost
}
