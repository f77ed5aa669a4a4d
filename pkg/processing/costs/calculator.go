// Package costs calculates request spend from token counts and per-model
// pricing.
package costs

import (
	"strings"
	"sync"
)

// Pricing maps a model name to its cost in USD per 1000 tokens.
type Pricing map[string]float64

// defaultCostPer1K is the fallback price for models missing from the table.
// It is deliberately on the expensive side so unknown models never
// under-count against the daily budget.
const defaultCostPer1K = 0.03

// Calculator is a thread-safe cost calculator with hot-swappable pricing.
type Calculator struct {
	mu      sync.RWMutex
	pricing Pricing
}

// NewCalculator creates a calculator over the given pricing table.
// A nil table means every model uses the default price.
func NewCalculator(pricing Pricing) *Calculator {
	if pricing == nil {
		pricing = Pricing{}
	}
	return &Calculator{pricing: pricing}
}

// UpdatePricing replaces the pricing table, for config hot-reload.
func (c *Calculator) UpdatePricing(pricing Pricing) {
	if pricing == nil {
		pricing = Pricing{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pricing = pricing
}

// CostPer1K returns the per-1000-token price for model. Lookup is exact
// first, then by prefix, then the default.
func (c *Calculator) CostPer1K(model string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if price, ok := c.pricing[model]; ok {
		return price
	}
	lower := strings.ToLower(model)
	for name, price := range c.pricing {
		if strings.HasPrefix(lower, strings.ToLower(name)) {
			return price
		}
	}
	return defaultCostPer1K
}

// Cost returns the USD cost of tokens against model's pricing.
// Negative token counts cost nothing.
func (c *Calculator) Cost(model string, tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(tokens) / 1000.0 * c.CostPer1K(model)
}

// RequestCost returns the combined cost of prompt and completion tokens.
func (c *Calculator) RequestCost(model string, promptTokens, completionTokens int) float64 {
	return c.Cost(model, promptTokens) + c.Cost(model, completionTokens)
}
