package model

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Price is the cost in USD per one million tokens.
type Price struct {
	InputPer1M  float64 `json:"input_per_1m" yaml:"input_per_1m" toml:"input_per_1m"`
	OutputPer1M float64 `json:"output_per_1m" yaml:"output_per_1m" toml:"output_per_1m"`
}

// Pricing maps model names to token prices. The zero value is not usable; use NewPricing.
type Pricing struct {
	mu     sync.RWMutex
	prices map[string]Price
}

// NewPricing creates a pricing table seeded with prices.
func NewPricing(prices map[string]Price) *Pricing {
	p := &Pricing{prices: make(map[string]Price, len(prices))}
	for name, price := range prices {
		p.prices[name] = price
	}
	return p
}

// DefaultPricing returns list prices for the models the bundled backends default to.
func DefaultPricing() *Pricing {
	return NewPricing(map[string]Price{
		"gpt-4o":                   {InputPer1M: 2.5, OutputPer1M: 10},
		"gpt-4o-mini":              {InputPer1M: 0.15, OutputPer1M: 0.6},
		"gpt-4.1":                  {InputPer1M: 2, OutputPer1M: 8},
		"gpt-4.1-mini":             {InputPer1M: 0.4, OutputPer1M: 1.6},
		"claude-3-5-haiku-latest":  {InputPer1M: 0.8, OutputPer1M: 4},
		"claude-3-7-sonnet-latest": {InputPer1M: 3, OutputPer1M: 15},
		"claude-sonnet-4-0":        {InputPer1M: 3, OutputPer1M: 15},
	})
}

// Set adds or replaces the price of a model.
func (p *Pricing) Set(model string, price Price) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[model] = price
}

// Lookup returns the price of a model.
func (p *Pricing) Lookup(model string) (Price, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	price, ok := p.prices[model]
	return price, ok
}

// Cost prices usage for model. It returns nil when either the model has no
// price or usage is unknown.
func (p *Pricing) Cost(model string, usage *TokenUsage) *float64 {
	if p == nil || usage == nil {
		return nil
	}
	price, ok := p.Lookup(model)
	if !ok {
		return nil
	}
	cost := (float64(usage.PromptTokens)*price.InputPer1M + float64(usage.CompletionTokens)*price.OutputPer1M) / 1_000_000
	return &cost
}

// ParsePrice parses a "model:input,output" price spec (USD per 1M tokens).
func ParsePrice(spec string) (string, Price, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return "", Price{}, fmt.Errorf("price %q: expected model:input,output format", spec)
	}
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return "", Price{}, fmt.Errorf("price %q: model name cannot be empty", spec)
	}

	prices := strings.Split(parts[1], ",")
	if len(prices) != 2 {
		return "", Price{}, fmt.Errorf("price %q: expected input,output prices", spec)
	}
	in, err := strconv.ParseFloat(strings.TrimSpace(prices[0]), 64)
	if err != nil {
		return "", Price{}, fmt.Errorf("price %q: invalid input price: %w", spec, err)
	}
	out, err := strconv.ParseFloat(strings.TrimSpace(prices[1]), 64)
	if err != nil {
		return "", Price{}, fmt.Errorf("price %q: invalid output price: %w", spec, err)
	}
	if in < 0 || out < 0 {
		return "", Price{}, fmt.Errorf("price %q: prices must not be negative", spec)
	}
	return name, Price{InputPer1M: in, OutputPer1M: out}, nil
}
