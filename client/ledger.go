package client

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// CostSummary is a point-in-time view of a Ledger with zero entries omitted.
type CostSummary struct {
	Total  float64            `json:"total_cost"`
	Models map[string]float64 `json:"model_costs"`
}

// Ledger accumulates per-model and total cost. It is safe for concurrent use,
// so several graphs may share one ledger.
//
// Total is derived from the per-model entries, summed in Models() order, so
// it equals that sum exactly at every observation.
type Ledger struct {
	mu     sync.Mutex
	models map[string]float64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{models: make(map[string]float64)}
}

// Add records delta against model. Negative, NaN and infinite deltas are rejected
// so the ledger stays monotonically non-decreasing.
func (l *Ledger) Add(model string, delta float64) error {
	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return fmt.Errorf("invalid cost delta %v for model %q", delta, model)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.models[model] += delta
	return nil
}

// Total returns the accumulated cost over all models.
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sumLocked()
}

func (l *Ledger) sumLocked() float64 {
	total := 0.0
	for _, m := range l.namesLocked() {
		total += l.models[m]
	}
	return total
}

func (l *Ledger) namesLocked() []string {
	out := make([]string, 0, len(l.models))
	for m := range l.models {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ModelCost returns the accumulated cost for one model.
func (l *Ledger) ModelCost(model string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.models[model]
}

// ModelCosts returns a copy of every entry, including zero-cost ones.
func (l *Ledger) ModelCosts() map[string]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]float64, len(l.models))
	for m, c := range l.models {
		out[m] = c
	}
	return out
}

// Models returns the names of every model with an entry, sorted.
func (l *Ledger) Models() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.namesLocked()
}

// Summary returns the total and the non-zero per-model costs.
func (l *Ledger) Summary() CostSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := CostSummary{Total: l.sumLocked(), Models: make(map[string]float64)}
	for m, c := range l.models {
		if c > 0 {
			s.Models[m] = c
		}
	}
	return s
}

// Reset clears every entry.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.models = make(map[string]float64)
}
