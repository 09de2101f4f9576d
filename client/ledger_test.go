package client

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerAdditivity(t *testing.T) {
	l := NewLedger()
	calls := []struct {
		model string
		cost  float64
	}{
		{"gpt-4o", 0.25}, {"claude", 0.5}, {"gpt-4o", 0.125}, {"claude", 0}, {"gpt-4o", 0.0625},
	}
	for _, c := range calls {
		require.NoError(t, l.Add(c.model, c.cost))
	}

	assert.Equal(t, 0.9375, l.Total())
	assert.Equal(t, 0.4375, l.ModelCost("gpt-4o"))
	assert.Equal(t, 0.5, l.ModelCost("claude"))

	assert.Equal(t, l.Total(), sortedSum(l))
	assert.Equal(t, []string{"claude", "gpt-4o"}, l.Models())

	l.Reset()
	assert.Zero(t, l.Total())
	assert.Empty(t, l.ModelCosts())
}

func sortedSum(l *Ledger) float64 {
	costs := l.ModelCosts()
	sum := 0.0
	for _, m := range l.Models() {
		sum += costs[m]
	}
	return sum
}

func TestLedgerTotalMatchesModelCostsExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	models := []string{"a", "b", "gpt-4o", "claude"}
	for trial := 0; trial < 50; trial++ {
		l := NewLedger()
		for i := 0; i < 20; i++ {
			require.NoError(t, l.Add(models[rng.Intn(len(models))], rng.Float64()*0.1))
			assert.True(t, l.Total() == sortedSum(l), "trial %d step %d", trial, i)
			assert.True(t, l.Summary().Total == l.Total(), "trial %d step %d", trial, i)
		}
	}
}

func TestLedgerSummaryOmitsZero(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Add("free", 0))
	require.NoError(t, l.Add("paid", 0.5))

	s := l.Summary()
	assert.Equal(t, 0.5, s.Total)
	assert.Equal(t, map[string]float64{"paid": 0.5}, s.Models)
	assert.Contains(t, l.ModelCosts(), "free")
}

func TestLedgerRejectsInvalidDelta(t *testing.T) {
	l := NewLedger()
	for _, bad := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		assert.Error(t, l.Add("m", bad))
	}
	assert.Zero(t, l.Total())
	assert.Empty(t, l.ModelCosts())
}

func TestLedgerConcurrent(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := "a"
			if i%2 == 0 {
				m = "b"
			}
			_ = l.Add(m, 0.25)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16.0, l.Total())
	assert.Equal(t, 8.0, l.ModelCost("a"))
	assert.Equal(t, 8.0, l.ModelCost("b"))
}
