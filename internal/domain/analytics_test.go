package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimatedTradePrice_Basic(t *testing.T) {
	old := pos("m1", "yes", "100", "0.40", "40")
	next := pos("m1", "yes", "150", "0.46", "69")

	p, ok := EstimatedTradePrice(old, next).Value()
	require.True(t, ok)
	assert.Equal(t, "0.58", p.String())
}

func TestEstimatedTradePrice_ClampedToUnit(t *testing.T) {
	// Δcoste mayor que Δshares → >1, se limita a 1
	high := EstimatedTradePrice(pos("m", "y", "10", "", "5"), pos("m", "y", "11", "", "8"))
	v, ok := high.Value()
	require.True(t, ok)
	assert.Equal(t, "1", v.String())

	// coste baja al comprar (feed incoherente) → 0
	low := EstimatedTradePrice(pos("m", "y", "10", "", "5"), pos("m", "y", "20", "", "4"))
	v, ok = low.Value()
	require.True(t, ok)
	assert.True(t, v.IsZero())
}

func TestEstimatedTradePrice_ZeroDenominator(t *testing.T) {
	old := pos("m", "y", "10", "0.5", "5")
	next := pos("m", "y", "10.0000001", "0.5", "6")
	assert.False(t, EstimatedTradePrice(old, next).IsKnown())
}

func TestEstimatedTradePrice_FallsBackToAvgTimesShares(t *testing.T) {
	// sin cost basis en el feed: coste = shares × avg
	old := pos("m", "y", "100", "0.40", "")
	next := pos("m", "y", "150", "0.46", "")
	p, ok := EstimatedTradePrice(old, next).Value()
	require.True(t, ok)
	assert.Equal(t, "0.58", p.String())
}

func TestEstimatedTradePrice_MissingCost(t *testing.T) {
	old := pos("m", "y", "100", "", "")
	next := pos("m", "y", "150", "0.46", "69")
	assert.False(t, EstimatedTradePrice(old, next).IsKnown())
}

func TestNewAverageEntryPrice_PrefersFeed(t *testing.T) {
	old := pos("m", "y", "100", "0.40", "40")
	next := pos("m", "y", "150", "0.46", "69")
	assert.True(t, NewAverageEntryPrice(old, next).Equal(Known(d("0.46"))))
}

func TestNewAverageEntryPrice_WeightedWhenFeedMissing(t *testing.T) {
	// (100×0.40 + 50×0.58) / 150 = 0.46
	old := pos("m", "y", "100", "0.40", "40")
	next := pos("m", "y", "150", "", "69")
	v, ok := NewAverageEntryPrice(old, next).Value()
	require.True(t, ok)
	assert.Equal(t, "0.46", v.StringFixed(2))
}

func TestNewAverageEntryPrice_Indeterminate(t *testing.T) {
	old := pos("m", "y", "100", "", "40")
	next := pos("m", "y", "150", "", "69")
	assert.False(t, NewAverageEntryPrice(old, next).IsKnown())
}

func TestEstimatedExitPrice_WithRealizedPnL(t *testing.T) {
	// vende 40 de 100 compradas a 0.40: coste liberado 16, PnL realizado +8
	// ingresos = 24 → 0.60 por share
	old := pos("m", "y", "100", "0.40", "40")
	old.RealizedPnL = Known(d("0"))
	next := pos("m", "y", "60", "0.40", "24")
	next.RealizedPnL = Known(d("8"))

	v, ok := EstimatedExitPrice(old, next).Value()
	require.True(t, ok)
	assert.Equal(t, "0.6", v.String())
}

func TestEstimatedExitPrice_NoRealized(t *testing.T) {
	old := pos("m", "y", "100", "0.40", "40")
	next := pos("m", "y", "60", "0.40", "24")
	assert.False(t, EstimatedExitPrice(old, next).IsKnown())
}

func TestAmount_IndeterminateIsNotZero(t *testing.T) {
	zero := Known(d("0"))
	assert.False(t, zero.Equal(Indeterminate()))
	assert.Equal(t, "n/a", Indeterminate().StringFixed(2))
	assert.Equal(t, "0.00", zero.StringFixed(2))
}
