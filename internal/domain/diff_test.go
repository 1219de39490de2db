package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pos(market, outcome, shares, avg, cost string) Position {
	p := Position{
		Key:    OutcomeKey{MarketID: market, OutcomeID: outcome},
		Title:  "Will " + market + " happen?",
		Shares: d(shares),
	}
	if avg != "" {
		p.AvgEntryPrice = Known(d(avg))
	}
	if cost != "" {
		p.CostBasis = Known(d(cost))
	}
	return p
}

func snap(ps ...Position) Snapshot {
	return NewSnapshot(t0, ps)
}

func ptr(s Snapshot) *Snapshot { return &s }

func TestDiff_FirstPollIsBaseline(t *testing.T) {
	// primer poll de una wallet: el snapshot solo es baseline
	cur := snap(pos("m1", "yes", "100", "0.40", "40"))
	assert.Empty(t, Diff(nil, cur))
}

func TestDiff_UnchangedSnapshot(t *testing.T) {
	s := snap(
		pos("m1", "yes", "100", "0.40", "40"),
		pos("m2", "no", "12.5", "0.10", "1.25"),
	)
	assert.Empty(t, Diff(&s, s))
}

func TestDiff_PriceDriftIsNotAlertable(t *testing.T) {
	prev := snap(pos("m1", "yes", "100", "0.40", "40"))
	cur := snap(pos("m1", "yes", "100", "0.55", "55"))
	assert.Empty(t, Diff(&prev, cur))
}

func TestDiff_Increased(t *testing.T) {
	// compra de 50 shares por 29 de coste: (69-40)/50 = 0.58
	prev := snap(pos("m1", "yes", "100", "0.40", "40"))
	cur := snap(pos("m1", "yes", "150", "0.46", "69"))

	events := Diff(&prev, cur)
	require.Len(t, events, 1)

	inc, ok := events[0].(Increased)
	require.True(t, ok, "expected Increased, got %T", events[0])
	assert.True(t, inc.AddedShares.Equal(d("50")))
	assert.True(t, inc.OldShares.Equal(d("100")))
	assert.True(t, inc.NewShares.Equal(d("150")))
	assert.True(t, inc.OldAvgEntry.Equal(Known(d("0.40"))))
	assert.True(t, inc.NewAvgEntry.Equal(Known(d("0.46"))))

	price, known := inc.EstimatedTradePrice.Value()
	require.True(t, known)
	assert.True(t, price.Equal(d("0.58")), "got %s", price)
}

func TestDiff_Closed(t *testing.T) {
	// la posición desaparece del feed: cierre con 0 shares
	prev := snap(pos("m1", "yes", "100", "0.40", "40"))
	events := Diff(&prev, snap())
	require.Len(t, events, 1)

	cl, ok := events[0].(Closed)
	require.True(t, ok)
	assert.True(t, cl.FinalShares.IsZero())
	assert.True(t, cl.OldShares.Equal(d("100")))
	assert.True(t, cl.AvgEntryPrice.Equal(Known(d("0.40"))))
	assert.False(t, cl.ExitPrice.IsKnown())
	assert.Equal(t, "Will m1 happen?", cl.Position().Title)
}

func TestDiff_Opened(t *testing.T) {
	prev := snap()
	cur := snap(pos("m1", "no", "20", "0.30", "6"))

	events := Diff(&prev, cur)
	require.Len(t, events, 1)
	op, ok := events[0].(Opened)
	require.True(t, ok)
	assert.True(t, op.Shares.Equal(d("20")))
	assert.True(t, op.EntryPrice.Equal(Known(d("0.30"))))
}

func TestDiff_Decreased(t *testing.T) {
	prev := snap(pos("m1", "yes", "100", "0.40", "40"))
	cur := snap(pos("m1", "yes", "60", "0.40", "24"))

	events := Diff(&prev, cur)
	require.Len(t, events, 1)
	dec, ok := events[0].(Decreased)
	require.True(t, ok)
	assert.True(t, dec.RemovedShares.Equal(d("40")))
	assert.True(t, dec.NewShares.Equal(d("60")))
	// sin realizedPnl en el feed no se inventa el precio de salida
	assert.False(t, dec.EstimatedExitPrice.IsKnown())
}

func TestDiff_EpsilonNoise(t *testing.T) {
	prev := snap(pos("m1", "yes", "100", "0.40", "40"))
	cur := snap(pos("m1", "yes", "100.0000004", "0.40", "40"))
	assert.Empty(t, Diff(&prev, cur))
}

func TestDiff_MinShareChangeFiltersSmallTrades(t *testing.T) {
	opts := DiffOptions{MinShareChange: d("1")}
	prev := snap(pos("m1", "yes", "100", "0.40", "40"), pos("m2", "yes", "5", "0.5", "2.5"))
	cur := snap(pos("m1", "yes", "100.5", "0.40", "40.2"))

	events := DiffWith(opts, &prev, cur)
	// m1 +0.5 por debajo del umbral; m2 cerrada siempre se alerta
	require.Len(t, events, 1)
	assert.Equal(t, EventClosed, events[0].Kind())
	assert.Equal(t, "m2", events[0].OutcomeKey().MarketID)
}

func TestDiff_EveryChangedKeyExactlyOnce(t *testing.T) {
	prev := snap(
		pos("a", "yes", "10", "0.5", "5"),   // sin cambio
		pos("b", "yes", "10", "0.5", "5"),   // aumenta
		pos("c", "no", "10", "0.5", "5"),    // reduce
		pos("d", "yes", "10", "0.5", "5"),   // cierra
	)
	cur := snap(
		pos("a", "yes", "10", "0.5", "5"),
		pos("b", "yes", "15", "0.5", "7.5"),
		pos("c", "no", "4", "0.5", "2"),
		pos("e", "yes", "3", "0.2", "0.6"), // abre
	)

	events := Diff(&prev, cur)
	require.Len(t, events, 4)

	kinds := map[string]EventKind{}
	for _, ev := range events {
		_, dup := kinds[ev.OutcomeKey().MarketID]
		assert.False(t, dup, "key %s repeated", ev.OutcomeKey())
		kinds[ev.OutcomeKey().MarketID] = ev.Kind()
	}
	assert.Equal(t, map[string]EventKind{
		"b": EventIncreased,
		"c": EventDecreased,
		"d": EventClosed,
		"e": EventOpened,
	}, kinds)
}

func TestDiff_DeterministicOrder(t *testing.T) {
	var prevPs, curPs []Position
	for _, m := range []string{"m3", "m1", "m2", "m5", "m4"} {
		prevPs = append(prevPs, pos(m, "yes", "10", "0.5", "5"), pos(m, "no", "10", "0.5", "5"))
		curPs = append(curPs, pos(m, "yes", "20", "0.5", "10"))
	}

	first := Diff(ptr(NewSnapshot(t0, prevPs)), NewSnapshot(t0, curPs))
	require.Len(t, first, 10)
	for i := 1; i < len(first); i++ {
		assert.True(t, first[i-1].OutcomeKey().Less(first[i].OutcomeKey()))
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(prevPs), func(a, b int) { prevPs[a], prevPs[b] = prevPs[b], prevPs[a] })
		rng.Shuffle(len(curPs), func(a, b int) { curPs[a], curPs[b] = curPs[b], curPs[a] })
		again := Diff(ptr(NewSnapshot(t0, prevPs)), NewSnapshot(t0, curPs))
		require.Len(t, again, len(first))
		for j := range first {
			assert.Equal(t, first[j].OutcomeKey(), again[j].OutcomeKey())
			assert.Equal(t, first[j].Kind(), again[j].Kind())
		}
	}
}

func TestNewSnapshot_DropsEmptyPositions(t *testing.T) {
	s := snap(pos("m1", "yes", "0", "0.4", "0"), pos("m2", "yes", "3", "0.4", "1.2"))
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get(OutcomeKey{MarketID: "m1", OutcomeID: "yes"})
	assert.False(t, ok)
}
