package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// OutcomeKey identifica un lado de un mercado: (conditionID, tokenID/outcome).
type OutcomeKey struct {
	MarketID  string
	OutcomeID string
}

// Less ordena por MarketID y después por OutcomeID.
func (k OutcomeKey) Less(o OutcomeKey) bool {
	if k.MarketID != o.MarketID {
		return k.MarketID < o.MarketID
	}
	return k.OutcomeID < o.OutcomeID
}

func (k OutcomeKey) String() string {
	return k.MarketID + "/" + k.OutcomeID
}

// Position es la posición abierta de una wallet en un outcome.
type Position struct {
	Key OutcomeKey

	// Metadata para las alertas; no participa en el diff.
	Title   string
	Outcome string // "Yes" | "No" | label del outcome
	Slug    string

	Shares        decimal.Decimal
	AvgEntryPrice Amount // [0,1], puede faltar en el feed
	CostBasis     Amount // USDC gastados en las shares actuales
	CurrentValue  Amount
	RealizedPnL   Amount // PnL realizado acumulado, si el feed lo expone
}

// EffectiveCostBasis devuelve el coste del feed o, si falta, shares × avgEntry.
func (p Position) EffectiveCostBasis() Amount {
	if p.CostBasis.IsKnown() {
		return p.CostBasis
	}
	if avg, ok := p.AvgEntryPrice.Value(); ok {
		return Known(p.Shares.Mul(avg))
	}
	return Indeterminate()
}

// Snapshot es el conjunto de posiciones abiertas de una wallet en un instante.
// Es inmutable: no exponer el map interno.
type Snapshot struct {
	positions  map[OutcomeKey]Position
	capturedAt time.Time
}

// NewSnapshot construye un snapshot. Las posiciones con shares <= 0 se descartan
// (ausencia == sin posición). Si una key se repite gana la última.
func NewSnapshot(capturedAt time.Time, positions []Position) Snapshot {
	m := make(map[OutcomeKey]Position, len(positions))
	for _, p := range positions {
		if p.Shares.Sign() <= 0 {
			delete(m, p.Key)
			continue
		}
		m[p.Key] = p
	}
	return Snapshot{positions: m, capturedAt: capturedAt}
}

// CapturedAt devuelve el momento del poll.
func (s Snapshot) CapturedAt() time.Time {
	return s.capturedAt
}

// Len devuelve el número de posiciones abiertas.
func (s Snapshot) Len() int {
	return len(s.positions)
}

// Get devuelve la posición para key.
func (s Snapshot) Get(key OutcomeKey) (Position, bool) {
	p, ok := s.positions[key]
	return p, ok
}

// Keys devuelve las keys en orden ascendente.
func (s Snapshot) Keys() []OutcomeKey {
	keys := make([]OutcomeKey, 0, len(s.positions))
	for k := range s.positions {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// Positions devuelve una copia de las posiciones ordenadas por key.
func (s Snapshot) Positions() []Position {
	out := make([]Position, 0, len(s.positions))
	for _, k := range s.Keys() {
		out = append(out, s.positions[k])
	}
	return out
}

func sortKeys(keys []OutcomeKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
