package domain

import "github.com/shopspring/decimal"

// DiffOptions ajusta la sensibilidad del diff.
type DiffOptions struct {
	// MinShareChange es el cambio mínimo de shares para alertar un aumento o
	// reducción. Nunca es menor que Epsilon.
	MinShareChange decimal.Decimal
}

// Diff compara dos snapshots de la misma wallet y devuelve los eventos
// ordenados por OutcomeKey ascendente.
//
// previous == nil es el primer poll: no hay eventos, current solo sirve de baseline.
func Diff(previous *Snapshot, current Snapshot) []Event {
	return DiffWith(DiffOptions{}, previous, current)
}

// DiffWith es Diff con opciones explícitas.
func DiffWith(opts DiffOptions, previous *Snapshot, current Snapshot) []Event {
	if previous == nil {
		return nil
	}

	threshold := opts.MinShareChange
	if threshold.LessThan(Epsilon) {
		threshold = Epsilon
	}

	keys := unionKeys(*previous, current)
	events := make([]Event, 0)
	for _, key := range keys {
		prev, hadPrev := previous.Get(key)
		cur, hasCur := current.Get(key)
		if ev := classify(key, prev, hadPrev, cur, hasCur, threshold); ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

// classify decide el evento para una key. Devuelve nil si no hay cambio de shares.
func classify(key OutcomeKey, prev Position, hadPrev bool, cur Position, hasCur bool, threshold decimal.Decimal) Event {
	var prevShares, curShares decimal.Decimal
	if hadPrev {
		prevShares = prev.Shares
	}
	if hasCur {
		curShares = cur.Shares
	}

	delta := curShares.Sub(prevShares)
	// Ruido de redondeo: se trata como sin cambio, también en aperturas y cierres.
	if delta.Abs().LessThan(Epsilon) {
		return nil
	}

	switch {
	case !hadPrev:
		return Opened{
			Key:        key,
			Shares:     curShares,
			EntryPrice: cur.AvgEntryPrice,
			Current:    cur,
		}

	case !hasCur || curShares.LessThan(Epsilon):
		return Closed{
			Key:           key,
			FinalShares:   decimal.Zero,
			OldShares:     prevShares,
			AvgEntryPrice: prev.AvgEntryPrice,
			ExitPrice:     Indeterminate(),
			Previous:      prev,
		}

	case delta.Abs().LessThan(threshold):
		return nil

	case delta.IsPositive():
		return Increased{
			Key:                 key,
			AddedShares:         delta,
			OldShares:           prevShares,
			NewShares:           curShares,
			OldAvgEntry:         prev.AvgEntryPrice,
			NewAvgEntry:         NewAverageEntryPrice(prev, cur),
			EstimatedTradePrice: EstimatedTradePrice(prev, cur),
			Current:             cur,
		}

	default:
		return Decreased{
			Key:                key,
			RemovedShares:      delta.Neg(),
			OldShares:          prevShares,
			NewShares:          curShares,
			EstimatedExitPrice: EstimatedExitPrice(prev, cur),
			Current:            cur,
		}
	}
}

// unionKeys devuelve las keys de ambos snapshots, sin duplicados y ordenadas.
func unionKeys(a, b Snapshot) []OutcomeKey {
	seen := make(map[OutcomeKey]struct{}, a.Len()+b.Len())
	keys := make([]OutcomeKey, 0, a.Len()+b.Len())
	for _, s := range []Snapshot{a, b} {
		for k := range s.positions {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	return keys
}
