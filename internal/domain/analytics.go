package domain

import "github.com/shopspring/decimal"

// Epsilon es la tolerancia para comparar shares y denominadores.
// El feed devuelve shares con ruido de redondeo en el 6º decimal.
var Epsilon = decimal.New(1, -6)

// EstimatedTradePrice estima el precio del trade incremental entre dos posiciones
// del mismo outcome: Δcoste / Δshares, limitado a [0,1].
//
// Es indeterminado si Δshares ≈ 0 o si falta el coste en alguno de los dos lados.
func EstimatedTradePrice(old, next Position) Amount {
	dShares := next.Shares.Sub(old.Shares)
	if dShares.Abs().LessThan(Epsilon) {
		return Indeterminate()
	}
	oldCost, ok1 := old.EffectiveCostBasis().Value()
	newCost, ok2 := next.EffectiveCostBasis().Value()
	if !ok1 || !ok2 {
		return Indeterminate()
	}
	return Known(clampUnit(newCost.Sub(oldCost).Div(dShares)))
}

// NewAverageEntryPrice devuelve el precio medio tras una compra.
// Usa el avgPrice del feed si existe; si no, la media ponderada
// (oldShares×oldAvg + added×tradePrice) / newShares.
func NewAverageEntryPrice(old, next Position) Amount {
	if next.AvgEntryPrice.IsKnown() {
		return next.AvgEntryPrice
	}
	if next.Shares.Abs().LessThan(Epsilon) {
		return Indeterminate()
	}
	oldAvg, ok := old.AvgEntryPrice.Value()
	if !ok {
		return Indeterminate()
	}
	trade, ok := EstimatedTradePrice(old, next).Value()
	if !ok {
		return Indeterminate()
	}
	added := next.Shares.Sub(old.Shares)
	weighted := old.Shares.Mul(oldAvg).Add(added.Mul(trade))
	return Known(clampUnit(weighted.Div(next.Shares)))
}

// EstimatedExitPrice estima el precio medio de venta de una reducción.
//
// El coste liberado (oldCost - newCost) solo refleja la entrada, así que hace falta
// el PnL realizado en ambos snapshots: ingresos = coste liberado + ΔrealizedPnL.
// Sin PnL realizado en el feed el resultado es indeterminado.
func EstimatedExitPrice(old, next Position) Amount {
	removed := old.Shares.Sub(next.Shares)
	if removed.LessThan(Epsilon) {
		return Indeterminate()
	}
	oldCost, ok1 := old.EffectiveCostBasis().Value()
	newCost, ok2 := next.EffectiveCostBasis().Value()
	oldPnL, ok3 := old.RealizedPnL.Value()
	newPnL, ok4 := next.RealizedPnL.Value()
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Indeterminate()
	}
	proceeds := oldCost.Sub(newCost).Add(newPnL.Sub(oldPnL))
	return Known(clampUnit(proceeds.Div(removed)))
}
