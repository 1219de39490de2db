package domain

import "github.com/shopspring/decimal"

// Amount es un valor decimal que puede ser indeterminado.
// Se usa para precios y costes que el feed puede no exponer, o que no se pueden
// derivar con los datos disponibles. Un Amount indeterminado NO es cero.
type Amount struct {
	value decimal.Decimal
	known bool
}

// Known crea un Amount con valor.
func Known(d decimal.Decimal) Amount {
	return Amount{value: d, known: true}
}

// Indeterminate devuelve el Amount "no se puede calcular".
func Indeterminate() Amount {
	return Amount{}
}

// IsKnown devuelve true si el valor está determinado.
func (a Amount) IsKnown() bool {
	return a.known
}

// Value devuelve el valor y si está determinado.
func (a Amount) Value() (decimal.Decimal, bool) {
	return a.value, a.known
}

// Equal compara dos Amount: ambos indeterminados, o ambos con el mismo valor.
func (a Amount) Equal(b Amount) bool {
	if a.known != b.known {
		return false
	}
	return !a.known || a.value.Equal(b.value)
}

// StringFixed formatea con places decimales, o "n/a" si es indeterminado.
func (a Amount) StringFixed(places int32) string {
	if !a.known {
		return "n/a"
	}
	return a.value.StringFixed(places)
}

func (a Amount) String() string {
	if !a.known {
		return "n/a"
	}
	return a.value.String()
}

// clampUnit limita d al rango [0,1] de precios de un outcome.
func clampUnit(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return d
}
