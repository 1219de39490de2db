package polymarket

// mapping.go: conversión del JSON de la Data API a domain.Position.
//
// La Data API devuelve objetos con campos opcionales y números que a veces llegan
// como string. Se lee con gjson para no depender de un DTO rígido: solo `size`
// es obligatorio, el resto cae a Indeterminate si falta.

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

var errNotArray = errors.New("response is not a JSON array")

// parsePositions devuelve las posiciones válidas y el número de items crudos de la página.
func parsePositions(body []byte) ([]domain.Position, int, error) {
	if !gjson.ValidBytes(body) {
		return nil, 0, fmt.Errorf("invalid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, 0, errNotArray
	}

	items := root.Array()
	positions := make([]domain.Position, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, 0, fmt.Errorf("item %d: not an object", i)
		}
		p, ok, err := mapPosition(item)
		if err != nil {
			return nil, 0, fmt.Errorf("item %d: %w", i, err)
		}
		if !ok {
			slog.Debug("skipping position without ids", "item", i)
			continue
		}
		positions = append(positions, p)
	}
	return positions, len(items), nil
}

// mapPosition convierte un item. ok=false si no tiene ni asset ni conditionId.
func mapPosition(item gjson.Result) (domain.Position, bool, error) {
	market := item.Get("conditionId").String()
	outcome := item.Get("asset").String()
	if outcome == "" {
		outcome = market
	}
	if market == "" {
		market = outcome
	}
	if outcome == "" {
		return domain.Position{}, false, nil
	}

	sizeRes := item.Get("size")
	if !sizeRes.Exists() || sizeRes.Type == gjson.Null {
		return domain.Position{}, false, fmt.Errorf("missing size")
	}
	shares, err := decimal.NewFromString(sizeRes.String())
	if err != nil {
		return domain.Position{}, false, fmt.Errorf("size %q: %w", sizeRes.String(), err)
	}
	if shares.IsNegative() {
		return domain.Position{}, false, fmt.Errorf("negative size %s", shares)
	}

	p := domain.Position{
		Key:     domain.OutcomeKey{MarketID: market, OutcomeID: outcome},
		Title:   firstString(item, "title"),
		Outcome: firstString(item, "outcome", "outcomeLabel"),
		Slug:    firstString(item, "eventSlug", "slug"),
		Shares:  shares,
	}

	fields := []struct {
		name string
		dst  *domain.Amount
	}{
		{"avgPrice", &p.AvgEntryPrice},
		{"initialValue", &p.CostBasis},
		{"currentValue", &p.CurrentValue},
		{"realizedPnl", &p.RealizedPnL},
	}
	for _, f := range fields {
		a, err := optionalAmount(item.Get(f.name))
		if err != nil {
			return domain.Position{}, false, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = a
	}

	if avg, ok := p.AvgEntryPrice.Value(); ok && (avg.IsNegative() || avg.GreaterThan(decimal.NewFromInt(1))) {
		return domain.Position{}, false, fmt.Errorf("avgPrice %s out of [0,1]", avg)
	}
	return p, true, nil
}

// optionalAmount lee un número (o string numérico). Ausente o null → Indeterminate.
func optionalAmount(r gjson.Result) (domain.Amount, error) {
	if !r.Exists() || r.Type == gjson.Null || (r.Type == gjson.String && r.String() == "") {
		return domain.Indeterminate(), nil
	}
	v, err := decimal.NewFromString(r.String())
	if err != nil {
		return domain.Amount{}, fmt.Errorf("not a number %q", r.String())
	}
	return domain.Known(v), nil
}

func firstString(item gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := item.Get(k).String(); s != "" {
			return s
		}
	}
	return ""
}
