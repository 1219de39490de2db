package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

type walletView struct {
	Name         string         `json:"name"`
	Address      string         `json:"address"`
	ProfileURL   string         `json:"profile_url"`
	AddedAt      time.Time      `json:"added_at"`
	LastPolledAt *time.Time     `json:"last_polled_at,omitempty"`
	Positions    *int           `json:"positions"` // null hasta el primer poll
	Holdings     []positionView `json:"holdings,omitempty"`
}

type positionView struct {
	MarketID      string           `json:"market_id"`
	OutcomeID     string           `json:"outcome_id"`
	Title         string           `json:"title,omitempty"`
	Outcome       string           `json:"outcome,omitempty"`
	MarketURL     string           `json:"market_url"`
	Shares        decimal.Decimal  `json:"shares"`
	AvgEntryPrice *decimal.Decimal `json:"avg_entry_price"`
	CostBasis     *decimal.Decimal `json:"cost_basis"`
	CurrentValue  *decimal.Decimal `json:"current_value"`
}

func newWalletView(e domain.WalletEntry, withHoldings bool) walletView {
	v := walletView{
		Name:       e.DisplayName,
		Address:    e.Address,
		ProfileURL: domain.ProfileURL(e.Address),
		AddedAt:    e.AddedAt,
	}
	if e.LastSnapshot == nil {
		return v
	}

	n := e.LastSnapshot.Len()
	at := e.LastSnapshot.CapturedAt()
	v.Positions = &n
	v.LastPolledAt = &at
	if withHoldings {
		v.Holdings = make([]positionView, 0, n)
		for _, p := range e.LastSnapshot.Positions() {
			v.Holdings = append(v.Holdings, positionView{
				MarketID:      p.Key.MarketID,
				OutcomeID:     p.Key.OutcomeID,
				Title:         p.Title,
				Outcome:       p.Outcome,
				MarketURL:     domain.MarketURL(p.Slug),
				Shares:        p.Shares,
				AvgEntryPrice: optional(p.AvgEntryPrice),
				CostBasis:     optional(p.CostBasis),
				CurrentValue:  optional(p.CurrentValue),
			})
		}
	}
	return v
}

func optional(a domain.Amount) *decimal.Decimal {
	v, ok := a.Value()
	if !ok {
		return nil
	}
	return &v
}
