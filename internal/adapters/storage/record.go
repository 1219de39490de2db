package storage

// record.go: forma durable de un WalletEntry, compartida por los backends JSON y SQLite.
//
// Los importes viajan como strings decimales (shopspring/decimal serializa así) para no
// perder precisión. Un importe desconocido se guarda como null, nunca como 0.

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

type walletRecord struct {
	ID           string          `json:"id"`
	Address      string          `json:"address"`
	AddedAt      time.Time       `json:"addedAt"`
	LastSnapshot *snapshotRecord `json:"lastSnapshot"`
}

type snapshotRecord struct {
	CapturedAt time.Time        `json:"capturedAt"`
	Positions  []positionRecord `json:"positions"`
}

type positionRecord struct {
	MarketID      string           `json:"marketId"`
	OutcomeID     string           `json:"outcomeId"`
	Title         string           `json:"title,omitempty"`
	Outcome       string           `json:"outcome,omitempty"`
	Slug          string           `json:"slug,omitempty"`
	Shares        decimal.Decimal  `json:"shares"`
	AvgEntryPrice *decimal.Decimal `json:"avgEntryPrice"`
	CostBasis     *decimal.Decimal `json:"costBasis"`
	CurrentValue  *decimal.Decimal `json:"currentValue"`
	RealizedPnL   *decimal.Decimal `json:"realizedPnl"`
}

func toRecord(e domain.WalletEntry) walletRecord {
	rec := walletRecord{
		ID:      e.ID,
		Address: e.Address,
		AddedAt: e.AddedAt.UTC(),
	}
	if e.LastSnapshot != nil {
		rec.LastSnapshot = toSnapshotRecord(*e.LastSnapshot)
	}
	return rec
}

func toSnapshotRecord(s domain.Snapshot) *snapshotRecord {
	positions := s.Positions()
	out := &snapshotRecord{
		CapturedAt: s.CapturedAt().UTC(),
		Positions:  make([]positionRecord, 0, len(positions)),
	}
	for _, p := range positions {
		out.Positions = append(out.Positions, positionRecord{
			MarketID:      p.Key.MarketID,
			OutcomeID:     p.Key.OutcomeID,
			Title:         p.Title,
			Outcome:       p.Outcome,
			Slug:          p.Slug,
			Shares:        p.Shares,
			AvgEntryPrice: amountPtr(p.AvgEntryPrice),
			CostBasis:     amountPtr(p.CostBasis),
			CurrentValue:  amountPtr(p.CurrentValue),
			RealizedPnL:   amountPtr(p.RealizedPnL),
		})
	}
	return out
}

func fromRecord(name string, rec walletRecord) (domain.WalletEntry, error) {
	addr, err := domain.NormalizeAddress(rec.Address)
	if err != nil {
		return domain.WalletEntry{}, fmt.Errorf("wallet %q: %w", name, err)
	}
	e := domain.WalletEntry{
		ID:          rec.ID,
		Address:     addr,
		DisplayName: name,
		AddedAt:     rec.AddedAt.UTC(),
	}
	if rec.LastSnapshot != nil {
		snap := fromSnapshotRecord(*rec.LastSnapshot)
		e.LastSnapshot = &snap
	}
	return e, nil
}

func fromSnapshotRecord(rec snapshotRecord) domain.Snapshot {
	positions := make([]domain.Position, 0, len(rec.Positions))
	for _, p := range rec.Positions {
		positions = append(positions, domain.Position{
			Key:           domain.OutcomeKey{MarketID: p.MarketID, OutcomeID: p.OutcomeID},
			Title:         p.Title,
			Outcome:       p.Outcome,
			Slug:          p.Slug,
			Shares:        p.Shares,
			AvgEntryPrice: ptrAmount(p.AvgEntryPrice),
			CostBasis:     ptrAmount(p.CostBasis),
			CurrentValue:  ptrAmount(p.CurrentValue),
			RealizedPnL:   ptrAmount(p.RealizedPnL),
		})
	}
	return domain.NewSnapshot(rec.CapturedAt, positions)
}

func amountPtr(a domain.Amount) *decimal.Decimal {
	v, ok := a.Value()
	if !ok {
		return nil
	}
	return &v
}

func ptrAmount(d *decimal.Decimal) domain.Amount {
	if d == nil {
		return domain.Indeterminate()
	}
	return domain.Known(*d)
}
