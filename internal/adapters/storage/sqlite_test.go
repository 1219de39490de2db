package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polytracker/internal/adapters/storage"
	"github.com/alejandrodnm/polytracker/internal/domain"
	"github.com/alejandrodnm/polytracker/internal/ports"
)

const addr = "0x8f0a2abc5d7e3f1b9c4d6e8f0a1b2c3d4e5f6a7b"

func makeEntry(name string, withSnapshot bool) domain.WalletEntry {
	e := domain.WalletEntry{
		ID:          "id-" + name,
		Address:     addr,
		DisplayName: name,
		AddedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if withSnapshot {
		snap := domain.NewSnapshot(time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC), []domain.Position{
			{
				Key:           domain.OutcomeKey{MarketID: "0xcond", OutcomeID: "tok_yes"},
				Title:         "Will X happen?",
				Outcome:       "Yes",
				Slug:          "x-event",
				Shares:        decimal.RequireFromString("150.123456"),
				AvgEntryPrice: domain.Known(decimal.RequireFromString("0.46")),
				CostBasis:     domain.Known(decimal.RequireFromString("69")),
				CurrentValue:  domain.Indeterminate(),
				RealizedPnL:   domain.Known(decimal.Zero),
			},
		})
		e.LastSnapshot = &snap
	}
	return e
}

// backends devuelve una instancia fresca de cada implementación.
func backends(t *testing.T) map[string]func() ports.WatchlistStorage {
	return map[string]func() ports.WatchlistStorage{
		"json": func() ports.WatchlistStorage {
			s, err := storage.NewJSONWatchlist(filepath.Join(t.TempDir(), "watchlist.json"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func() ports.WatchlistStorage {
			s, err := storage.NewSQLiteWatchlist(":memory:")
			require.NoError(t, err)
			return s
		},
	}
}

func TestWatchlistStorage_SaveAndLoad(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			db := open()
			defer db.Close()
			ctx := context.Background()

			require.NoError(t, db.SaveWallet(ctx, makeEntry("Whale1", true)))
			require.NoError(t, db.SaveWallet(ctx, makeEntry("fresh", false)))

			loaded, err := db.LoadWatchlist(ctx)
			require.NoError(t, err)
			require.Len(t, loaded, 2)

			byName := map[string]domain.WalletEntry{}
			for _, e := range loaded {
				byName[e.DisplayName] = e
			}

			fresh := byName["fresh"]
			assert.Nil(t, fresh.LastSnapshot)

			w := byName["Whale1"]
			assert.Equal(t, "id-Whale1", w.ID)
			assert.Equal(t, addr, w.Address)
			assert.True(t, w.AddedAt.Equal(makeEntry("x", false).AddedAt))
			require.NotNil(t, w.LastSnapshot)

			p, ok := w.LastSnapshot.Get(domain.OutcomeKey{MarketID: "0xcond", OutcomeID: "tok_yes"})
			require.True(t, ok)
			assert.Equal(t, "150.123456", p.Shares.String())
			assert.Equal(t, "0.46", p.AvgEntryPrice.String())
			assert.False(t, p.CurrentValue.IsKnown(), "indeterminate survives as indeterminate, not zero")
			assert.True(t, p.RealizedPnL.IsKnown())
			assert.Equal(t, "Yes", p.Outcome)
		})
	}
}

func TestWatchlistStorage_UpsertIsCaseInsensitive(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			db := open()
			defer db.Close()
			ctx := context.Background()

			require.NoError(t, db.SaveWallet(ctx, makeEntry("whale1", false)))
			require.NoError(t, db.SaveWallet(ctx, makeEntry("WHALE1", true)))

			loaded, err := db.LoadWatchlist(ctx)
			require.NoError(t, err)
			require.Len(t, loaded, 1)
			assert.NotNil(t, loaded[0].LastSnapshot)
		})
	}
}

func TestWatchlistStorage_Delete(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			db := open()
			defer db.Close()
			ctx := context.Background()

			require.NoError(t, db.SaveWallet(ctx, makeEntry("whale1", true)))
			require.NoError(t, db.DeleteWallet(ctx, "Whale1"))
			assert.NoError(t, db.DeleteWallet(ctx, "missing"))

			loaded, err := db.LoadWatchlist(ctx)
			require.NoError(t, err)
			assert.Empty(t, loaded)
		})
	}
}

func TestSQLiteWatchlist_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.db")
	ctx := context.Background()

	db, err := storage.NewSQLiteWatchlist(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveWallet(ctx, makeEntry("whale1", true)))
	require.NoError(t, db.Close())

	db, err = storage.NewSQLiteWatchlist(path)
	require.NoError(t, err)
	defer db.Close()

	loaded, err := db.LoadWatchlist(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 1, loaded[0].LastSnapshot.Len())
}
