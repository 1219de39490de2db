package ports

import (
	"context"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

// WatchlistStorage persiste el watchlist. Cada escritura debe ser atómica:
// tras un crash se observa el estado anterior o el nuevo, nunca uno parcial.
type WatchlistStorage interface {
	// LoadWatchlist devuelve todas las wallets guardadas.
	LoadWatchlist(ctx context.Context) ([]domain.WalletEntry, error)

	// SaveWallet inserta o reemplaza la wallet (por nombre, sin mayúsculas).
	SaveWallet(ctx context.Context, entry domain.WalletEntry) error

	// DeleteWallet borra la wallet. Borrar una inexistente no es error.
	DeleteWallet(ctx context.Context, name string) error

	Close() error
}
