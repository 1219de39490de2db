package ports

import (
	"context"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

// PositionProvider obtiene las posiciones abiertas de una wallet.
type PositionProvider interface {
	// FetchPositions devuelve el snapshot actual de la wallet.
	// Los errores son *domain.FetchError; nunca devuelve un snapshot parcial.
	FetchPositions(ctx context.Context, address string) (domain.Snapshot, error)
}
