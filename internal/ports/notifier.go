package ports

import (
	"context"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

// Notifier entrega alertas de cambios de posición. Best-effort: el caller
// aplica el timeout y solo loguea los errores.
type Notifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}
