package notify

import (
	"context"
	"errors"

	"github.com/alejandrodnm/polytracker/internal/domain"
	"github.com/alejandrodnm/polytracker/internal/ports"
)

// Multi reparte cada alerta a varios notificadores. Un fallo en uno no impide
// la entrega al resto; los errores se devuelven juntos.
type Multi struct {
	sinks []ports.Notifier
}

// NewMulti crea un Multi. Los nil se ignoran.
func NewMulti(sinks ...ports.Notifier) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Notify entrega la alerta a todos los sinks en orden.
func (m *Multi) Notify(ctx context.Context, a domain.Alert) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
