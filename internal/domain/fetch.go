package domain

import "fmt"

// FetchErrorKind clasifica los fallos del proveedor de posiciones.
// Todos son recuperables: el poll se reintenta en el siguiente ciclo.
type FetchErrorKind int

const (
	FetchUnavailable FetchErrorKind = iota // red o 5xx
	FetchNotFound
	FetchRateLimited
	FetchTimeout
	FetchMalformed
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchNotFound:
		return "not_found"
	case FetchRateLimited:
		return "rate_limited"
	case FetchTimeout:
		return "timeout"
	case FetchMalformed:
		return "malformed"
	}
	return "unavailable"
}

// FetchError es el error tipado que devuelve un PositionProvider.
type FetchError struct {
	Kind    FetchErrorKind
	Address string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch positions %s: %s: %v", ShortAddress(e.Address), e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, &FetchError{Kind: FetchTimeout}).
func (e *FetchError) Is(target error) bool {
	t, ok := target.(*FetchError)
	return ok && t.Kind == e.Kind
}
