package domain

import "github.com/shopspring/decimal"

// EventKind es el tipo de cambio detectado en una posición.
type EventKind int

const (
	EventOpened EventKind = iota
	EventIncreased
	EventDecreased
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventIncreased:
		return "increased"
	case EventDecreased:
		return "decreased"
	case EventClosed:
		return "closed"
	}
	return "unknown"
}

// Event es el resultado del diff para un outcome. Las implementaciones son
// Opened, Increased, Decreased y Closed.
type Event interface {
	Kind() EventKind
	OutcomeKey() OutcomeKey
	// Position devuelve la posición de referencia (la actual, o la previa si se cerró)
	// para que los sinks tengan título, outcome y slug.
	Position() Position
}

// Opened: nueva posición en un outcome que no existía en el snapshot anterior.
type Opened struct {
	Key        OutcomeKey
	Shares     decimal.Decimal
	EntryPrice Amount
	Current    Position
}

// Increased: la wallet compró más shares de un outcome ya abierto.
type Increased struct {
	Key                 OutcomeKey
	AddedShares         decimal.Decimal
	OldShares           decimal.Decimal
	NewShares           decimal.Decimal
	OldAvgEntry         Amount
	NewAvgEntry         Amount
	EstimatedTradePrice Amount
	Current             Position
}

// Decreased: la wallet vendió parte de la posición.
type Decreased struct {
	Key                OutcomeKey
	RemovedShares      decimal.Decimal
	OldShares          decimal.Decimal
	NewShares          decimal.Decimal
	EstimatedExitPrice Amount
	Current            Position
}

// Closed: la posición desapareció (venta total o redeem).
type Closed struct {
	Key           OutcomeKey
	FinalShares   decimal.Decimal // siempre 0
	OldShares     decimal.Decimal
	AvgEntryPrice Amount
	// ExitPrice es indeterminado salvo que el feed exponga el coste realizado;
	// una posición ausente no lo expone.
	ExitPrice Amount
	Previous  Position
}

func (e Opened) Kind() EventKind    { return EventOpened }
func (e Increased) Kind() EventKind { return EventIncreased }
func (e Decreased) Kind() EventKind { return EventDecreased }
func (e Closed) Kind() EventKind    { return EventClosed }

func (e Opened) OutcomeKey() OutcomeKey    { return e.Key }
func (e Increased) OutcomeKey() OutcomeKey { return e.Key }
func (e Decreased) OutcomeKey() OutcomeKey { return e.Key }
func (e Closed) OutcomeKey() OutcomeKey    { return e.Key }

func (e Opened) Position() Position    { return e.Current }
func (e Increased) Position() Position { return e.Current }
func (e Decreased) Position() Position { return e.Current }
func (e Closed) Position() Position    { return e.Previous }

// Alert es el registro que se entrega al sink: qué wallet y qué cambió.
type Alert struct {
	WalletName string
	Address    string
	Event      Event
}
