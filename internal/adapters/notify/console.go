package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

// Console implementa ports.Notifier escribiendo en un io.Writer.
// Se usa cuando no hay credenciales de Telegram y en modo -once.
type Console struct {
	out  io.Writer
	full bool // true: mensaje Markdown completo; false: una fila de tabla por alerta

	mu sync.Mutex
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(full bool) *Console {
	return &Console{out: os.Stdout, full: full}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, full bool) *Console {
	return &Console{out: w, full: full}
}

// Notify imprime la alerta.
func (c *Console) Notify(_ context.Context, a domain.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().Format("15:04:05")
	if c.full {
		_, err := fmt.Fprintf(c.out, "\n[%s]\n%s\n", now, Format(a))
		return err
	}

	pos := a.Event.Position()
	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Wallet", "Event", "Market", "Pick", "Shares", "Price")
	if err := table.Append(
		now,
		a.WalletName,
		a.Event.Kind().String(),
		truncate(orUnknown(pos.Title), 40),
		orUnknown(pos.Outcome),
		eventShares(a.Event),
		eventPrice(a.Event),
	); err != nil {
		return fmt.Errorf("notify.Console: %w", err)
	}
	return table.Render()
}

// PrintWatchlist imprime las wallets en seguimiento como tabla.
func (c *Console) PrintWatchlist(entries []domain.WalletEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(entries) == 0 {
		_, err := fmt.Fprintln(c.out, "No wallets being tracked.")
		return err
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Name", "Address", "Added", "Positions")
	for i, e := range entries {
		positions := "-"
		if e.LastSnapshot != nil {
			positions = fmt.Sprintf("%d", e.LastSnapshot.Len())
		}
		if err := table.Append(
			fmt.Sprintf("%d", i+1),
			e.DisplayName,
			e.Address,
			e.AddedAt.Format("2006-01-02 15:04"),
			positions,
		); err != nil {
			return fmt.Errorf("notify.PrintWatchlist: %w", err)
		}
	}
	return table.Render()
}

// eventShares resume el cambio de shares: "+50.00", "-20.00", "100.00".
func eventShares(ev domain.Event) string {
	switch e := ev.(type) {
	case domain.Opened:
		return shares(e.Shares)
	case domain.Increased:
		return "+" + shares(e.AddedShares)
	case domain.Decreased:
		return "-" + shares(e.RemovedShares)
	case domain.Closed:
		return "-" + shares(e.OldShares)
	}
	return ""
}

// eventPrice devuelve el precio estimado relevante para el tipo de evento.
func eventPrice(ev domain.Event) string {
	switch e := ev.(type) {
	case domain.Opened:
		return price(e.EntryPrice)
	case domain.Increased:
		return price(e.EstimatedTradePrice)
	case domain.Decreased:
		return price(e.EstimatedExitPrice)
	case domain.Closed:
		return price(e.ExitPrice)
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
