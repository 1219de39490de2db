package commands

// processor.go: ejecuta los comandos del usuario contra el watchlist.
//
// El procesador no conoce el transporte: recibe un Command y devuelve un Result con
// el texto de respuesta (Markdown) y el error de dominio, si lo hubo. Telegram, la
// API HTTP o un test lo usan igual.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alejandrodnm/polytracker/internal/application/watchlist"
	"github.com/alejandrodnm/polytracker/internal/domain"
)

// Result es la respuesta a un comando.
type Result struct {
	Reply   string
	Entry   *domain.WalletEntry  // wallet añadida o borrada
	Entries []domain.WalletEntry // para /list
	Err     error                // error de dominio; Reply ya lo explica al usuario
}

// Processor traduce comandos a operaciones del Store.
type Processor struct {
	store           *watchlist.Store
	intervalSeconds int
}

// NewProcessor crea un Processor. intervalSeconds solo se usa en el texto de ayuda.
func NewProcessor(store *watchlist.Store, intervalSeconds int) *Processor {
	return &Processor{store: store, intervalSeconds: intervalSeconds}
}

// Handle ejecuta cmd. Nunca devuelve Reply vacío.
func (p *Processor) Handle(ctx context.Context, cmd Command) Result {
	var res Result
	switch cmd.Kind {
	case KindStart:
		res = Result{Reply: startText}
	case KindHelp:
		res = Result{Reply: p.helpText()}
	case KindAdd:
		res = p.add(ctx, cmd.Args)
	case KindRemove:
		res = p.remove(ctx, cmd.Args)
	case KindList:
		entries := p.store.List()
		res = Result{Reply: FormatList(entries), Entries: entries}
	default:
		res = Result{Reply: fmt.Sprintf("❓ Unknown command `/%s`. Use /help.", domain.MarkdownSafe(cmd.Name))}
	}

	slog.Debug("command handled", "command", cmd.Kind.String(), "err", res.Err)
	return res
}

// Add añade una wallet. Expuesto para transportes estructurados (API HTTP).
func (p *Processor) Add(ctx context.Context, address, name string) Result {
	e, err := p.store.Add(ctx, address, name)
	switch {
	case err == nil:
		slog.Info("wallet added", "wallet", e.DisplayName, "address", domain.ShortAddress(e.Address))
		return Result{
			Reply: fmt.Sprintf("✅ Added *%s* (`%s`) to tracker. Alerts start after the first poll.",
				domain.MarkdownSafe(e.DisplayName), domain.ShortAddress(e.Address)),
			Entry: &e,
		}
	case errors.Is(err, domain.ErrInvalidAddress):
		return Result{Reply: "❌ Invalid wallet address. Expected 0x followed by 40 hex characters.", Err: err}
	case errors.Is(err, domain.ErrInvalidName):
		return Result{Reply: "❌ Wallet name cannot be empty.", Err: err}
	case errors.Is(err, domain.ErrDuplicateName):
		return Result{Reply: fmt.Sprintf("❌ A wallet named *%s* is already tracked.", domain.MarkdownSafe(strings.TrimSpace(name))), Err: err}
	default:
		slog.Error("add wallet failed", "wallet", name, "err", err)
		return Result{Reply: "⚠️ Could not save the watchlist. Try again later.", Err: err}
	}
}

// Remove borra una wallet por nombre (sin mayúsculas) o por dirección exacta.
func (p *Processor) Remove(ctx context.Context, query string) Result {
	query = strings.TrimSpace(query)
	name := query
	if _, ok := p.store.Get(query); !ok && strings.HasPrefix(query, "0x") {
		if e, ok := p.store.FindByAddress(query); ok {
			name = e.DisplayName
		}
	}

	e, err := p.store.Remove(ctx, name)
	switch {
	case err == nil:
		slog.Info("wallet removed", "wallet", e.DisplayName)
		return Result{Reply: fmt.Sprintf("🗑️ Removed *%s* from tracker.", domain.MarkdownSafe(e.DisplayName)), Entry: &e}
	case errors.Is(err, domain.ErrNotFound):
		return Result{Reply: fmt.Sprintf("❌ Could not find wallet matching '%s'.", domain.MarkdownSafe(query)), Err: err}
	default:
		slog.Error("remove wallet failed", "wallet", name, "err", err)
		return Result{Reply: "⚠️ Could not save the watchlist. Try again later.", Err: err}
	}
}

func (p *Processor) add(ctx context.Context, args []string) Result {
	if len(args) < 2 {
		return Result{Reply: "Usage: `/add <0xAddress> <name>`", Err: errUsage}
	}
	return p.Add(ctx, args[0], strings.Join(args[1:], " "))
}

func (p *Processor) remove(ctx context.Context, args []string) Result {
	if len(args) == 0 {
		return Result{Reply: "Usage: `/remove <name>` or `/remove <0xAddress>`", Err: errUsage}
	}
	return p.Remove(ctx, strings.Join(args, " "))
}

var errUsage = errors.New("invalid command usage")

// IsUsage indica si el error es de sintaxis del comando.
func IsUsage(err error) bool {
	return errors.Is(err, errUsage)
}
