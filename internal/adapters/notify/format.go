package notify

// format.go: texto de las alertas (Markdown de Telegram).
//
// Un importe indeterminado se muestra como "n/a", nunca como 0.

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

const unknownText = "Unknown"

// Format renderiza una alerta como mensaje Markdown.
func Format(a domain.Alert) string {
	pos := a.Event.Position()
	who := fmt.Sprintf("[%s](%s)", domain.MarkdownSafe(a.WalletName), domain.ProfileURL(a.Address))

	var sb strings.Builder
	switch ev := a.Event.(type) {
	case domain.Opened:
		fmt.Fprintf(&sb, "✅ *NEW BET:* %s\n\n", who)
		writeMarket(&sb, pos)
		fmt.Fprintf(&sb, "Size: %s shares\n", shares(ev.Shares))
		fmt.Fprintf(&sb, "Avg Price: %s\n", price(ev.EntryPrice))
	case domain.Increased:
		fmt.Fprintf(&sb, "📈 *INCREASED:* %s\n\n", who)
		writeMarket(&sb, pos)
		fmt.Fprintf(&sb, "Added: +%s shares (%s ➜ %s)\n", shares(ev.AddedShares), shares(ev.OldShares), shares(ev.NewShares))
		fmt.Fprintf(&sb, "Trade Price: ~%s\n", price(ev.EstimatedTradePrice))
		fmt.Fprintf(&sb, "Avg: %s ➜ %s\n", price(ev.OldAvgEntry), price(ev.NewAvgEntry))
	case domain.Decreased:
		fmt.Fprintf(&sb, "📉 *SOLD / DECREASED:* %s\n\n", who)
		writeMarket(&sb, pos)
		fmt.Fprintf(&sb, "Sold: -%s shares (%s ➜ %s)\n", shares(ev.RemovedShares), shares(ev.OldShares), shares(ev.NewShares))
		fmt.Fprintf(&sb, "Exit Price: ~%s\n", price(ev.EstimatedExitPrice))
	case domain.Closed:
		fmt.Fprintf(&sb, "🚪 *POSITION CLOSED:* %s\n\n", who)
		writeMarket(&sb, pos)
		fmt.Fprintf(&sb, "Sold: -%s shares (sold all or redeemed)\n", shares(ev.OldShares))
		fmt.Fprintf(&sb, "Avg Entry: %s\n", price(ev.AvgEntryPrice))
		fmt.Fprintf(&sb, "Exit Price: %s\n", price(ev.ExitPrice))
	default:
		fmt.Fprintf(&sb, "%s: %s\n", a.Event.Kind(), who)
		writeMarket(&sb, pos)
	}

	fmt.Fprintf(&sb, "\n[View Market](%s)", domain.MarketURL(pos.Slug))
	return sb.String()
}

// Title devuelve una línea corta para logs y consola: "opened whale1 Will X? (Yes)".
func Title(a domain.Alert) string {
	pos := a.Event.Position()
	return fmt.Sprintf("%s %s %s (%s)", a.Event.Kind(), a.WalletName, orUnknown(pos.Title), orUnknown(pos.Outcome))
}

func writeMarket(sb *strings.Builder, p domain.Position) {
	fmt.Fprintf(sb, "Event: %s\n", domain.MarkdownSafe(orUnknown(p.Title)))
	fmt.Fprintf(sb, "Pick: *%s*\n", domain.MarkdownSafe(orUnknown(p.Outcome)))
}

func shares(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func price(a domain.Amount) string {
	if !a.IsKnown() {
		return a.String()
	}
	return "$" + a.StringFixed(4)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownText
	}
	return s
}
