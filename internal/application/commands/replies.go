package commands

import (
	"fmt"
	"strings"

	"github.com/alejandrodnm/polytracker/internal/domain"
)

const startText = "🤖 *PolyTracker Ready!*\n\n" +
	"Use /help to see how to use this bot.\n\n" +
	"Quick Commands:\n" +
	"`/add <address> <name>`\n" +
	"`/remove <name>`\n" +
	"`/list`"

func (p *Processor) helpText() string {
	every := "every poll interval"
	if p.intervalSeconds > 0 {
		every = fmt.Sprintf("every %d seconds", p.intervalSeconds)
	}
	return "📚 *How to use PolyTracker*\n\n" +
		"1. *Find a Trader:* copy the 0x wallet address from their Polymarket profile URL.\n" +
		"2. *Add to Watchlist:* `/add <address> <name>`\n" +
		"3. *Receive Alerts:* the bot checks " + every + ". You will receive alerts for:\n" +
		"   ✅ New Bets\n" +
		"   📈 Increased Position\n" +
		"   📉 Decreased Position (Sold)\n" +
		"   🚪 Position Closed (Sold All/Redeemed)\n\n" +
		"🛠 *All Commands:*\n" +
		"`/add <address> <name>` - Start tracking a wallet\n" +
		"`/remove <name or address>` - Stop tracking a wallet\n" +
		"`/list` - See currently tracked wallets\n" +
		"`/help` - Show this guide"
}

// FormatList renderiza el listado de wallets, por orden de alta.
func FormatList(entries []domain.WalletEntry) string {
	if len(entries) == 0 {
		return "📭 No wallets being tracked."
	}
	var sb strings.Builder
	sb.WriteString("📋 *Tracked Wallets:*\n")
	for _, e := range entries {
		state := "waiting for first poll"
		if e.LastSnapshot != nil {
			state = fmt.Sprintf("%d positions", e.LastSnapshot.Len())
		}
		fmt.Fprintf(&sb, "• [%s](%s): `%s` (%s)\n",
			domain.MarkdownSafe(e.DisplayName), domain.ProfileURL(e.Address), domain.ShortAddress(e.Address), state)
	}
	return strings.TrimRight(sb.String(), "\n")
}
