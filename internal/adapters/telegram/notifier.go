package telegram

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/polytracker/internal/adapters/notify"
	"github.com/alejandrodnm/polytracker/internal/domain"
)

// Notifier implementa ports.Notifier enviando cada alerta al chat configurado.
type Notifier struct {
	bot    *Bot
	chatID string
}

// NewNotifier crea el sink de Telegram.
func NewNotifier(bot *Bot, chatID string) *Notifier {
	return &Notifier{bot: bot, chatID: chatID}
}

// Notify envía la alerta formateada.
func (n *Notifier) Notify(ctx context.Context, a domain.Alert) error {
	if err := n.bot.SendMessage(ctx, n.chatID, notify.Format(a)); err != nil {
		return fmt.Errorf("telegram.Notify %s: %w", notify.Title(a), err)
	}
	return nil
}
