package telegram

// listener.go: fuente de comandos: long-polling de getUpdates.
//
// Solo se atienden mensajes del chat permitido; el resto se ignora sin responder.

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polytracker/internal/application/commands"
)

// Handler ejecuta un comando. Lo implementa *commands.Processor.
type Handler interface {
	Handle(ctx context.Context, cmd commands.Command) commands.Result
}

// Listener recibe comandos del chat y responde.
type Listener struct {
	bot         *Bot
	handler     Handler
	allowedChat string
	pollTimeout time.Duration
	errorWait   time.Duration
	offset      int64
}

// NewListener crea el listener. allowedChat vacío acepta cualquier chat.
func NewListener(bot *Bot, handler Handler, allowedChat string, pollTimeout time.Duration) *Listener {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &Listener{
		bot:         bot,
		handler:     handler,
		allowedChat: allowedChat,
		pollTimeout: pollTimeout,
		errorWait:   3 * time.Second,
	}
}

// Run atiende comandos hasta que el contexto se cancele.
func (l *Listener) Run(ctx context.Context) error {
	slog.Info("telegram listener starting", "poll_timeout", l.pollTimeout)
	for {
		if ctx.Err() != nil {
			slog.Info("telegram listener stopped")
			return nil
		}

		updates, err := l.bot.GetUpdates(ctx, l.offset, l.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			slog.Warn("telegram getUpdates failed", "err", err)
			_ = sleep(ctx, l.errorWait)
			continue
		}

		for _, u := range updates {
			l.offset = u.ID + 1
			l.handle(ctx, u)
		}
	}
}

// handle procesa un update. Un fallo respondiendo no para el listener.
func (l *Listener) handle(ctx context.Context, u Update) {
	if l.allowedChat != "" && u.ChatID != l.allowedChat {
		slog.Debug("ignoring message from unauthorized chat", "chat_id", u.ChatID)
		return
	}
	cmd, ok := commands.Parse(u.Text)
	if !ok {
		return
	}

	res := l.handler.Handle(ctx, cmd)
	if err := l.bot.SendMessage(ctx, u.ChatID, res.Reply); err != nil {
		slog.Warn("telegram reply failed", "command", cmd.Kind.String(), "err", err)
	}
}
