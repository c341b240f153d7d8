package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/agentkyo/jadlog-bot/internal/core/ports"
)

// notifier implements ports.Notifier on top of the bot client. For private
// chats the chat id equals the user id, so notifications address users
// directly. The underlying client is not context-aware; the argument is kept
// for interface symmetry with the rest of the blocking I/O surface.
type notifier struct {
	api *tgbotapi.BotAPI
}

// NewNotifier returns the outbound notification adapter for the bot client.
func NewNotifier(api *tgbotapi.BotAPI) ports.Notifier {
	return &notifier{api: api}
}

func (n *notifier) Notify(_ context.Context, userID int64, text string) error {
	_, err := n.api.Send(tgbotapi.NewMessage(userID, text))
	return err
}
