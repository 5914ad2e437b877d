// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// NewBot creates a long-polling bot that renders replies as HTML.
// offline skips the getMe call, for tests and dry runs.
func NewBot(token string, offline bool, logger *logrus.Entry) (*telebot.Bot, error) {
	pref := telebot.Settings{
		Token:     token,
		Poller:    &telebot.LongPoller{Timeout: 10 * time.Second},
		ParseMode: telebot.ModeHTML,
		Offline:   offline,
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telebot handler failed")
		},
	}
	return telebot.NewBot(pref)
}

// Register wires every chat handler onto b.
func Register(ctx context.Context, b *telebot.Bot, conv *Conversation, logger *logrus.Entry) {
	RegisterBotCommands(ctx, b, conv, logger)
	RegisterHolidayHandlers(ctx, b, conv, logger)
}
