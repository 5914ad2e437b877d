// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// BotCommands is the command menu shown by Telegram clients.
var BotCommands = []telebot.Command{
	{Text: "start", Description: "Start the bot"},
	{Text: "help", Description: "Show available commands"},
	{Text: "register", Description: "Register account for sending greetings"},
	{Text: "add_holiday", Description: "Add a new holiday"},
	{Text: "holidays", Description: "List your holidays"},
	{Text: "remove_holiday", Description: "Remove a holiday"},
	{Text: "cancel", Description: "Cancel the current process"},
}

// SetCommands publishes BotCommands to Telegram.
func SetCommands(b *telebot.Bot, logger *logrus.Entry) error {
	if err := b.SetCommands(BotCommands); err != nil {
		return err
	}
	logger.Info("Bot commands have been set successfully.")
	return nil
}

// RegisterBotCommands registers /start, /help, /register, /cancel and the plain text router.
func RegisterBotCommands(ctx context.Context, b *telebot.Bot, conv *Conversation, baseLogger *logrus.Entry) {
	handlerLogger := func(c telebot.Context, handler string) *logrus.Entry {
		return baseLogger.WithFields(logrus.Fields{
			"handler":   handler,
			"sender_id": c.Sender().ID,
		})
	}

	b.Handle("/start", func(c telebot.Context) error {
		handlerLogger(c, "/start").Info("Command received")
		return c.Reply(conv.Start())
	})

	b.Handle("/help", func(c telebot.Context) error {
		handlerLogger(c, "/help").Info("Command received")
		return c.Reply(conv.Help())
	})

	b.Handle("/register", func(c telebot.Context) error {
		handlerLogger(c, "/register").Info("Command received")
		return c.Reply(conv.BeginRegistration(c.Sender().ID), telebot.NoPreview)
	})

	b.Handle("/cancel", func(c telebot.Context) error {
		handlerLogger(c, "/cancel").Info("Command received")
		return c.Reply(conv.Cancel(c.Sender().ID))
	})

	b.Handle(telebot.OnText, func(c telebot.Context) error {
		log := handlerLogger(c, "text")
		handled, err := conv.HandleText(ctx, c.Sender().ID, c.Text(), func(text string) error {
			return c.Reply(text)
		})
		if err != nil {
			log.WithError(err).Error("Failed to reply")
			return err
		}
		if !handled {
			log.Debug("Message outside of any form")
			return c.Reply(msgUnknown)
		}
		return nil
	})
}
