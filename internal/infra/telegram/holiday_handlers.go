package telegram

import (
	"context"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const removeHolidayUnique = "rm_holiday"

// RegisterHolidayHandlers registers /add_holiday, /holidays and /remove_holiday with its inline keyboard.
func RegisterHolidayHandlers(ctx context.Context, b *telebot.Bot, conv *Conversation, baseLogger *logrus.Entry) {
	b.Handle("/add_holiday", func(c telebot.Context) error {
		baseLogger.WithFields(logrus.Fields{
			"handler":   "/add_holiday",
			"sender_id": c.Sender().ID,
		}).Info("Command received")
		return c.Reply(conv.BeginHoliday(ctx, c.Sender().ID))
	})

	b.Handle("/holidays", func(c telebot.Context) error {
		baseLogger.WithFields(logrus.Fields{
			"handler":   "/holidays",
			"sender_id": c.Sender().ID,
		}).Info("Command received")
		return c.Reply(conv.ListHolidays(ctx, c.Sender().ID))
	})

	b.Handle("/remove_holiday", func(c telebot.Context) error {
		baseLogger.WithFields(logrus.Fields{
			"handler":   "/remove_holiday",
			"sender_id": c.Sender().ID,
		}).Info("Command received")

		holidays, text := conv.RemovalChoices(ctx, c.Sender().ID)
		if len(holidays) == 0 {
			return c.Reply(text)
		}
		markup := b.NewMarkup()
		rows := make([]telebot.Row, 0, len(holidays))
		for _, h := range holidays {
			rows = append(rows, markup.Row(markup.Data(choiceLabel(h), removeHolidayUnique, strconv.FormatInt(h.ID, 10))))
		}
		markup.Inline(rows...)
		return c.Reply(text, markup)
	})

	b.Handle(&telebot.Btn{Unique: removeHolidayUnique}, func(c telebot.Context) error {
		baseLogger.WithFields(logrus.Fields{
			"handler":   removeHolidayUnique,
			"sender_id": c.Sender().ID,
		}).Info("Callback received")

		result := conv.RemoveHoliday(ctx, c.Sender().ID, c.Data())
		if err := c.Respond(&telebot.CallbackResponse{Text: result}); err != nil {
			return err
		}
		return c.Edit(result)
	})
}
