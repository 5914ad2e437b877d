package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"holiday_greeter_bot/internal/app"
	"holiday_greeter_bot/internal/domain/account"
	"holiday_greeter_bot/internal/domain/holiday"
	"holiday_greeter_bot/internal/domain/messaging"

	"github.com/sirupsen/logrus"
)

// Registrar is the account login flow used by /register.
type Registrar interface {
	StartLogin(ctx context.Context, telegramID int64, creds messaging.Credentials) (string, error)
	CompleteLogin(ctx context.Context, telegramID int64, creds messaging.Credentials, code, codeHash string) (*account.Account, error)
	SendTestGreeting(ctx context.Context, telegramID int64) error
}

// HolidayManager is the holiday authoring used by /add_holiday, /holidays and /remove_holiday.
type HolidayManager interface {
	AddHoliday(ctx context.Context, ownerTelegramID int64, draft app.HolidayDraft) (*holiday.Holiday, error)
	ListHolidays(ctx context.Context, ownerTelegramID int64) ([]*holiday.Holiday, error)
	RemoveHoliday(ctx context.Context, ownerTelegramID int64, holidayID int64) error
	IsRegistered(ctx context.Context, telegramID int64) (bool, error)
}

// Conversation holds the chat dialogue independent of the bot transport.
// Replies are HTML; user supplied text is escaped.
type Conversation struct {
	registrar Registrar
	holidays  HolidayManager
	forms     *FormStore
	schedule  string
	logger    *logrus.Entry
}

// NewConversation builds the dialogue. schedule describes when greetings are
// delivered (e.g. "every day at 10:00 UTC") and may be empty.
func NewConversation(r Registrar, h HolidayManager, forms *FormStore, schedule string, logger *logrus.Entry) *Conversation {
	return &Conversation{
		registrar: r,
		holidays:  h,
		forms:     forms,
		schedule:  schedule,
		logger:    logger,
	}
}

const (
	msgStart = "🎉 Hi there! I'm your friendly bot 🤖, here to make your life easier by " +
		"sending heartfelt holiday greetings directly from your account. Let me " +
		"help you spread joy and celebrate all the special moments! 🥳🎁"

	msgHelp = "<b>Available commands</b>\n\n" +
		"/register - connect your Telegram account for sending greetings\n" +
		"/add_holiday - add a new holiday\n" +
		"/holidays - list your holidays\n" +
		"/remove_holiday - delete one of your holidays\n" +
		"/cancel - cancel the current process"

	msgRegister = "🚀 Hi there! To enable me to send messages from your account, I need your <b>API ID</b> and <b>API hash</b>. " +
		"Here's how you can get them:\n\n" +
		"1️⃣ <b>Log in</b> to your Telegram core: <a href='https://my.telegram.org'>Telegram Core</a>.\n" +
		"2️⃣ Navigate to <b>API development tools</b> and fill out the form.\n" +
		"3️⃣ Once completed, you will receive:\n" +
		"   - 🛠️ <b>API ID</b>\n" +
		"   - 🔑 <b>API Hash</b>\n\n" +
		"📥 <b>Please send me the credentials</b> in this format:\n" +
		"<b>API_ID API_HASH</b> (separated by a space)."

	msgBadCredentials = "Try again, use space as separator and enter API_ID as number!"
	msgAskPhone       = "Great! Now, please send me your phone number (with country code, e.g., +123456789)."
	msgBadPhone       = "Invalid phone number format. Please try again!"
	msgLoginFailed    = "❌ I could not request a login code for this account. Please check your credentials and try /register again."
	msgAskCode        = "Thanks! Now, please send the code you received.\n\n" +
		"Put spaces between the digits (e.g. <code>1 2 3 4 5</code>), otherwise Telegram will expire the code."
	msgBadCode        = "The code must contain digits. Please try again!"
	msgPasswordNeeded = "❌ This account has two-step verification enabled, which I can't sign in with yet. " +
		"Disable it temporarily and try /register again."
	msgSignInFailed = "Something went wrong! Please try again with /register."
	msgRegistered   = "You have been registered successfully! " +
		"As a test, 'Hello!' will be sent to @BotFather from your account. " +
		"If the message hasn't been sent, please check your credentials and try registering again."
	msgTestFailed = "An error occurred while sending a test message to @BotFather. Please try again later."

	msgNotRegistered = "❌ You need to register your account first with /register."
	msgStatusError   = "An error occurred while checking your registration. Please try again later."
	msgAskName       = "🎉 <b>Let's add a new holiday!</b>\n\n" +
		"Please enter the <b>name of the holiday</b> (e.g., International Friendship Day):"
	msgAskDate = "📅 Great! Now enter the <b>date of the holiday</b> in the format <code>DD-MM</code> (e.g., 14-02 for Valentine's Day):"
	msgBadDate = "❌ Invalid date format! Please enter the date in the format <code>DD-MM</code> (e.g., 14-02 for Valentine's Day):"
	msgAskText = "📝 Now, please enter a <b>custom holiday message</b> to be sent to the users.\n\n" +
		"For example: <i>Happy Friendship Day! Wishing you joy and happiness!</i>"
	msgAskUsers = "👥 Great! Finally, please enter the <b>usernames</b> of the people to greet for this holiday.\n\n" +
		"Use the format: <code>@username1 @username2 @username3</code>\n" +
		"Separate each username with a space:"
	msgNoUsers       = "❌ Please enter at least one username, e.g. <code>@username1</code>:"
	msgDuplicate     = "❌ You already have a holiday with this name on this date."
	msgAddFailed     = "❌ An error occurred while adding the holiday. Please try again later."
	msgEmptyName     = "The holiday name can't be empty. Please enter a name:"
	msgEmptyText     = "The message can't be empty. Please enter the greeting text:"
	msgCanceled      = "❌ <b>Process canceled!</b> You can start again with /add_holiday."
	msgNothingToStop = "There is no process to cancel."
	msgUnknown       = "I don't understand this message. Use /help to see what I can do."

	msgNoHolidays   = "You have no holidays yet. Add one with /add_holiday."
	msgListFailed   = "❌ An error occurred while loading your holidays. Please try again later."
	msgPickRemove   = "Choose the holiday to remove:"
	msgRemoved      = "🗑️ Holiday removed."
	msgRemoveGone   = "This holiday no longer exists."
	msgRemoveFailed = "❌ An error occurred while removing the holiday. Please try again later."
)

func (cv *Conversation) Start() string { return msgStart }

func (cv *Conversation) Help() string {
	if cv.schedule == "" {
		return msgHelp
	}
	return msgHelp + "\n\nGreetings are sent " + html.EscapeString(cv.schedule) +
		" to everyone listed for that day's holidays."
}

// BeginRegistration starts the credentials form, replacing any form in progress.
func (cv *Conversation) BeginRegistration(userID int64) string {
	cv.forms.set(userID, form{step: stepCredentials})
	return msgRegister
}

// BeginHoliday starts the holiday form for registered users.
func (cv *Conversation) BeginHoliday(ctx context.Context, userID int64) string {
	ok, err := cv.holidays.IsRegistered(ctx, userID)
	if err != nil {
		cv.logger.WithError(err).WithField("sender_id", userID).Error("Failed to check registration")
		return msgStatusError
	}
	if !ok {
		return msgNotRegistered
	}
	cv.forms.set(userID, form{step: stepHolidayName})
	return msgAskName
}

func (cv *Conversation) Cancel(userID int64) string {
	if !cv.forms.clear(userID) {
		return msgNothingToStop
	}
	return msgCanceled
}

// HandleText feeds a plain message into the user's form. It returns false when
// no form is in progress.
func (cv *Conversation) HandleText(ctx context.Context, userID int64, text string, reply func(string) error) (bool, error) {
	f := cv.forms.get(userID)
	log := cv.logger.WithField("sender_id", userID)

	switch f.step {
	case stepCredentials:
		apiID, apiHash, err := app.ParseCredentials(text)
		if err != nil {
			log.WithError(err).Warn("User entered invalid credentials")
			return true, reply(msgBadCredentials)
		}
		f.creds = messaging.Credentials{APIID: apiID, APIHash: apiHash}
		f.step = stepPhone
		cv.forms.set(userID, f)
		return true, reply(msgAskPhone)

	case stepPhone:
		phone, err := app.NormalizePhone(text)
		if err != nil {
			return true, reply(msgBadPhone)
		}
		f.creds.PhoneNumber = phone
		hash, err := cv.registrar.StartLogin(ctx, userID, f.creds)
		if err != nil {
			log.WithError(err).Error("Failed to request login code")
			cv.forms.clear(userID)
			return true, reply(msgLoginFailed)
		}
		f.codeHash = hash
		f.step = stepCode
		cv.forms.set(userID, f)
		return true, reply(msgAskCode)

	case stepCode:
		return true, cv.finishRegistration(ctx, userID, f, text, reply, log)

	case stepHolidayName:
		name := strings.TrimSpace(text)
		if name == "" {
			return true, reply(msgEmptyName)
		}
		f.draft.Name = name
		f.step = stepHolidayDate
		cv.forms.set(userID, f)
		return true, reply(msgAskDate)

	case stepHolidayDate:
		key, err := holiday.ParseDateKey(text)
		if err != nil {
			return true, reply(msgBadDate)
		}
		f.draft.Date = key
		f.step = stepHolidayText
		cv.forms.set(userID, f)
		return true, reply(msgAskText)

	case stepHolidayText:
		if strings.TrimSpace(text) == "" {
			return true, reply(msgEmptyText)
		}
		f.draft.Message = text
		f.step = stepHolidayUsers
		cv.forms.set(userID, f)
		return true, reply(msgAskUsers)

	case stepHolidayUsers:
		return true, cv.finishHoliday(ctx, userID, f, text, reply, log)
	}
	return false, nil
}

func (cv *Conversation) finishRegistration(ctx context.Context, userID int64, f form, text string, reply func(string) error, log *logrus.Entry) error {
	code, err := app.NormalizeCode(text)
	if err != nil {
		return reply(msgBadCode)
	}

	_, err = cv.registrar.CompleteLogin(ctx, userID, f.creds, code, f.codeHash)
	cv.forms.clear(userID)
	if err != nil {
		if errors.Is(err, messaging.ErrPasswordRequired) {
			log.Warn("Account requires two-step verification password")
			return reply(msgPasswordNeeded)
		}
		log.WithError(err).Error("Registration failed")
		return reply(msgSignInFailed)
	}
	if err := reply(msgRegistered); err != nil {
		return err
	}

	if err := cv.registrar.SendTestGreeting(ctx, userID); err != nil {
		log.WithError(err).Error("An error occurred while sending a test message to @BotFather")
		return reply(msgTestFailed)
	}
	return nil
}

func (cv *Conversation) finishHoliday(ctx context.Context, userID int64, f form, text string, reply func(string) error, log *logrus.Entry) error {
	recipients, err := app.ParseRecipients(text)
	if err != nil {
		var invalid *app.InvalidRecipientsError
		if errors.As(err, &invalid) {
			return reply(fmt.Sprintf("❌ The following usernames are invalid: %s\n\n"+
				"Make sure all usernames start with <code>@</code> and try again:",
				html.EscapeString(strings.Join(invalid.Handles, ", "))))
		}
		return reply(msgNoUsers)
	}
	f.draft.Recipients = recipients

	h, err := cv.holidays.AddHoliday(ctx, userID, f.draft)
	cv.forms.clear(userID)
	if err != nil {
		switch {
		case errors.Is(err, holiday.ErrDuplicateHoliday):
			log.WithError(err).Warn("Duplicate holiday")
			return reply(msgDuplicate)
		case errors.Is(err, app.ErrNotRegistered):
			return reply(msgNotRegistered)
		default:
			log.WithError(err).Error("An error occurred while adding holiday")
			return reply(msgAddFailed)
		}
	}

	log.WithFields(logrus.Fields{
		"holiday_id":   h.ID,
		"holiday_name": h.Name,
		"date":         h.Key().String(),
		"recipients":   h.Recipients,
	}).Info("New holiday registered")
	return reply(fmt.Sprintf("✅ <b>New holiday registered!</b>\n\n"+
		"🎉 <b>Holiday Name:</b> %s\n"+
		"📅 <b>Date:</b> %s\n"+
		"📝 <b>Message:</b> %s\n"+
		"👥 <b>Users to greet:</b> %s",
		html.EscapeString(h.Name),
		h.Key(),
		html.EscapeString(h.Message),
		html.EscapeString(strings.Join(h.Recipients, ", "))))
}

// ListHolidays renders the user's holidays ordered as stored.
func (cv *Conversation) ListHolidays(ctx context.Context, userID int64) string {
	holidays, err := cv.holidays.ListHolidays(ctx, userID)
	if err != nil {
		cv.logger.WithError(err).WithField("sender_id", userID).Error("Failed to list holidays")
		return msgListFailed
	}
	if len(holidays) == 0 {
		return msgNoHolidays
	}

	var b strings.Builder
	b.WriteString("<b>Your holidays</b>\n")
	for _, h := range holidays {
		fmt.Fprintf(&b, "\n📅 <b>%s</b> %s\n👥 %s\n📝 %s\n",
			h.Key(),
			html.EscapeString(h.Name),
			html.EscapeString(strings.Join(h.Recipients, ", ")),
			html.EscapeString(h.Message))
	}
	return b.String()
}

// RemovalChoices returns the holidays the user may remove, or a message to show instead.
func (cv *Conversation) RemovalChoices(ctx context.Context, userID int64) ([]*holiday.Holiday, string) {
	holidays, err := cv.holidays.ListHolidays(ctx, userID)
	if err != nil {
		cv.logger.WithError(err).WithField("sender_id", userID).Error("Failed to list holidays for removal")
		return nil, msgListFailed
	}
	if len(holidays) == 0 {
		return nil, msgNoHolidays
	}
	return holidays, msgPickRemove
}

// RemoveHoliday handles a removal button; data is the holiday id.
func (cv *Conversation) RemoveHoliday(ctx context.Context, userID int64, data string) string {
	log := cv.logger.WithFields(logrus.Fields{"sender_id": userID, "data": data})
	id, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		log.Warn("Invalid holiday id in callback")
		return msgRemoveGone
	}
	if err := cv.holidays.RemoveHoliday(ctx, userID, id); err != nil {
		if errors.Is(err, holiday.ErrHolidayNotFound) {
			return msgRemoveGone
		}
		log.WithError(err).Error("Failed to remove holiday")
		return msgRemoveFailed
	}
	log.WithField("holiday_id", id).Info("Holiday removed")
	return msgRemoved
}

func choiceLabel(h *holiday.Holiday) string {
	return fmt.Sprintf("%s %s", h.Key(), h.Name)
}
