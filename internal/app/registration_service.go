package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"holiday_greeter_bot/internal/domain/account"
	"holiday_greeter_bot/internal/domain/messaging"

	"github.com/sirupsen/logrus"
)

var ErrInvalidCredentials = fmt.Errorf("expected API_ID and API_HASH separated by a space, API_ID must be a number")
var ErrInvalidPhone = fmt.Errorf("phone number must start with + and contain the country code")
var ErrInvalidCode = fmt.Errorf("login code must contain digits")

const (
	testRecipient = "@BotFather"
	testMessage   = "Hello!"
)

// ParseCredentials parses "API_ID API_HASH".
func ParseCredentials(text string) (apiID int, apiHash string, err error) {
	parts := strings.Fields(text)
	if len(parts) != 2 {
		return 0, "", ErrInvalidCredentials
	}
	apiID, err = strconv.Atoi(parts[0])
	if err != nil || apiID <= 0 {
		return 0, "", ErrInvalidCredentials
	}
	return apiID, parts[1], nil
}

// NormalizePhone strips formatting characters and requires a leading '+'.
func NormalizePhone(text string) (string, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "+") {
		return "", ErrInvalidPhone
	}
	digits := digitsOnly(text)
	if len(digits) < 7 {
		return "", ErrInvalidPhone
	}
	return "+" + digits, nil
}

// NormalizeCode keeps the digits of a login code. Users are asked to separate the
// digits because the platform expires codes that are forwarded verbatim.
func NormalizeCode(text string) (string, error) {
	code := digitsOnly(text)
	if code == "" {
		return "", ErrInvalidCode
	}
	return code, nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

type RegistrationService struct {
	accountRepo account.Repository
	auth        messaging.Authenticator
	sessions    messaging.SessionFactory
	logger      *logrus.Entry
}

func NewRegistrationService(ar account.Repository, auth messaging.Authenticator, sf messaging.SessionFactory, logger *logrus.Entry) *RegistrationService {
	return &RegistrationService{
		accountRepo: ar,
		auth:        auth,
		sessions:    sf,
		logger:      logger,
	}
}

// StartLogin requests a login code for the account and returns the code hash.
func (s *RegistrationService) StartLogin(ctx context.Context, telegramID int64, creds messaging.Credentials) (string, error) {
	hash, err := s.auth.SendCode(ctx, telegramID, creds)
	if err != nil {
		return "", fmt.Errorf("failed to request login code: %w", err)
	}
	s.logger.WithField("telegram_id", telegramID).Info("Login code requested")
	return hash, nil
}

// CompleteLogin signs in with the code and stores the account, replacing an earlier registration.
func (s *RegistrationService) CompleteLogin(ctx context.Context, telegramID int64, creds messaging.Credentials, code, codeHash string) (*account.Account, error) {
	if err := s.auth.SignIn(ctx, telegramID, creds, code, codeHash); err != nil {
		return nil, err
	}

	log := s.logger.WithField("telegram_id", telegramID)
	_, err := s.accountRepo.GetByTelegramID(ctx, telegramID)
	switch {
	case err == nil:
		log.Info("User is being re-registered.")
	case !errors.Is(err, account.ErrAccountNotFound):
		log.WithError(err).Warn("Could not check previous registration")
	}

	acc := &account.Account{
		TelegramID:  telegramID,
		APIID:       creds.APIID,
		APIHash:     creds.APIHash,
		PhoneNumber: creds.PhoneNumber,
	}
	if err := s.accountRepo.Save(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	log.WithField("account_id", acc.ID).Info("User registered successfully.")
	return acc, nil
}

// SendTestGreeting sends a fixed message to @BotFather from the user's account.
func (s *RegistrationService) SendTestGreeting(ctx context.Context, telegramID int64) error {
	session, err := s.sessions.Open(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("failed to open session for test message: %w", err)
	}
	defer session.Close()

	if err := session.Send(ctx, testRecipient, testMessage); err != nil {
		return fmt.Errorf("failed to send test message: %w", err)
	}
	return nil
}
