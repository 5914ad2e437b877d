package userbot

import (
	"context"
	"errors"
	"fmt"

	"holiday_greeter_bot/internal/domain/account"
	"holiday_greeter_bot/internal/domain/messaging"

	"github.com/gotd/td/telegram/message"
	"github.com/sirupsen/logrus"
)

// AccountLookup resolves the credentials registered by a bot user.
type AccountLookup interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*account.Account, error)
}

// Factory opens MTProto sessions for registered accounts.
type Factory struct {
	accounts AccountLookup
	store    *sessionStore
	logger   *logrus.Entry
}

func NewFactory(accounts AccountLookup, sessionsDir string, logger *logrus.Entry) (*Factory, error) {
	store, err := newSessionStore(sessionsDir)
	if err != nil {
		return nil, err
	}
	return &Factory{accounts: accounts, store: store, logger: logger}, nil
}

// Open connects the owner's client and keeps it running until the session is closed.
func (f *Factory) Open(ctx context.Context, ownerTelegramID int64) (messaging.Session, error) {
	acc, err := f.accounts.GetByTelegramID(ctx, ownerTelegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account of %d: %w", ownerTelegramID, err)
	}

	client := f.store.newClient(ownerTelegramID, acc.APIID, acc.APIHash)
	runCtx, cancel := context.WithCancel(context.Background())
	s := &Session{ownerTelegramID: ownerTelegramID, cancel: cancel, done: make(chan error, 1)}
	ready := make(chan error, 1)

	go func() {
		s.done <- client.Run(runCtx, func(ctx context.Context) error {
			status, err := client.Auth().Status(ctx)
			if err != nil {
				ready <- fmt.Errorf("failed to check authorization: %w", err)
				return err
			}
			if !status.Authorized {
				ready <- messaging.ErrNotAuthorized
				return messaging.ErrNotAuthorized
			}
			s.sender = message.NewSender(client.API())
			ready <- nil
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case err := <-ready:
		if err != nil {
			cancel()
			<-s.done
			return nil, err
		}
	case err := <-s.done:
		cancel()
		return nil, fmt.Errorf("client stopped before authorization check: %w", err)
	case <-ctx.Done():
		cancel()
		<-s.done
		return nil, ctx.Err()
	}

	f.logger.WithField("owner_telegram_id", ownerTelegramID).Debug("Messaging session opened")
	return s, nil
}

// Session is a connected, authorized account client.
type Session struct {
	ownerTelegramID int64
	sender          *message.Sender
	cancel          context.CancelFunc
	done            chan error
}

// Send resolves recipient (@username or t.me link) and sends text to it.
func (s *Session) Send(ctx context.Context, recipient string, text string) error {
	if _, err := s.sender.Resolve(recipient).Text(ctx, text); err != nil {
		return fmt.Errorf("failed to send to %s: %w", recipient, err)
	}
	return nil
}

func (s *Session) Close() error {
	s.cancel()
	if err := <-s.done; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("client of %d stopped with error: %w", s.ownerTelegramID, err)
	}
	return nil
}
