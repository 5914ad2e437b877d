package userbot

import (
	"context"
	"errors"
	"fmt"

	"holiday_greeter_bot/internal/domain/messaging"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

var errClientStopped = errors.New("client stopped before the request was made")

// Login runs the phone-code authorization that binds a session file to an account.
// The login works on a pending session; the account's current session is only
// replaced after SignIn succeeds.
type Login struct {
	store *sessionStore
}

func NewLogin(sessionsDir string) (*Login, error) {
	store, err := newSessionStore(sessionsDir)
	if err != nil {
		return nil, err
	}
	return &Login{store: store}, nil
}

func (l *Login) SendCode(ctx context.Context, ownerTelegramID int64, creds messaging.Credentials) (string, error) {
	if err := l.store.discardPending(ownerTelegramID); err != nil {
		return "", err
	}

	var codeHash string
	client := l.store.newPendingClient(ownerTelegramID, creds.APIID, creds.APIHash)
	err := client.Run(ctx, func(ctx context.Context) error {
		sent, err := client.Auth().SendCode(ctx, creds.PhoneNumber, auth.SendCodeOptions{})
		if err != nil {
			return err
		}
		code, ok := sent.(*tg.AuthSentCode)
		if !ok {
			return fmt.Errorf("unexpected send code response %T", sent)
		}
		codeHash = code.PhoneCodeHash
		return nil
	})
	if err == nil && codeHash == "" {
		err = stopReason(ctx)
	}
	if err != nil {
		_ = l.store.discardPending(ownerTelegramID)
		return "", fmt.Errorf("failed to send login code: %w", err)
	}
	return codeHash, nil
}

func (l *Login) SignIn(ctx context.Context, ownerTelegramID int64, creds messaging.Credentials, code, codeHash string) error {
	signedIn := false
	client := l.store.newPendingClient(ownerTelegramID, creds.APIID, creds.APIHash)
	err := client.Run(ctx, func(ctx context.Context) error {
		_, err := client.Auth().SignIn(ctx, creds.PhoneNumber, code, codeHash)
		if errors.Is(err, auth.ErrPasswordAuthNeeded) {
			return messaging.ErrPasswordRequired
		}
		if err != nil {
			return err
		}
		signedIn = true
		return nil
	})
	if err == nil && !signedIn {
		err = stopReason(ctx)
	}
	if err != nil {
		_ = l.store.discardPending(ownerTelegramID)
		return fmt.Errorf("failed to sign in: %w", err)
	}
	return l.store.promote(ownerTelegramID)
}

func stopReason(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errClientStopped
}
