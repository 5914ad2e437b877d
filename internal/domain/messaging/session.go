// internal/domain/messaging/session.go
package messaging

import (
	"context"
	"fmt"
)

var ErrNotAuthorized = fmt.Errorf("messaging session is not authorized, register again")
var ErrPasswordRequired = fmt.Errorf("account has two-step verification enabled")

// Session sends messages as one underlying account identity.
// Calls are fallible and possibly slow; callers decide how to handle failures.
type Session interface {
	Send(ctx context.Context, recipient string, text string) error
	Close() error
}

// SessionFactory opens the session bound to the account registered by ownerTelegramID.
type SessionFactory interface {
	Open(ctx context.Context, ownerTelegramID int64) (Session, error)
}

// Credentials identify the API application and phone used to log in to an account.
type Credentials struct {
	APIID       int
	APIHash     string
	PhoneNumber string
}

// Authenticator performs the code-based login that authorizes a session.
type Authenticator interface {
	// SendCode asks the platform to deliver a login code and returns the code hash.
	SendCode(ctx context.Context, ownerTelegramID int64, creds Credentials) (string, error)
	SignIn(ctx context.Context, ownerTelegramID int64, creds Credentials, code, codeHash string) error
}
