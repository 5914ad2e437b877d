// internal/domain/account/repository.go
package account

import (
	"context"
	"fmt"
)

var ErrAccountNotFound = fmt.Errorf("account not found")

// Repository defines the operations for persisting registered accounts.
type Repository interface {
	// Save inserts the account, replacing any previous registration of the same TelegramID.
	Save(ctx context.Context, a *Account) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*Account, error)
	ListAll(ctx context.Context) ([]*Account, error)
	Remove(ctx context.Context, telegramID int64) error
}
