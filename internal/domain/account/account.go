// internal/domain/account/account.go
package account

import "time"

// Account holds the messaging-account credentials a bot user registered.
// Corresponds to the 'accounts' table.
type Account struct {
	ID          int64
	TelegramID  int64 // Bot user who registered the account
	APIID       int
	APIHash     string
	PhoneNumber string
	CreatedAt   time.Time
}
