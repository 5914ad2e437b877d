package database

import (
	"context"
	"database/sql"
	"fmt"

	"holiday_greeter_bot/internal/domain/account"
)

// CredentialCipher protects API hashes at rest.
type CredentialCipher interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

type PostgresAccountRepository struct {
	db     *sql.DB
	cipher CredentialCipher
}

func NewPostgresAccountRepository(db *sql.DB, cipher CredentialCipher) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db, cipher: cipher}
}

func (r *PostgresAccountRepository) Save(ctx context.Context, a *account.Account) error {
	sealed, err := r.cipher.Seal(a.APIHash)
	if err != nil {
		return fmt.Errorf("error sealing api hash: %w", err)
	}

	query := `INSERT INTO accounts (telegram_id, api_id, api_hash, phone_number)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (telegram_id) DO UPDATE
               SET api_id = EXCLUDED.api_id, api_hash = EXCLUDED.api_hash,
                   phone_number = EXCLUDED.phone_number, created_at = NOW()
               RETURNING id, created_at`
	err = r.db.QueryRowContext(ctx, query, a.TelegramID, a.APIID, sealed, a.PhoneNumber).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("error saving account: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*account.Account, error) {
	query := `SELECT id, telegram_id, api_id, api_hash, phone_number, created_at
               FROM accounts WHERE telegram_id = $1`
	a := &account.Account{}
	err := r.db.QueryRowContext(ctx, query, telegramID).Scan(&a.ID, &a.TelegramID, &a.APIID, &a.APIHash, &a.PhoneNumber, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("error getting account by Telegram ID: %w", err)
	}
	if a.APIHash, err = r.cipher.Open(a.APIHash); err != nil {
		return nil, fmt.Errorf("error opening api hash of account %d: %w", a.ID, err)
	}
	return a, nil
}

func (r *PostgresAccountRepository) ListAll(ctx context.Context) ([]*account.Account, error) {
	query := `SELECT id, telegram_id, api_id, api_hash, phone_number, created_at
               FROM accounts ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*account.Account, 0)
	for rows.Next() {
		a := &account.Account{}
		if err := rows.Scan(&a.ID, &a.TelegramID, &a.APIID, &a.APIHash, &a.PhoneNumber, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning account: %w", err)
		}
		if a.APIHash, err = r.cipher.Open(a.APIHash); err != nil {
			return nil, fmt.Errorf("error opening api hash of account %d: %w", a.ID, err)
		}
		accounts = append(accounts, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func (r *PostgresAccountRepository) Remove(ctx context.Context, telegramID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE telegram_id = $1`, telegramID)
	if err != nil {
		return fmt.Errorf("error removing account: %w", err)
	}
	return expectDeleted(res, account.ErrAccountNotFound)
}
