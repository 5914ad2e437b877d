// internal/infra/database/postgres_holiday_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"holiday_greeter_bot/internal/domain/holiday"
)

const holidayColumns = `id, owner_telegram_id, name, day, month, users, text, created_at`

type PostgresHolidayRepository struct {
	db *sql.DB
}

func NewPostgresHolidayRepository(db *sql.DB) *PostgresHolidayRepository {
	return &PostgresHolidayRepository{db: db}
}

func (r *PostgresHolidayRepository) Add(ctx context.Context, h *holiday.Holiday) error {
	recipients := h.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	users, err := json.Marshal(recipients)
	if err != nil {
		return fmt.Errorf("error encoding holiday recipients: %w", err)
	}

	query := `INSERT INTO holidays (owner_telegram_id, name, day, month, users, text)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id, created_at`
	err = r.db.QueryRowContext(ctx, query, h.OwnerTelegramID, h.Name, h.Day, h.Month, string(users), h.Message).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return holiday.ErrDuplicateHoliday
		}
		return fmt.Errorf("error creating holiday: %w", err)
	}
	return nil
}

func (r *PostgresHolidayRepository) Remove(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error removing holiday %d: %w", id, err)
	}
	return expectDeleted(res, holiday.ErrHolidayNotFound)
}

func (r *PostgresHolidayRepository) RemoveForOwner(ctx context.Context, id int64, ownerTelegramID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1 AND owner_telegram_id = $2`, id, ownerTelegramID)
	if err != nil {
		return fmt.Errorf("error removing holiday %d: %w", id, err)
	}
	return expectDeleted(res, holiday.ErrHolidayNotFound)
}

func (r *PostgresHolidayRepository) FetchByDate(ctx context.Context, key holiday.DateKey) ([]*holiday.Holiday, error) {
	query := `SELECT ` + holidayColumns + ` FROM holidays WHERE day = $1 AND month = $2 ORDER BY id`
	holidays, err := r.list(ctx, query, key.Day, key.Month)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", holiday.ErrLookupFailed, key, err)
	}
	return holidays, nil
}

func (r *PostgresHolidayRepository) FetchAll(ctx context.Context) ([]*holiday.Holiday, error) {
	holidays, err := r.list(ctx, `SELECT `+holidayColumns+` FROM holidays ORDER BY month, day, id`)
	if err != nil {
		return nil, fmt.Errorf("error listing all holidays: %w", err)
	}
	return holidays, nil
}

func (r *PostgresHolidayRepository) FetchByOwner(ctx context.Context, ownerTelegramID int64) ([]*holiday.Holiday, error) {
	query := `SELECT ` + holidayColumns + ` FROM holidays WHERE owner_telegram_id = $1 ORDER BY month, day, id`
	holidays, err := r.list(ctx, query, ownerTelegramID)
	if err != nil {
		return nil, fmt.Errorf("error listing holidays of %d: %w", ownerTelegramID, err)
	}
	return holidays, nil
}

func (r *PostgresHolidayRepository) list(ctx context.Context, query string, args ...interface{}) ([]*holiday.Holiday, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays := make([]*holiday.Holiday, 0)
	for rows.Next() {
		h := &holiday.Holiday{}
		var users []byte
		if err := rows.Scan(&h.ID, &h.OwnerTelegramID, &h.Name, &h.Day, &h.Month, &users, &h.Message, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning holiday: %w", err)
		}
		if len(users) > 0 {
			if err := json.Unmarshal(users, &h.Recipients); err != nil {
				return nil, fmt.Errorf("error decoding recipients of holiday %d: %w", h.ID, err)
			}
		}
		holidays = append(holidays, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holidays: %w", err)
	}
	return holidays, nil
}

func expectDeleted(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
