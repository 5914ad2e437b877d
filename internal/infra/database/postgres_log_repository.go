package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"holiday_greeter_bot/internal/infra/logger"
)

// PostgresLogRepository stores structured log records in the 'logs' table.
type PostgresLogRepository struct {
	db *sql.DB
}

func NewPostgresLogRepository(db *sql.DB) *PostgresLogRepository {
	return &PostgresLogRepository{db: db}
}

func (r *PostgresLogRepository) InsertLog(ctx context.Context, rec logger.Record) error {
	fields := string(rec.Fields)
	if fields == "" {
		fields = "{}"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO logs (timestamp, level, message, fields) VALUES ($1, $2, $3, $4)`,
		rec.Timestamp, rec.Level, rec.Message, fields)
	if err != nil {
		return fmt.Errorf("error inserting log record: %w", err)
	}
	return nil
}

// PurgeBefore deletes records older than cutoff and reports how many were removed.
func (r *PostgresLogRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error purging logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading purged rows: %w", err)
	}
	return n, nil
}
