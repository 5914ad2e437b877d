package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS logs (
		id SERIAL PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		fields JSONB NOT NULL DEFAULT '{}'::jsonb
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		telegram_id BIGINT NOT NULL UNIQUE,
		api_id INT NOT NULL,
		api_hash TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS holidays (
		id BIGSERIAL PRIMARY KEY,
		owner_telegram_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		day INT NOT NULL CHECK (day BETWEEN 1 AND 31),
		month INT NOT NULL CHECK (month BETWEEN 1 AND 12),
		users JSONB NOT NULL DEFAULT '[]'::jsonb,
		text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT holidays_owner_name_date_key UNIQUE (owner_telegram_id, name, day, month)
	)`,
	`CREATE INDEX IF NOT EXISTS holidays_day_month_idx ON holidays (day, month)`,
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS holidays CASCADE`,
	`DROP TABLE IF EXISTS accounts CASCADE`,
	`DROP TABLE IF EXISTS logs CASCADE`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	return execInTx(ctx, db, schemaStatements)
}

// Reset drops every table and recreates the schema. Used in test mode.
func Reset(ctx context.Context, db *sql.DB) error {
	stmts := append(append([]string{}, dropStatements...), schemaStatements...)
	return execInTx(ctx, db, stmts)
}

func execInTx(ctx context.Context, db *sql.DB, stmts []string) error {
	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	for _, stmt := range stmts {
		if _, err := txn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error executing schema statement: %w", err)
		}
	}
	return txn.Commit()
}
