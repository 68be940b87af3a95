package gjsqlite

import (
	"context"
	"database/sql"
	"fmt"
)

func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx,
		`CREATE TABLE IF NOT EXISTS migrations(
  id INTEGER PRIMARY KEY CHECK (id = 0),
  version INTEGER
);`,
	); err != nil {
		return fmt.Errorf("error getting initial migrations table: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO migrations(id, version) VALUES (0, 0)`,
	); err != nil {
		return fmt.Errorf("error setting initial migration version: %w", err)
	}

	var version int
	if err := tx.QueryRowContext(ctx, `SELECT version FROM migrations WHERE id=0;`).Scan(&version); err != nil {
		return fmt.Errorf("failed to scan migration version: %w", err)
	}

	switch version {
	case 0:
		if err := migrateInitial(ctx, tx); err != nil {
			return fmt.Errorf("initial migration: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE migrations SET version = 1 WHERE id = 0`); err != nil {
			return fmt.Errorf("failed to set migration version: %w", err)
		}
	case 1:
		// Up to date.
	default:
		return fmt.Errorf("unknown migration version %d", version)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}

	return nil
}

func migrateInitial(ctx context.Context, tx *sql.Tx) error {
	// seq doubles as the rowid, so it increases with every insert.
	_, err := tx.ExecContext(ctx, `
CREATE TABLE recoveries(
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  at_unix_nano INTEGER NOT NULL,
  participant TEXT NOT NULL,
  captured INTEGER NOT NULL CHECK (captured IN (0, 1)),
  action TEXT NOT NULL CHECK (action IN ('blink', 'none'))
);`)
	return err
}
