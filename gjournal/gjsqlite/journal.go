// Package gjsqlite is a sqlite-backed [gjournal.Journal].
//
// Building with cgo uses github.com/mattn/go-sqlite3;
// building with the purego tag, or without cgo, uses modernc.org/sqlite.
package gjsqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gordian-engine/gtwdt/gjournal"
)

type Journal struct {
	// The string "purego" or "cgo" depending on build tags.
	BuildType string

	db *sql.DB
}

// NewJournal opens or creates the journal at dbPath.
// Use ":memory:" for a journal that lives only as long as the process.
func NewJournal(ctx context.Context, dbPath string) (*Journal, error) {
	// The driver type comes from the sqlitedriver_*.go file
	// chosen based on build tags.
	db, err := sql.Open(sqliteDriverType, dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// One connection serializes writers,
	// and keeps an in-memory database from being split across connections.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Journal{
		BuildType: sqliteBuildType,

		db: db,
	}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Append(ctx context.Context, r gjournal.Record) (gjournal.Record, error) {
	res, err := j.db.ExecContext(
		ctx,
		`INSERT INTO recoveries(at_unix_nano, participant, captured, action) VALUES(?, ?, ?, ?)`,
		r.At.UnixNano(), r.Participant, r.Captured, string(r.Action),
	)
	if err != nil {
		return gjournal.Record{}, fmt.Errorf("failed to insert recovery record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return gjournal.Record{}, fmt.Errorf("failed to get recovery record sequence: %w", err)
	}

	r.Seq = uint64(id)
	return r, nil
}

func (j *Journal) Recent(ctx context.Context, limit int) ([]gjournal.Record, error) {
	if limit <= 0 {
		// Negative LIMIT means no limit in sqlite.
		limit = -1
	}

	rows, err := j.db.QueryContext(
		ctx,
		`SELECT seq, at_unix_nano, participant, captured, action FROM recoveries ORDER BY seq DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recovery records: %w", err)
	}
	defer rows.Close()

	var out []gjournal.Record
	for rows.Next() {
		var (
			r      gjournal.Record
			atNano int64
			action string
		)
		if err := rows.Scan(&r.Seq, &atNano, &r.Participant, &r.Captured, &action); err != nil {
			return nil, fmt.Errorf("failed to scan recovery record: %w", err)
		}
		r.At = time.Unix(0, atNano)
		r.Action = gjournal.Action(action)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recovery records: %w", err)
	}

	return out, nil
}
