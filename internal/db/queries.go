package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/captiongenius/internal/errors"
)

// Record names for the two persisted collections.
const (
	RecordHistory   = "captionHistory"
	RecordFavorites = "captionFavorites"
)

// Record is one named durable JSON document.
type Record struct {
	Name      string
	Payload   string
	UpdatedAt int64
}

// GetRecord returns the record with the given name.
// found is false (with a nil error) when the record has never been written.
func GetRecord(ctx context.Context, db *sql.DB, name string) (rec Record, found bool, err error) {
	query := `SELECT name, payload, updated_at FROM records WHERE name = ?`

	err = db.QueryRowContext(ctx, query, name).Scan(&rec.Name, &rec.Payload, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, errors.NewInternal(err)
	}
	return rec, true, nil
}

// PutRecord replaces the named record in full. The write is a single
// statement, so readers observe either the old or the new payload.
func PutRecord(ctx context.Context, db *sql.DB, name, payload string) error {
	query := `
		INSERT INTO records (name, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`

	if _, err := db.ExecContext(ctx, query, name, payload, time.Now().UnixMilli()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteRecord removes the named record. Deleting a missing record is not an error.
func DeleteRecord(ctx context.Context, db *sql.DB, name string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM records WHERE name = ?`, name); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
