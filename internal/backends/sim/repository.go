package sim

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/grid-rtu-core/internal/infrastructure/database"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Exchange operations recorded in the io_history journal.
const (
	OpRead        = "read"
	OpWrite       = "write"
	OpPush        = "push"
	OpPeriodicity = "periodicity"
)

// HistoryEntry is one row of the io_history journal.
type HistoryEntry struct {
	ID        int64
	COA       string
	IOA       string
	Operation string
	COT       int
	TypeID    int
	Value     any
	CreatedAt time.Time
}

// Repository persists the simulator's process image in SQLite.
//
// Addresses are keyed by their canonical key form (i<N> for integer
// addresses, t<name> for text addresses) so integer and text addresses
// with the same rendering never collide.
type Repository struct {
	db *database.DB
}

// NewRepository creates a repository over an open database connection.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Seed inserts a process value only if the point has none yet.
func (r *Repository) Seed(ctx context.Context, coa, ioa string, value any) error {
	encoded, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("encoding seed value: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO process_values (coa, ioa, value) VALUES (?, ?, ?)",
		coa, ioa, encoded,
	)
	if err != nil {
		return fmt.Errorf("seeding process value: %w", err)
	}
	return nil
}

// Value returns the current process value of a point. The boolean is
// false when the point has no stored value.
func (r *Repository) Value(ctx context.Context, coa, ioa string) (any, bool, error) {
	var encoded string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM process_values WHERE coa = ? AND ioa = ?",
		coa, ioa,
	).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying process value: %w", err)
	}

	value, err := decodeValue(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("decoding process value: %w", err)
	}
	return value, true, nil
}

// SetValue replaces the current process value of a point, creating the
// row if the point has never been written.
func (r *Repository) SetValue(ctx context.Context, coa, ioa string, value any) error {
	encoded, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("encoding process value: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO process_values (coa, ioa, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (coa, ioa) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		coa, ioa, encoded, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("updating process value: %w", err)
	}
	return nil
}

// RecordExchange appends one entry to the io_history journal.
func (r *Repository) RecordExchange(ctx context.Context, entry HistoryEntry) error {
	if entry.Operation == "" {
		return fmt.Errorf("exchange operation is required")
	}

	encoded, err := encodeValue(entry.Value)
	if err != nil {
		return fmt.Errorf("encoding exchange value: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO io_history (coa, ioa, operation, cot, type_id, value) VALUES (?, ?, ?, ?, ?, ?)",
		entry.COA, entry.IOA, entry.Operation, entry.COT, entry.TypeID, encoded,
	)
	if err != nil {
		return fmt.Errorf("inserting io history: %w", err)
	}
	return nil
}

// History returns recent journal entries for a point, newest first.
// Limit defaults to 50 and is capped at 200.
func (r *Repository) History(ctx context.Context, coa, ioa string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, coa, ioa, operation, cot, type_id, value, created_at
		 FROM io_history
		 WHERE coa = ? AND ioa = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		coa, ioa, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying io history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var entry HistoryEntry
		var encoded sql.NullString
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.COA, &entry.IOA, &entry.Operation,
			&entry.COT, &entry.TypeID, &encoded, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning io history: %w", err)
		}

		if encoded.Valid {
			value, err := decodeValue(encoded.String)
			if err != nil {
				return nil, fmt.Errorf("decoding io history value: %w", err)
			}
			entry.Value = value
		}

		timestamp, err := parseJournalTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating io history: %w", err)
	}

	return entries, nil
}

// PruneHistory deletes journal entries older than the given duration.
func (r *Repository) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM io_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting io history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return rowsAffected, nil
}

// encodeValue serialises an IO value as JSON for storage.
func encodeValue(value any) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// decodeValue restores an IO value from its stored JSON form. Numbers
// decode back to int when integral so values round-trip with the type
// the gateway originally exchanged.
func decodeValue(encoded string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(encoded)))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	num, ok := raw.(json.Number)
	if !ok {
		return raw, nil
	}
	if n, err := num.Int64(); err == nil {
		return int(n), nil
	}
	f, err := num.Float64()
	if err != nil {
		return nil, err
	}
	return f, nil
}

// parseJournalTimestamp parses a timestamp stored in SQLite.
func parseJournalTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02 15:04:05", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
}
