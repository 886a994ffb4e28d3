// Package db persists the transmission history: one row per attempted
// map send, recorded by the transmit worker and served back by the API
// for the control page.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the send history database at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sends (
			send_id       TEXT PRIMARY KEY,
			coords        TEXT,
			bytes_written BIGINT,
			duration_ms   BIGINT,
			status        TEXT,
			error         TEXT,
			timestamp     TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create send history schema: %w", err)
	}

	return &DB{db}, nil
}

// SendRecord is one attempted transmission.
type SendRecord struct {
	ID           string    `json:"id"`
	Coords       string    `json:"coords"`
	BytesWritten int       `json:"bytes_written"`
	DurationMS   int64     `json:"duration_ms"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Send statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// RecordSend inserts one transmission outcome. A zero Timestamp is
// filled with the current time.
func (db *DB) RecordSend(rec SendRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT INTO sends (send_id, coords, bytes_written, duration_ms, status, error, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Coords, rec.BytesWritten, rec.DurationMS, rec.Status, rec.Error, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record send %s: %w", rec.ID, err)
	}
	return nil
}

// RecentSends returns up to limit transmissions, newest first.
func (db *DB) RecentSends(limit int) ([]SendRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT send_id, coords, bytes_written, duration_ms, status, error, timestamp
		 FROM sends ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SendRecord
	for rows.Next() {
		var rec SendRecord
		if err := rows.Scan(&rec.ID, &rec.Coords, &rec.BytesWritten, &rec.DurationMS, &rec.Status, &rec.Error, &rec.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
