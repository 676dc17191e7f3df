package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/websentry/websentry/internal/model"
)

// SQLiteStore persists scan records in a SQLite database file.
// Records are stored as JSON documents with the lifecycle columns that
// listing queries need (status, start time) promoted to real columns.
//
// Design decision: We store the record body as one JSON column rather than
// normalizing results and recommendations into tables. Scan records are
// read and written as whole units; nothing queries inside a result, so a
// document column keeps the schema stable as the record type evolves.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string

	// mu serializes Update's read-modify-write cycle. SQLite serializes
	// individual statements but not the gap between our SELECT and UPDATE.
	mu sync.Mutex
}

// OpenSQLite opens or creates a scan store at the given database path.
// The parent directory is created if it does not exist.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// createTables creates the schema if it doesn't exist.
func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		status TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		record_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_domain ON scans(domain);
	CREATE INDEX IF NOT EXISTS idx_scans_start ON scans(start_time);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Create inserts a new scan record.
func (s *SQLiteStore) Create(ctx context.Context, record *model.ScanRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize scan record: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, domain, status, start_time, record_json) VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.Domain, string(record.Status), record.StartTime.UTC(), string(body),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to insert scan record: %w", err)
	}
	return nil
}

// Get returns the record with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.ScanRecord, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT record_json FROM scans WHERE id = ?`, id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scan record: %w", err)
	}

	var record model.ScanRecord
	if err := json.Unmarshal([]byte(body), &record); err != nil {
		return nil, fmt.Errorf("failed to decode scan record: %w", err)
	}
	return &record, nil
}

// Update loads the record, applies fn, and writes the result back.
// The whole cycle runs under the store's mutex so concurrent updates
// never lose writes.
func (s *SQLiteStore) Update(ctx context.Context, id string, fn func(*model.ScanRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(record); err != nil {
		return err
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize scan record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, record_json = ? WHERE id = ?`,
		string(record.Status), string(body), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update scan record: %w", err)
	}
	return nil
}

// List returns all records ordered by start time, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]*model.ScanRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_json FROM scans ORDER BY start_time DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*model.ScanRecord
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var record model.ScanRecord
		if err := json.Unmarshal([]byte(body), &record); err != nil {
			return nil, fmt.Errorf("failed to decode scan record: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

// Delete removes the record with the given ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scan record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a primary key conflict.
// modernc.org/sqlite reports these as generic errors containing the
// SQLite constraint message, so we match on the message text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint violation")
}
