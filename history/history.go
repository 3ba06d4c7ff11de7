// Package history persists attempt outcomes to a local SQLite database.
// The run loop only ever writes here; the data exists for post-hoc
// inspection with any sqlite client.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"airdrop_soft/claimer"
)

// Store is an append-only attempt and cycle log backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, "history.db")
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	// SQLite supports a single writer; the run loop is sequential anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts DATETIME NOT NULL,
		wallet_index INTEGER NOT NULL,
		address TEXT NOT NULL,
		outcome TEXT NOT NULL,
		tx_hash TEXT,
		error TEXT,
		retries INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_address ON attempts(address);
	CREATE INDEX IF NOT EXISTS idx_attempts_ts ON attempts(ts);

	CREATE TABLE IF NOT EXISTS cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started DATETIME NOT NULL,
		finished DATETIME NOT NULL,
		success INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		total INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordAttempt implements claimer.Recorder.
func (s *Store) RecordAttempt(res claimer.Result, ts time.Time) error {
	var errText string
	if res.Err != nil {
		errText = res.Err.Error()
	}

	_, err := s.db.Exec(
		`INSERT INTO attempts (ts, wallet_index, address, outcome, tx_hash, error, retries)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ts.UTC().Format(time.RFC3339),
		res.Wallet.Index,
		res.Wallet.Address.Hex(),
		res.Outcome.String(),
		res.TxHash,
		errText,
		res.Attempts,
	)
	return err
}

// RecordCycle implements claimer.Recorder.
func (s *Store) RecordCycle(stats claimer.CycleStats) error {
	_, err := s.db.Exec(
		`INSERT INTO cycles (started, finished, success, skipped, failed, total)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		stats.Start.UTC().Format(time.RFC3339),
		stats.End.UTC().Format(time.RFC3339),
		stats.Success,
		stats.Skipped,
		stats.Failed,
		stats.Total,
	)
	return err
}
