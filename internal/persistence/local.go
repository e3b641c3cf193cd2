package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/lowaak/circuit-timer/internal/workout"
)

const localDBName = "sessions.db"

// LocalStore keeps session records in a SQLite file on this machine
type LocalStore struct {
	db     *sql.DB
	logger *log.Logger
}

// OpenLocalStore opens (or creates) the SQLite store at dir/sessions.db
func OpenLocalStore(dir string, logger *log.Logger) (*LocalStore, error) {
	if logger == nil {
		panic("LocalStore: logger cannot be nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, localDBName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	// One writer at a time; SQLite serializes anyway
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		key        TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}

	logger.Printf("LocalStore: opened %s", dbPath)
	return &LocalStore{db: db, logger: logger}, nil
}

// Get returns the record stored under key
func (s *LocalStore) Get(ctx context.Context, key string) (workout.Record, bool, error) {
	raw, err := s.load(ctx, key)
	if err != nil {
		return workout.Record{}, false, err
	}
	if raw == nil {
		return workout.Record{}, false, nil
	}
	return decodeRecord(raw)
}

// Set stores rec under key
func (s *LocalStore) Set(ctx context.Context, key string, rec workout.Record, mode MergeMode) error {
	raw, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	if mode == MergeShallow {
		existing, err := s.load(ctx, key)
		if err != nil {
			return err
		}
		if raw, err = mergeDocuments(existing, raw); err != nil {
			return err
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		key, string(raw),
	)
	if err != nil {
		return fmt.Errorf("writing session %q: %w", key, err)
	}
	return nil
}

// Close closes the database
func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) load(ctx context.Context, key string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %q: %w", key, err)
	}
	return []byte(data), nil
}

