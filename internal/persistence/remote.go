package persistence

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lowaak/circuit-timer/internal/workout"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RemoteStore keeps session records in PostgreSQL, one JSONB document per user
type RemoteStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// OpenRemoteStore connects to the database at dsn
func OpenRemoteStore(ctx context.Context, dsn string, logger *log.Logger) (*RemoteStore, error) {
	if logger == nil {
		panic("RemoteStore: logger cannot be nil")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	logger.Printf("RemoteStore: connected")
	return &RemoteStore{pool: pool, logger: logger}, nil
}

// RunMigrations applies all pending schema migrations
func RunMigrations(dsn string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Get returns the record stored for userID
func (s *RemoteStore) Get(ctx context.Context, userID string) (workout.Record, bool, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM user_sessions WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return workout.Record{}, false, nil
	}
	if err != nil {
		return workout.Record{}, false, fmt.Errorf("reading session for %s: %w", userID, err)
	}
	return decodeRecord(raw)
}

// Set stores rec for userID. MergeShallow keeps top-level fields of the
// stored document that rec does not carry.
func (s *RemoteStore) Set(ctx context.Context, userID string, rec workout.Record, mode MergeMode) error {
	raw, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO user_sessions (user_id, data, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (user_id) DO UPDATE
			SET data = EXCLUDED.data, updated_at = NOW()
	`
	if mode == MergeShallow {
		query = `
			INSERT INTO user_sessions (user_id, data, updated_at)
			VALUES ($1, $2::jsonb, NOW())
			ON CONFLICT (user_id) DO UPDATE
				SET data = user_sessions.data || EXCLUDED.data, updated_at = NOW()
		`
	}

	if _, err := s.pool.Exec(ctx, query, userID, string(raw)); err != nil {
		return fmt.Errorf("writing session for %s: %w", userID, err)
	}
	return nil
}

// Close closes the connection pool
func (s *RemoteStore) Close() {
	s.pool.Close()
}
