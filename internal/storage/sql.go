package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/dhima/version-watch/internal/models"
)

// ErrUnsupportedDriver is returned by Open for drivers other than sqlite and mysql.
var ErrUnsupportedDriver = errors.New("unsupported store driver")

// SQLStore persists the ScheduleState as key/value rows under one namespace.
// Every read and write holds mu, so the store is the single writer for the
// state regardless of how many goroutines dispatch or mutate triggers.
type SQLStore struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

// Open connects to the given driver/DSN and prepares the schema.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "sqlite", "mysql":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}

	if driver == "sqlite" {
		// A single connection keeps SQLite from returning SQLITE_BUSY under the
		// store's own serialized access.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(2)
		db.SetMaxOpenConns(5)
		db.SetConnMaxLifetime(60 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s store: %w", driver, err)
	}

	store, err := NewSQLStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wires an existing sql.DB and creates the table if needed.
func NewSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	s := &SQLStore{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schedule_state (
			namespace   VARCHAR(64)  NOT NULL,
			state_key   VARCHAR(64)  NOT NULL,
			state_value TEXT         NOT NULL,
			updated_at  BIGINT       NOT NULL,
			PRIMARY KEY (namespace, state_key)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schedule_state table: %w", err)
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Load returns a copy of the current state.
func (s *SQLStore) Load(ctx context.Context) (models.ScheduleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, s.db)
}

// View runs fn against the current state while holding the store lock.
// fn must not call back into the store.
func (s *SQLStore) View(ctx context.Context, fn func(models.ScheduleState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx, s.db)
	if err != nil {
		return err
	}
	return fn(state)
}

// Update performs a serialized read-modify-write. When fn returns an error
// nothing is written. All keys are written in one transaction.
func (s *SQLStore) Update(ctx context.Context, fn func(*models.ScheduleState) error) (models.ScheduleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ScheduleState{}, fmt.Errorf("failed to begin state transaction: %w", err)
	}
	defer tx.Rollback()

	state, err := s.load(ctx, tx)
	if err != nil {
		return models.ScheduleState{}, err
	}
	if err := fn(&state); err != nil {
		return models.ScheduleState{}, err
	}
	state.FixedTimes = models.NormalizeFixedTimes(state.FixedTimes)

	updatedAt := s.now().UnixMilli()
	for key, value := range Encode(state) {
		_, err := tx.ExecContext(ctx, `
			REPLACE INTO schedule_state (namespace, state_key, state_value, updated_at)
			VALUES (?, ?, ?, ?)
		`, Namespace, key, value, updatedAt)
		if err != nil {
			return models.ScheduleState{}, fmt.Errorf("failed to write %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.ScheduleState{}, fmt.Errorf("failed to commit state transaction: %w", err)
	}
	return state.Clone(), nil
}

// Reset deletes every persisted key, returning the state to defaults.
func (s *SQLStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM schedule_state WHERE namespace = ?`, Namespace); err != nil {
		return fmt.Errorf("failed to reset schedule state: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) load(ctx context.Context, q querier) (models.ScheduleState, error) {
	values, err := s.rows(ctx, q)
	if err != nil {
		return models.ScheduleState{}, err
	}
	return Decode(values)
}

func (s *SQLStore) rows(ctx context.Context, q querier) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT state_key, state_value
		FROM schedule_state
		WHERE namespace = ?
	`, Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule state: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan schedule state: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule state: %w", err)
	}
	return values, nil
}
