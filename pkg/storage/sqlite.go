package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"

	_ "modernc.org/sqlite"
)

const alertsEnabledKey = "alerts-enabled"

// Option configures an SQLite store.
type Option func(*SQLite)

// WithKey overrides the key the container collection is stored under.
func WithKey(key string) Option {
	return func(s *SQLite) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used to report recovered load failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLite) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// SQLite implements the Storage interface as a key-value table in an
// SQLite database.
type SQLite struct {
	db     *sqlx.DB
	key    string
	logger *slog.Logger
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string, opts ...Option) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Transactions take the write lock when they begin, so a
	// read-modify-write never interleaves with another process.
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLite{
		db:     db,
		key:    DefaultKey,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLite) LoadContainers(ctx context.Context) ([]model.Container, error) {
	return s.loadContainers(ctx, s.db)
}

func (s *SQLite) SaveContainers(ctx context.Context, containers []model.Container) error {
	return s.saveContainers(ctx, s.db, containers)
}

func (s *SQLite) AlertsEnabled(ctx context.Context) (bool, error) {
	return s.alertsEnabled(ctx, s.db)
}

func (s *SQLite) SetAlertsEnabled(ctx context.Context, enabled bool) error {
	return put(ctx, s.db, alertsEnabledKey, strconv.FormatBool(enabled))
}

func (s *SQLite) Update(ctx context.Context, fn func(State) (State, error)) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current State
	if current.Containers, err = s.loadContainers(ctx, tx); err != nil {
		return err
	}
	if current.AlertsEnabled, err = s.alertsEnabled(ctx, tx); err != nil {
		return err
	}

	next, err := fn(current)
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.saveContainers(ctx, tx, next.Containers); err != nil {
		return err
	}
	if next.AlertsEnabled != current.AlertsEnabled {
		if err := put(ctx, tx, alertsEnabledKey, strconv.FormatBool(next.AlertsEnabled)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) loadContainers(ctx context.Context, q sqlx.ExtContext) ([]model.Container, error) {
	raw, ok, err := get(ctx, q, s.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.Container{}, nil
	}

	containers, skipped, err := DecodeContainers([]byte(raw))
	if err != nil {
		s.logger.Warn("stored containers unreadable, starting empty", "key", s.key, "error", err)
		return []model.Container{}, nil
	}
	if skipped > 0 {
		s.logger.Warn("discarded malformed container entries", "key", s.key, "skipped", skipped)
	}
	return containers, nil
}

func (s *SQLite) saveContainers(ctx context.Context, q sqlx.ExtContext, containers []model.Container) error {
	data, err := EncodeContainers(containers)
	if err != nil {
		return err
	}
	return put(ctx, q, s.key, string(data))
}

func (s *SQLite) alertsEnabled(ctx context.Context, q sqlx.ExtContext) (bool, error) {
	raw, ok, err := get(ctx, q, alertsEnabledKey)
	if err != nil || !ok {
		return false, err
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		s.logger.Warn("invalid alerts flag, treating as disabled", "value", raw)
		return false, nil
	}
	return enabled, nil
}

func get(ctx context.Context, q sqlx.ExtContext, key string) (string, bool, error) {
	var value string
	err := sqlx.GetContext(ctx, q, &value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func put(ctx context.Context, q sqlx.ExtContext, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}
