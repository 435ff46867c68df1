package configdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound marks a package with no stored configuration.
var ErrNotFound = errors.New("configdb: no configuration for package")

const configKeyPrefix = "addons.config."

// Store manages settings persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the settings database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure settings directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS settings (key TEXT PRIMARY KEY, value TEXT)`,
	); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create settings table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadConfig returns the stored configuration blob for a package.
func (s *Store) LoadConfig(ctx context.Context, packageName string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`,
		configKeyPrefix+packageName,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, packageName)
	}
	if err != nil {
		return nil, fmt.Errorf("load config for %s: %w", packageName, err)
	}

	out := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse config for %s: %w", packageName, err)
	}
	return out, nil
}

// SaveConfig stores the configuration blob for a package, replacing any
// previous value.
func (s *Store) SaveConfig(ctx context.Context, packageName string, cfg map[string]any) error {
	if cfg == nil {
		cfg = map[string]any{}
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config for %s: %w", packageName, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		configKeyPrefix+packageName, string(raw),
	); err != nil {
		return fmt.Errorf("save config for %s: %w", packageName, err)
	}
	return nil
}
