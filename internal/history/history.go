// Package history persists installation records so that a rollback can be
// performed externally. The patch executor records the intended operation
// before touching any package and updates the record's status afterwards.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
)

// InstallType classifies a recorded operation.
type InstallType string

const (
	TypeInstall InstallType = "install"
	TypeUpgrade InstallType = "upgrade"
	TypeRemove  InstallType = "remove"
)

// Status is the lifecycle state of an installation record.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// Record is a persisted installation-history entry.
type Record struct {
	ID        string
	Type      InstallType
	Packages  []string
	Commands  []string
	StartedAt time.Time
	Status    Status
	Error     string
}

// Store records installation operations and their outcomes.
type Store interface {
	// Record persists a new in-progress entry and returns its identifier,
	// which doubles as the rollback id.
	Record(ctx context.Context, typ InstallType, packages, commands []string, startedAt time.Time) (string, error)
	// Update sets the final status (and error text) of an entry.
	Update(ctx context.Context, id string, status Status, errMsg string) error
	// Get fetches a single entry by id.
	Get(ctx context.Context, id string) (*Record, error)
	Close() error
}

// SQLiteStore is the SQLite-backed installation history.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (and bootstraps) the history database.
func Open(cfg *config.Config, log *zap.Logger) (*SQLiteStore, error) {
	path := cfg.HistoryPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.initTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS installations (
		install_id TEXT PRIMARY KEY,
		install_type TEXT NOT NULL,
		packages TEXT NOT NULL,
		commands TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		updated_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_installations_started_at ON installations(started_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return nil
}

// Record inserts a new in-progress entry.
func (s *SQLiteStore) Record(ctx context.Context, typ InstallType, packages, commands []string, startedAt time.Time) (string, error) {
	id := fmt.Sprintf("install_%d", startedAt.UnixNano())

	pkgJSON, err := json.Marshal(packages)
	if err != nil {
		return "", fmt.Errorf("failed to encode package list: %w", err)
	}
	cmdJSON, err := json.Marshal(commands)
	if err != nil {
		return "", fmt.Errorf("failed to encode command list: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO installations (install_id, install_type, packages, commands, started_at, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(typ), string(pkgJSON), string(cmdJSON), startedAt.UTC(), string(StatusInProgress),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record installation: %w", err)
	}

	s.log.Debug("Recorded installation", zap.String("install_id", id), zap.Int("packages", len(packages)))
	return id, nil
}

// Update sets the final status of an entry.
func (s *SQLiteStore) Update(ctx context.Context, id string, status Status, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE installations SET status = ?, error = ?, updated_at = ? WHERE install_id = ?`,
		string(status), errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update installation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("installation %s not found", id)
	}
	return nil
}

// Get fetches a single entry by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT install_id, install_type, packages, commands, started_at, status, COALESCE(error, '')
		 FROM installations WHERE install_id = ?`, id)

	var rec Record
	var typ, status, pkgJSON, cmdJSON string
	if err := row.Scan(&rec.ID, &typ, &pkgJSON, &cmdJSON, &rec.StartedAt, &status, &rec.Error); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("installation %s not found", id)
		}
		return nil, fmt.Errorf("failed to load installation %s: %w", id, err)
	}
	rec.Type = InstallType(typ)
	rec.Status = Status(status)
	if err := json.Unmarshal([]byte(pkgJSON), &rec.Packages); err != nil {
		return nil, fmt.Errorf("failed to decode package list for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(cmdJSON), &rec.Commands); err != nil {
		return nil, fmt.Errorf("failed to decode command list for %s: %w", id, err)
	}
	return &rec, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
