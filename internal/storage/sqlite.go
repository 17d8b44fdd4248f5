package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/tatianab/survival-run/internal/models"
)

const schema = `CREATE TABLE IF NOT EXISTS saves (
	key      TEXT PRIMARY KEY,
	name     TEXT NOT NULL DEFAULT '',
	saved_at TEXT NOT NULL DEFAULT '',
	body     BLOB NOT NULL
)`

// SQLiteStore keeps slots as rows of a single key/value table.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite", cleanPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, slot Slot, snap *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := slot.Key()
	if err != nil {
		return err
	}
	body, err := models.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO saves (key, name, saved_at, body) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET name = excluded.name, saved_at = excluded.saved_at, body = excluded.body`,
		key, snap.Name, snap.SavedAt, body,
	)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, slot Slot) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := slot.Key()
	if err != nil {
		return nil, err
	}
	var body []byte
	err = s.sqlDB.QueryRowContext(ctx, `SELECT body FROM saves WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", slot, err)
	}
	return models.DecodeSnapshot(body)
}

func (s *SQLiteStore) Delete(ctx context.Context, slot Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := slot.Key()
	if err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM saves WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete slot %s: %w", slot, err)
	}
	return nil
}

// List reads names and timestamps from their columns without decoding bodies.
func (s *SQLiteStore) List(ctx context.Context) ([]SlotInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT key, name, saved_at FROM saves`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()

	found := map[string]SlotInfo{}
	for rows.Next() {
		var key string
		var info SlotInfo
		if err := rows.Scan(&key, &info.Name, &info.SavedAt); err != nil {
			return nil, fmt.Errorf("scan save: %w", err)
		}
		found[key] = info
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}

	var out []SlotInfo
	for _, slot := range ManualSlots() {
		key, _ := slot.Key()
		info, ok := found[key]
		info.Slot = slot
		info.Empty = !ok
		out = append(out, info)
	}
	return out, nil
}
