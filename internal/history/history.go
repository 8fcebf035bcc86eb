// Package history records uploaded files and their URLs in a SQLite
// database in the config directory.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the database file inside the config directory.
const FileName = "history.db"

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    file        TEXT    NOT NULL,
    url         TEXT    NOT NULL,
    size        INTEGER NOT NULL,
    username    TEXT    NOT NULL,
    uploaded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS uploads_uploaded_at ON uploads(uploaded_at);
`

// Entry is one uploaded file.
type Entry struct {
	ID         int64
	File       string
	URL        string
	Size       int64
	Username   string
	UploadedAt time.Time
}

// Store is an open history database.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the history database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error: cannot create history directory: %w", err)
	}
	return OpenFile(filepath.Join(dir, FileName))
}

// OpenFile opens the history database at path.
func OpenFile(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("error: cannot open history database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error: cannot create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores entries in one transaction. Entries without a time get
// the current time.
func (s *Store) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO uploads (file, url, size, username, uploaded_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, e := range entries {
		at := e.UploadedAt
		if at.IsZero() {
			at = now
		}
		if _, err := stmt.ExecContext(ctx, e.File, e.URL, e.Size, e.Username, at.Unix()); err != nil {
			return fmt.Errorf("record %s: %w", e.File, err)
		}
	}
	return tx.Commit()
}

// List returns the newest entries first. A limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, file, url, size, username, uploaded_at FROM uploads ORDER BY uploaded_at DESC, id DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error: failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			at int64
		)
		if err := rows.Scan(&e.ID, &e.File, &e.URL, &e.Size, &e.Username, &at); err != nil {
			return nil, err
		}
		e.UploadedAt = time.Unix(at, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes every entry.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM uploads`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
