// Package store persists rendered and woven files in a SQLite
// database. Metadata and content live in separate tables tied by a
// cascading foreign key; a file's two rows are always written in one
// transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// DefaultDBName is the database file created under the project root.
const DefaultDBName = "loom.db"

const schema = `
CREATE TABLE IF NOT EXISTS metadata (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS file_content (
	id INTEGER PRIMARY KEY,
	content TEXT NOT NULL,
	FOREIGN KEY (id) REFERENCES metadata(id) ON DELETE CASCADE
);
`

// Store wraps the database handle.
type Store struct {
	db *sql.DB
}

// File is one persisted document.
type File struct {
	ID      int64
	Path    string
	Content string
}

// ErrNotFound reports a lookup for a path the store has never saved.
var ErrNotFound = errors.New("file not in store")

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Save inserts or replaces one file. The metadata row and its content
// row are created together or not at all.
func (s *Store) Save(ctx context.Context, path, content string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	defer tx.Rollback()

	// Replacing an existing path cascades its old content row away.
	if _, err := tx.ExecContext(ctx, "DELETE FROM metadata WHERE file_path = ?", path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	res, err := tx.ExecContext(ctx, "INSERT INTO metadata (file_path) VALUES (?)", path)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO file_content (id, content) VALUES (?, ?)", id, content); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// SaveAll persists a batch of (path, content) pairs in one transaction.
func (s *Store) SaveAll(ctx context.Context, files []File) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	defer tx.Rollback()

	for _, f := range files {
		if _, err := tx.ExecContext(ctx, "DELETE FROM metadata WHERE file_path = ?", f.Path); err != nil {
			return fmt.Errorf("save %s: %w", f.Path, err)
		}
		res, err := tx.ExecContext(ctx, "INSERT INTO metadata (file_path) VALUES (?)", f.Path)
		if err != nil {
			return fmt.Errorf("save %s: %w", f.Path, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("save %s: %w", f.Path, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO file_content (id, content) VALUES (?, ?)", id, f.Content); err != nil {
			return fmt.Errorf("save %s: %w", f.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	return nil
}

// Get returns one file by path.
func (s *Store) Get(ctx context.Context, path string) (*File, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT m.id, m.file_path, c.content
		FROM metadata m JOIN file_content c ON c.id = m.id
		WHERE m.file_path = ?`, path)

	var f File
	if err := row.Scan(&f.ID, &f.Path, &f.Content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return &f, nil
}

// All returns every stored file ordered by path.
func (s *Store) All(ctx context.Context) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.file_path, c.content
		FROM metadata m JOIN file_content c ON c.id = m.id
		ORDER BY m.file_path`)
	if err != nil {
		return nil, fmt.Errorf("list store: %w", err)
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Path, &f.Content); err != nil {
			return nil, fmt.Errorf("list store: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Delete removes a file's metadata; the content row cascades.
func (s *Store) Delete(ctx context.Context, path string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM metadata WHERE file_path = ?", path)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return nil
}
