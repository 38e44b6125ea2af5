package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/canonical"
)

// ErrDocumentNotFound is returned when no document is stored at a path.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentInfo describes a stored document without its content.
type DocumentInfo struct {
	Space       string    `json:"space"`
	Path        string    `json:"path"`
	ContentHash string    `json:"content_hash"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Documents stores files by space and path with the same contract as the
// cluster repository.
type Documents struct {
	s *Store
}

// Documents returns the document table of s.
func (s *Store) Documents() *Documents {
	return &Documents{s: s}
}

// Exists reports whether a document is stored at space/path.
func (d *Documents) Exists(ctx context.Context, space, path string) (bool, error) {
	var one int
	err := d.s.db.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE space = ? AND path = ?`, space, path,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat document %s/%s: %w", space, path, err)
	}
	return true, nil
}

// Read returns the content stored at space/path.
func (d *Documents) Read(ctx context.Context, space, path string) ([]byte, error) {
	var content []byte
	err := d.s.db.QueryRowContext(ctx,
		`SELECT content FROM documents WHERE space = ? AND path = ?`, space, path,
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, space, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read document %s/%s: %w", space, path, err)
	}
	return content, nil
}

// Write creates or replaces the document at space/path.
//
// JSON content is hashed in canonical form so that reformatting a document
// keeps its hash. Other content is hashed as is.
func (d *Documents) Write(ctx context.Context, space, path string, content []byte) error {
	hash, err := canonical.Hash(canonical.DomainDocument, content)
	if err != nil {
		hash = canonical.HashBytes(canonical.DomainDocument, content)
	}
	if content == nil {
		content = []byte{}
	}

	_, err = d.s.db.ExecContext(ctx, `
		INSERT INTO documents (space, path, content, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(space, path) DO UPDATE SET
			content = excluded.content,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`, space, path, content, hash, d.s.now())
	if err != nil {
		return fmt.Errorf("write document %s/%s: %w", space, path, err)
	}
	return nil
}

// Remove deletes the document at space/path. Removing a missing document
// returns ErrDocumentNotFound.
func (d *Documents) Remove(ctx context.Context, space, path string) error {
	result, err := d.s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE space = ? AND path = ?`, space, path)
	if err != nil {
		return fmt.Errorf("remove document %s/%s: %w", space, path, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove document %s/%s: %w", space, path, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, space, path)
	}
	return nil
}

// List returns the documents of a space ordered by path.
func (d *Documents) List(ctx context.Context, space string) ([]DocumentInfo, error) {
	rows, err := d.s.db.QueryContext(ctx, `
		SELECT space, path, content_hash, updated_at
		FROM documents
		WHERE space = ?
		ORDER BY path COLLATE BINARY ASC
	`, space)
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", space, err)
	}
	defer rows.Close()

	var out []DocumentInfo
	for rows.Next() {
		var info DocumentInfo
		var updated string
		if err := rows.Scan(&info.Space, &info.Path, &info.ContentHash, &updated); err != nil {
			return nil, fmt.Errorf("list documents %s: %w", space, err)
		}
		if info.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
