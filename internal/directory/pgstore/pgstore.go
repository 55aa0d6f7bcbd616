// Package pgstore keeps directory documents as rows of directory_documents.
package pgstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/relaybot/internal/directory"
)

const (
	selectDocument = `SELECT body FROM directory_documents WHERE collection = $1`
	upsertDocument = `INSERT INTO directory_documents (collection, body, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (collection) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`
)

// Store is a directory.Store over PostgreSQL. The schema lives in migrations/.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Read(ctx context.Context, c directory.Collection) ([]byte, bool, error) {
	var body []byte
	if err := s.db.GetContext(ctx, &body, selectDocument, string(c)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return body, true, nil
}

func (s *Store) Write(ctx context.Context, c directory.Collection, doc []byte) error {
	_, err := s.db.ExecContext(ctx, upsertDocument, string(c), string(doc))
	return err
}
