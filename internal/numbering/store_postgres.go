package numbering

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/carrierdesk/carrierdesk/internal/platform/db"
)

// PostgresStore keeps counters in the document_counters table.
type PostgresStore struct {
	db db.DBTX
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(conn db.DBTX) *PostgresStore {
	return &PostgresStore{db: conn}
}

// Read implements Store.
func (s *PostgresStore) Read(ctx context.Context, docType DocType, scope string) (int64, bool, error) {
	var value int64
	err := s.db.QueryRow(ctx, `
		SELECT current_value
		FROM document_counters
		WHERE doc_type = $1 AND scope_key = $2
	`, string(docType), scope).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("numbering: read counter: %w", err)
	}
	return value, true, nil
}

// Commit implements Store. The first commit for a scope inserts the row; a concurrent
// first commit loses on the primary key and reports a conflict.
func (s *PostgresStore) Commit(ctx context.Context, docType DocType, scope string, prev, next int64) error {
	if err := checkCommit(docType, prev, next); err != nil {
		return err
	}

	if prev == 0 {
		tag, err := s.db.Exec(ctx, `
			INSERT INTO document_counters (doc_type, scope_key, current_value)
			VALUES ($1, $2, $3)
			ON CONFLICT (doc_type, scope_key) DO UPDATE
			SET current_value = EXCLUDED.current_value, updated_at = NOW()
			WHERE document_counters.current_value = 0
		`, string(docType), scope, next)
		if err != nil {
			return fmt.Errorf("numbering: create counter: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}
		return nil
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE document_counters
		SET current_value = $4, updated_at = NOW()
		WHERE doc_type = $1 AND scope_key = $2 AND current_value = $3
	`, string(docType), scope, prev, next)
	if err != nil {
		return fmt.Errorf("numbering: update counter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}
