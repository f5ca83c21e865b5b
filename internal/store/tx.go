package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// WithTx runs fn inside a single transaction.
//
// On any error from fn the transaction is rolled back and the original
// error is returned; a rollback failure is logged but never masks the
// error that caused it. On success the transaction is committed.
//
// All ingestion and normalization statements for a pipeline run execute on
// the tx passed to fn, so either every effect of the run becomes durable
// together or the store is observably unchanged.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
