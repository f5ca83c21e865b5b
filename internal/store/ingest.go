package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/docpulse/internal/event"
)

// InsertRawEvent inserts one admitted event into raw_events on the given
// transaction. Uses ON CONFLICT(event_id) DO NOTHING for idempotency:
// re-ingesting a previously seen id is silently absorbed, and the returned
// bool reports whether a new row was actually written.
func InsertRawEvent(ctx context.Context, tx *sql.Tx, ev event.RawEvent) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO raw_events
		(event_id, event_type, event_ts, user_id, document_id, source_file, raw_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`,
		ev.ID,
		ev.Type,
		nullable(ev.Timestamp),
		nullable(ev.UserID),
		nullable(ev.DocumentID),
		ev.SourceFile,
		ev.RawJSON,
	)
	if err != nil {
		return false, fmt.Errorf("insert raw event %s: %w", ev.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert raw event %s: rows affected: %w", ev.ID, err)
	}
	return affected > 0, nil
}

// nullable maps the record extractor's "" (absent) convention to SQL NULL,
// so the normalization aggregates and IS NOT NULL filters behave.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
