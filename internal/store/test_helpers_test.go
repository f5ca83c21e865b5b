package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/docpulse/internal/event"
)

// createTestStore creates a new on-disk store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent creates a raw event with minimal required fields.
func createTestEvent(id, typ, ts, userID, docID string) event.RawEvent {
	return event.RawEvent{
		ID:         id,
		Type:       typ,
		Timestamp:  ts,
		UserID:     userID,
		DocumentID: docID,
		SourceFile: "/events/test.json",
		RawJSON:    `{"event_id":"` + id + `","event_type":"` + typ + `"}`,
	}
}

// mustIngest inserts the given events in one committed transaction.
func mustIngest(t *testing.T, s *Store, events ...event.RawEvent) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx *sql.Tx) error {
		for _, ev := range events {
			if _, err := InsertRawEvent(context.Background(), tx, ev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
}

// mustNormalize runs all three passes in one committed transaction.
func mustNormalize(t *testing.T, s *Store) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx *sql.Tx) error {
		return s.Normalize(context.Background(), tx)
	})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
}

// countRows counts rows in a table.
func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s failed: %v", table, err)
	}
	return n
}
