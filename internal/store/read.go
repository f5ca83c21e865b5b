package store

import (
	"context"
	"database/sql"
	"fmt"
)

// RawEventRow mirrors one raw_events row.
type RawEventRow struct {
	EventID    string
	EventType  sql.NullString
	EventTS    sql.NullString
	UserID     sql.NullString
	DocumentID sql.NullString
	SourceFile sql.NullString
	RawJSON    string
}

// UserRow mirrors one users row.
type UserRow struct {
	UserID      string
	FirstSeenTS sql.NullString
	LastSeenTS  sql.NullString
}

// DocumentRow mirrors one documents row.
type DocumentRow struct {
	DocumentID  string
	Title       sql.NullString
	OwnerUserID sql.NullString
	CreatedTS   sql.NullString
	LastSeenTS  sql.NullString
}

// EventRow mirrors one normalized events row.
type EventRow struct {
	EventID          string
	EventType        string
	EventTS          sql.NullString
	UserID           sql.NullString
	DocumentID       sql.NullString
	DayOfWeek        sql.NullString
	CommentText      sql.NullString
	SharedWithUserID sql.NullString
	EditCharsDelta   sql.NullInt64
	RawJSON          string
}

// Counts reports the row counts of the four tables, for the post-run
// summary and the status command.
type Counts struct {
	RawEvents int `json:"raw_events"`
	Users     int `json:"users"`
	Documents int `json:"documents"`
	Events    int `json:"events"`
}

// TableCounts returns current row counts for all four tables.
func (s *Store) TableCounts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"raw_events", &c.RawEvents},
		{"users", &c.Users},
		{"documents", &c.Documents},
		{"events", &c.Events},
	} {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+q.table).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", q.table, err)
		}
	}
	return c, nil
}

// ReadRawEvent returns one raw event by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRawEvent(ctx context.Context, eventID string) (RawEventRow, error) {
	var r RawEventRow
	err := s.db.QueryRowContext(ctx, `
		SELECT event_id, event_type, event_ts, user_id, document_id, source_file, raw_json
		FROM raw_events
		WHERE event_id = ?
	`, eventID).Scan(&r.EventID, &r.EventType, &r.EventTS, &r.UserID, &r.DocumentID, &r.SourceFile, &r.RawJSON)
	if err != nil {
		return RawEventRow{}, fmt.Errorf("read raw event %s: %w", eventID, err)
	}
	return r, nil
}

// ReadUser returns one derived user by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadUser(ctx context.Context, userID string) (UserRow, error) {
	var u UserRow
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, first_seen_ts, last_seen_ts
		FROM users
		WHERE user_id = ?
	`, userID).Scan(&u.UserID, &u.FirstSeenTS, &u.LastSeenTS)
	if err != nil {
		return UserRow{}, fmt.Errorf("read user %s: %w", userID, err)
	}
	return u, nil
}

// ReadDocument returns one derived document by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadDocument(ctx context.Context, documentID string) (DocumentRow, error) {
	var d DocumentRow
	err := s.db.QueryRowContext(ctx, `
		SELECT document_id, title, owner_user_id, created_ts, last_seen_ts
		FROM documents
		WHERE document_id = ?
	`, documentID).Scan(&d.DocumentID, &d.Title, &d.OwnerUserID, &d.CreatedTS, &d.LastSeenTS)
	if err != nil {
		return DocumentRow{}, fmt.Errorf("read document %s: %w", documentID, err)
	}
	return d, nil
}

// ReadEvent returns one normalized event by its external id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadEvent(ctx context.Context, eventID string) (EventRow, error) {
	var e EventRow
	err := s.db.QueryRowContext(ctx, `
		SELECT event_id, event_type, event_ts, user_id, document_id,
		       day_of_week, comment_text, shared_with_user_id, edit_chars_delta,
		       raw_json
		FROM events
		WHERE event_id = ?
	`, eventID).Scan(
		&e.EventID, &e.EventType, &e.EventTS, &e.UserID, &e.DocumentID,
		&e.DayOfWeek, &e.CommentText, &e.SharedWithUserID, &e.EditCharsDelta,
		&e.RawJSON,
	)
	if err != nil {
		return EventRow{}, fmt.Errorf("read event %s: %w", eventID, err)
	}
	return e, nil
}

// ReadAllEvents returns every normalized event in deterministic order
// (external id, binary collation).
func (s *Store) ReadAllEvents(ctx context.Context) ([]EventRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, event_type, event_ts, user_id, document_id,
		       day_of_week, comment_text, shared_with_user_id, edit_chars_delta,
		       raw_json
		FROM events
		ORDER BY event_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(
			&e.EventID, &e.EventType, &e.EventTS, &e.UserID, &e.DocumentID,
			&e.DayOfWeek, &e.CommentText, &e.SharedWithUserID, &e.EditCharsDelta,
			&e.RawJSON,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	if events == nil {
		events = []EventRow{}
	}
	return events, nil
}
