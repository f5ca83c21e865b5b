// Package event extracts raw event records from decoded JSON objects.
//
// Extraction is tolerant of historical field-naming conventions: every
// ambiguous field is resolved through an ordered list of candidate keys,
// first present wins. Only two fields are mandatory for admission: the
// event identifier and the event type.
package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Alias lists for fields that have gone through naming convention changes.
// Order matters: the first present, non-empty candidate wins.
var (
	timestampAliases  = []string{"timestamp", "event_timestamp", "ts", "time"}
	userIDAliases     = []string{"user_id", "userId", "uid"}
	documentIDAliases = []string{"document_id", "documentId", "doc_id"}
)

// RawEvent is one admitted record, ready for insertion into raw_events.
// Optional fields use "" for absent; the store maps those to SQL NULL.
type RawEvent struct {
	ID         string // globally unique, required
	Type       string // lower-cased, required
	Timestamp  string // first timestamp alias, stringified as-is
	UserID     string
	DocumentID string
	SourceFile string // absolute path of the originating file
	RawJSON    string // canonical JSON of the full original record
}

// SkipReason classifies why a record was not admitted.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipMissingID
	SkipMissingType
)

// FromRecord validates and extracts one record.
// Records missing an event id or event type are rejected with the matching
// skip reason; the caller counts them and moves on.
func FromRecord(rec map[string]any, sourceFile string) (RawEvent, SkipReason, error) {
	id := stringify(rec["event_id"])
	if id == "" {
		return RawEvent{}, SkipMissingID, nil
	}

	typ := stringify(rec["event_type"])
	if typ == "" {
		return RawEvent{}, SkipMissingType, nil
	}

	rawJSON, err := MarshalCanonical(rec)
	if err != nil {
		return RawEvent{}, SkipNone, fmt.Errorf("encode record %s: %w", id, err)
	}

	return RawEvent{
		ID:         id,
		Type:       strings.ToLower(typ),
		Timestamp:  firstString(rec, timestampAliases),
		UserID:     firstString(rec, userIDAliases),
		DocumentID: firstString(rec, documentIDAliases),
		SourceFile: sourceFile,
		RawJSON:    string(rawJSON),
	}, SkipNone, nil
}

// firstString returns the stringified value of the first candidate key that
// is present with a non-empty value.
func firstString(rec map[string]any, keys []string) string {
	for _, k := range keys {
		if s := stringify(rec[k]); s != "" {
			return s
		}
	}
	return ""
}

// stringify converts a decoded JSON scalar to a trimmed string.
// nil and non-scalar values become "", matching the admission rule that a
// structurally wrong identifier counts as absent.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return ""
	}
}
