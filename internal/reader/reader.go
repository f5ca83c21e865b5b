// Package reader parses one event file into raw record objects.
//
// Supported payloads are a single JSON object or a JSON array of objects.
// JSON-lines is deliberately unsupported: such a file fails to parse as a
// whole and yields zero records. A malformed file is a per-file condition
// for the caller to log, never a reason to abort the run.
package reader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotEventPayload marks files whose top-level JSON value is neither an
// object nor an array.
var ErrNotEventPayload = errors.New("payload is not an object or array of objects")

// ErrTrailingContent marks files with extra content after the first JSON
// document, which is how JSON-lines input surfaces.
var ErrTrailingContent = errors.New("trailing content after JSON document (JSON-lines is unsupported)")

// ReadEventFile returns the record objects contained in one event file, in
// their original order.
//
// An empty (or whitespace-only) file yields zero records and no error.
// A file that fails to parse, or whose top-level value has the wrong shape,
// yields zero records and a skippable error (see IsSkippable) the caller
// logs without aborting. Non-object elements inside a top-level array are
// silently dropped.
func ReadEventFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event file: %w", err)
	}

	// Tolerate invalid UTF-8 by substituting the replacement rune.
	text := strings.TrimSpace(strings.ToValidUTF8(string(data), "�"))
	if text == "" {
		return nil, nil
	}

	// UseNumber preserves the original numeric text for the canonical
	// audit copy of each record.
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	// The file must be exactly one JSON document.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parse %s: %w", path, ErrTrailingContent)
	}

	switch v := top.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		var records []map[string]any
		for _, elem := range v {
			if rec, ok := elem.(map[string]any); ok {
				records = append(records, rec)
			}
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrNotEventPayload)
	}
}

// IsSkippable reports whether err is a per-file condition (malformed JSON
// or an unexpected payload shape) that should be logged and skipped, as
// opposed to an I/O failure that should abort the run.
func IsSkippable(err error) bool {
	if errors.Is(err, ErrNotEventPayload) || errors.Is(err, ErrTrailingContent) {
		return true
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}
