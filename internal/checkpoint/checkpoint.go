// Package checkpoint tracks which source files have already been ingested.
//
// The checkpoint is a plain-text file with one absolute path per line,
// append-only. It is the at-most-once boundary for file discovery: a path
// present in the checkpoint is never offered for ingestion again. Appending
// must happen only after the database transaction that ingested those files
// has committed; a crash between commit and append merely re-offers the
// affected files next run, which is safe because raw insertion is idempotent.
package checkpoint

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads the set of already ingested file paths.
// A missing checkpoint file is not an error; it means nothing has been
// ingested yet. Blank lines are ignored.
func Load(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		seen[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	return seen, nil
}

// Append records the given paths as ingested, one per line.
// The write is append-only and synced before close: an interrupted write can
// at worst drop trailing lines, which discovery self-heals by re-offering
// those files. Callers must invoke this only after the corresponding
// database transaction has committed.
func Append(path string, entries []string) error {
	if len(entries) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open checkpoint for append: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, entry := range entries {
		if _, err := w.WriteString(entry + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("append checkpoint entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush checkpoint: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	return nil
}
