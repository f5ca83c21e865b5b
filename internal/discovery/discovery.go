// Package discovery enumerates candidate event files and diffs them against
// the checkpoint to produce the incremental ingestion work list.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Result describes one discovery pass over the ingestion root.
type Result struct {
	// Total is the number of event files found under the root.
	Total int

	// New holds the absolute paths not yet present in the checkpoint,
	// sorted lexicographically.
	New []string
}

// eventFileExt is the recognized event file extension.
const eventFileExt = ".json"

// FindNewFiles recursively lists *.json files under root, resolves them to
// absolute paths, and returns those absent from the already-ingested set in
// deterministic (lexicographic) order.
//
// A missing root directory is a condition, not an error: the result is
// empty and the caller decides whether to log it.
func FindNewFiles(root string, already map[string]struct{}) (Result, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("stat ingestion root: %w", err)
	}

	var all []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), eventFileExt) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		all = append(all, abs)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("walk ingestion root: %w", err)
	}

	sort.Strings(all)

	res := Result{Total: len(all)}
	for _, path := range all {
		if _, ok := already[path]; !ok {
			res.New = append(res.New, path)
		}
	}
	return res, nil
}
