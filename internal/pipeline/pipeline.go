// Package pipeline sequences the ingestion-and-normalization run.
//
// A run is: discover new files, ingest their records into raw_events,
// derive the normalized tables, commit, then append the processed files to
// the checkpoint. Ingestion and normalization share one transaction, so a
// failure anywhere leaves the store observably unchanged and the
// checkpoint untouched. A crash between commit and checkpoint append only
// causes the affected files to be re-offered next run, which raw
// ingestion's insert-if-absent policy absorbs.
//
// The four stages are also exposed individually (Discover, IngestOnly,
// NormalizeOnly, Checkpoint) for external schedulers that persist
// intermediate results across task boundaries and sequence the stages
// themselves.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/roach88/docpulse/internal/checkpoint"
	"github.com/roach88/docpulse/internal/config"
	"github.com/roach88/docpulse/internal/discovery"
	"github.com/roach88/docpulse/internal/event"
	"github.com/roach88/docpulse/internal/reader"
	"github.com/roach88/docpulse/internal/store"
)

// Pipeline owns one store and configuration for the duration of a run.
// Not safe for concurrent runs against the same store; the caller must
// guarantee a single active writer.
type Pipeline struct {
	cfg *config.Config
	st  *store.Store
}

// New creates a pipeline over an open store.
func New(cfg *config.Config, st *store.Store) *Pipeline {
	return &Pipeline{cfg: cfg, st: st}
}

// FileStats are the per-file ingestion counters reported for observability.
type FileStats struct {
	Path               string `json:"path"`
	Records            int    `json:"records"`
	Inserted           int    `json:"inserted"`
	SkippedMissingID   int    `json:"skipped_missing_id"`
	SkippedMissingType int    `json:"skipped_missing_type"`
}

// Summary describes one completed pipeline run.
type Summary struct {
	RunID              string       `json:"run_id"`
	TotalFiles         int          `json:"total_files"`
	NewFiles           int          `json:"new_files"`
	Files              []FileStats  `json:"files,omitempty"`
	Inserted           int          `json:"inserted"`
	SkippedMissingID   int          `json:"skipped_missing_id"`
	SkippedMissingType int          `json:"skipped_missing_type"`
	Counts             store.Counts `json:"counts"`
}

// Discover loads the checkpoint and returns the files under the ingestion
// root that have not been ingested yet, in deterministic sorted order.
// A missing root is a condition, not an error: zero new files.
func (p *Pipeline) Discover(ctx context.Context) (discovery.Result, error) {
	already, err := checkpoint.Load(p.cfg.CheckpointPath)
	if err != nil {
		return discovery.Result{}, err
	}

	res, err := discovery.FindNewFiles(p.cfg.EventsDir, already)
	if err != nil {
		return discovery.Result{}, err
	}
	if res.Total == 0 {
		if abs, absErr := filepath.Abs(p.cfg.EventsDir); absErr == nil {
			slog.Info("ingestion root empty or missing", "dir", abs)
		}
	}
	slog.Info("discovery complete",
		"total_files", res.Total,
		"new_files", len(res.New),
		"checkpointed", len(already))
	return res, nil
}

// ingestRaw reads and inserts the records of each file on the given
// transaction. Returns all attempted file paths (the checkpoint candidate
// set) and the per-file counters. Malformed files contribute zero records
// and are still counted as processed; any database error aborts.
func (p *Pipeline) ingestRaw(ctx context.Context, tx *sql.Tx, files []string) ([]string, []FileStats, error) {
	var processed []string
	var stats []FileStats

	for _, path := range files {
		records, err := reader.ReadEventFile(path)
		if err != nil {
			if !reader.IsSkippable(err) {
				return nil, nil, err
			}
			slog.Warn("skipping malformed event file", "file", path, "error", err)
		}

		fs := FileStats{Path: path, Records: len(records)}
		for _, rec := range records {
			ev, skip, err := event.FromRecord(rec, path)
			if err != nil {
				return nil, nil, err
			}
			switch skip {
			case event.SkipMissingID:
				fs.SkippedMissingID++
				continue
			case event.SkipMissingType:
				fs.SkippedMissingType++
				continue
			}

			inserted, err := store.InsertRawEvent(ctx, tx, ev)
			if err != nil {
				return nil, nil, err
			}
			if inserted {
				fs.Inserted++
			}
		}

		processed = append(processed, path)
		stats = append(stats, fs)
		slog.Info("ingest raw",
			"file", filepath.Base(path),
			"events", fs.Records,
			"inserted", fs.Inserted,
			"skipped_missing_event_id", fs.SkippedMissingID,
			"skipped_missing_event_type", fs.SkippedMissingType)
	}

	return processed, stats, nil
}

// Run executes a full pipeline run: discover, then ingest + normalize in
// one transaction, then checkpoint, then summarize. An empty new-file list
// short-circuits without opening a transaction.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	runID := newRunID()
	log := slog.With("run_id", runID)

	res, err := p.Discover(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		RunID:      runID,
		TotalFiles: res.Total,
		NewFiles:   len(res.New),
	}

	if len(res.New) == 0 {
		log.Info("no new files to ingest")
		counts, err := p.st.TableCounts(ctx)
		if err != nil {
			return Summary{}, err
		}
		summary.Counts = counts
		return summary, nil
	}

	var processed []string
	err = p.st.WithTx(ctx, func(tx *sql.Tx) error {
		var stats []FileStats
		var err error
		processed, stats, err = p.ingestRaw(ctx, tx, res.New)
		if err != nil {
			return err
		}
		summary.Files = stats
		for _, fs := range stats {
			summary.Inserted += fs.Inserted
			summary.SkippedMissingID += fs.SkippedMissingID
			summary.SkippedMissingType += fs.SkippedMissingType
		}

		return p.st.Normalize(ctx, tx)
	})
	if err != nil {
		return Summary{}, fmt.Errorf("pipeline run %s: %w", runID, err)
	}

	// Checkpoint strictly after commit. A crash before this append only
	// re-offers the files next run.
	if err := p.Checkpoint(processed); err != nil {
		return Summary{}, fmt.Errorf("pipeline run %s: %w", runID, err)
	}

	counts, err := p.st.TableCounts(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary.Counts = counts

	log.Info("pipeline ok",
		"raw_events", counts.RawEvents,
		"users", counts.Users,
		"documents", counts.Documents,
		"events", counts.Events)
	return summary, nil
}

// IngestOnly runs the raw ingestion stage in its own transaction, for
// schedulers that split the run into separate tasks. The returned paths
// must be carried to Checkpoint by the caller only after every later stage
// has succeeded.
func (p *Pipeline) IngestOnly(ctx context.Context, files []string) ([]string, []FileStats, error) {
	var processed []string
	var stats []FileStats
	err := p.st.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		processed, stats, err = p.ingestRaw(ctx, tx, files)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return processed, stats, nil
}

// NormalizeOnly runs the three derivation passes in their own transaction.
func (p *Pipeline) NormalizeOnly(ctx context.Context) error {
	return p.st.WithTx(ctx, func(tx *sql.Tx) error {
		return p.st.Normalize(ctx, tx)
	})
}

// Checkpoint appends the processed files to the checkpoint log. Callers
// must invoke this only after the transaction covering those files has
// committed.
func (p *Pipeline) Checkpoint(files []string) error {
	return checkpoint.Append(p.cfg.CheckpointPath, files)
}

// newRunID returns a time-ordered token tagging one run in logs and
// summaries.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 generation only fails if crypto/rand does; fall back to v4.
		return uuid.NewString()
	}
	return id.String()
}
