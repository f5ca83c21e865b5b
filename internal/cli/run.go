package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/docpulse/internal/pipeline"
	"github.com/roach88/docpulse/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigOptions
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one ingestion-and-normalization run",
		Long: `Execute one full pipeline run: discover new event files, ingest their
records into raw_events, derive the normalized tables, commit, and append
the processed files to the checkpoint.

The run is all-or-nothing: any failure rolls back the whole transaction and
leaves the checkpoint untouched. Re-running is always safe.

Example:
  docpulse run --events-dir ./data/events --db ./analytics.sqlite
  docpulse run --config docpulse.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runPipeline(opts *RunOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	cfg, err := opts.resolve()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	slog.Info("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	p := pipeline.New(cfg, st)
	summary, err := p.Run(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "pipeline run failed", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(summary, func(w io.Writer) {
		renderSummary(w, summary)
	})
}

func renderSummary(w io.Writer, s pipeline.Summary) {
	fmt.Fprintf(w, "Run %s\n", s.RunID)
	fmt.Fprintf(w, "Files: %d total, %d new\n", s.TotalFiles, s.NewFiles)
	for _, fs := range s.Files {
		fmt.Fprintf(w, "  %s: records=%d inserted=%d skipped_missing_id=%d skipped_missing_type=%d\n",
			fs.Path, fs.Records, fs.Inserted, fs.SkippedMissingID, fs.SkippedMissingType)
	}
	fmt.Fprintf(w, "Tables: raw_events=%d users=%d documents=%d events=%d\n",
		s.Counts.RawEvents, s.Counts.Users, s.Counts.Documents, s.Counts.Events)
}

// configureLogging sets the process-wide slog handler based on verbosity.
func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
