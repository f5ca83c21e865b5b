package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/docpulse/internal/checkpoint"
	"github.com/roach88/docpulse/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	ConfigOptions
}

// statusResult is the status command's output payload.
type statusResult struct {
	RawEvents    int `json:"raw_events"`
	Users        int `json:"users"`
	Documents    int `json:"documents"`
	Events       int `json:"events"`
	Checkpointed int `json:"checkpointed"`
}

// NewStatusCommand creates the status command: table row counts plus
// checkpoint size for an existing store.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show table row counts and checkpoint size",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	cfg, err := opts.resolve()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	counts, err := st.TableCounts(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count tables", err)
	}

	already, err := checkpoint.Load(cfg.CheckpointPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load checkpoint", err)
	}

	out := statusResult{
		RawEvents:    counts.RawEvents,
		Users:        counts.Users,
		Documents:    counts.Documents,
		Events:       counts.Events,
		Checkpointed: len(already),
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "raw_events: %d\n", out.RawEvents)
		fmt.Fprintf(w, "users: %d\n", out.Users)
		fmt.Fprintf(w, "documents: %d\n", out.Documents)
		fmt.Fprintf(w, "events: %d\n", out.Events)
		fmt.Fprintf(w, "checkpointed files: %d\n", out.Checkpointed)
	})
}
