package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/docpulse/internal/checkpoint"
	"github.com/roach88/docpulse/internal/discovery"
)

// DiscoverOptions holds flags for the discover command.
type DiscoverOptions struct {
	*RootOptions
	ConfigOptions
}

// discoverResult is the discover command's output payload.
type discoverResult struct {
	TotalFiles   int      `json:"total_files"`
	Checkpointed int      `json:"checkpointed"`
	NewFiles     []string `json:"new_files"`
}

// NewDiscoverCommand creates the discover command: a dry run listing the
// files the next pipeline run would ingest. Performs no writes.
func NewDiscoverCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiscoverOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "discover",
		Short:         "List event files not yet ingested",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(opts, cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runDiscover(opts *DiscoverOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	cfg, err := opts.resolve()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	already, err := checkpoint.Load(cfg.CheckpointPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load checkpoint", err)
	}

	res, err := discovery.FindNewFiles(cfg.EventsDir, already)
	if err != nil {
		return WrapExitError(ExitCommandError, "discovery failed", err)
	}

	out := discoverResult{
		TotalFiles:   res.Total,
		Checkpointed: len(already),
		NewFiles:     res.New,
	}
	if out.NewFiles == nil {
		out.NewFiles = []string{}
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "Total files: %d\n", out.TotalFiles)
		fmt.Fprintf(w, "Checkpointed: %d\n", out.Checkpointed)
		fmt.Fprintf(w, "New files: %d\n", len(out.NewFiles))
		for _, path := range out.NewFiles {
			fmt.Fprintf(w, "  %s\n", path)
		}
	})
}
