// Package cli implements the docpulse command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/docpulse/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the docpulse CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "docpulse",
		Short: "docpulse - incremental JSON event ingestion into SQLite",
		Long: `docpulse ingests append-only JSON event files into a SQLite store and
derives normalized users/documents/events tables from the raw records.
Runs are incremental (checkpoint-tracked), transactional and idempotent.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewDiscoverCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// ConfigOptions holds the path flags shared by every command.
// Flag values override environment variables, which override the config
// file, which overrides the built-in defaults.
type ConfigOptions struct {
	ConfigFile string
	EventsDir  string
	Database   string
	Checkpoint string
}

// addFlags registers the shared path flags on cmd.
func (o *ConfigOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.ConfigFile, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&o.EventsDir, "events-dir", "", "root directory of JSON event files")
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&o.Checkpoint, "checkpoint", "", "path to checkpoint file")
}

// resolve builds the effective configuration for a command invocation.
func (o *ConfigOptions) resolve() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return nil, err
	}
	if o.EventsDir != "" {
		cfg.EventsDir = o.EventsDir
	}
	if o.Database != "" {
		cfg.DBPath = o.Database
	}
	if o.Checkpoint != "" {
		cfg.CheckpointPath = o.Checkpoint
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
