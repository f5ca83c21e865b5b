package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/roach88/docpulse/internal/cli"
)

func main() {
	// Optional .env with DOCPULSE_* overrides for standalone runs.
	_ = godotenv.Load()

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

func run(args []string) error {
	cmd := cli.NewRootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}
