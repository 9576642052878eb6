// Package journal implements the quarantine journal commands for sigscanctl.
package journal

import (
	"context"

	"github.com/spf13/cobra"
)

// Cmd is the parent command for the quarantine journal.
var Cmd = &cobra.Command{
	Use:     "journal",
	Aliases: []string{"quarantine"},
	Short:   "Inspect the quarantine journal",
	Long: `Inspect the record of files the server moved into quarantine.

The journal is read through the admin API. It covers the server's lifetime
unless quarantine.journal.enabled persists it on disk.

Examples:
  # List the most recent moves
  sigscanctl journal list

  # Moves in the last hour, as JSON
  sigscanctl journal list --since 1h -o json

  # One entry
  sigscanctl journal get 3f1c...`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
