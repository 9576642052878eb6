package journal

import (
	"fmt"
	"strconv"

	"github.com/marmos91/sigscan/cmd/sigscanctl/cmdutil"
	"github.com/marmos91/sigscan/internal/cli/output"
	"github.com/marmos91/sigscan/internal/cli/timeutil"
	"github.com/marmos91/sigscan/pkg/apiclient"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one quarantine entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAPIClient()
	if err != nil {
		return err
	}

	entry, err := client.GetQuarantine(commandContext(cmd), args[0])
	if err != nil {
		if apiclient.IsNotFound(err) {
			return fmt.Errorf("journal entry %q not found", args[0])
		}
		return fmt.Errorf("failed to get journal entry: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed(output.FormatTable)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format != output.FormatTable {
		return output.NewPrinter(out, format, false).Print(entry)
	}
	return output.SimpleTable(out, [][2]string{
		{"ID", entry.ID},
		{"Source", entry.Source},
		{"Destination", entry.Destination},
		{"Size", cmdutil.FormatSize(entry.Size) + " (" + strconv.FormatInt(entry.Size, 10) + " bytes)"},
		{"Quarantined", timeutil.FormatTime(entry.QuarantinedAt)},
		{"Session", cmdutil.EmptyOr(entry.SessionID, "-")},
	})
}
