package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/marmos91/sigscan/cmd/sigscanctl/cmdutil"
	"github.com/marmos91/sigscan/internal/cli/output"
	"github.com/marmos91/sigscan/internal/cli/timeutil"
	"github.com/marmos91/sigscan/pkg/apiclient"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the status report of a sigscan server from its admin API:
version, uptime, listener, connection counters and worker pool load.

Examples:
  # Status of the server named in the config file
  sigscanctl status

  # Status of another server
  sigscanctl status --api http://10.0.0.5:8090 -o json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	api, err := cmdutil.GetAPIClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	status, err := api.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status from %s: %w", api.BaseURL(), err)
	}

	format, err := cmdutil.GetOutputFormatParsed(output.FormatTable)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format != output.FormatTable {
		return output.NewPrinter(out, format, false).Print(status)
	}
	return printStatus(out, api.BaseURL(), status)
}

func printStatus(w io.Writer, baseURL string, s *apiclient.Status) error {
	ready := "\033[33m● not ready\033[0m"
	if s.Ready {
		ready = "\033[32m● ready\033[0m"
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "SigScan Server Status")
	_, _ = fmt.Fprintln(w, "=====================")
	_, _ = fmt.Fprintln(w)

	return output.SimpleTable(w, [][2]string{
		{"Admin API", baseURL},
		{"Status", ready},
		{"Version", cmdutil.EmptyOr(s.Version, "-")},
		{"Listening", cmdutil.EmptyOr(s.Server.Address, "-")},
		{"Started", timeutil.FormatTime(s.StartedAt)},
		{"Uptime", timeutil.FormatUptime(s.Uptime)},
		{"Commands", cmdutil.EmptyOr(strings.Join(s.Commands, ", "), "-")},
		{"Quarantine dir", cmdutil.EmptyOr(s.QuarantineDir, "-")},
		{"Shutdown mode", cmdutil.EmptyOr(s.ShutdownMode, "-")},
		{"Connections", fmt.Sprintf("%d active, %d accepted", s.Server.ActiveConnections, s.Server.Accepted)},
		{"Worker pool", poolSummary(s)},
	})
}

func poolSummary(s *apiclient.Status) string {
	p := s.Server.Pool
	return fmt.Sprintf("%d/%d busy, %d/%d queued, %d completed", p.Active, p.Workers, p.Queued, p.QueueSize, p.Completed)
}
