package journal

import (
	"fmt"
	"strconv"
	"time"

	"github.com/marmos91/sigscan/cmd/sigscanctl/cmdutil"
	"github.com/marmos91/sigscan/internal/cli/timeutil"
	"github.com/marmos91/sigscan/pkg/apiclient"
	"github.com/marmos91/sigscan/pkg/journal"
	"github.com/spf13/cobra"
)

var (
	listLimit int
	listSince string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List quarantine moves, newest first",
	Long: `List quarantine moves, newest first.

--since accepts an RFC3339 timestamp or a duration counted back from now.

Examples:
  sigscanctl journal list
  sigscanctl journal list --limit 10
  sigscanctl journal list --since 2024-01-15T10:00:00Z
  sigscanctl journal list --since 30m -o yaml`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "Maximum number of entries")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only entries at or after this time (RFC3339 or duration, e.g. 1h)")
}

// EntryList is a list of journal entries for table rendering.
type EntryList struct {
	entries []journal.Entry
	now     time.Time
}

// Headers implements TableRenderer.
func (l EntryList) Headers() []string {
	return []string{"ID", "SOURCE", "DESTINATION", "SIZE", "QUARANTINED"}
}

// Rows implements TableRenderer.
func (l EntryList) Rows() [][]string {
	rows := make([][]string, 0, len(l.entries))
	for _, e := range l.entries {
		rows = append(rows, []string{
			e.ID,
			e.Source,
			e.Destination,
			cmdutil.FormatSize(e.Size),
			timeutil.FormatAge(e.QuarantinedAt, l.now),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	if listLimit < 0 {
		return fmt.Errorf("invalid --limit %d", listLimit)
	}

	since, err := parseSince(listSince, time.Now())
	if err != nil {
		return err
	}

	client, err := cmdutil.GetAPIClient()
	if err != nil {
		return err
	}

	entries, err := client.ListQuarantine(commandContext(cmd), apiclient.ListQuarantineOptions{
		Limit: listLimit,
		Since: since,
	})
	if err != nil {
		return fmt.Errorf("failed to list journal: %w", err)
	}

	return cmdutil.PrintOutput(cmd.OutOrStdout(), entries, len(entries) == 0, "No quarantine entries found.",
		EntryList{entries: entries, now: time.Now()})
}

// parseSince resolves --since relative to now.
func parseSince(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return now.Add(-d), nil
	}
	if days, err := strconv.Atoi(s); err == nil && days >= 0 {
		return now.AddDate(0, 0, -days), nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q (use RFC3339, a duration such as 2h, or a number of days)", s)
}
