package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/marmos91/sigscan/internal/cli/output"
	"github.com/marmos91/sigscan/internal/cli/timeutil"
	"github.com/marmos91/sigscan/pkg/apiclient"
	"github.com/marmos91/sigscan/pkg/config"
	"github.com/spf13/cobra"
)

var (
	statusOutput  string
	statusPidFile string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the current status of the local sigscan server.

The PID file is checked first, then the admin API readiness probe and
status endpoint at api.host:api.port.

Examples:
  # Check status
  sigscan status

  # Output as JSON
  sigscan status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/sigscan/sigscan.pid)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus is the locally assembled view of the server.
type ServerStatus struct {
	Running    bool                        `json:"running" yaml:"running"`
	Healthy    bool                        `json:"healthy" yaml:"healthy"`
	PID        int                         `json:"pid,omitempty" yaml:"pid,omitempty"`
	Message    string                      `json:"message" yaml:"message"`
	API        string                      `json:"api" yaml:"api"`
	Version    string                      `json:"version,omitempty" yaml:"version,omitempty"`
	Address    string                      `json:"address,omitempty" yaml:"address,omitempty"`
	StartedAt  time.Time                   `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime     string                      `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Components []apiclient.ComponentHealth `json:"components,omitempty" yaml:"components,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput, output.FormatTable)
	if err != nil {
		return err
	}

	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	status := collectStatus(cmd.Context(), cfg, pidPath)

	out := cmd.OutOrStdout()
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(out, status)
	case output.FormatRaw:
		return output.PrintJSONCompact(out, status)
	case output.FormatYAML:
		return output.PrintYAML(out, status)
	default:
		return printStatusTable(out, status)
	}
}

// collectStatus combines the PID file with what the admin API reports.
func collectStatus(ctx context.Context, cfg *config.Config, pidPath string) ServerStatus {
	if ctx == nil {
		ctx = context.Background()
	}

	status := ServerStatus{Message: "Server is not running"}

	if pid, err := readPidFile(pidPath); err == nil && processRunning(pid) {
		status.Running = true
		status.PID = pid
		status.Message = "Server process exists but the admin API is not reachable"
	}

	if !cfg.API.IsEnabled() {
		status.API = "disabled"
		if status.Running {
			status.Message = "Server is running (admin API disabled)"
		}
		return status
	}
	status.API = cfg.API.BaseURL()

	client := apiclient.New(status.API).WithTimeout(2 * time.Second)

	components, err := client.Ready(ctx)
	status.Components = components
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			status.Running = true
			status.Message = fmt.Sprintf("Server is running but not ready: %s", apiErr.Message)
		}
		return status
	}

	status.Running = true
	status.Healthy = true
	status.Message = "Server is running and healthy"

	if info, err := client.Status(ctx); err == nil {
		status.Version = info.Version
		status.Address = info.Server.Address
		status.StartedAt = info.StartedAt
		status.Uptime = info.Uptime
	}
	return status
}

func printStatusTable(w io.Writer, status ServerStatus) error {
	state := "\033[31m○ Stopped\033[0m"
	switch {
	case status.Running && status.Healthy:
		state = "\033[32m● Running\033[0m"
	case status.Running:
		state = "\033[33m● Running (unhealthy)\033[0m"
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "SigScan Server Status")
	_, _ = fmt.Fprintln(w, "=====================")
	_, _ = fmt.Fprintln(w)

	pairs := [][2]string{{"Status", state}}
	if status.PID > 0 {
		pairs = append(pairs, [2]string{"PID", strconv.Itoa(status.PID)})
	}
	if status.Version != "" {
		pairs = append(pairs, [2]string{"Version", status.Version})
	}
	if status.Address != "" {
		pairs = append(pairs, [2]string{"Listening", status.Address})
	}
	pairs = append(pairs, [2]string{"Admin API", status.API})
	if !status.StartedAt.IsZero() {
		pairs = append(pairs, [2]string{"Started", timeutil.FormatTime(status.StartedAt)})
	}
	if status.Uptime != "" {
		pairs = append(pairs, [2]string{"Uptime", timeutil.FormatUptime(status.Uptime)})
	}
	for _, c := range status.Components {
		value := c.Status
		if c.Error != "" {
			value += " (" + c.Error + ")"
		}
		pairs = append(pairs, [2]string{"Component " + c.Name, value})
	}
	if err := output.SimpleTable(w, pairs); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  %s\n", status.Message)
	_, _ = fmt.Fprintln(w)
	return nil
}
