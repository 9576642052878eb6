package config

import (
	"fmt"

	"github.com/marmos91/sigscan/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the sigscan configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  sigscan config validate

  # Validate specific config file
  sigscan config validate --config /etc/sigscan/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := collectWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	sc := cfg.ServerContext()
	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Listen address:  %s\n", sc.Addr())
	_, _ = fmt.Fprintf(out, "  Buffer size:     %s\n", cfg.Server.BufferSize)
	_, _ = fmt.Fprintf(out, "  Workers/queue:   %d/%d\n", sc.Workers, sc.QueueSize)
	_, _ = fmt.Fprintf(out, "  Quarantine dir:  %s\n", cfg.Quarantine.Dir)
	_, _ = fmt.Fprintf(out, "  Shutdown:        %s (%s)\n", cfg.Shutdown.Mode, cfg.Shutdown.Timeout)
	if cfg.API.IsEnabled() {
		_, _ = fmt.Fprintf(out, "  Admin API:       %s\n", cfg.API.Addr())
	} else {
		_, _ = fmt.Fprintf(out, "  Admin API:       disabled\n")
	}
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)

	return nil
}

// collectWarnings lists settings that are valid but probably unintended.
func collectWarnings(cfg *config.Config) []string {
	var warnings []string

	if cfg.Metrics.Enabled && !cfg.API.IsEnabled() {
		warnings = append(warnings, "metrics are enabled but the admin API that serves /metrics is disabled")
	}
	if !cfg.Quarantine.Journal.Enabled {
		warnings = append(warnings, "quarantine journal is in memory; moves are forgotten on restart")
	}
	if cfg.Server.RequestTimeout == 0 {
		warnings = append(warnings, "server.request_timeout is 0; a silent client holds a worker until it disconnects")
	}
	if cfg.Server.QueueSize != 0 && cfg.Server.QueueSize < cfg.Server.Workers {
		warnings = append(warnings, "server.queue_size is smaller than server.workers")
	}

	return warnings
}
