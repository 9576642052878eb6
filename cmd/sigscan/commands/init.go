package commands

import (
	"fmt"
	"os"

	"github.com/marmos91/sigscan/internal/cli/prompt"
	"github.com/marmos91/sigscan/pkg/config"
	"github.com/spf13/cobra"
)

var (
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sigscan configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/sigscan/config.yaml.
Use --config to specify a custom path. The same file is read by sigscanctl.

Examples:
  # Initialize with default location
  sigscan init

  # Initialize with custom path
  sigscan init --config /etc/sigscan/config.yaml

  # Answer a few questions instead of taking the defaults
  sigscan init --interactive

  # Force overwrite existing config
  sigscan init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Prompt for the main settings")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.GetDefaultConfig()
	force := initForce

	if initInteractive {
		if !prompt.IsInteractive() {
			return fmt.Errorf("--interactive needs a terminal: %w", prompt.ErrNotInteractive)
		}
		if _, err := os.Stat(configPath); err == nil {
			ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Overwrite %s", configPath), force)
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			force = true
		}

		if err := promptConfig(cfg); err != nil {
			if prompt.IsAborted(err) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			return err
		}
	}

	if err := config.WriteInitialConfig(cfg, configPath, force); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the configuration file to customize your setup")
	_, _ = fmt.Fprintln(out, "  2. Start the server with: sigscan start")
	_, _ = fmt.Fprintf(out, "  3. Or specify custom config: sigscan start --config %s\n", configPath)
	return nil
}

// promptConfig asks for the settings most installs change.
func promptConfig(cfg *config.Config) error {
	var err error

	if cfg.Server.Host, err = prompt.InputRequired("Listen host", cfg.Server.Host); err != nil {
		return err
	}
	if cfg.Server.Port, err = prompt.InputPort("Listen port", cfg.Server.Port); err != nil {
		return err
	}
	if cfg.Server.BufferSize, err = prompt.InputByteSize("Request buffer size", cfg.Server.BufferSize); err != nil {
		return err
	}
	if cfg.Server.Workers, err = prompt.InputInt("Worker goroutines", cfg.Server.Workers, 1); err != nil {
		return err
	}
	if cfg.Server.RequestTimeout, err = prompt.InputDuration("Per-request timeout (0 disables)", cfg.Server.RequestTimeout); err != nil {
		return err
	}
	if cfg.Quarantine.Dir, err = prompt.InputRequired("Quarantine directory", cfg.Quarantine.Dir); err != nil {
		return err
	}
	if cfg.Quarantine.Journal.Enabled, err = prompt.Confirm("Keep a persistent quarantine journal", false); err != nil {
		return err
	}
	if cfg.Shutdown.Mode, err = prompt.Select("Shutdown mode", []prompt.SelectOption{
		{Label: "graceful", Value: "graceful", Description: "Drain in-flight requests before exiting"},
		{Label: "force", Value: "force", Description: "Close every connection immediately"},
	}, cfg.Shutdown.Mode); err != nil {
		return err
	}
	if cfg.Metrics.Enabled, err = prompt.Confirm("Expose Prometheus metrics on the admin API", false); err != nil {
		return err
	}
	if cfg.API.Port, err = prompt.InputPort("Admin API port", cfg.API.Port); err != nil {
		return err
	}

	return nil
}
