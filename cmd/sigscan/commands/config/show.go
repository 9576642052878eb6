package config

import (
	"github.com/marmos91/sigscan/internal/cli/output"
	"github.com/marmos91/sigscan/pkg/config"
	"github.com/spf13/cobra"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the sigscan configuration after defaults and SIGSCAN_*
environment overrides have been applied.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show config as YAML
  sigscan config show

  # Show as JSON
  sigscan config show --output json

  # See what an override resolves to
  SIGSCAN_SERVER_WORKERS=16 sigscan config show`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput, output.FormatYAML)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	default:
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	}
}
