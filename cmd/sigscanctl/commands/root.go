// Package commands implements the CLI commands for the sigscanctl client.
package commands

import (
	"os"

	"github.com/marmos91/sigscan/cmd/sigscanctl/cmdutil"
	journalcmd "github.com/marmos91/sigscan/cmd/sigscanctl/commands/journal"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd sends a request when called with a command name that is not one
// of its subcommands.
var rootCmd = &cobra.Command{
	Use:   "sigscanctl <command> [key=value ...]",
	Short: "SigScan Control - scan server client",
	Long: `sigscanctl sends one request to a sigscan server and prints the JSON
response. Connection settings come from the shared sigscan configuration
file and can be overridden with flags.

Commands understood by the server:
  CheckLocalFile       file_path=<path> signature=<hex>
  QuarantineLocalFile  file_path=<path>

Examples:
  sigscanctl CheckLocalFile file_path=/tmp/sample.bin signature=deadbeef
  sigscanctl QuarantineLocalFile file_path=/tmp/sample.bin
  sigscanctl --port 7000 -o table CheckLocalFile file_path=/tmp/a signature=00

Use "sigscanctl [command] --help" for more information about a command.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cmdutil.InitLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runSend(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cmdutil.Flags.ConfigFile, "config", "", "config file (default: $XDG_CONFIG_HOME/sigscan/config.yaml)")
	flags.StringVar(&cmdutil.Flags.Host, "host", "", "Server host (overrides server.host)")
	flags.IntVarP(&cmdutil.Flags.Port, "port", "p", 0, "Server port (overrides server.port)")
	flags.StringVar(&cmdutil.Flags.BufferSize, "buffer-size", "", "Response chunk size, e.g. 4KiB (overrides server.buffer_size)")
	flags.StringVar(&cmdutil.Flags.Timeout, "timeout", "", "Exchange timeout, e.g. 5s (overrides client.timeout)")
	flags.StringVar(&cmdutil.Flags.APIURL, "api", "", "Admin API URL for journal/status (default: from the api section)")
	flags.StringVarP(&cmdutil.Flags.Output, "output", "o", "", "Output format (raw|json|yaml|table)")
	flags.BoolVarP(&cmdutil.Flags.Verbose, "verbose", "v", false, "Log client diagnostics to stderr")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(journalcmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
