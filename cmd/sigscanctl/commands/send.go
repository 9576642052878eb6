package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/marmos91/sigscan/cmd/sigscanctl/cmdutil"
	"github.com/marmos91/sigscan/pkg/client"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <command> [key=value ...]",
	Short: "Send one request to the scan server",
	Long: `Send one request to the scan server and print its response.

Every argument after the command must be exactly one key=value pair; a
malformed pair is rejected before connecting.

Transport failures are reported the way the server reports errors:
{"error":"Connection error"} when the server cannot be reached or the
--timeout expires, {"error":"Unexpected error"} otherwise.

Examples:
  sigscanctl send CheckLocalFile file_path=/tmp/sample.bin signature=deadbeef
  sigscanctl send QuarantineLocalFile file_path=/tmp/sample.bin -o yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	command := args[0]

	params, err := client.ParseParams(args[1:])
	if err != nil {
		return err
	}

	cc, err := cmdutil.ClientConfig()
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resp := client.New(cc).Send(ctx, command, params)
	return cmdutil.PrintResponse(cmd.OutOrStdout(), resp)
}
