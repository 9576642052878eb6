// Package cmdutil provides shared utilities for sigscanctl commands.
package cmdutil

import (
	"fmt"
	"io"

	"github.com/marmos91/sigscan/internal/bytesize"
	"github.com/marmos91/sigscan/internal/cli/output"
	"github.com/marmos91/sigscan/internal/logger"
	"github.com/marmos91/sigscan/pkg/apiclient"
	"github.com/marmos91/sigscan/pkg/client"
	"github.com/marmos91/sigscan/pkg/config"
	"github.com/marmos91/sigscan/pkg/protocol"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values. Zero values mean "use the
// configuration file".
type GlobalFlags struct {
	ConfigFile string
	Host       string
	Port       int
	BufferSize string
	Timeout    string
	APIURL     string
	Output     string
	Verbose    bool
}

// InitLogger sends client diagnostics to stderr so stdout carries only
// command output.
func InitLogger() error {
	level := "WARN"
	if Flags.Verbose {
		level = "DEBUG"
	}
	return logger.Init(logger.Config{Level: level, Format: "text", Output: "stderr"})
}

// LoadConfig loads the shared configuration file.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(Flags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// ClientConfig resolves the scan server connection from the configuration
// file, overridden by any connection flags.
func ClientConfig() (client.Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return client.Config{}, err
	}
	cc := cfg.ClientConfig()

	if Flags.Host != "" {
		cc.Host = Flags.Host
	}
	if Flags.Port != 0 {
		if Flags.Port < 0 || Flags.Port > 65535 {
			return client.Config{}, fmt.Errorf("invalid --port %d", Flags.Port)
		}
		cc.Port = Flags.Port
	}
	if Flags.BufferSize != "" {
		size, err := bytesize.Parse(Flags.BufferSize)
		if err != nil || size == 0 {
			return client.Config{}, fmt.Errorf("invalid --buffer-size %q", Flags.BufferSize)
		}
		cc.BufferSize = size.Int()
	}
	if Flags.Timeout != "" {
		d, err := parseDuration(Flags.Timeout)
		if err != nil {
			return client.Config{}, fmt.Errorf("invalid --timeout %q: %w", Flags.Timeout, err)
		}
		cc.Timeout = d
	}

	return cc, nil
}

// GetAPIClient returns an admin API client for --api, or for the api
// section of the configuration file.
func GetAPIClient() (*apiclient.Client, error) {
	if Flags.APIURL != "" {
		return apiclient.New(Flags.APIURL), nil
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.API.IsEnabled() {
		return nil, fmt.Errorf("the admin API is disabled in the configuration; pass --api to reach a server elsewhere")
	}
	return apiclient.New(cfg.API.BaseURL()), nil
}

// GetOutputFormatParsed returns the parsed --output flag, or def when unset.
func GetOutputFormatParsed(def output.Format) (output.Format, error) {
	return output.ParseFormat(Flags.Output, def)
}

// PrintOutput prints data in the selected format (default table). For
// table format it prints emptyMsg when isEmpty, otherwise the renderer.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed(output.FormatTable)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatRaw:
		return output.PrintJSONCompact(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintResponse prints a scan server response. The default is the raw
// single-line JSON the server sent; table lists one key per row.
func PrintResponse(w io.Writer, resp protocol.Response) error {
	format, err := GetOutputFormatParsed(output.FormatRaw)
	if err != nil {
		return err
	}

	if format == output.FormatTable {
		return output.PrintTable(w, ResponseTable(resp))
	}
	return output.NewPrinter(w, format, false).Print(map[string]any(resp))
}

// ResponseTable renders a response as KEY/VALUE rows in key order.
func ResponseTable(resp protocol.Response) *output.TableData {
	table := output.NewTableData("KEY", "VALUE")
	for _, key := range sortedKeys(resp) {
		table.AddRow(key, formatValue(resp[key]))
	}
	return table
}

// EmptyOr returns the value if not empty, otherwise returns the fallback.
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
