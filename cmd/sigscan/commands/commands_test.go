package commands

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sigscan/pkg/api"
	"github.com/marmos91/sigscan/pkg/config"
	"github.com/marmos91/sigscan/pkg/journal"
	"github.com/marmos91/sigscan/pkg/server"
)

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	root := GetRootCmd()
	t.Cleanup(func() { resetFlags(root) })

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its children to its default,
// since cobra keeps flag values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sigscan "+Version)
	assert.Contains(t, out, "Go version:")
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigscan", "config.yaml")

	out, err := execute(t, "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created at: "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# SigScan Configuration File"))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7001\n"), 0644))

	_, err := execute(t, "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "init", "--config", path, "--force")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
}

func TestConfigValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7001\n  workers: 2\n"), 0644))

	out, err := execute(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "127.0.0.1:7001")
	assert.Contains(t, out, "2/4")
	assert.Contains(t, out, "quarantine journal is in memory")
}

func TestConfigValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shutdown:\n  mode: eventually\n"), 0644))

	_, err := execute(t, "config", "validate", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown.mode")
}

func TestConfigValidate_MissingFile(t *testing.T) {
	_, err := execute(t, "config", "validate", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sigscan init")
}

func TestConfigShow_JSON(t *testing.T) {
	t.Setenv("SIGSCAN_SERVER_WORKERS", "9")

	out, err := execute(t, "config", "show", "--output", "json", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	var shown map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Contains(t, shown, "Server")
	assert.EqualValues(t, 9, shown["Server"].(map[string]any)["Workers"])
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "config", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "SigScan Configuration", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"logging", "server", "quarantine", "shutdown", "api", "client"} {
		assert.Contains(t, props, key)
	}
}

func TestConfigSchema_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")

	out, err := execute(t, "config", "schema", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "JSON schema written to")
	assert.FileExists(t, path)
}

func TestStop_MissingPidFile(t *testing.T) {
	_, err := execute(t, "stop", "--pid-file", filepath.Join(t.TempDir(), "sigscan.pid"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PID file not found")
}

func TestPidFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "sigscan.pid")
	require.NoError(t, writePidFile(path))

	pid, err := readPidFile(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, processRunning(pid))

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))
	_, err = readPidFile(path)
	assert.Error(t, err)
}

func TestStatus_APIDisabled(t *testing.T) {
	t.Setenv("SIGSCAN_API_ENABLED", "false")

	out, err := execute(t, "status", "-o", "json", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	var status ServerStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.False(t, status.Running)
	assert.Equal(t, "disabled", status.API)
}

type readyServer struct{}

func (readyServer) Ready() bool         { return true }
func (readyServer) Stats() server.Stats { return server.Stats{Address: "127.0.0.1:6000"} }

func TestCollectStatus_Healthy(t *testing.T) {
	store := journal.NewMemoryStore()
	ts := httptest.NewServer(api.NewRouter(api.Dependencies{Server: readyServer{}, Journal: store}))
	defer ts.Close()

	host, portStr, err := net.SplitHostPort(ts.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := config.GetDefaultConfig()
	cfg.API.Host = host
	cfg.API.Port = port

	status := collectStatus(t.Context(), cfg, filepath.Join(t.TempDir(), "none.pid"))
	assert.True(t, status.Running)
	assert.True(t, status.Healthy)
	assert.Equal(t, "127.0.0.1:6000", status.Address)
	assert.Len(t, status.Components, 2)

	var buf bytes.Buffer
	require.NoError(t, printStatusTable(&buf, status))
	assert.Contains(t, buf.String(), "Running")
	assert.Contains(t, buf.String(), "127.0.0.1:6000")
}

func TestCollectStatus_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := config.GetDefaultConfig()
	cfg.API.Port = port

	status := collectStatus(t.Context(), cfg, filepath.Join(t.TempDir(), "none.pid"))
	assert.False(t, status.Running)
	assert.False(t, status.Healthy)
	assert.Equal(t, "Server is not running", status.Message)
}

func TestTailLines(t *testing.T) {
	input := "one\ntwo\nthree\nfour\n"

	lines, err := tailLines(strings.NewReader(input), 2, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "four"}, lines)

	lines, err = tailLines(strings.NewReader(input), 10, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four"}, lines)

	lines, err = tailLines(strings.NewReader(input), 0, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestTailLines_Since(t *testing.T) {
	input := strings.Join([]string{
		`{"time":"2024-01-15T09:00:00Z","level":"INFO","msg":"old"}`,
		`{"time":"2024-01-15T11:00:00Z","level":"INFO","msg":"new"}`,
		`continuation without timestamp`,
	}, "\n")

	since := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	lines, err := tailLines(strings.NewReader(input), 10, since)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "new")
	assert.Equal(t, "continuation without timestamp", lines[1])
}

func TestExtractTimestamp(t *testing.T) {
	text := extractTimestamp("[2024-01-15 10:30:45.123] [INFO] Server listening address=127.0.0.1:6000")
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 45, 123e6, time.Local), text)

	js := extractTimestamp(`{"time":"2024-01-15T10:30:45.5Z","level":"INFO"}`)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 45, 5e8, time.UTC), js.UTC())

	assert.True(t, extractTimestamp("no timestamp here").IsZero())
	assert.True(t, extractTimestamp("[not a time] [INFO] x").IsZero())
}

func TestShowLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigscan.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\n"), 0644))

	var buf bytes.Buffer
	require.NoError(t, showLogs(&buf, path, 2, time.Time{}))
	assert.Equal(t, "b\nc\n", buf.String())
}

func TestLogs_StdoutOutputRejected(t *testing.T) {
	_, err := execute(t, "logs", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a file")
}

func TestOpenJournal(t *testing.T) {
	cfg := config.GetDefaultConfig()

	store, err := openJournal(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Healthcheck(t.Context()))
	require.NoError(t, store.Close())

	cfg.Quarantine.Journal.Enabled = true
	cfg.Quarantine.Journal.Path = filepath.Join(t.TempDir(), "journal")

	store, err = openJournal(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Healthcheck(t.Context()))
	require.NoError(t, store.Close())
	assert.DirExists(t, cfg.Quarantine.Journal.Path)
}
