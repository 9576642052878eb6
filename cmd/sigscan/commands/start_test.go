//go:build unix

package commands

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sigscan/pkg/client"
	"github.com/marmos91/sigscan/pkg/config"
	"github.com/marmos91/sigscan/pkg/journal"
	"github.com/marmos91/sigscan/pkg/protocol"
)

func TestNewScanServer_UsesServerContext(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Quarantine.Dir = filepath.Join(t.TempDir(), "quarantine")

	sc := cfg.ServerContext()
	// Later edits to the config must not reach the running server.
	cfg.Quarantine.Dir = filepath.Join(t.TempDir(), "elsewhere")

	store := journal.NewMemoryStore()
	srv, rt, err := newScanServer(sc, store)
	require.NoError(t, err)
	assert.DirExists(t, sc.QuarantineDir)
	assert.ElementsMatch(t, []string{protocol.CmdCheckLocalFile, protocol.CmdQuarantineLocalFile}, rt.Commands())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(context.Background()) }()
	t.Cleanup(func() {
		srv.Kill()
		<-errc
	})
	select {
	case <-srv.ListenerReady:
	case err := <-errc:
		t.Fatalf("server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	path := filepath.Join(t.TempDir(), "sample.bin")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0644))

	cc := cfg.ClientConfig()
	cc.Host, cc.Port = "127.0.0.1", portOf(t, srv.Addr())
	cc.Timeout = 5 * time.Second

	resp := client.New(cc).Send(t.Context(), protocol.CmdQuarantineLocalFile, map[string]string{
		protocol.ParamFilePath: path,
	})
	assert.Equal(t, protocol.Quarantined(), resp)
	assert.FileExists(t, filepath.Join(sc.QuarantineDir, "sample.bin"))
	assert.NoDirExists(t, cfg.Quarantine.Dir)

	entries, err := store.List(t.Context(), journal.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(sc.QuarantineDir, "sample.bin"), entries[0].Destination)
}

func portOf(t *testing.T, addr string) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return port
}
