package client

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/sigscan/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer accepts one connection at a time and hands it to serve.
func fakeServer(t *testing.T, serve func(net.Conn)) Config {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				serve(conn)
			}()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return Config{Host: "127.0.0.1", Port: addr.Port, BufferSize: 4096}
}

func readRequest(conn net.Conn) string {
	buf := make([]byte, 4096)
	n, _ := conn.Read(buf)
	return string(buf[:n])
}

func TestSend_RoundTrip(t *testing.T) {
	got := make(chan string, 1)
	cfg := fakeServer(t, func(conn net.Conn) {
		got <- readRequest(conn)
		_, _ = conn.Write([]byte(`{"Offsets:":[0,4]}`))
	})

	resp := SendRequest(context.Background(), cfg, "CheckLocalFile", map[string]string{
		"file_path": "/tmp/x",
		"signature": "4141",
	})

	offsets, ok := resp[protocol.KeyOffsets].([]any)
	require.True(t, ok, "response %v", resp)
	assert.Len(t, offsets, 2)
	assert.JSONEq(t,
		`{"command1":"CheckLocalFile","params":{"file_path":"/tmp/x","signature":"4141"}}`,
		<-got)
}

func TestSend_MultiChunkResponse(t *testing.T) {
	body := `{"Status":"` + strings.Repeat("x", 40) + `"}`
	cfg := fakeServer(t, func(conn net.Conn) {
		readRequest(conn)
		_, _ = conn.Write([]byte(body))
	})
	cfg.BufferSize = 8

	resp := New(cfg).Send(context.Background(), "QuarantineLocalFile", nil)
	assert.Equal(t, strings.Repeat("x", 40), resp[protocol.KeyStatus])
}

func TestSend_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	resp := SendRequest(context.Background(), Config{Host: "127.0.0.1", Port: port}, "CheckLocalFile", nil)
	assert.Equal(t, protocol.ConnectionError(), resp)
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	cfg := fakeServer(t, func(conn net.Conn) {
		readRequest(conn)
		<-release
	})
	cfg.Timeout = 50 * time.Millisecond

	start := time.Now()
	resp := New(cfg).Send(context.Background(), "CheckLocalFile", nil)
	assert.Equal(t, protocol.ConnectionError(), resp)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSend_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	cfg := fakeServer(t, func(conn net.Conn) {
		readRequest(conn)
		<-release
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := New(cfg).Do(ctx, protocol.NewRequest("CheckLocalFile", nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSend_ConnectionReset(t *testing.T) {
	cfg := fakeServer(t, func(conn net.Conn) {
		readRequest(conn)
		_ = conn.(*net.TCPConn).SetLinger(0)
	})

	resp := New(cfg).Send(context.Background(), "CheckLocalFile", nil)
	// A reset may surface as ECONNRESET or as a plain close, depending on
	// timing; either way nothing decodable arrives.
	msg, isErr := resp.ErrorMessage()
	require.True(t, isErr)
	assert.Contains(t, []string{protocol.MsgConnectionError, protocol.MsgUnexpectedError}, msg)
}

func TestSend_EmptyResponseIsUnexpected(t *testing.T) {
	cfg := fakeServer(t, func(conn net.Conn) {
		readRequest(conn)
	})

	resp := New(cfg).Send(context.Background(), "CheckLocalFile", nil)
	assert.Equal(t, protocol.UnexpectedError(), resp)
}

func TestSend_GarbageResponseIsUnexpected(t *testing.T) {
	cfg := fakeServer(t, func(conn net.Conn) {
		readRequest(conn)
		_, _ = conn.Write([]byte("<html>"))
	})

	resp := New(cfg).Send(context.Background(), "CheckLocalFile", nil)
	assert.Equal(t, protocol.UnexpectedError(), resp)
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, IsConnectionError(nil))
	assert.False(t, IsConnectionError(errors.New("decode response: bad")))
	assert.False(t, IsConnectionError(io.ErrUnexpectedEOF))
	assert.True(t, IsConnectionError(context.DeadlineExceeded))
	assert.True(t, IsConnectionError(&net.OpError{Op: "dial", Err: errors.New("no route")}))
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]string
		wantErr bool
	}{
		{"Empty", nil, map[string]string{}, false},
		{"Pairs", []string{"file_path=/tmp/a", "signature=4142"}, map[string]string{"file_path": "/tmp/a", "signature": "4142"}, false},
		{"EmptyValue", []string{"file_path="}, map[string]string{"file_path": ""}, false},
		{"LaterWins", []string{"a=1", "a=2"}, map[string]string{"a": "2"}, false},
		{"NoEquals", []string{"file_path"}, nil, true},
		{"TwoEquals", []string{"file_path=/tmp/a=b"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedParam)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:6000", Config{Host: "127.0.0.1", Port: 6000}.Addr())
	assert.Equal(t, DefaultBufferSize, New(Config{}).cfg.BufferSize)
}
