package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer and returns a cleanup
// function that restores the previous writer, level and format.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	originalLevel := currentLevel.Load()
	originalFormat := currentFormat.Load()
	reconfigure()

	return buf, func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		currentLevel.Store(originalLevel)
		currentFormat.Store(originalFormat)
		reconfigure()
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		present []string
		absent  []string
	}{
		{"DEBUG", []string{"debug message", "info message", "warn message", "error message"}, nil},
		{"INFO", []string{"info message", "warn message", "error message"}, []string{"debug message"}},
		{"WARN", []string{"warn message", "error message"}, []string{"debug message", "info message"}},
		{"ERROR", []string{"error message"}, []string{"debug message", "info message", "warn message"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf, cleanup := captureOutput()
			defer cleanup()

			SetLevel(tt.level)

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")

			out := buf.String()
			for _, s := range tt.present {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	_, cleanup := captureOutput()
	defer cleanup()

	SetLevel("WARN")
	SetLevel("verbose")
	assert.Equal(t, LevelWarn, GetLevel())

	SetLevel("debug")
	assert.Equal(t, LevelDebug, GetLevel())
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, LevelWarn, l)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)

	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestTextFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("text")

	Info("Connection accepted", FD(7), ClientIP("10.0.0.1"), Path("/tmp/a b"))

	out := buf.String()
	assert.Contains(t, out, "[INFO] Connection accepted")
	assert.Contains(t, out, "fd=7")
	assert.Contains(t, out, "client_ip=10.0.0.1")
	assert.Contains(t, out, `path="/tmp/a b"`)
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestTextFormat_Groups(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("text")

	With("component", "reactor").WithGroup("loop").Info("tick", "fds", 3)

	out := buf.String()
	assert.Contains(t, out, " component=reactor")
	assert.Contains(t, out, "loop.fds=3")
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("json")

	Info("File quarantined", Path("/srv/x"), Destination("/q/x"), Size(12))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "File quarantined", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "/srv/x", entry[KeyPath])
	assert.Equal(t, "/q/x", entry[KeyDestination])
	assert.Equal(t, float64(12), entry[KeySize])
}

func TestSetFormat_IgnoresUnknown(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("json")
	SetFormat("xml")
	Info("still json")

	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestContextLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("DEBUG")
	SetFormat("json")

	lc := NewLogContext("sess-1", "192.168.1.9").WithCommand("CheckLocalFile").WithTrace("abc123")
	ctx := WithContext(context.Background(), lc)

	InfoCtx(ctx, "Request routed", Matches(2))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sess-1", entry[KeySessionID])
	assert.Equal(t, "192.168.1.9", entry[KeyClientIP])
	assert.Equal(t, "CheckLocalFile", entry[KeyCommand])
	assert.Equal(t, "abc123", entry[KeyTraceID])
	assert.Equal(t, float64(2), entry[KeyMatches])
}

func TestContextLogging_NoLogContext(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("DEBUG")
	SetFormat("text")

	WarnCtx(context.Background(), "plain")
	assert.Contains(t, buf.String(), "plain")
	assert.NotContains(t, buf.String(), KeySessionID)
}

func TestLogContext(t *testing.T) {
	lc := NewLogContext("s", "1.2.3.4")
	assert.False(t, lc.StartTime.IsZero())
	assert.GreaterOrEqual(t, lc.DurationMs(), 0.0)

	withCmd := lc.WithCommand("QuarantineLocalFile")
	assert.Equal(t, "QuarantineLocalFile", withCmd.Command)
	assert.Empty(t, lc.Command, "original must not change")

	var nilLC *LogContext
	assert.Nil(t, nilLC.Clone())
	assert.Nil(t, nilLC.WithCommand("x"))
	assert.Equal(t, 0.0, nilLC.DurationMs())
	assert.Nil(t, FromContext(context.Background()))
}

func TestErrField(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("text")

	Error("failed", Err(errors.New("boom")), Err(nil))
	assert.Contains(t, buf.String(), "error=boom")
	assert.Equal(t, 1, strings.Count(buf.String(), "error="))
}

func TestConcurrentLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("text")

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for range 10 {
				Info("worker", "n", n)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 200)
}

func TestInit(t *testing.T) {
	_, cleanup := captureOutput()
	defer cleanup()

	t.Run("FileOutput", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sigscan.log")
		require.NoError(t, Init(Config{Level: "INFO", Format: "text", Output: path}))

		Info("to file")
		require.NoError(t, Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to file")
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		err := Init(Config{Level: "LOUD"})
		assert.Error(t, err)
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
		assert.Error(t, err)
	})
}
