package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/numtable/pkg/errors"
)

func parseLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestZerologLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	logger.Debug("hidden")
	logger.Info("row block acquired", BlockStartKey, 3, BlockCountKey, 6)
	logger.Warn("conflict", ErrorCodeKey, ErrorConcurrentAccess)

	entries := parseLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "row block acquired", entries[0]["message"])
	assert.Equal(t, 3.0, entries[0][BlockStartKey])
	assert.Equal(t, 6.0, entries[0][BlockCountKey])
	assert.Equal(t, ErrorConcurrentAccess, entries[1][ErrorCodeKey])

	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
	logger.SetLevel(LevelDebug)
	assert.True(t, logger.Enabled(context.Background(), LevelDebug))
}

func TestZerologLoggerWithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewZerologLogger(&buf, LevelWarn)
	child := root.With(LayoutKey, "csr", RowsKey, 5)

	child.Info("dropped")
	root.SetLevel(LevelInfo)
	child.Info("kept")

	entries := parseLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "csr", entries[0][LayoutKey])
	assert.Equal(t, 5.0, entries[0][RowsKey])
}

func TestZerologLoggerErrorDetails(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	err := errors.NewOutOfRangeError("AcquireRowBlock", 0, 4, 4, 5)
	logger.Error("block request failed", err, LayoutKey, "homogen")

	entries := parseLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Contains(t, entry[ErrAttrKey], "out of range")
	assert.Equal(t, "homogen", entry[LayoutKey])

	detail, ok := entry[ErrAttrKey+detailSuffix].(map[string]interface{})
	require.True(t, ok, "expected structured error detail")
	assert.Equal(t, "OutOfRangeError", detail["type"])
	assert.Equal(t, 5.0, detail["limit"])
}

func TestTestLoggerCapture(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Error("error message", fmt.Errorf("test error"), ErrorCodeKey, ErrorInvalidLayout)

	require.NotEmpty(t, buffer.String())
	assert.True(t, testLogger.ContainsMessage("debug message"))
	assert.True(t, testLogger.ContainsField("key1", "value1"))
	assert.True(t, testLogger.ContainsField("number", 42.0))
	assert.True(t, testLogger.ContainsField(ErrAttrKey, "test error"))
	assert.True(t, testLogger.ContainsField(ErrorCodeKey, ErrorInvalidLayout))

	testLogger.Clear()
	assert.Empty(t, buffer.String())
}

func TestProviderSwap(t *testing.T) {
	provider, captured := NewTestLoggerProvider(LevelDebug)
	SetProvider(provider)
	defer SetProvider(NewZerologProvider(&bytes.Buffer{}, LevelWarn))

	GetLoggerWithName("table").Info("attached", ConstituentsKey, 2)
	assert.True(t, captured.ContainsField(ComponentKey, "table"))
	assert.True(t, captured.ContainsField(ConstituentsKey, 2.0))

	SetLevel(LevelError)
	GetLogger().Info("suppressed")
	assert.False(t, captured.ContainsMessage("suppressed"))
}

func TestZerologProviderCachesNamedLoggers(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelWarn)

	a := p.GetLoggerWithName("table")
	assert.Same(t, a, p.GetLoggerWithName("table"))
	assert.NotSame(t, a, p.GetLoggerWithName("datasource"))

	// キャッシュされたロガーもプロバイダのレベル変更に従う
	p.SetLevel(LevelDebug)
	assert.True(t, a.Enabled(context.Background(), LevelDebug))
	a.Debug("block acquire")
	assert.Contains(t, buf.String(), `"component":"table"`)
}

func TestSetupLoggerWritesToStderr(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stderr := os.Stderr
	os.Stderr = w
	defer func() {
		os.Stderr = stderr
		SetProvider(NewZerologProvider(&bytes.Buffer{}, LevelWarn))
	}()

	require.NoError(t, SetupLogger("info"))
	GetLogger().Info("loaded")
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"message":"loaded"`)
}

func TestWarningsRouteThroughProvider(t *testing.T) {
	provider, captured := NewTestLoggerProvider(LevelDebug)
	SetProvider(provider)
	defer SetProvider(NewZerologProvider(&bytes.Buffer{}, LevelWarn))

	errors.Warn(errors.NewDataConversionWarning("string", "float64", "empty field"))

	entries, err := captured.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "warnings", entries[0][ComponentKey])
}

func TestParseLevel(t *testing.T) {
	lv, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, lv)

	_, err = ParseLevel("verbose")
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}
