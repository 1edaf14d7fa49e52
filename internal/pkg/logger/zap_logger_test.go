package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesModuleAndDetails(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newZapLogger(core)

	l.Info("RETRIEVER", "Retrieved chunks", map[string]interface{}{"count": 3})
	l.Debug("SESSION", "no details", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	fields := entries[0].ContextMap()
	assert.Equal(t, "Retrieved chunks", entries[0].Message)
	assert.Equal(t, "RETRIEVER", fields["module"])
	assert.Equal(t, map[string]interface{}{"count": 3}, fields["details"])

	assert.Equal(t, map[string]interface{}{}, entries[1].ContextMap()["details"])
}

func TestZapLoggerLiftsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := newZapLogger(core)

	l.Error("INGEST", "Failed to embed", map[string]interface{}{"error": errors.New("upstream down")})
	l.Debug("INGEST", "filtered by level", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "upstream down", entries[0].ContextMap()["error_ref"])
}

func TestIsolatedLoggerSyncs(t *testing.T) {
	l := NewIsolatedLogger(filepath.Join(t.TempDir(), "ingest.log"))
	l.Info("INGEST", "hello", nil)
	assert.NoError(t, l.Sync())

	assert.NoError(t, NewNopLogger().Sync())
}
