package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved() (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapFrom(zap.New(core)), logs
}

func TestZapLogger_LevelsAndFields(t *testing.T) {
	log, logs := newObserved()
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "inf", entries[1].Message)
	assert.EqualValues(t, 2, entries[1].ContextMap()["b"])
}

func TestZapLogger_RedactsSecrets(t *testing.T) {
	log, logs := newObserved()

	log.With("api_key", "sk-123").Info(context.Background(), "call", "Authorization", "Bearer x", "path", "/api/chat")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["api_key"])
	assert.Equal(t, "[REDACTED]", fields["Authorization"])
	assert.Equal(t, "/api/chat", fields["path"])
}

func TestRedact_OddArgs(t *testing.T) {
	out := redact([]any{"k", "v", "dangling"})
	assert.Equal(t, []any{"k", "v", "dangling"}, out)
}

func TestNewZapLogger_Modes(t *testing.T) {
	for _, mode := range []string{"production", "development", ""} {
		l, err := NewZapLogger(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l)
	}
}
