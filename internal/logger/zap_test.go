package logger

import (
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core))

	h := log.NewHelper(log.With(l, "service.name", "placefinder"))
	h.Infow("msg", "list fetched", "strategy", "primary", "rows", 20)
	h.Debugf("dropped %d rows", 2)
	h.Warn("odd")

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	first := entries[0]
	assert.Equal(t, zapcore.InfoLevel, first.Level)
	assert.Equal(t, "list fetched", first.Message)
	ctx := first.ContextMap()
	assert.Equal(t, "placefinder", ctx["service.name"])
	assert.Equal(t, "primary", ctx["strategy"])
	assert.EqualValues(t, 20, ctx["rows"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "dropped 2 rows", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestZapLoggerUnpaired(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewZapLogger(zap.New(core))

	require.NoError(t, l.Log(log.LevelInfo, "k"))
	require.NoError(t, l.Log(log.LevelDebug, "filtered", "by level"))
	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "KEYVALS UNPAIRED", entries[0].ContextMap()["k"])
}

func TestNewProductionBadLevel(t *testing.T) {
	l, err := NewProduction("loud")
	require.NoError(t, err)
	assert.NotNil(t, l)
}
