package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"prod", "production", "dev", ""} {
		l, err := New(mode, "info")
		require.NoError(t, err, "mode %q", mode)
		require.NotNil(t, l.SugaredLogger)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("dev", "loud")
	assert.Error(t, err)
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("ignored", "k", "v")
		l.With("k", "v").Debug("ignored")
		l.Sync()
	})
}

func TestWith_CarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("owner", "o1").Info("link created", "a", "H1")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "link created", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "o1", fields["owner"])
	assert.Equal(t, "H1", fields["a"])
}
