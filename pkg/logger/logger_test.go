package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	l := newLogger()

	formatter, ok := l.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.Equal(t, time.RFC3339Nano, formatter.TimestampFormat)
	assert.True(t, formatter.FullTimestamp)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
}

func TestGetLogger(t *testing.T) {
	t.Run("falls back to the global logger", func(t *testing.T) {
		entry := G(context.Background())
		assert.Equal(t, L.Logger, entry.Logger)
	})

	t.Run("returns the context logger", func(t *testing.T) {
		custom := logrus.NewEntry(logrus.New()).WithField("command", "validate")
		ctx := WithLogger(context.Background(), custom)

		entry := G(ctx)
		assert.Equal(t, "validate", entry.Data["command"])
	})

	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck // exercising the nil guard
		assert.Equal(t, L, G(nil))
	})
}

func TestSetup(t *testing.T) {
	origLevel := L.Logger.GetLevel()
	origFormatter := L.Logger.Formatter
	origOut := L.Logger.Out
	defer func() {
		L.Logger.SetLevel(origLevel)
		L.Logger.Formatter = origFormatter
		L.Logger.SetOutput(origOut)
	}()

	var buf bytes.Buffer
	require.NoError(t, Setup(Options{Level: "debug", Format: "json", Output: &buf}))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())

	G(context.Background()).WithField("skill", "react").Debug("resolved")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "resolved", line["message"])
	assert.Equal(t, "debug", line["logLevel"])
	assert.Equal(t, "react", line["skill"])
}

func TestSetupInvalidLevel(t *testing.T) {
	err := Setup(Options{Level: "chatty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
