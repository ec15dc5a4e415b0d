package main_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	main "github.com/fwojciec/codereview/cmd/codereview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("writes json lines to the file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "logs", "codereview.log")
		logger, err := main.NewLogger(main.LogConfig{Level: "info", File: path, MaxSize: 1}, nil)
		require.NoError(t, err)

		logger.Debug("hidden")
		logger.Info("analysis complete", zap.Int("issues", 3))
		require.NoError(t, logger.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 1)

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		assert.Equal(t, "analysis complete", entry["msg"])
		assert.Equal(t, "codereview", entry["logger"])
		assert.Equal(t, "INFO", entry["level"])
		assert.InDelta(t, 3, entry["issues"], 0)
	})

	t.Run("console json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, err := main.NewLogger(main.LogConfig{Level: "debug", Format: "json"}, zapcore.AddSync(&buf))
		require.NoError(t, err)

		logger.Debug("starting")
		require.NoError(t, logger.Sync())
		assert.Contains(t, buf.String(), `"msg":"starting"`)
	})

	t.Run("no outputs is a no-op logger", func(t *testing.T) {
		t.Parallel()

		logger, err := main.NewLogger(main.LogConfig{Level: "info"}, nil)
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		t.Parallel()

		_, err := main.NewLogger(main.LogConfig{Level: "loud"}, nil)
		require.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		_, err := main.NewLogger(main.LogConfig{Level: "info", Format: "xml"}, zapcore.AddSync(&buf))
		require.Error(t, err)
	})
}
