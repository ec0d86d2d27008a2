package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwidla/teleop/config"
	"github.com/mwidla/teleop/logging"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "teleop.log")
	logger, sync, err := logging.New(config.LogConfig{Level: "info", Format: "json", Path: path})
	require.NoError(t, err)

	logger.Info("session started", zap.String("transport", "virtual"))
	sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "session started", entry["msg"])
	assert.Equal(t, "virtual", entry["transport"])
}

func TestNew_LevelFiltersOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "teleop.log")
	logger, sync, err := logging.New(config.LogConfig{Level: "warn", Format: "json", Path: path})
	require.NoError(t, err)

	logger.Info("too quiet")
	sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, _, err := logging.New(config.LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
}
