package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "promethica.log")

	lg, err := New(Config{Level: "debug", File: path, Console: false})
	require.NoError(t, err)
	defer lg.Close()

	zl := lg.GetZerolog()
	zl.Info().Str("tool", "search_proteins").Msg("invocation completed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tool":"search_proteins"`)
	assert.Contains(t, string(data), "invocation completed")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promethica.log")

	lg, err := New(Config{Level: "chatty", File: path, Console: false})
	require.NoError(t, err)
	defer lg.Close()

	zl := lg.GetZerolog()
	zl.Debug().Msg("hidden")
	zl.Info().Msg("visible")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "visible")
}

func TestSetLevel(t *testing.T) {
	assert.NoError(t, SetLevel("warn"))
	assert.Error(t, SetLevel("loud"))

	// Restore the package default for other tests.
	require.NoError(t, SetLevel("info"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.Console)
	assert.True(t, strings.TrimSpace(cfg.File) == "", "no file sink by default")
}
