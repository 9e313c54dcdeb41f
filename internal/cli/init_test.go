package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CARDSTATS_TEST_VALUE=from-dotenv\n"), 0o600))
	t.Setenv("CARDSTATS_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("CARDSTATS_TEST_VALUE"))

	LoadEnvFile(path)
	assert.Equal(t, "from-dotenv", os.Getenv("CARDSTATS_TEST_VALUE"))

	// missing files are ignored
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Equal(t, "app", logger.Component())
	assert.Same(t, logger.Logger, slog.Default())
}
