package bot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "telegram:\n  token: abc\n  initial_admins: [7, 7, 8]\n"))
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Telegram.Token)
	assert.Equal(t, []int64{7, 8}, cfg.Telegram.InitialAdmins)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "data", cfg.Storage.Dir)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadConfigStorageSections(t *testing.T) {
	yml := `telegram:
  token: abc
storage:
  backend: Redis
  redis:
    addr: localhost:6379
    prefix: "x:"
relay:
  default_welcome: Hi there
`
	cfg, err := LoadConfig(writeConfig(t, yml))
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "localhost:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "x:", cfg.Storage.Redis.Prefix)
	assert.Equal(t, "Hi there", cfg.Relay.DefaultWelcome)
}

func TestLoadConfigEnvironmentOverlay(t *testing.T) {
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "relaybot")

	cfg, err := LoadConfig(writeConfig(t, "telegram:\n  token: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "5432", cfg.Database.Port)
}

func TestNormalizeRejectsBadStorage(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "telegram:\n  token: abc\nstorage:\n  backend: sqlite\n"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "telegram:\n  token: abc\nstorage:\n  backend: redis\n"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "telegram:\n  token: abc\nstorage:\n  backend: postgres\n"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "storage:\n  backend: memory\n"))
	require.Error(t, err, "token is still required")
}
