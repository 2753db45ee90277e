package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"KITAB_CONFIG", "PORT", "SESSION_SECRET", "DATABASE_URL", "STORAGE_DRIVER", "REDIS_ADDR", "REDIS_PASSWORD", "LOG_LEVEL", "COMMENTS_RESTRICT_PIN"} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "kitab.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "9000"

[comments]
default_limit = 10
restrict_pin = true

[cache]
ttl_seconds = 60
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Comments.DefaultLimit)
	assert.Equal(t, 100, cfg.Comments.MaxLimit, "keys absent from the file keep their defaults")
	assert.True(t, cfg.Comments.RestrictPin)
	assert.Equal(t, 60, cfg.Cache.TTLSeconds)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_DatabaseURLSelectsPostgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/kitab")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/kitab", cfg.Storage.DatabaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE_DRIVER", "sqlite")

		_, err := Load("")
		assert.ErrorIs(t, err, ErrUnknownDriver)
	})

	t.Run("postgres without url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE_DRIVER", "postgres")

		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0o600))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "kitab.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
driver = "postgres"
database_url = "postgres://file/kitab"

[log]
level = "debug"
`), 0o600))

	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("DATABASE_URL", "postgres://env/kitab")
	t.Setenv("COMMENTS_RESTRICT_PIN", "true")
	t.Setenv("SESSION_SECRET", "from-env")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver, "an explicit driver wins over the DATABASE_URL default")
	assert.Equal(t, "postgres://env/kitab", cfg.Storage.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Comments.RestrictPin)
	assert.Equal(t, "from-env", cfg.Server.SessionSecret)
}

func TestEnvValue(t *testing.T) {
	tests := []struct {
		name, value string
		key         string
		want        any
	}{
		{"PORT", "9000", "server.port", "9000"},
		{"STORAGE_DRIVER", "Postgres", "storage.driver", "postgres"},
		{"COMMENTS_RESTRICT_PIN", "1", "comments.restrict_pin", true},
		{"COMMENTS_RESTRICT_PIN", "maybe", "", nil},
		{"PORT", "", "", nil},
		{"HOME", "/root", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			key, value := envValue(tt.name, tt.value)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.want, value)
		})
	}
}
