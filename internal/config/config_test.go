package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"TODO_DATABASE_DRIVER",
	"TODO_DATABASE_PATH",
	"TODO_DATABASE_HOST",
	"TODO_DATABASE_PORT",
	"TODO_DATABASE_NAME",
	"TODO_DATABASE_USER",
	"TODO_DATABASE_PASSWORD",
	"TODO_LOG_LEVEL",
	"TODO_LOG_FORMAT",
	"TODO_TELEGRAM_TOKEN",
	"TODO_TELEGRAM_OWNER_ID",
	"TODO_DIGEST_TIME",
	"TODO_DIGEST_INTERVAL",
}

// clearEnv unsets every TODO_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range configEnvVars {
		if value, ok := os.LookupEnv(name); ok {
			require.NoError(t, os.Unsetenv(name))
			t.Cleanup(func() { os.Setenv(name, value) })
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultSQLitePath, cfg.Database.Path)
	assert.Equal(t, DefaultMySQLPort, cfg.Database.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.TelegramEnabled())
	assert.Empty(t, cfg.Digest.Time)
	assert.Zero(t, cfg.Digest.Interval)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TODO_DATABASE_DRIVER", "MySQL")
	t.Setenv("TODO_DATABASE_HOST", "db.local")
	t.Setenv("TODO_DATABASE_PORT", "3307")
	t.Setenv("TODO_DATABASE_NAME", "todo_app")
	t.Setenv("TODO_DATABASE_USER", "root")
	t.Setenv("TODO_DATABASE_PASSWORD", "secret")
	t.Setenv("TODO_LOG_LEVEL", "debug")
	t.Setenv("TODO_LOG_FORMAT", "json")
	t.Setenv("TODO_TELEGRAM_TOKEN", " 123:abc ")
	t.Setenv("TODO_TELEGRAM_OWNER_ID", "42")
	t.Setenv("TODO_DIGEST_INTERVAL", "6h")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DatabaseConfig{
		Driver:   DriverMySQL,
		Path:     DefaultSQLitePath,
		Host:     "db.local",
		Port:     3307,
		Name:     "todo_app",
		User:     "root",
		Password: "secret",
	}, cfg.Database)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.OwnerID)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, 6*time.Hour, cfg.Digest.Interval)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
database:
  driver: sqlite
  path: /tmp/from-file.db
log:
  level: warn
digest:
  time: "08:30"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("TODO_LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.Database.Path)
	assert.Equal(t, "error", cfg.Log.Level, "environment wins over file")
	assert.Equal(t, "08:30", cfg.Digest.Time)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown driver",
			env:  map[string]string{"TODO_DATABASE_DRIVER": "oracle"},
			want: "Config.Database.Driver",
		},
		{
			name: "mysql without host",
			env: map[string]string{
				"TODO_DATABASE_DRIVER": "mysql",
				"TODO_DATABASE_NAME":   "todo_app",
				"TODO_DATABASE_USER":   "root",
			},
			want: "Config.Database.Host",
		},
		{
			name: "bad log level",
			env:  map[string]string{"TODO_LOG_LEVEL": "loud"},
			want: "Config.Log.Level",
		},
		{
			name: "token without owner",
			env:  map[string]string{"TODO_TELEGRAM_TOKEN": "123:abc"},
			want: "Config.Telegram.OwnerID",
		},
		{
			name: "bad digest time",
			env:  map[string]string{"TODO_DIGEST_TIME": "25:99"},
			want: "Config.Digest.Time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
