package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "America/Fortaleza", cfg.Server.Timezone)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "bd_dados", cfg.Database.Name)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 60, cfg.Auth.AccessTokenExpireMinutes)
	assert.Equal(t, "touch_then_append", cfg.Upload.DefaultStrategy)
	assert.Equal(t, []string{"utf-8-sig", "latin-1", "cp1258"}, cfg.Upload.Encodings)
	assert.Equal(t, int64(10485760), cfg.Upload.MaxBytes)
	assert.False(t, cfg.Storage.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_NAME", "file::memory:")
	t.Setenv("AUTH_SECRET_KEY", "s3cret")
	t.Setenv("UPLOAD_DEFAULT_STRATEGY", "match_and_merge")
	t.Setenv("UPLOAD_ENCODINGS", "utf-8,cp1252")
	t.Setenv("STORAGE_ENABLED", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.Auth.SecretKey)
	assert.Equal(t, "match_and_merge", cfg.Upload.DefaultStrategy)
	assert.Equal(t, []string{"utf-8", "cp1252"}, cfg.Upload.Encodings)
	assert.True(t, cfg.Storage.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\nAUTH_ADMIN_USERNAME=root\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("AUTH_ADMIN_USERNAME")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "root", cfg.Auth.AdminUsername)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "database.driver"},
		{"Bad timezone", func(c *Config) { c.Server.Timezone = "Mars/Base" }, "server.timezone"},
		{"Bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"Unknown strategy", func(c *Config) { c.Upload.DefaultStrategy = "replace" }, "upload.default_strategy"},
		{"Unknown encoding", func(c *Config) { c.Upload.Encodings = []string{"utf-8", "klingon"} }, "upload.encodings"},
		{"Non positive size", func(c *Config) { c.Upload.MaxBytes = 0 }, "upload.max_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(t.TempDir())
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
