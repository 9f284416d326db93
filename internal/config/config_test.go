package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cr3t")
	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "account-service", cfg.ServiceName)
	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "log", cfg.MailProvider)
}

func TestLoad_DefaultSecret(t *testing.T) {
	_, err := load(viper.New(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("STORE_DRIVER", "memory")
	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.UsesDefaultSecret())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("PROFILE_CACHE_TTL", "30s")

	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "s3cr3t", cfg.JWTSecret)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 30*time.Second, cfg.ProfileCacheTTL)
	assert.False(t, cfg.UsesDefaultSecret())
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cr3t")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.env"), []byte("HTTP_PORT=8088\nMAIL_PROVIDER=smtp\n"), 0o600))

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.HTTPPort)
	assert.Equal(t, "smtp", cfg.MailProvider)
}

func TestLoad_InvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown store driver", key: "STORE_DRIVER", val: "postgres"},
		{name: "unknown mail provider", key: "MAIL_PROVIDER", val: "pigeon"},
		{name: "non-positive jwt ttl", key: "JWT_TTL", val: "0s"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cr3t")
			t.Setenv(tc.key, tc.val)
			_, err := load(viper.New(), t.TempDir())
			require.Error(t, err)
		})
	}
}
