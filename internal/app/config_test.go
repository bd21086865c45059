package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	f := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(f, []byte(body), 0644))
	return f
}

func TestLoadConfigDefaults(t *testing.T) {
	f := writeConfig(t, "server:\n  http-port: \":9100\"\n")

	c, realpath, err := LoadConfig(f)
	require.NoError(t, err)
	assert.Equal(t, f, realpath)
	assert.Equal(t, ":9100", c.Server.HttpPort)
	assert.Equal(t, "sqlite", c.Database.Type)
	assert.Equal(t, time.Hour, c.GetTokenExpiry())
	assert.Equal(t, 5, c.App.SearchLimit)
	assert.Equal(t, 6, c.User.PasswordMinLength)
	assert.Equal(t, 50, c.User.UsernameMaxLength)
	assert.True(t, c.User.RegisterIsEnable)
	assert.True(t, c.UsesDefaultSecret())
	assert.Equal(t, 10*time.Minute, c.GetStatsInterval())

	wq := c.GetWriteQueueConfig()
	assert.Equal(t, 30*time.Second, wq.WriteTimeout)

	svc := c.ServiceConfig()
	assert.Equal(t, 5, svc.App.SearchLimit)
	assert.Equal(t, "release", c.DatabaseConfig().RunMode)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	f := writeConfig(t, "security:\n  auth-token-key: from-yaml\n  token-expiry: 2h\n")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(f), ".env"), []byte(EnvRunMode+"=debug\n"), 0644))
	t.Setenv(EnvAuthTokenKey, "from-env")
	t.Setenv(EnvHttpPort, ":9200")

	c, _, err := LoadConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Security.AuthTokenKey)
	assert.Equal(t, ":9200", c.Server.HttpPort)
	assert.Equal(t, "debug", c.Server.RunMode)
	assert.Equal(t, 2*time.Hour, c.GetTokenExpiry())
	assert.False(t, c.UsesDefaultSecret())
	assert.False(t, c.IsProduction())

	// godotenv sets the process env, clear it for the other tests
	require.NoError(t, os.Unsetenv(EnvRunMode))
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
