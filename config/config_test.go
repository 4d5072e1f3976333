package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pomyannik/pomyannik/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"POMYANNIK_API_URL", "POMYANNIK_TIMEOUT", "POMYANNIK_TOKEN_BACKEND", "POMYANNIK_DB_PATH",
	"POMYANNIK_KEYRING_DIR", "POMYANNIK_REFRESH_POLICY", "POMYANNIK_CLIENT_ID", "POMYANNIK_CLIENT_SECRET",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, BackendSQLite, cfg.TokenBackend)
	assert.Equal(t, auth.RotateIfPresent, cfg.RefreshPolicy)
	assert.Equal(t, "string", cfg.ClientID)
	assert.Equal(t, "string", cfg.ClientSecret)
	assert.Equal(t, "pomyannik.db", filepath.Base(cfg.DBPath))
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("POMYANNIK_API_URL", "https://api.pomyannik.example/")
	t.Setenv("POMYANNIK_TIMEOUT", "3s")
	t.Setenv("POMYANNIK_TOKEN_BACKEND", "KEYRING")
	t.Setenv("POMYANNIK_REFRESH_POLICY", "reuse")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err, "an explicit env file must exist")

	t.Chdir(t.TempDir())
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.pomyannik.example", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, BackendKeyring, cfg.TokenBackend)
	assert.Equal(t, auth.Reuse, cfg.RefreshPolicy)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("POMYANNIK_API_URL=http://from-file:9000\nPOMYANNIK_CLIENT_ID=file-client\n"), 0o600))
	t.Setenv("POMYANNIK_CLIENT_ID", "env-client")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "http://from-file:9000", cfg.APIURL)
	assert.Equal(t, "env-client", cfg.ClientID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad url", "POMYANNIK_API_URL", "localhost:8000"},
		{"bad backend", "POMYANNIK_TOKEN_BACKEND", "redis"},
		{"bad policy", "POMYANNIK_REFRESH_POLICY", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_Timeout(t *testing.T) {
	cfg := Config{APIURL: DefaultAPIURL, Timeout: 0, TokenBackend: BackendSQLite}
	assert.Error(t, cfg.Validate())
	cfg.Timeout = time.Second
	assert.NoError(t, cfg.Validate())
}
