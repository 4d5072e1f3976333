package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pomyannik/pomyannik/auth"
	"github.com/pomyannik/pomyannik/client"
	"github.com/pomyannik/pomyannik/pkg/validation"
)

const (
	DefaultAPIURL = "http://localhost:8000"

	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
)

// Config contains runtime configuration values.
type Config struct {
	APIURL        string
	Timeout       time.Duration
	TokenBackend  string
	DBPath        string
	KeyringDir    string
	RefreshPolicy auth.RefreshPolicy
	ClientID      string
	ClientSecret  string
}

// Load reads configuration from the environment with sane defaults. Values in
// envFiles (or ./.env when none are given) fill variables that are not already set.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("failed to load env file: %w", err)
	}

	home := homeDir()
	cfg := Config{
		APIURL:       strings.TrimRight(getEnv("POMYANNIK_API_URL", DefaultAPIURL), "/"),
		Timeout:      getDuration("POMYANNIK_TIMEOUT", client.DefaultTimeout),
		TokenBackend: strings.ToLower(getEnv("POMYANNIK_TOKEN_BACKEND", BackendSQLite)),
		DBPath:       getEnv("POMYANNIK_DB_PATH", filepath.Join(home, ".pomyannik", "pomyannik.db")),
		KeyringDir:   getEnv("POMYANNIK_KEYRING_DIR", filepath.Join(home, ".pomyannik", "keyring")),
		ClientID:     getEnv("POMYANNIK_CLIENT_ID", client.DefaultClientCredential),
		ClientSecret: getEnv("POMYANNIK_CLIENT_SECRET", client.DefaultClientCredential),
	}

	policy, ok := auth.ParseRefreshPolicy(strings.ToLower(getEnv("POMYANNIK_REFRESH_POLICY", "rotate")))
	if !ok {
		return Config{}, fmt.Errorf("POMYANNIK_REFRESH_POLICY must be rotate or reuse")
	}
	cfg.RefreshPolicy = policy

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that may also have been overridden by flags.
func (c Config) Validate() error {
	if err := validation.ValidateBaseURL(c.APIURL); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	switch c.TokenBackend {
	case BackendSQLite, BackendKeyring:
	default:
		return fmt.Errorf("POMYANNIK_TOKEN_BACKEND must be %s or %s, got %q", BackendSQLite, BackendKeyring, c.TokenBackend)
	}
	return nil
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return os.TempDir()
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
