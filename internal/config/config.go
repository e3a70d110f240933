package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendKeyring = "keyring"
	BackendSealed  = "sealed"
)

var ErrPassphraseRequired = errors.New("DAILYBOARD_TOKEN_PASSPHRASE is required for the sealed token backend")

// Config is read from DAILYBOARD_* environment variables.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"dailyboard.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFormat is "text" or "json".
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	APIBaseURL string        `env:"LOSTARK_API_URL" envDefault:"https://developer-lostark.game.onstove.com"`
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`

	TokenBackend    string `env:"TOKEN_BACKEND" envDefault:"keyring"`
	TokenPassphrase string `env:"TOKEN_PASSPHRASE"`
	// KeyringDir is used by the encrypted-file keyring when no OS keyring is available.
	KeyringDir string `env:"KEYRING_DIR"`

	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"0s"`
	SearchRateLimit int           `env:"SEARCH_RATE_LIMIT" envDefault:"10"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "DAILYBOARD_"}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.TokenBackend {
	case BackendKeyring:
	case BackendSealed:
		if c.TokenPassphrase == "" {
			return ErrPassphraseRequired
		}
	default:
		return fmt.Errorf("unknown token backend %q (want %s or %s)", c.TokenBackend, BackendKeyring, BackendSealed)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got %s", c.APITimeout)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must not be negative, got %s", c.RefreshInterval)
	}
	return nil
}
