package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Session store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings are the process-level options read from the environment. CLI flags
// override individual fields after loading.
type Settings struct {
	Host string `env:"WAREHOUSE_HOST" envDefault:"localhost"`
	Port int    `env:"WAREHOUSE_PORT" envDefault:"8080"`

	ConfigDir    string        `env:"CONFIG_DIR" envDefault:"configs"`
	SessionsDir  string        `env:"SESSIONS_DIR" envDefault:"sessions"`
	SessionStore string        `env:"SESSION_STORE" envDefault:"file"`
	SQLitePath   string        `env:"SQLITE_PATH" envDefault:"sessions.db"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	OTelEndpoint string `env:"WAREHOUSE_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"WAREHOUSE_OTEL_ENABLED" envDefault:"true"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthtoken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// LoadSettings loads the given .env files (".env" when none are named), then
// parses Settings from the environment. Missing .env files are not an error;
// variables already set in the environment win over file values.
func LoadSettings(envFiles ...string) (*Settings, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks field ranges and enumerations.
func (s *Settings) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidSettings, s.Port)
	}
	switch s.SessionStore {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("%w: unknown session store %q (want file, sqlite or memory)", ErrInvalidSettings, s.SessionStore)
	}
	if s.SessionTTL < 0 {
		return fmt.Errorf("%w: negative session ttl", ErrInvalidSettings)
	}
	return nil
}

// Addr returns host:port.
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
