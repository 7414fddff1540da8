package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// ConnectTimeout is injected into every DSN at pool construction,
// regardless of what the configuration says.
const ConnectTimeout = 10 * time.Second

var supportedDrivers = map[string]bool{
	"postgres": true,
	"mysql":    true,
	"sqlite":   true,
}

// Config holds all settings for building a connection pool.
type Config struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`

	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `toml:"conn_max_idle_time"`
}

// Default returns a Config with pool limits suitable for development.
func Default() Config {
	return Config{
		Driver:          "postgres",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// Load reads a TOML config file and fills defaults. An empty DSN falls
// back to the DATABASE_URL environment variable; a .env file in the
// working directory is honored if present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	godotenv.Load()
	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields a pool cannot be built without.
func (c *Config) Validate() error {
	if !supportedDrivers[c.Driver] {
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("DSN is empty")
	}
	return nil
}
