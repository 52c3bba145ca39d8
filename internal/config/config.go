package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	Env   string `yaml:"env" env:"APP_ENV"`
}

// Production reports whether the process runs with APP_ENV=production.
func (c LogConfig) Production() bool {
	return c.Env == "production"
}

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"PORT"`
	} `yaml:"server"`
	Trivia struct {
		BaseURL string `yaml:"base_url" env:"TRIVIA_BASE_URL"`
		Timeout string `yaml:"timeout" env:"TRIVIA_TIMEOUT"`
	} `yaml:"trivia"`
	Store struct {
		Driver      string `yaml:"driver" env:"QUIZ_STORE"`
		SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH"`
		UsePostgres bool   `yaml:"use_postgres" env:"USE_POSTGRES"`
	} `yaml:"store"`
	Postgres struct {
		URL string `yaml:"url" env:"POSTGRES_URL"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`
	Cache struct {
		TTL string `yaml:"ttl" env:"CACHE_TTL"`
	} `yaml:"cache"`
	Log LogConfig `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Trivia.BaseURL = "https://opentdb.com/api.php"
	cfg.Store.SQLitePath = "data/quiz.db"
	cfg.Log.Level = "info"
	cfg.Log.Env = "development"
	return cfg
}

// Load reads YAML config from path on top of Default and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// StoreDriver resolves which player store to use. An explicit driver wins;
// otherwise USE_POSTGRES or a production environment with a postgres url
// selects postgres, and everything else runs on the embedded sqlite file.
func (c Config) StoreDriver() string {
	if c.Store.Driver != "" {
		return c.Store.Driver
	}
	if c.Postgres.URL != "" && (c.Store.UsePostgres || c.Log.Production()) {
		return DriverPostgres
	}
	return DriverSQLite
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
