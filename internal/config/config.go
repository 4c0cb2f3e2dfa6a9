package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config defines server and client configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Client    ClientConfig    `yaml:"client"`
	History   HistoryConfig   `yaml:"history"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"CLIMBR_SERVER_HOST"`
	Port int    `yaml:"port" env:"CLIMBR_SERVER_PORT"`
}

type DBConfig struct {
	Path string `yaml:"path" env:"CLIMBR_DB_PATH"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"CLIMBR_LOG_LEVEL"`
	Path  string `yaml:"path" env:"CLIMBR_LOG_PATH"`
}

type TransportConfig struct {
	Mode string `yaml:"mode" env:"CLIMBR_TRANSPORT_MODE"`
}

type AuthConfig struct {
	Enabled   bool          `yaml:"enabled" env:"CLIMBR_AUTH_ENABLED"`
	JWTSecret string        `yaml:"jwt_secret" env:"CLIMBR_AUTH_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"CLIMBR_AUTH_TOKEN_TTL"`
	// DefaultUser is the identity used when auth is disabled.
	DefaultUser string `yaml:"default_user" env:"CLIMBR_AUTH_DEFAULT_USER"`
}

type ClientConfig struct {
	Endpoint   string        `yaml:"endpoint" env:"CLIMBR_CLIENT_ENDPOINT"`
	Token      string        `yaml:"token" env:"CLIMBR_CLIENT_TOKEN"`
	UserID     string        `yaml:"user_id" env:"CLIMBR_CLIENT_USER_ID"`
	Timeout    time.Duration `yaml:"timeout" env:"CLIMBR_CLIENT_TIMEOUT"`
	MaxRetries int           `yaml:"max_retries" env:"CLIMBR_CLIENT_MAX_RETRIES"`
}

type HistoryConfig struct {
	Concurrency int `yaml:"concurrency" env:"CLIMBR_HISTORY_CONCURRENCY"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "climbr.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: TransportHTTP,
		},
		Auth: AuthConfig{
			Enabled:     true,
			TokenTTL:    24 * time.Hour,
			DefaultUser: "default",
		},
		Client: ClientConfig{
			Endpoint:   "http://localhost:8080",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		History: HistoryConfig{
			Concurrency: 4,
		},
	}
}

// Load reads configuration from an optional YAML file named by
// CLIMBR_CONFIG_PATH and then applies environment variables.
func Load() (Config, error) {
	return LoadFile(os.Getenv("CLIMBR_CONFIG_PATH"))
}

// LoadFile is Load with an explicit file path. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.History.Concurrency < 1 {
		return fmt.Errorf("history concurrency must be positive")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
