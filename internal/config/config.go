package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

type Config struct {
	Server   Server   `koanf:"server"`
	Storage  Storage  `koanf:"storage"`
	Redis    Redis    `koanf:"redis"`
	Cache    Cache    `koanf:"cache"`
	Comments Comments `koanf:"comments"`
	Log      Log      `koanf:"log"`
}

type Server struct {
	Port          string `koanf:"port"`
	SessionSecret string `koanf:"session_secret"`
	SessionName   string `koanf:"session_name"`
	Release       bool   `koanf:"release"`
}

type Storage struct {
	// Driver is "memory" or "postgres".
	Driver       string `koanf:"driver"`
	DatabaseURL  string `koanf:"database_url"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// Redis enables cross-instance cache invalidation when Addr is set.
type Redis struct {
	Addr     string `koanf:"addr"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Channel  string `koanf:"channel"`
}

type Cache struct {
	Size       int `koanf:"size"`
	TTLSeconds int `koanf:"ttl_seconds"`
}

type Comments struct {
	DefaultLimit int  `koanf:"default_limit"`
	MaxLimit     int  `koanf:"max_limit"`
	Concurrency  int  `koanf:"concurrency"`
	RestrictPin  bool `koanf:"restrict_pin"`
}

type Log struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Server: Server{
			Port:          "8080",
			SessionSecret: "secret_key_change_me",
			SessionName:   "kitab_session",
		},
		Storage: Storage{
			Driver:       DriverMemory,
			MaxOpenConns: 20,
			MaxIdleConns: 5,
			AutoMigrate:  true,
		},
		Redis: Redis{
			Channel: "kitab:comments:invalidate",
		},
		Cache: Cache{
			Size:       1000,
			TTLSeconds: 300,
		},
		Comments: Comments{
			DefaultLimit: 20,
			MaxLimit:     100,
			Concurrency:  8,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path and the environment,
// in that order. An empty path falls back to $KITAB_CONFIG, then config.toml. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	// .env 可选
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("KITAB_CONFIG")
	}
	if path == "" {
		path = "config.toml"
	}

	cfg := Default()

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	envs, err := loadEnv()
	if err != nil {
		return nil, err
	}
	if err := k.Merge(envs); err != nil {
		return nil, fmt.Errorf("failed to merge environment: %w", err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKeys lists the environment variables that override config keys.
var envKeys = map[string]string{
	"PORT":                  "server.port",
	"SESSION_SECRET":        "server.session_secret",
	"DATABASE_URL":          "storage.database_url",
	"STORAGE_DRIVER":        "storage.driver",
	"REDIS_ADDR":            "redis.addr",
	"REDIS_PASSWORD":        "redis.password",
	"LOG_LEVEL":             "log.level",
	"COMMENTS_RESTRICT_PIN": "comments.restrict_pin",
}

// envValue maps one environment variable to its config key. Unknown and empty
// variables are skipped, and so is a restrict flag that does not parse.
func envValue(name, value string) (string, any) {
	key, ok := envKeys[name]
	if !ok || value == "" {
		return "", nil
	}
	switch key {
	case "storage.driver":
		return key, strings.ToLower(value)
	case "comments.restrict_pin":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", nil
		}
		return key, b
	}
	return key, value
}

func loadEnv() (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	// DATABASE_URL alone implies postgres unless a driver is given explicitly.
	if k.Exists("storage.database_url") && !k.Exists("storage.driver") {
		if err := k.Set("storage.driver", DriverPostgres); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("storage.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver)
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	return nil
}
