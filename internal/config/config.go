package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	HTTPAddr       string
	RequestTimeout time.Duration

	StorageBackend string
	SQLitePath     string
	DatabaseDSN    string
	RunMigrations  bool
	// SessionIdleTTL is how long an unwatched cart stays in memory after its
	// last request.
	SessionIdleTTL time.Duration

	// Empty RabbitURL means checkout events are only logged.
	RabbitURL        string
	PublishEnveloped bool

	Currency string
	LogLevel string

	CORSAllowOrigins []string
}

// fileConfig mirrors Config for the optional TOML file. Unset keys keep the
// values resolved from the environment.
type fileConfig struct {
	HTTP struct {
		Addr             *string  `toml:"addr"`
		RequestTimeout   *string  `toml:"request_timeout"`
		CORSAllowOrigins []string `toml:"cors_allow_origins"`
	} `toml:"http"`
	Storage struct {
		Backend       *string `toml:"backend"`
		SQLitePath    *string `toml:"sqlite_path"`
		DatabaseDSN   *string `toml:"database_dsn"`
		RunMigrations *bool   `toml:"run_migrations"`
		IdleTTL       *string `toml:"session_idle_ttl"`
	} `toml:"storage"`
	Events struct {
		RabbitURL        *string `toml:"rabbitmq_url"`
		PublishEnveloped *bool   `toml:"publish_enveloped"`
	} `toml:"events"`
	Currency *string `toml:"currency"`
	LogLevel *string `toml:"log_level"`
}

// Load resolves configuration from the environment and then applies the TOML
// file at path, if any.
func Load(path string) (Config, error) {
	cfg := FromEnv()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := cfg.apply(data); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func FromEnv() Config {
	return Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":"+getenv("PORT", "8084")),
		RequestTimeout: parseDuration(getenv("REQUEST_TIMEOUT", "10s"), 10*time.Second),

		StorageBackend: strings.ToLower(getenv("STORAGE_BACKEND", BackendMemory)),
		SQLitePath:     getenv("SQLITE_PATH", "data/farm-cart.db"),
		DatabaseDSN:    getenv("DATABASE_DSN", ""),
		RunMigrations:  envBool("RUN_MIGRATIONS", true),
		SessionIdleTTL: parseDuration(getenv("SESSION_IDLE_TTL", "30m"), 30*time.Minute),

		RabbitURL:        getenv("RABBITMQ_URL", ""),
		PublishEnveloped: envBool("PUBLISH_ENVELOPED_EVENTS", true),

		Currency: getenv("CURRENCY", "INR"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
	}
}

func (c *Config) apply(data []byte) error {
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return err
	}

	setString(&c.HTTPAddr, f.HTTP.Addr)
	if f.HTTP.RequestTimeout != nil {
		d, err := time.ParseDuration(*f.HTTP.RequestTimeout)
		if err != nil {
			return fmt.Errorf("http.request_timeout: %w", err)
		}
		c.RequestTimeout = d
	}
	if len(f.HTTP.CORSAllowOrigins) > 0 {
		c.CORSAllowOrigins = f.HTTP.CORSAllowOrigins
	}

	if f.Storage.Backend != nil {
		c.StorageBackend = strings.ToLower(*f.Storage.Backend)
	}
	setString(&c.SQLitePath, f.Storage.SQLitePath)
	setString(&c.DatabaseDSN, f.Storage.DatabaseDSN)
	setBool(&c.RunMigrations, f.Storage.RunMigrations)
	if f.Storage.IdleTTL != nil {
		d, err := time.ParseDuration(*f.Storage.IdleTTL)
		if err != nil {
			return fmt.Errorf("storage.session_idle_ttl: %w", err)
		}
		c.SessionIdleTTL = d
	}

	setString(&c.RabbitURL, f.Events.RabbitURL)
	setBool(&c.PublishEnveloped, f.Events.PublishEnveloped)

	setString(&c.Currency, f.Currency)
	setString(&c.LogLevel, f.LogLevel)
	return nil
}

func (c Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite backend requires SQLITE_PATH")
		}
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("postgres backend requires DATABASE_DSN")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("session idle ttl must be positive")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
