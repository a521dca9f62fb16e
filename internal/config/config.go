// Package config loads collector settings from defaults, an optional YAML
// file, an optional .env file and RUUVARI_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ruuvari-collector/internal/observability/logging"
)

const envPrefix = "RUUVARI_"

// Config is the full collector configuration.
type Config struct {
	HTTP     HTTPConfig      `yaml:"http"`
	Dispatch DispatchConfig  `yaml:"dispatch"`
	Log      logging.Options `yaml:"log"`
	Forward  ForwardConfig   `yaml:"forward"`
}

// HTTPConfig configures the ingest listener.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	IngestPath      string        `yaml:"ingest_path"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DispatchConfig orders adapters and names the zone vendor clocks run in.
type DispatchConfig struct {
	Order    []string `yaml:"order"`
	Timezone string   `yaml:"timezone"`
}

// ForwardConfig selects the sinks successful batches go to.
type ForwardConfig struct {
	Log      bool           `yaml:"log"`
	Postgres PostgresConfig `yaml:"postgres"`
	Influx   InfluxConfig   `yaml:"influx"`
	Redis    RedisConfig    `yaml:"redis"`
}

type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// Enabled reports whether a DSN is set.
func (c PostgresConfig) Enabled() bool { return c.DSN != "" }

type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// Enabled reports whether a server URL is set.
func (c InfluxConfig) Enabled() bool { return c.URL != "" }

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// Enabled reports whether a server address is set.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// Default returns the built-in settings.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8000",
			IngestPath:      "/",
			MaxBodyBytes:    1 << 20,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Dispatch: DispatchConfig{
			Order: []string{"ruuvistation", "beaconscanner"},
		},
		Log: logging.Options{Level: "info", Format: logging.FormatJSON},
		Forward: ForwardConfig{
			Log:      true,
			Postgres: PostgresConfig{Table: "ruuvi_events"},
			Redis:    RedisConfig{Channel: "ruuvari.events"},
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// RUUVARI_CONFIG is consulted. envFiles default to ".env"; missing files are
// skipped.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
	setString(&cfg.HTTP.IngestPath, "INGEST_PATH")
	if err := setInt64(&cfg.HTTP.MaxBodyBytes, "MAX_BODY_BYTES"); err != nil {
		return err
	}
	if value := os.Getenv(envPrefix + "DISPATCH_ORDER"); value != "" {
		cfg.Dispatch.Order = splitCSV(value)
	}
	setString(&cfg.Dispatch.Timezone, "TIMEZONE")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	if value := os.Getenv(envPrefix + "FORWARD_LOG"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("config: %sFORWARD_LOG: %w", envPrefix, err)
		}
		cfg.Forward.Log = parsed
	}
	setString(&cfg.Forward.Postgres.DSN, "PG_DSN")
	setString(&cfg.Forward.Postgres.Table, "PG_TABLE")
	setString(&cfg.Forward.Influx.URL, "INFLUX_URL")
	setString(&cfg.Forward.Influx.Token, "INFLUX_TOKEN")
	setString(&cfg.Forward.Influx.Org, "INFLUX_ORG")
	setString(&cfg.Forward.Influx.Bucket, "INFLUX_BUCKET")
	setString(&cfg.Forward.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Forward.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Forward.Redis.Channel, "REDIS_CHANNEL")
	if value := os.Getenv(envPrefix + "REDIS_DB"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: %sREDIS_DB: %w", envPrefix, err)
		}
		cfg.Forward.Redis.DB = parsed
	}
	return nil
}

// Validate checks the settings the listener cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("config: http addr required"))
	}
	if !strings.HasPrefix(c.HTTP.IngestPath, "/") {
		errs = append(errs, fmt.Errorf("config: ingest path %q must start with /", c.HTTP.IngestPath))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("config: max body bytes must be positive"))
	}
	if len(c.Dispatch.Order) == 0 {
		errs = append(errs, errors.New("config: dispatch order required"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if influx := c.Forward.Influx; influx.Enabled() && (influx.Org == "" || influx.Bucket == "") {
		errs = append(errs, errors.New("config: influx org and bucket required"))
	}
	if c.Forward.Redis.Enabled() && c.Forward.Redis.Channel == "" {
		errs = append(errs, errors.New("config: redis channel required"))
	}
	return errors.Join(errs...)
}

// Location resolves the configured zone. Empty or "Local" is the host zone.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Dispatch.Timezone)
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", name, err)
	}
	return loc, nil
}

func setString(dst *string, key string) {
	if value := os.Getenv(envPrefix + key); value != "" {
		*dst = value
	}
}

func setInt64(dst *int64, key string) error {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("config: %s%s: %w", envPrefix, key, err)
	}
	*dst = parsed
	return nil
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
