/*
config.go - Service configuration

PURPOSE:
  One Config struct for the server, database, auth, logging and tracing.
  Values come from three layers, later layers win:
   1. Default()
   2. YAML file (--config flag)
   3. Environment variables

ENVIRONMENT:
  CONFIGURATOR_PORT             HTTP port
  CONFIGURATOR_DB_DRIVER        sqlite | postgres
  DATABASE_URL                  DSN (file path for sqlite)
  CONFIGURATOR_AUTH_ENABLED     true | false (default true; false is for local development only)
  CONFIGURATOR_JWT_SECRET       HS256 signing secret
  CONFIGURATOR_LOG_MODE         dev | prod | auto
  CONFIGURATOR_TRACING_ENABLED  true | false
  OTEL_EXPORTER_OTLP_ENDPOINT   enables the otlp exporter when set

EXAMPLE (configurator.yaml):
  server:
    port: 8080
    allowed_origins: ["http://localhost:5173"]
  database:
    driver: postgres
    dsn: postgres://configurator@localhost:5432/configurator?sslmode=disable
  auth:
    enabled: true
    jwt_secret: change-me
  log:
    mode: prod

SEE ALSO:
  - cmd/server/main.go: flag overrides on top of Load
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Auth     Auth     `yaml:"auth"`
	Log      Log      `yaml:"log"`
	Tracing  Tracing  `yaml:"tracing"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// Database selects the driver and DSN.
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Auth configures bearer token checks on the API.
type Auth struct {
	Enabled   bool          `yaml:"enabled"`
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// Log selects the logger mode.
type Log struct {
	Mode string `yaml:"mode"`
}

// Tracing configures the OpenTelemetry exporter.
type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Default returns the baseline configuration. Authentication is on and
// still needs a secret; turning it off is an explicit opt-in.
func Default() Config {
	return Config{
		Server: Server{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Database: Database{
			Driver: DriverSQLite,
			DSN:    "configurator.db",
		},
		Auth: Auth{
			Enabled:  true,
			Issuer:   "solution-configurator",
			TokenTTL: 8 * time.Hour,
		},
		Log: Log{Mode: "auto"},
		Tracing: Tracing{
			Exporter:    "stdout",
			SampleRatio: 1,
		},
	}
}

// Load reads the optional YAML file at path and applies environment overrides.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("CONFIGURATOR_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONFIGURATOR_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v, ok := get("CONFIGURATOR_DB_DRIVER"); ok {
		cfg.Database.Driver = strings.ToLower(v)
	}
	if v, ok := get("DATABASE_URL"); ok {
		cfg.Database.DSN = v
	}
	if v, ok := get("CONFIGURATOR_AUTH_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CONFIGURATOR_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = b
	}
	if v, ok := get("CONFIGURATOR_JWT_SECRET"); ok {
		cfg.Auth.JWTSecret = v
	}
	if v, ok := get("CONFIGURATOR_LOG_MODE"); ok {
		cfg.Log.Mode = v
	}
	if v, ok := get("CONFIGURATOR_TRACING_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CONFIGURATOR_TRACING_ENABLED: %w", err)
		}
		cfg.Tracing.Enabled = b
	}
	if v, ok := get("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		cfg.Tracing.Exporter = "otlp"
		cfg.Tracing.Endpoint = v
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Auth.Enabled && len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 bytes when auth is enabled"))
	}
	switch c.Tracing.Exporter {
	case "", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter %q unknown", c.Tracing.Exporter))
	}
	return errors.Join(errs...)
}
