package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix scopes environment overrides. Nested keys use a double
// underscore, e.g. AIRE_DATABASE__URL or AIRE_SOURCES__FETCH_TIMEOUT.
const EnvPrefix = "AIRE_"

// DefaultConfigPath is read when no explicit path is given.
const DefaultConfigPath = "configs/config.yaml"

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment" validate:"required"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Sources   SourcesConfig   `koanf:"sources"`
	Scoring   ScoringConfig   `koanf:"scoring"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// DatabaseConfig holds the Postgres connection settings. URL is deliberately
// not required here: collection and scoring run without a backend, and the
// store reports missing credentials when it is constructed.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns" validate:"gte=1"`
	MinConns        int32         `koanf:"min_conns" validate:"gte=0,ltefield=MaxConns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gt=0"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout" validate:"gt=0"`
	QueryTimeout    time.Duration `koanf:"query_timeout" validate:"gt=0"`
}

type RedisConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Addr       string        `koanf:"addr" validate:"required_if=Enabled true"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db" validate:"gte=0"`
	SummaryTTL time.Duration `koanf:"summary_ttl" validate:"gt=0"`
}

type SourcesConfig struct {
	AIIncidentsURL    string        `koanf:"ai_incidents_url" validate:"omitempty,url"`
	FetchTimeout      time.Duration `koanf:"fetch_timeout" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	UserAgent         string        `koanf:"user_agent"`
}

type ScoringConfig struct {
	Seed            uint64  `koanf:"seed"`
	TestSize        float64 `koanf:"test_size" validate:"gt=0,lt=1"`
	MinTrainingRows int     `koanf:"min_training_rows" validate:"gte=1"`
	RidgeLambda     float64 `koanf:"ridge_lambda" validate:"gte=0"`
}

type TelemetryConfig struct {
	Enabled       bool          `koanf:"enabled"`
	ServiceName   string        `koanf:"service_name" validate:"required"`
	OTLPEndpoint  string        `koanf:"otlp_endpoint" validate:"required_if=Enabled true"`
	SamplingRate  float64       `koanf:"sampling_rate" validate:"gte=0,lte=1"`
	ExportTimeout time.Duration `koanf:"export_timeout" validate:"gt=0"`
	BatchTimeout  time.Duration `koanf:"batch_timeout" validate:"gt=0"`
}

type MetricsConfig struct {
	ListenAddr string `koanf:"listen_addr"`
}

// Defaults returns the configuration used before any file or environment
// override is applied.
func Defaults() *Config {
	return &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        1,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  10 * time.Second,
			QueryTimeout:    15 * time.Second,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			SummaryTTL: 5 * time.Minute,
		},
		Sources: SourcesConfig{
			AIIncidentsURL:    "https://incidentdatabase.ai/api/v1/incidents",
			FetchTimeout:      10 * time.Second,
			RequestsPerSecond: 2,
			UserAgent:         "aire-backend",
		},
		Scoring: ScoringConfig{
			Seed:            42,
			TestSize:        0.2,
			MinTrainingRows: 5,
			RidgeLambda:     1e-3,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "aire-backend",
			OTLPEndpoint:  "localhost:4317",
			SamplingRate:  1.0,
			ExportTimeout: 30 * time.Second,
			BatchTimeout:  5 * time.Second,
		},
	}
}

// Load layers defaults, an optional YAML file and AIRE_ environment variables.
// An empty path falls back to DefaultConfigPath; a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// envKey maps AIRE_SOURCES__FETCH_TIMEOUT to sources.fetch_timeout.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
