package utils

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for the boards service and the simulate command
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Board      BoardConfig      `yaml:"board"`
	HashIDs    HashIDsConfig    `yaml:"hashids"`
	Storage    StorageConfig    `yaml:"storage"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Simulation SimulationConfig `yaml:"simulation"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" validate:"gt=0,lte=65535"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

type BoardConfig struct {
	// MaxAttempts bounds the final generation search when the request does not set one
	MaxAttempts int `yaml:"max_attempts" validate:"gte=1"`
}

type HashIDsConfig struct {
	Salt          string `yaml:"salt" validate:"required"`
	MinHashLength int    `yaml:"min_hash_length" validate:"gte=0"`
}

type StorageConfig struct {
	Path           string        `yaml:"path" validate:"required_unless=InMemory true"`
	InMemory       bool          `yaml:"in_memory"`
	SyncWrites     bool          `yaml:"sync_writes"`
	GCInterval     time.Duration `yaml:"gc_interval" validate:"gte=0"`
	GCDiscardRatio float64       `yaml:"gc_discard_ratio" validate:"gte=0,lte=1"`
}

type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name" validate:"required"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	LogLevel     string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// SimulationConfig drives the local simulate command
type SimulationConfig struct {
	Rows           int           `yaml:"rows" validate:"gt=0"`
	Columns        int           `yaml:"columns" validate:"gt=0"`
	FrameRate      time.Duration `yaml:"frame_rate" validate:"gte=0"`
	MaxGenerations int           `yaml:"max_generations" validate:"gte=1"`
	RandomDensity  float64       `yaml:"random_density" validate:"gte=0,lte=1"`
	Pattern        string        `yaml:"pattern" validate:"required"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Board: BoardConfig{
			MaxAttempts: 100,
		},
		HashIDs: HashIDsConfig{
			Salt:          "go-gol-boards",
			MinHashLength: 8,
		},
		Storage: StorageConfig{
			Path:           "data/boards",
			SyncWrites:     true,
			GCInterval:     5 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "gol-boards",
			LogLevel:    "info",
		},
		Simulation: SimulationConfig{
			Rows:           30,
			Columns:        60,
			FrameRate:      150 * time.Millisecond,
			MaxGenerations: 1000,
			RandomDensity:  0.15,
			Pattern:        "mixed",
		},
	}
}

var configValidate = validator.New()

// LoadConfig loads configuration from a YAML file on top of the defaults, then applies
// environment overrides. An empty filename skips the file.
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return config, errors.Wrapf(err, "[LoadConfig] failed to read file: %+v", filename)
		}

		if err = yaml.Unmarshal(data, &config); err != nil {
			return config, errors.Wrapf(err, "[LoadConfig] failed to unmarshal data from file: %+v", filename)
		}
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return config, err
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// Validate checks every field against its validate tag
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return errors.Wrap(err, "[Config.Validate] invalid configuration")
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("GOL_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "[LoadConfig] invalid GOL_PORT: %q", v)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("GOL_MAX_ATTEMPTS"); ok {
		attempts, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "[LoadConfig] invalid GOL_MAX_ATTEMPTS: %q", v)
		}
		c.Board.MaxAttempts = attempts
	}
	if v, ok := lookup("GOL_STORAGE_PATH"); ok {
		c.Storage.Path = v
	}
	if v, ok := lookup("GOL_STORAGE_IN_MEMORY"); ok {
		inMemory, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "[LoadConfig] invalid GOL_STORAGE_IN_MEMORY: %q", v)
		}
		c.Storage.InMemory = inMemory
	}
	if v, ok := lookup("GOL_HASHIDS_SALT"); ok {
		c.HashIDs.Salt = v
	}
	if v, ok := lookup("GOL_LOG_LEVEL"); ok {
		c.Telemetry.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		c.Telemetry.OTLPEndpoint = v
	}
	return nil
}

// SlogLevel maps the configured log level to a slog.Level
func (c TelemetryConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
