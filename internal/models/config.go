package models

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/facturaIA/identity-ocr-service/internal/idparse"
)

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	Parser  ParserConfig  `yaml:"parser"`
	Session SessionConfig `yaml:"session"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
}

// ParserConfig configures field extraction.
type ParserConfig struct {
	CurrentYear      int                `yaml:"current_year"`      // 0 = current calendar year
	NationalityTable string             `yaml:"nationality_table"` // empty = built-in table
	Output           idparse.OutputMode `yaml:"output"`            // nationality, country or code
}

// SessionConfig configures document sessions.
type SessionConfig struct {
	TTL                 time.Duration `yaml:"ttl"`
	SweepInterval       time.Duration `yaml:"sweep_interval"`
	MaxObservationBytes int64         `yaml:"max_observation_bytes"`
	ArchiveObservations bool          `yaml:"archive_observations"`
}

// AuthConfig configures operator tokens. The secret comes from JWT_SECRET.
type AuthConfig struct {
	Enabled  bool          `yaml:"enabled"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Port: 8080,
		Host: "0.0.0.0",
		Session: SessionConfig{
			TTL:                 30 * time.Minute,
			SweepInterval:       time.Minute,
			MaxObservationBytes: 1 << 20,
			ArchiveObservations: true,
		},
		Auth: AuthConfig{Enabled: true, TokenTTL: 12 * time.Hour},
		Log:  LogConfig{Level: "info"},
	}
}

// LoadConfig reads path over the defaults, then applies environment
// overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, errors.Wrap(err, "failed to read config file")
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return nil, errors.Wrap(err, "failed to parse config")
			}
		}
	}

	if err := applyEnv(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Newf("invalid port %d", c.Port)
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return errors.New("session sweep interval must be positive")
	}
	if c.Session.MaxObservationBytes <= 0 {
		return errors.New("max observation bytes must be positive")
	}
	if c.Parser.CurrentYear < 0 {
		return errors.Newf("invalid current year %d", c.Parser.CurrentYear)
	}
	return nil
}

// Override with environment variables if present
func applyEnv(config *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid PORT %q", v)
		}
		config.Port = port
	}
	if v := os.Getenv("HOST"); v != "" {
		config.Host = v
	}
	if v := os.Getenv("NATIONALITY_TABLE"); v != "" {
		config.Parser.NationalityTable = v
	}
	if v := os.Getenv("NATIONALITY_OUTPUT"); v != "" {
		mode, err := idparse.ParseOutputMode(v)
		if err != nil {
			return errors.Wrap(err, "invalid NATIONALITY_OUTPUT")
		}
		config.Parser.Output = mode
	}
	if v := os.Getenv("PARSER_CURRENT_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid PARSER_CURRENT_YEAR %q", v)
		}
		config.Parser.CurrentYear = year
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "invalid SESSION_TTL %q", v)
		}
		config.Session.TTL = ttl
	}
	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid AUTH_ENABLED %q", v)
		}
		config.Auth.Enabled = enabled
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
	return nil
}
