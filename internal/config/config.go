// Package config loads ledger settings from file, environment and flags.
package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. LEDGER_DATABASE_PATH.
const EnvPrefix = "LEDGER"

// Config is the typed view of the ledger configuration.
type Config struct {
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`

	Currency string `mapstructure:"currency"`

	Patterns struct {
		File string `mapstructure:"file"`
	} `mapstructure:"patterns"`

	Extract struct {
		TieBreak string `mapstructure:"tie_break"`
	} `mapstructure:"extract"`

	Import struct {
		Delimiter string `mapstructure:"delimiter"`
		PDFToText string `mapstructure:"pdftotext"`
		Workers   int    `mapstructure:"workers"`
	} `mapstructure:"import"`

	Capture struct {
		QueueSize int `mapstructure:"queue_size"`
		Workers   int `mapstructure:"workers"`
	} `mapstructure:"capture"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("currency", "INR")
	v.SetDefault("patterns.file", "")
	v.SetDefault("extract.tie_break", string(model.DirectionDebit))
	v.SetDefault("import.delimiter", ",")
	v.SetDefault("import.pdftotext", "pdftotext")
	v.SetDefault("import.workers", 4)
	v.SetDefault("capture.queue_size", 64)
	v.SetDefault("capture.workers", 2)
}

// Load unmarshals v into a Config, expands paths and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Patterns.File = ExpandPath(cfg.Patterns.File)
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'console' or 'json')", c.Logging.Format)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if _, err := c.TieBreak(); err != nil {
		return err
	}
	if utf8.RuneCountInString(c.Import.Delimiter) != 1 {
		return fmt.Errorf("import.delimiter must be a single character, got: %q", c.Import.Delimiter)
	}
	if c.Capture.QueueSize < 1 {
		return fmt.Errorf("capture.queue_size must be positive, got: %d", c.Capture.QueueSize)
	}
	if c.Capture.Workers < 1 {
		return fmt.Errorf("capture.workers must be positive, got: %d", c.Capture.Workers)
	}
	if c.Import.Workers < 1 {
		return fmt.Errorf("import.workers must be positive, got: %d", c.Import.Workers)
	}
	return nil
}

// TieBreak is the direction the extractor picks when debit and credit words both appear.
func (c *Config) TieBreak() (model.Direction, error) {
	switch d := model.Direction(strings.ToLower(strings.TrimSpace(c.Extract.TieBreak))); d {
	case model.DirectionDebit, model.DirectionCredit:
		return d, nil
	default:
		return "", fmt.Errorf("extract.tie_break must be %q or %q, got: %q",
			model.DirectionDebit, model.DirectionCredit, c.Extract.TieBreak)
	}
}

// Delimiter returns the import delimiter as a rune.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Import.Delimiter)
	return r
}
