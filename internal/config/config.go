package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabsum/internal/table"
)

// Global configuration structure.
type Global struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`

	// Table loading
	CSVDelimiter  string   `mapstructure:"csv_delimiter" yaml:"csv_delimiter" validate:"len=1"`
	CSVEncoding   string   `mapstructure:"csv_encoding" yaml:"csv_encoding" validate:"required"`
	ExcelEngine   string   `mapstructure:"excel_engine" yaml:"excel_engine" validate:"oneof=excelize tealeg"`
	MissingValues []string `mapstructure:"missing_values" yaml:"missing_values"`

	// Statistics
	ValueCountsMax int `mapstructure:"value_counts_max" yaml:"value_counts_max" validate:"gte=0"`
}

var validate = validator.New()

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		LogLevel:       "info",
		LogFormat:      "text",
		CSVDelimiter:   ",",
		CSVEncoding:    "utf-8",
		ExcelEngine:    table.EngineExcelize,
		MissingValues:  table.DefaultMissingValues(),
		ValueCountsMax: 10,
	}
}

// Validate checks field values against their allowed ranges.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultPath returns ~/.tabsum/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabsum", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabsum/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command-line flags are applied
// by the caller on top of the result.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABSUM")
	v.AutomaticEnv()

	// Defaults
	d := Defaults()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("csv_delimiter", d.CSVDelimiter)
	v.SetDefault("csv_encoding", d.CSVEncoding)
	v.SetDefault("excel_engine", d.ExcelEngine)
	v.SetDefault("missing_values", d.MissingValues)
	v.SetDefault("value_counts_max", d.ValueCountsMax)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		// a named file that does not exist yet is created by Save
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".tabsum"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// TableOptions maps the loading settings onto reader options.
func (c *Global) TableOptions() table.Options {
	opt := table.DefaultOptions()
	if r := []rune(c.CSVDelimiter); len(r) == 1 {
		opt.Delimiter = r[0]
	}
	if c.CSVEncoding != "" {
		opt.Encoding = c.CSVEncoding
	}
	if c.ExcelEngine != "" {
		opt.ExcelEngine = c.ExcelEngine
	}
	if c.MissingValues != nil {
		opt.MissingValues = c.MissingValues
	}
	return opt
}
