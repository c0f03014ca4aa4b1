// Package config loads the settings of the fluid commands from flags,
// FLUID_* environment variables and an optional fluid.yaml.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/invakid404/fluid/descriptor"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "FLUID"
	FileName  = "fluid"
)

var (
	ErrInvalidFormat = errors.New("config: invalid descriptor format")
	ErrInvalidScope  = errors.New("config: invalid scope pattern")
	ErrInvalidSource = errors.New("config: invalid source mapping")
)

type Config struct {
	// Out is the directory descriptors and Go sources are written to.
	Out    string `mapstructure:"out"`
	Format string `mapstructure:"format"`
	// Scope restricts generation to packages matching a doublestar pattern.
	Scope       string `mapstructure:"scope"`
	PackageBase string `mapstructure:"package-base"`
	// Docs is a YAML documentation file.
	Docs string `mapstructure:"docs"`
	// Sources are "dir=import/path" pairs scanned for doc comments.
	Sources   []string `mapstructure:"sources"`
	TrackPath bool     `mapstructure:"track-path"`
	GoSource  bool     `mapstructure:"go-source"`
	LogLevel  string   `mapstructure:"log-level"`
	Pretty    bool     `mapstructure:"pretty"`
}

func DefaultConfig() *Config {
	return &Config{
		Out:         "fluid-out",
		Format:      string(descriptor.FormatYAML),
		PackageBase: "github.com/invakid404/fluid/api",
		TrackPath:   true,
		GoSource:    true,
		LogLevel:    "info",
	}
}

// Load builds a Config. Defaults come from DefaultConfig and are overridden
// by the config file, then the environment, then flags that were set. An
// empty path searches the working directory for fluid.yaml and tolerates its
// absence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("out", defaults.Out)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("scope", defaults.Scope)
	v.SetDefault("package-base", defaults.PackageBase)
	v.SetDefault("docs", defaults.Docs)
	v.SetDefault("sources", defaults.Sources)
	v.SetDefault("track-path", defaults.TrackPath)
	v.SetDefault("go-source", defaults.GoSource)
	v.SetDefault("log-level", defaults.LogLevel)
	v.SetDefault("pretty", defaults.Pretty)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch descriptor.Format(c.Format) {
	case descriptor.FormatYAML, descriptor.FormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}

	if c.Scope != "" && !doublestar.ValidatePattern(c.Scope) {
		return fmt.Errorf("%w: %q", ErrInvalidScope, c.Scope)
	}

	if _, err := c.SourceMap(); err != nil {
		return err
	}

	return nil
}

// SourceMap splits Sources into directory to import path.
func (c *Config) SourceMap() (map[string]string, error) {
	sources := make(map[string]string, len(c.Sources))
	for _, source := range c.Sources {
		dir, pkgPath, ok := strings.Cut(source, "=")
		if !ok || dir == "" || pkgPath == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSource, source)
		}
		sources[dir] = pkgPath
	}

	return sources, nil
}

// Extension is the file extension of descriptors in the configured format.
func (c *Config) Extension() string {
	return "." + c.Format
}
