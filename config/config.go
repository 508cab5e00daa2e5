package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/s0up4200/backloggery/backloggery"
	"github.com/s0up4200/backloggery/filter"
)

// Load loads the configuration from file and environment. With an empty
// configPath the standard locations are searched and a missing file is not
// an error; an explicit path must exist.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix("BACKLOGGERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".backloggery"))
		}

		// Check /etc
		v.AddConfigPath("/etc/backloggery/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Backloggery defaults
	v.SetDefault("backloggery.url", backloggery.DefaultEndpoint)
	v.SetDefault("backloggery.contact", backloggery.DefaultContact)
	v.SetDefault("backloggery.timeout", 30*time.Second)

	// Library defaults
	v.SetDefault("library.concurrency", 4)

	// Search defaults
	v.SetDefault("search.match_mode", "all")
	v.SetDefault("search.cache_size", 100)
	v.SetDefault("search.batch_size", 500)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Backloggery.URL == "" {
		return fmt.Errorf("backloggery.url is required")
	}
	if u, err := url.Parse(cfg.Backloggery.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("backloggery.url must be an http(s) URL: %s", cfg.Backloggery.URL)
	}
	if cfg.Backloggery.Timeout < 0 {
		return fmt.Errorf("backloggery.timeout must not be negative")
	}

	if cfg.Library.Concurrency < 0 {
		return fmt.Errorf("library.concurrency must not be negative")
	}

	if _, err := filter.ParseMode(cfg.Search.MatchMode); err != nil {
		return fmt.Errorf("invalid search.match_mode: %s (must be 'any' or 'all')", cfg.Search.MatchMode)
	}

	for name, p := range cfg.Search.Presets {
		if err := validatePreset(name, p); err != nil {
			return err
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

func validatePreset(name string, p PresetConfig) error {
	hasFields := len(p.Fields) > 0
	hasExpr := strings.TrimSpace(p.Expression) != ""

	switch {
	case hasFields && hasExpr:
		return fmt.Errorf("search.presets.%s: set either fields or expression, not both", name)
	case !hasFields && !hasExpr:
		return fmt.Errorf("search.presets.%s: fields or expression is required", name)
	}

	if _, err := filter.ParseMode(p.MatchMode); err != nil {
		return fmt.Errorf("invalid search.presets.%s.match_mode: %s (must be 'any' or 'all')", name, p.MatchMode)
	}

	return nil
}

// FilterPresets converts the configured presets for a filter.Manager.
// A preset without its own match_mode inherits search.match_mode.
func (s SearchConfig) FilterPresets() (map[string]filter.Preset, error) {
	presets := make(map[string]filter.Preset, len(s.Presets))

	for name, p := range s.Presets {
		modeName := p.MatchMode
		if modeName == "" {
			modeName = s.MatchMode
		}
		mode, err := filter.ParseMode(modeName)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}

		presets[name] = filter.Preset{
			Fields:     p.Fields,
			Mode:       mode,
			Expression: strings.TrimSpace(p.Expression),
		}
	}

	return presets, nil
}
