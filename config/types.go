package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Backloggery BackloggeryConfig `mapstructure:"backloggery"`
	Library     LibraryConfig     `mapstructure:"library"`
	Search      SearchConfig      `mapstructure:"search"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// BackloggeryConfig holds the remote service connection details
type BackloggeryConfig struct {
	URL     string        `mapstructure:"url"`
	Contact string        `mapstructure:"contact"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LibraryConfig contains cache and batch fetch settings
type LibraryConfig struct {
	Concurrency int      `mapstructure:"concurrency"`
	Users       []string `mapstructure:"users"`
}

// SearchConfig contains search defaults and named presets
type SearchConfig struct {
	MatchMode string                  `mapstructure:"match_mode"`
	CacheSize int                     `mapstructure:"cache_size"`
	Workers   int                     `mapstructure:"workers"`
	BatchSize int                     `mapstructure:"batch_size"`
	Presets   map[string]PresetConfig `mapstructure:"presets"`
}

// PresetConfig is a named search. Exactly one of Fields or Expression is set.
// Field names are case-insensitive keys in the file and are lowercased on load.
type PresetConfig struct {
	Fields     map[string]string `mapstructure:"fields"`
	MatchMode  string            `mapstructure:"match_mode"`
	Expression string            `mapstructure:"expression"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
