package cmd

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/s0up4200/backloggery/config"
)

func TestSetupLogger(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			setupLogger(config.LoggingConfig{Level: tt.level, Format: "json"})
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestOutputFlags(t *testing.T) {
	out := outputFlags{format: "JSON", compact: true, fields: []string{"notes"}}
	assert.NoError(t, out.validate())
	assert.True(t, out.json())
	assert.Equal(t, []string{"notes"}, out.options().Fields)
	assert.True(t, out.options().Compact)

	out.format = "yaml"
	assert.Error(t, out.validate())
}

func TestMatchAnyFor(t *testing.T) {
	prevCfg, prevAny := cfg, searchAny
	t.Cleanup(func() { cfg, searchAny = prevCfg, prevAny })

	newCmd := func() *cobra.Command {
		c := &cobra.Command{Use: "search"}
		c.Flags().BoolVar(&searchAny, "any", false, "")
		return c
	}

	cfg = &config.Config{Search: config.SearchConfig{MatchMode: "any"}}
	c := newCmd()
	matchAny, err := matchAnyFor(c)
	assert.NoError(t, err)
	assert.True(t, matchAny, "config default applies without the flag")

	c = newCmd()
	assert.NoError(t, c.Flags().Set("any", "false"))
	matchAny, err = matchAnyFor(c)
	assert.NoError(t, err)
	assert.False(t, matchAny, "an explicit flag wins")

	cfg = &config.Config{Search: config.SearchConfig{MatchMode: "all"}}
	matchAny, err = matchAnyFor(newCmd())
	assert.NoError(t, err)
	assert.False(t, matchAny)
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"library", "game", "search", "find", "cached", "version", "update"} {
		assert.True(t, names[want], want)
	}
	assert.Equal(t, "true", versionCmd.Annotations[skipInit])
}
