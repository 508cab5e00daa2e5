package library

import (
	"fmt"
	"strings"
	"time"

	"github.com/s0up4200/backloggery/filter"
	"github.com/s0up4200/backloggery/game"
)

// FormatOptions controls console output
type FormatOptions struct {
	// Fields lists extra record fields to print under each game
	Fields []string
	// Compact prints one line per game
	Compact bool
}

// ConsoleFormatter provides console output formatting for libraries
type ConsoleFormatter struct{}

var _ Formatter = (*ConsoleFormatter)(nil)

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatLibrary formats a library for console display
func (f *ConsoleFormatter) FormatLibrary(lib Library, options FormatOptions) string {
	if len(lib.Games) == 0 {
		return fmt.Sprintf("No games found for %s\n", lib.Username)
	}

	var sb strings.Builder

	sb.WriteString("\nGame")
	if len(lib.Games) != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " for %s (%d, fetched %s):\n\n", lib.Username, len(lib.Games), lib.FetchedAt.Format(time.RFC3339))

	for i, g := range lib.Games {
		isLast := i == len(lib.Games)-1
		f.formatGame(&sb, g, isLast, options)

		if !isLast && !options.Compact {
			sb.WriteString("│\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatGame formats a single game
func (f *ConsoleFormatter) FormatGame(g game.Record, options FormatOptions) string {
	var sb strings.Builder
	sb.WriteString("\n")
	f.formatGame(&sb, g, true, options)
	sb.WriteString("\n")
	return sb.String()
}

// FormatTitleMatches formats fuzzy title matches, best first
func (f *ConsoleFormatter) FormatTitleMatches(username string, matches []filter.TitleMatch) string {
	if len(matches) == 0 {
		return fmt.Sprintf("No matching titles for %s\n", username)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nMatching titles for %s (%d):\n\n", username, len(matches))

	for i, m := range matches {
		prefix := "├"
		if i == len(matches)-1 {
			prefix = "╰"
		}
		fmt.Fprintf(&sb, "%s── %s%s (score %d)\n", prefix, m.Game.Title(), platformSuffix(m.Game), m.Score)
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatCached formats a summary of cached libraries
func (f *ConsoleFormatter) FormatCached(libs []Library) string {
	if len(libs) == 0 {
		return "No libraries cached\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nCached libraries (%d):\n\n", len(libs))

	for i, lib := range libs {
		prefix := "├"
		if i == len(libs)-1 {
			prefix = "╰"
		}
		fmt.Fprintf(&sb, "%s── %s: %d games (fetched %s)\n",
			prefix, lib.Username, len(lib.Games), lib.FetchedAt.Format(time.RFC3339))
	}

	sb.WriteString("\n")
	return sb.String()
}

// formatGame formats a single game entry
func (f *ConsoleFormatter) formatGame(sb *strings.Builder, g game.Record, isLast bool, options FormatOptions) {
	prefix := "├"
	if isLast {
		prefix = "╰"
	}

	title := g.Title()
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(sb, "%s── %s%s\n", prefix, title, platformSuffix(g))

	if options.Compact {
		return
	}

	indent := "│   "
	if isLast {
		indent = "    "
	}

	writeParts(sb, indent, g, []labelled{
		{"Status", "status"},
		{"Priority", "priority"},
	})
	writeParts(sb, indent, g, []labelled{
		{"Own", "own"},
		{"Format", "phys_digi"},
		{"Region", "region"},
	})
	writeParts(sb, indent, g, []labelled{
		{"Rating", "rating"},
		{"Difficulty", "difficulty"},
	})

	if total := g.Label("achieve_total"); total != "" && total != "0" {
		fmt.Fprintf(sb, "%sAchievements: %s/%s\n", indent, g.Label("achieve_score"), total)
	}

	if notes := g.Label("notes"); notes != "" {
		fmt.Fprintf(sb, "%sNotes: %s\n", indent, notes)
	}

	for _, field := range options.Fields {
		v, ok := g.Get(field)
		if !ok {
			continue
		}
		fmt.Fprintf(sb, "%s%s: %s\n", indent, field, v)
	}
}

type labelled struct {
	title string
	field string
}

// writeParts prints the non-empty fields joined on one line
func writeParts(sb *strings.Builder, indent string, g game.Record, fields []labelled) {
	var parts []string
	for _, l := range fields {
		if text := g.Label(l.field); text != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", l.title, text))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(sb, "%s%s\n", indent, strings.Join(parts, " | "))
	}
}

func platformSuffix(g game.Record) string {
	platform := g.Platform()
	if sub := g.Label("sub_abbr"); sub != "" {
		platform = sub
	}
	if platform == "" {
		return ""
	}
	return " [" + platform + "]"
}
