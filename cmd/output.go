package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/backloggery/library"
)

// output flags shared by commands that print games
type outputFlags struct {
	format  string
	compact bool
	fields  []string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "output", "o", "console", "output format (console or json)")
	cmd.Flags().BoolVar(&o.compact, "compact", false, "print one line per game")
	cmd.Flags().StringSliceVar(&o.fields, "show", nil, "extra fields to print for each game")
}

func (o *outputFlags) validate() error {
	switch strings.ToLower(o.format) {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (must be 'console' or 'json')", o.format)
	}
}

func (o *outputFlags) options() library.FormatOptions {
	return library.FormatOptions{Fields: o.fields, Compact: o.compact}
}

func (o *outputFlags) json() bool {
	return strings.EqualFold(o.format, "json")
}

// printJSON writes v as indented JSON. Records keep their field order.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printLibrary(lib library.Library, out *outputFlags) error {
	if out.json() {
		return printJSON(lib)
	}
	fmt.Print(formatter.FormatLibrary(lib, out.options()))
	return nil
}
