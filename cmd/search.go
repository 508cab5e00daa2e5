package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/backloggery/filter"
	"github.com/s0up4200/backloggery/library"
)

var (
	searchOut        outputFlags
	searchFields     map[string]string
	searchPredicates string
	searchAny        bool
	searchPreset     string
	searchExpr       string
	searchRefresh    bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <username>",
	Short: "Search a library by field patterns, expression or preset",
	Long: `Search a user's library. Field patterns are regular expressions that must
match at the start of the field's value:

  backloggery search Drumble -f abbr='(?i)gcn' -f title='(?i)mario'
  backloggery search Drumble --predicates '{"abbr": "(?i)gcn"}' --any
  backloggery search Drumble -e 'status == "Beaten" and abbr in ["GCN", "PS2"]'
  backloggery search Drumble -p gamecube

Patterns are combined with search.match_mode from the config (default all)
unless --any is given. With no criteria every game is listed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchOut.register(searchCmd)
	searchCmd.Flags().StringToStringVarP(&searchFields, "field", "f", nil, "field=pattern to match (repeatable)")
	searchCmd.Flags().StringVar(&searchPredicates, "predicates", "", "JSON object of field patterns")
	searchCmd.Flags().BoolVar(&searchAny, "any", false, "match games satisfying any pattern instead of all")
	searchCmd.Flags().StringVarP(&searchPreset, "preset", "p", "", "use a preset search from config")
	searchCmd.Flags().StringVarP(&searchExpr, "expr", "e", "", "expression filter")
	searchCmd.Flags().BoolVar(&searchRefresh, "refresh", false, "ignore the cache and fetch again")
	searchCmd.MarkFlagsMutuallyExclusive("field", "predicates", "preset", "expr")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := searchOut.validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	username := args[0]

	if searchRefresh {
		if _, err := libraryClient.Refresh(ctx, username); err != nil {
			return err
		}
	}

	var (
		result library.Library
		err    error
	)

	switch {
	case searchPreset != "":
		f, ok := presets.GetPreset(searchPreset)
		if !ok {
			return fmt.Errorf("preset '%s' not found in config", searchPreset)
		}
		logger.Info().Str("preset", searchPreset).Str("filter", f.Expression()).Msg("Searching library")
		result, err = libraryClient.SearchLibraryWith(ctx, username, f)

	case searchExpr != "":
		logger.Info().Str("filter", searchExpr).Msg("Searching library")
		result, err = libraryClient.SearchLibraryExpr(ctx, username, searchExpr)

	default:
		result, err = searchByPredicates(cmd, username)
	}
	if err != nil {
		return err
	}

	return printLibrary(result, &searchOut)
}

func searchByPredicates(cmd *cobra.Command, username string) (library.Library, error) {
	predicates := searchFields
	if searchPredicates != "" {
		parsed, err := filter.ParsePredicates(searchPredicates)
		if err != nil {
			return library.Library{}, err
		}
		predicates = parsed
	}

	matchAny, err := matchAnyFor(cmd)
	if err != nil {
		return library.Library{}, err
	}

	logger.Info().
		Interface("predicates", predicates).
		Bool("any", matchAny).
		Msg("Searching library")

	return libraryClient.SearchLibrary(cmd.Context(), username, predicates, matchAny)
}

// matchAnyFor resolves --any against the configured default match mode
func matchAnyFor(cmd *cobra.Command) (bool, error) {
	if cmd.Flags().Changed("any") {
		return searchAny, nil
	}
	mode, err := filter.ParseMode(cfg.Search.MatchMode)
	if err != nil {
		return false, err
	}
	return mode == filter.MatchAny, nil
}
