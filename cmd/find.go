package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	findLimit int
	findJSON  bool
)

// findCmd represents the find command
var findCmd = &cobra.Command{
	Use:   "find <username> <title>",
	Short: "Find games by approximate title",
	Long:  `Rank a user's games by a fuzzy match of the query against their titles.`,
	Args:  cobra.MinimumNArgs(2),
	RunE:  runFind,
}

func init() {
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 10, "maximum number of matches to show (0 for all)")
	findCmd.Flags().BoolVar(&findJSON, "json", false, "print matching games as JSON")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	username := args[0]
	query := strings.Join(args[1:], " ")

	fetchedAt, matches, err := libraryClient.FindTitles(cmd.Context(), username, query)
	if err != nil {
		return err
	}

	if findLimit > 0 && len(matches) > findLimit {
		matches = matches[:findLimit]
	}

	logger.Debug().
		Str("query", query).
		Int("matches", len(matches)).
		Time("fetched_at", fetchedAt).
		Msg("Fuzzy title search")

	if findJSON {
		type match struct {
			Score int `json:"score"`
			Game  any `json:"game"`
		}
		out := make([]match, len(matches))
		for i, m := range matches {
			out[i] = match{Score: m.Score, Game: m.Game}
		}
		return printJSON(out)
	}

	fmt.Print(formatter.FormatTitleMatches(username, matches))
	return nil
}
