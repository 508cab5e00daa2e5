package cmd

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/s0up4200/backloggery/library"
)

var (
	libraryOut     outputFlags
	libraryRefresh bool
)

// libraryCmd represents the library command
var libraryCmd = &cobra.Command{
	Use:   "library <username> [username...]",
	Short: "Show the games in one or more libraries",
	Long: `Fetch and display every game tracked by the given users. Categorical
fields such as status and priority are shown as labels.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLibrary,
}

func init() {
	libraryOut.register(libraryCmd)
	libraryCmd.Flags().BoolVar(&libraryRefresh, "refresh", false, "ignore the cache and fetch again")
	rootCmd.AddCommand(libraryCmd)
}

func runLibrary(cmd *cobra.Command, args []string) error {
	if err := libraryOut.validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	usernames := make([]string, 0, len(args))
	for _, username := range args {
		if !slices.Contains(usernames, username) {
			usernames = append(usernames, username)
		}
	}

	if libraryRefresh {
		for _, username := range usernames {
			if _, err := libraryClient.Refresh(ctx, username); err != nil {
				return err
			}
		}
	}

	libs, err := libraryClient.GetLibraries(ctx, usernames)
	if err != nil {
		return err
	}

	ordered := make([]library.Library, 0, len(usernames))
	for _, username := range usernames {
		if lib, ok := libs[username]; ok {
			ordered = append(ordered, lib)
		}
	}

	if libraryOut.json() {
		if len(ordered) == 1 {
			return printJSON(ordered[0])
		}
		return printJSON(ordered)
	}

	for _, lib := range ordered {
		if err := printLibrary(lib, &libraryOut); err != nil {
			return err
		}
	}

	logger.Debug().Int("users", len(ordered)).Msg("Displayed libraries")
	return nil
}
