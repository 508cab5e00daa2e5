package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/backloggery/library"
)

// cachedCmd represents the cached command
var cachedCmd = &cobra.Command{
	Use:   "cached [username...]",
	Short: "Load libraries into the cache and summarise them",
	Long: `Fetch the given users' libraries, or library.users from the config when
none are given, and print how many games each one holds.`,
	RunE: runCached,
}

func init() {
	rootCmd.AddCommand(cachedCmd)
}

func runCached(cmd *cobra.Command, args []string) error {
	usernames := args
	if len(usernames) == 0 {
		usernames = cfg.Library.Users
	}
	if len(usernames) == 0 {
		return fmt.Errorf("no usernames given and library.users is empty")
	}

	if _, err := libraryClient.GetLibraries(cmd.Context(), usernames); err != nil {
		return err
	}

	var libs []library.Library
	for _, username := range libraryClient.Usernames() {
		if lib, ok := libraryClient.Cached(username); ok {
			libs = append(libs, lib)
		}
	}

	fmt.Print(formatter.FormatCached(libs))
	return nil
}
