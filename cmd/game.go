package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var gameOut outputFlags

// gameCmd represents the game command
var gameCmd = &cobra.Command{
	Use:   "game <game_inst_id>",
	Short: "Show a single game instance",
	Long:  `Fetch one game by its instance id. Single games are always fetched fresh.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGame,
}

func init() {
	gameOut.register(gameCmd)
	rootCmd.AddCommand(gameCmd)
}

func runGame(cmd *cobra.Command, args []string) error {
	if err := gameOut.validate(); err != nil {
		return err
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid game instance id: %s", args[0])
	}

	rec, err := libraryClient.GetGame(cmd.Context(), id)
	if err != nil {
		return err
	}

	if gameOut.json() {
		return printJSON(rec)
	}
	fmt.Print(formatter.FormatGame(rec, gameOut.options()))
	return nil
}
