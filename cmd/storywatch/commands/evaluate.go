package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(risingStarsCmd)
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [guild]",
	Short: "Re-scrapes tracked stories and announces new milestones and ranks.",
	Long:  "Re-scrapes the stories tracked in a guild, or in every guild when none is given, and announces new milestones and ranks.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := getApp(cmd.Context())

		guild := ""
		if len(args) == 1 {
			guild = args[0]
		}
		batch, err := app.Service.RunLiveStats(cmd.Context(), guild)
		if err != nil {
			return err
		}
		renderBatch(cmd.OutOrStdout(), batch)
		return nil
	},
}

var risingStarsCmd = &cobra.Command{
	Use:   "risingstars",
	Short: "Refreshes the Rising Stars lists and announces stories newly on the main list.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := getApp(cmd.Context())

		batch, err := app.Service.RunRisingStars(cmd.Context())
		if err != nil {
			return err
		}
		renderBatch(cmd.OutOrStdout(), batch)
		return nil
	},
}
