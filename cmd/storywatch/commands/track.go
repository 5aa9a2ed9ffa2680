package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var memberName string

func init() {
	trackCmd.Flags().StringVar(&memberName, "name", "", "Display name of the member, defaults to the member id.")
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(untrackCmd)
}

var trackCmd = &cobra.Command{
	Use:   "track <guild> <member> <url>",
	Short: "Subscribes a guild member to a story.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := getApp(cmd.Context())

		name := memberName
		if name == "" {
			name = args[1]
		}
		story, err := app.Service.TrackStory(cmd.Context(), args[0], args[1], name, args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s now tracks %q (id %d)\n", name, story.Name, story.ID)
		return nil
	},
}

var untrackCmd = &cobra.Command{
	Use:   "untrack <guild> <member>",
	Short: "Removes every story tracked by a guild member.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := getApp(cmd.Context())

		n, err := app.Store.Untrack(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d tracked stories\n", n)
		return nil
	},
}
