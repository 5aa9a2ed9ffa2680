package commands

import (
	"strings"

	"storywatch-backend/services/tracker"

	"github.com/spf13/cobra"
)

var (
	listGuild  string
	listMember string
)

func init() {
	storiesListCmd.Flags().StringVar(&listGuild, "guild", "", "Only list the stories tracked in this guild (requires --member).")
	storiesListCmd.Flags().StringVar(&listMember, "member", "", "Only list the stories tracked by this member.")
	storiesCmd.AddCommand(storiesListCmd)
	storiesCmd.AddCommand(storiesFindCmd)
	rootCmd.AddCommand(storiesCmd)
}

var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "Inspects the stored stories.",
}

var storiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists stored stories.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := getApp(cmd.Context())

		var stories []tracker.StoryRecord
		var err error
		if listGuild != "" && listMember != "" {
			stories, err = app.Store.MemberStories(cmd.Context(), listGuild, listMember)
		} else {
			stories, err = app.Store.ListStories(cmd.Context())
		}
		if err != nil {
			return err
		}
		renderStories(cmd.OutOrStdout(), stories)
		return nil
	},
}

var storiesFindCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Finds stored stories by name.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := getApp(cmd.Context())

		stories, err := app.Store.SearchStories(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		renderStories(cmd.OutOrStdout(), stories)
		return nil
	},
}
