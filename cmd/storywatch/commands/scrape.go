package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrapes a story page and stores its current statistics.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := getApp(cmd.Context())

		story, stats, err := app.Service.Scrape(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendRows([]table.Row{
			{"ID", story.ID},
			{"Name", story.Name},
			{"Author", story.AuthorName},
			{"Tags", strings.Join(stats.Tags, ", ")},
			{"Followers", count(stats.Followers)},
			{"Favourites", count(stats.Favourites)},
			{"Ratings", count(stats.Ratings)},
			{"Total views", count(stats.TotalViews)},
			{"Pages", count(stats.Pages)},
			{"Words", count(stats.WordCount)},
		})
		t.Render()
		return nil
	},
}
