package commands

import (
	"fmt"
	"io"

	"storywatch-backend/services/tracker"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func count(n *int64) string {
	if n == nil {
		return "-"
	}
	return humanize.Comma(*n)
}

func renderStories(out io.Writer, stories []tracker.StoryRecord) {
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Name", "Author", "Followers", "Views", "Words", "Updated"})
	for _, s := range stories {
		t.AppendRow(table.Row{
			s.ID,
			s.Name,
			s.AuthorName,
			count(s.Latest.Followers),
			count(s.Latest.TotalViews),
			count(s.Latest.WordCount),
			humanize.Time(s.UpdatedAt),
		})
	}
	t.Render()
}

func renderBatch(out io.Writer, batch tracker.BatchReport) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Guild", "Member", "Story", "Event", "Message"})
	for _, r := range batch.Reports {
		story := r.Story.Name
		if story == "" {
			story = fmt.Sprint(r.Subscription.StoryID)
		}
		for _, a := range r.Announcements {
			t.AppendRow(table.Row{r.Subscription.GuildID, r.Subscription.MemberID, story, a.Key, a.Message})
		}
		if r.Transition != nil {
			t.AppendRow(table.Row{
				r.Subscription.GuildID,
				r.Subscription.MemberID,
				story,
				r.Transition.Achieved.String(),
				r.Transition.Message,
			})
		}
	}
	t.AppendFooter(table.Row{"", "", "", "evaluated", len(batch.Reports)})
	t.Render()

	if len(batch.Failures) == 0 {
		return
	}
	failures := newTable(out)
	failures.AppendHeader(table.Row{"Guild", "Member", "Story", "Error"})
	for _, f := range batch.Failures {
		failures.AppendRow(table.Row{
			f.Subscription.GuildID,
			f.Subscription.MemberID,
			f.Subscription.StoryID,
			f.Error,
		})
	}
	failures.Render()
}
