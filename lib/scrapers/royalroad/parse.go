package royalroad

import (
	"context"
	"io"
	"regexp"
	"strings"

	"storywatch-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RawStats holds the values of a fiction page exactly as they appear in the
// markup. Every field is optional, a nil field means the page did not
// contain it.
type RawStats struct {
	FictionID   *string
	Title       *string
	AuthorName  *string
	AuthorID    *string
	Description *string
	CoverImage  *string
	Tags        []string

	Followers  *string
	Favourites *string
	Ratings    *string
	TotalViews *string
	Pages      *string
	WordCount  *string
}

var (
	profileRegex   = regexp.MustCompile(`/profile/(\d+)`)
	fictionIdRegex = regexp.MustCompile(`/fiction/(\d+)`)
	wordCountRegex = regexp.MustCompile(`from ([\d,]+) words`)
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FictionID extracts the numeric fiction id from a fiction url, it returns
// "" if there is none.
func FictionID(fictionUrl string) string {
	groups := fictionIdRegex.FindStringSubmatch(fictionUrl)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}

// ParseStory extracts RawStats from a fiction page.
func ParseStory(ctx context.Context, r io.Reader, storyUrl string) (RawStats, error) {
	ctx, span := tracer.Start(ctx, "ParseStory")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read document")
		return RawStats{}, &ParseError{URL: storyUrl, Err: err}
	}

	stats := RawStats{
		FictionID:  optional(FictionID(storyUrl)),
		Title:      optional(htmlutil.SelectionText(doc.Find(".fic-title h1"))),
		CoverImage: optional(strings.TrimSpace(doc.Find(".cover-art-container img").AttrOr("src", ""))),
	}

	author := doc.Find(".fic-title h4 a").First()
	stats.AuthorName = optional(htmlutil.SelectionText(author))
	if groups := profileRegex.FindStringSubmatch(author.AttrOr("href", "")); len(groups) == 2 {
		stats.AuthorID = &groups[1]
	}

	description := doc.Find(".fiction-info .description").First()
	if description.Length() == 0 {
		description = doc.Find(".description").First()
	}
	stats.Description = optional(strings.TrimSpace(description.Text()))

	for _, tag := range htmlutil.GetAnchors(ctx, doc.Find(".tags a.fiction-tag")) {
		if tag.Name != "" {
			stats.Tags = append(stats.Tags, tag.Name)
		}
	}

	parseLabelledStats(doc.Find(".fiction-info li"), &stats)

	doc.Find(".fiction-info li i[data-content]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		groups := wordCountRegex.FindStringSubmatch(s.AttrOr("data-content", ""))
		if len(groups) < 2 {
			return true
		}
		stats.WordCount = &groups[1]
		return false
	})

	span.AddEvent("parsed", trace.WithAttributes(
		attribute.Bool("has_title", stats.Title != nil),
		attribute.Bool("has_followers", stats.Followers != nil),
		attribute.Int("tags", len(stats.Tags)),
	))

	return stats, nil
}

// the stat list renders each label and its value as two consecutive list
// items, eg. <li>Followers :</li><li>1,234</li>
func parseLabelledStats(items *goquery.Selection, stats *RawStats) {
	fields := []struct {
		label string
		out   **string
	}{
		{label: "Followers", out: &stats.Followers},
		{label: "Favorites", out: &stats.Favourites},
		{label: "Ratings", out: &stats.Ratings},
		{label: "Total Views", out: &stats.TotalViews},
		{label: "Pages", out: &stats.Pages},
	}

	for i, node := range items.Nodes {
		text := strings.TrimSpace(htmlutil.CleanText(node))
		if !strings.HasSuffix(text, ":") {
			continue
		}
		for _, f := range fields {
			if !strings.HasPrefix(text, f.label) {
				continue
			}
			if i+1 >= len(items.Nodes) {
				continue
			}
			*f.out = optional(htmlutil.CleanText(items.Nodes[i+1]))
		}
	}
}
