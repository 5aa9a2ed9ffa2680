package royalroad

import (
	"context"
	"io"

	"storywatch-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MainCategory is the overall Rising Stars list, every other category is a
// genre list.
const MainCategory = "main"

// ListedFiction is one row of a Rising Stars list. Position starts at 1.
type ListedFiction struct {
	FictionID string
	Title     string
	Href      string
	Position  int
}

// ParseRisingStars extracts the listed fictions of a Rising Stars page in
// page order. Rows without a fiction link are skipped and do not take up a
// position.
func ParseRisingStars(ctx context.Context, r io.Reader, pageUrl string) ([]ListedFiction, error) {
	ctx, span := tracer.Start(ctx, "ParseRisingStars")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read document")
		return nil, &ParseError{URL: pageUrl, Err: err}
	}

	var listed []ListedFiction
	for _, a := range htmlutil.GetAnchors(ctx, doc.Find(".fiction-list-item h2.fiction-title a[href]")) {
		id := FictionID(a.Href)
		if id == "" {
			continue
		}
		listed = append(listed, ListedFiction{
			FictionID: id,
			Title:     a.Name,
			Href:      a.Href,
			Position:  len(listed) + 1,
		})
	}

	span.SetAttributes(attribute.Int("listed", len(listed)))
	return listed, nil
}
