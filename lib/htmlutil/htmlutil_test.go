package htmlutil

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div class="tags">
			<a class="fiction-tag" href="/fictions/search?tagsAdd=fantasy">
				Fantasy
			</a>
			<a class="fiction-tag" href="/fictions/search?tagsAdd=litrpg">LitRPG</a>
		</div>`))
	require.NoError(t, err)

	anchors := GetAnchors(context.Background(), doc.Find("a.fiction-tag"))
	require.Equal(t, []Anchor{
		{Name: "Fantasy", Href: "/fictions/search?tagsAdd=fantasy"},
		{Name: "LitRPG", Href: "/fictions/search?tagsAdd=litrpg"},
	}, anchors)
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<h1>  The   <b>Long</b>
		Title </h1>`))
	require.NoError(t, err)

	require.Equal(t, "The Long Title", SelectionText(doc.Find("h1")))
	require.Equal(t, "", SelectionText(doc.Find("h2")))
}
