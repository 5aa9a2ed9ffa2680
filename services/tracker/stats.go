package tracker

import (
	"strings"
	"time"

	"storywatch-backend/lib/scrapers/royalroad"
	"storywatch-backend/lib/textutil"
)

// NormalizedStats is RawStats with every numeric field parsed. A nil field
// was either missing from the page or not a non-negative integer.
type NormalizedStats struct {
	FictionID   *string
	Title       *string
	AuthorName  *string
	AuthorID    *string
	Description *string
	CoverImage  *string
	Tags        []string

	Followers  *int64
	Favourites *int64
	Ratings    *int64
	TotalViews *int64
	Pages      *int64
	WordCount  *int64
}

func normalizeText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeCount(s *string) *int64 {
	if s == nil {
		return nil
	}
	n, ok := textutil.ParseCount(*s)
	if !ok {
		return nil
	}
	return &n
}

func Normalize(raw royalroad.RawStats) NormalizedStats {
	var tags []string
	for _, t := range raw.Tags {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}

	return NormalizedStats{
		FictionID:   normalizeText(raw.FictionID),
		Title:       normalizeText(raw.Title),
		AuthorName:  normalizeText(raw.AuthorName),
		AuthorID:    normalizeText(raw.AuthorID),
		Description: normalizeText(raw.Description),
		CoverImage:  normalizeText(raw.CoverImage),
		Tags:        tags,

		Followers:  normalizeCount(raw.Followers),
		Favourites: normalizeCount(raw.Favourites),
		Ratings:    normalizeCount(raw.Ratings),
		TotalViews: normalizeCount(raw.TotalViews),
		Pages:      normalizeCount(raw.Pages),
		WordCount:  normalizeCount(raw.WordCount),
	}
}

// Snapshot is the latest known set of counters of a story.
type Snapshot struct {
	Followers  *int64 `json:"followers,omitempty"`
	Ratings    *int64 `json:"ratings,omitempty"`
	Favourites *int64 `json:"favourites,omitempty"`
	TotalViews *int64 `json:"total_views,omitempty"`
	WordCount  *int64 `json:"word_count,omitempty"`
}

func (s NormalizedStats) Snapshot() Snapshot {
	return Snapshot{
		Followers:  s.Followers,
		Ratings:    s.Ratings,
		Favourites: s.Favourites,
		TotalViews: s.TotalViews,
		WordCount:  s.WordCount,
	}
}

// StoryRecord is a persisted story, identified by its source url.
type StoryRecord struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	FictionID  string    `json:"fiction_id,omitempty"`
	Name       string    `json:"name"`
	AuthorID   string    `json:"author_id,omitempty"`
	AuthorName string    `json:"author_name,omitempty"`
	Blurb      string    `json:"blurb,omitempty"`
	CoverImage string    `json:"cover_image,omitempty"`
	Latest     Snapshot  `json:"latest"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const BlurbLength = 130
