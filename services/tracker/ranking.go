package tracker

import (
	"slices"

	"storywatch-backend/lib/scrapers/royalroad"
)

// Genres are the Rising Stars genre lists that count toward RSGenre.
var Genres = []string{
	"adventure",
	"action",
	"comedy",
	"fantasy",
	"historical",
	"horror",
	"mystery",
	"psychological",
	"romance",
	"satire",
	"sci_fi",
	"one_shot",
	"tragedy",
}

// LeaderboardEntry is the best position a story has held on one Rising
// Stars list. Active is false once the story drops off the list.
type LeaderboardEntry struct {
	StoryID         int64  `json:"story_id"`
	Category        string `json:"category"`
	HighestPosition int    `json:"highest_position"`
	Active          bool   `json:"active"`
}

type GenrePosition struct {
	Genre    string `json:"genre"`
	Position *int   `json:"position,omitempty"`
}

// MergedStats is NormalizedStats combined with a story's current Rising
// Stars standing.
type MergedStats struct {
	NormalizedStats

	RSMain      bool            `json:"rs_main"`
	RSPosition  *int            `json:"rs_position,omitempty"`
	RSTop10     bool            `json:"rs_top10"`
	RSGenre     bool            `json:"rs_genre"`
	RSGenreList []GenrePosition `json:"rs_genre_list,omitempty"`
}

// Aggregate merges the leaderboard entries of one story into its stats.
// Inactive entries are ignored.
func Aggregate(stats NormalizedStats, entries []LeaderboardEntry) MergedStats {
	merged := MergedStats{NormalizedStats: stats}

	for _, e := range entries {
		if !e.Active {
			continue
		}

		var position *int
		if e.HighestPosition > 0 {
			p := e.HighestPosition
			position = &p
		}

		if e.Category == royalroad.MainCategory {
			merged.RSMain = true
			merged.RSPosition = position
			merged.RSTop10 = position != nil && *position <= 10
			continue
		}

		if slices.Contains(Genres, e.Category) {
			merged.RSGenre = true
			merged.RSGenreList = append(merged.RSGenreList, GenrePosition{
				Genre:    e.Category,
				Position: position,
			})
		}
	}

	return merged
}

func value(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

// Stat returns the current value of a named statistic. Missing and unknown
// statistics are 0.
func (m MergedStats) Stat(name string) int64 {
	switch name {
	case "followers":
		return value(m.Followers)
	case "favourites":
		return value(m.Favourites)
	case "ratings":
		return value(m.Ratings)
	case "totalViews":
		return value(m.TotalViews)
	case "pages":
		return value(m.Pages)
	case "wordCount":
		return value(m.WordCount)
	case "rsPosition":
		if m.RSPosition == nil {
			return 0
		}
		return int64(*m.RSPosition)
	}
	return 0
}
