package tracker

import (
	"context"

	"storywatch-backend/lib/scrapers/royalroad"
)

// Subscription ties a story to the guild member who tracks it.
type Subscription struct {
	GuildID    string `json:"guild_id"`
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
	StoryID    int64  `json:"story_id"`
}

type Fetcher interface {
	FetchStory(ctx context.Context, storyUrl string) (royalroad.RawStats, error)
	FetchRisingStars(ctx context.Context, category string) ([]royalroad.ListedFiction, error)
}

type StoryRepository interface {
	// UpsertStory creates or updates the story stored under url and
	// overwrites its latest snapshot.
	UpsertStory(ctx context.Context, url string, stats NormalizedStats) (StoryRecord, error)
	GetStory(ctx context.Context, id int64) (StoryRecord, error)
}

type Leaderboard interface {
	ActiveEntries(ctx context.Context, storyID int64) ([]LeaderboardEntry, error)
	// RecordListing stores the ordered fiction ids currently listed on a
	// category, every story of the category not listed becomes inactive.
	RecordListing(ctx context.Context, category string, fictionIDs []string) error
}

type Registry interface {
	Track(ctx context.Context, sub Subscription) error
	// Subscriptions lists the subscriptions of a guild, or of every guild
	// when guildID is "".
	Subscriptions(ctx context.Context, guildID string) ([]Subscription, error)
}

// StateStore persists what has already been announced. Flags only ever go
// from false to true and ranks only ever increase.
type StateStore interface {
	AnnouncedThresholds(ctx context.Context, guildID string, storyID int64) (map[string]bool, error)
	MarkAnnounced(ctx context.Context, guildID string, storyID int64, keys []string) error

	UserRank(ctx context.Context, guildID, memberID string, storyID int64) (Rank, error)
	SetUserRank(ctx context.Context, guildID, memberID string, storyID int64, rank Rank) error

	MainAnnounced(ctx context.Context, guildID string, storyID int64) (bool, error)
	MarkMainAnnounced(ctx context.Context, guildID string, storyID int64) error
}

// Sink delivers events, it is responsible for rendering them on a platform
// and for any side effects of a rank change.
type Sink interface {
	Announce(ctx context.Context, a Announcement) error
	RankChanged(ctx context.Context, t RankTransition) error
}
