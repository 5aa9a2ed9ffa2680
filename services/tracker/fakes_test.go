package tracker

import (
	"context"
	"fmt"
	"sync"

	"storywatch-backend/lib/scrapers/royalroad"
)

type memoryState struct {
	mutex     sync.Mutex
	announced map[string]bool
	ranks     map[string]Rank
	main      map[string]bool
	markErr   error
}

func newMemoryState() *memoryState {
	return &memoryState{
		announced: map[string]bool{},
		ranks:     map[string]Rank{},
		main:      map[string]bool{},
	}
}

func (m *memoryState) AnnouncedThresholds(ctx context.Context, guildID string, storyID int64) (map[string]bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	out := map[string]bool{}
	prefix := fmt.Sprintf("%s/%d/", guildID, storyID)
	for k, v := range m.announced {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out[k[len(prefix):]] = v
		}
	}
	return out, nil
}

func (m *memoryState) MarkAnnounced(ctx context.Context, guildID string, storyID int64, keys []string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	for _, k := range keys {
		m.announced[fmt.Sprintf("%s/%d/%s", guildID, storyID, k)] = true
	}
	return nil
}

func (m *memoryState) UserRank(ctx context.Context, guildID, memberID string, storyID int64) (Rank, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.ranks[fmt.Sprintf("%s/%s/%d", guildID, memberID, storyID)], nil
}

func (m *memoryState) SetUserRank(ctx context.Context, guildID, memberID string, storyID int64, rank Rank) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.ranks[fmt.Sprintf("%s/%s/%d", guildID, memberID, storyID)] = rank
	return nil
}

func (m *memoryState) MainAnnounced(ctx context.Context, guildID string, storyID int64) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.main[fmt.Sprintf("%s/%d", guildID, storyID)], nil
}

func (m *memoryState) MarkMainAnnounced(ctx context.Context, guildID string, storyID int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.main[fmt.Sprintf("%s/%d", guildID, storyID)] = true
	return nil
}

type recordingSink struct {
	mutex         sync.Mutex
	announcements []Announcement
	transitions   []RankTransition
	err           error
}

func (s *recordingSink) Announce(ctx context.Context, a Announcement) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.err != nil {
		return s.err
	}
	s.announcements = append(s.announcements, a)
	return nil
}

func (s *recordingSink) RankChanged(ctx context.Context, t RankTransition) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.err != nil {
		return s.err
	}
	s.transitions = append(s.transitions, t)
	return nil
}

func (s *recordingSink) keys() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var keys []string
	for _, a := range s.announcements {
		keys = append(keys, a.Key)
	}
	return keys
}

// memoryBackend implements every storage interface and the fetcher over
// plain maps.
type memoryBackend struct {
	mutex    sync.Mutex
	pages    map[string]royalroad.RawStats
	listings map[string][]royalroad.ListedFiction
	fetchErr map[string]error

	stories []StoryRecord
	entries []LeaderboardEntry
	subs    []Subscription
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		pages:    map[string]royalroad.RawStats{},
		listings: map[string][]royalroad.ListedFiction{},
		fetchErr: map[string]error{},
	}
}

func (b *memoryBackend) setPage(url string, raw royalroad.RawStats) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.pages[url] = raw
}

func (b *memoryBackend) FetchStory(ctx context.Context, url string) (royalroad.RawStats, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := b.fetchErr[url]; err != nil {
		return royalroad.RawStats{}, err
	}
	raw, ok := b.pages[url]
	if !ok {
		return royalroad.RawStats{}, &FetchError{URL: url, Status: 404}
	}
	return raw, nil
}

func (b *memoryBackend) FetchRisingStars(ctx context.Context, category string) ([]royalroad.ListedFiction, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.listings[category], nil
}

func (b *memoryBackend) UpsertStory(ctx context.Context, url string, stats NormalizedStats) (StoryRecord, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	record := StoryRecord{
		URL:        url,
		FictionID:  deref(stats.FictionID),
		Name:       deref(stats.Title),
		AuthorID:   deref(stats.AuthorID),
		AuthorName: deref(stats.AuthorName),
		Latest:     stats.Snapshot(),
	}
	for i, s := range b.stories {
		if s.URL == url {
			record.ID = s.ID
			b.stories[i] = record
			return record, nil
		}
	}
	record.ID = int64(len(b.stories) + 1)
	b.stories = append(b.stories, record)
	return record, nil
}

func (b *memoryBackend) GetStory(ctx context.Context, id int64) (StoryRecord, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, s := range b.stories {
		if s.ID == id {
			return s, nil
		}
	}
	return StoryRecord{}, &StorageError{Op: "get story", Err: fmt.Errorf("story %d not found", id)}
}

func (b *memoryBackend) ActiveEntries(ctx context.Context, storyID int64) ([]LeaderboardEntry, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	var out []LeaderboardEntry
	for _, e := range b.entries {
		if e.StoryID == storyID && e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (b *memoryBackend) RecordListing(ctx context.Context, category string, fictionIDs []string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for i := range b.entries {
		if b.entries[i].Category == category {
			b.entries[i].Active = false
		}
	}
	for pos, fid := range fictionIDs {
		for _, s := range b.stories {
			if s.FictionID != fid {
				continue
			}
			found := false
			for i, e := range b.entries {
				if e.StoryID == s.ID && e.Category == category {
					found = true
					b.entries[i].Active = true
					b.entries[i].HighestPosition = min(e.HighestPosition, pos+1)
				}
			}
			if !found {
				b.entries = append(b.entries, LeaderboardEntry{
					StoryID:         s.ID,
					Category:        category,
					HighestPosition: pos + 1,
					Active:          true,
				})
			}
		}
	}
	return nil
}

func (b *memoryBackend) Track(ctx context.Context, sub Subscription) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, s := range b.subs {
		if s.GuildID == sub.GuildID && s.MemberID == sub.MemberID && s.StoryID == sub.StoryID {
			return nil
		}
	}
	b.subs = append(b.subs, sub)
	return nil
}

func (b *memoryBackend) Subscriptions(ctx context.Context, guildID string) ([]Subscription, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	var out []Subscription
	for _, s := range b.subs {
		if guildID == "" || s.GuildID == guildID {
			out = append(out, s)
		}
	}
	return out, nil
}

func str(s string) *string {
	return &s
}

func num(n int64) *int64 {
	return &n
}

func pos(n int) *int {
	return &n
}
