package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storywatch-backend/lib/scrapers/royalroad"

	"github.com/stretchr/testify/require"
)

const lanternUrl = "https://www.royalroad.com/fiction/12345/the-lantern-road"

func lanternPage(followers string) royalroad.RawStats {
	return royalroad.RawStats{
		FictionID:  str("12345"),
		Title:      str("The Lantern Road"),
		AuthorName: str("Mara Quill"),
		AuthorID:   str("67890"),
		Followers:  str(followers),
		TotalViews: str("900"),
	}
}

func newTestService(t *testing.T) (Service, *memoryBackend, *memoryState, *recordingSink) {
	backend := newMemoryBackend()
	state := newMemoryState()
	sink := &recordingSink{}
	service := NewService(Options{
		Fetcher:     backend,
		Stories:     backend,
		Leaderboard: backend,
		Registry:    backend,
		State:       state,
		Sink:        sink,
		Now: func() time.Time {
			return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		},
	})
	return service, backend, state, sink
}

func TestEndToEndFollowers(t *testing.T) {
	service, backend, state, sink := newTestService(t)
	ctx := context.Background()

	backend.setPage(lanternUrl, lanternPage("0"))
	story, err := service.TrackStory(ctx, "g1", "m1", "mara", lanternUrl)
	require.NoError(t, err)
	require.Equal(t, "The Lantern Road", story.Name)

	sub := Subscription{GuildID: "g1", MemberID: "m1", MemberName: "mara", StoryID: story.ID}

	report, err := service.EvaluateStory(ctx, sub)
	require.NoError(t, err)
	require.Empty(t, report.Announcements)
	require.Nil(t, report.Transition)

	backend.setPage(lanternUrl, lanternPage("600"))
	report, err = service.EvaluateStory(ctx, sub)
	require.NoError(t, err)
	require.Len(t, report.Announcements, 1)
	require.Equal(t, "followers-500", report.Announcements[0].Key)
	require.Equal(t, lanternUrl, report.Announcements[0].StoryURL)
	require.NotNil(t, report.Transition)
	require.Equal(t, RankB, report.Transition.Achieved)

	announced, err := state.AnnouncedThresholds(ctx, "g1", story.ID)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"followers-500": true}, announced)

	backend.setPage(lanternUrl, lanternPage("1,200"))
	report, err = service.EvaluateStory(ctx, sub)
	require.NoError(t, err)
	require.Len(t, report.Announcements, 1)
	require.Equal(t, "followers-1000", report.Announcements[0].Key)
	require.Equal(t, RankA, report.Transition.Achieved)
	require.Equal(t, RankB, report.Transition.Previous)

	require.Equal(t, []string{"followers-500", "followers-1000"}, sink.keys())
	require.Len(t, backend.stories, 1)
	require.Equal(t, int64(1200), *backend.stories[0].Latest.Followers)
}

func TestEvaluateStoryFetchError(t *testing.T) {
	service, backend, _, sink := newTestService(t)
	ctx := context.Background()

	backend.setPage(lanternUrl, lanternPage("600"))
	story, err := service.TrackStory(ctx, "g1", "m1", "mara", lanternUrl)
	require.NoError(t, err)

	backend.fetchErr[lanternUrl] = &FetchError{URL: lanternUrl, Status: 503}
	_, err = service.EvaluateStory(ctx, Subscription{GuildID: "g1", MemberID: "m1", StoryID: story.ID})

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Empty(t, sink.keys())
}

func TestRunLiveStatsIsolatesFailures(t *testing.T) {
	service, backend, _, sink := newTestService(t)
	ctx := context.Background()

	const brokenUrl = "https://www.royalroad.com/fiction/2/broken"
	backend.setPage(lanternUrl, lanternPage("600"))
	backend.setPage(brokenUrl, royalroad.RawStats{Title: str("Broken")})

	_, err := service.TrackStory(ctx, "g1", "m1", "mara", lanternUrl)
	require.NoError(t, err)
	_, err = service.TrackStory(ctx, "g1", "m2", "oren", brokenUrl)
	require.NoError(t, err)

	backend.fetchErr[brokenUrl] = &FetchError{URL: brokenUrl, Status: 500}

	batch, err := service.RunLiveStats(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, batch.Reports, 1)
	require.Len(t, batch.Failures, 1)
	require.Equal(t, "m2", batch.Failures[0].Subscription.MemberID)
	require.Equal(t, []string{"followers-500"}, sink.keys())
}

func TestRunRisingStarsAnnouncesMainOnce(t *testing.T) {
	service, backend, state, sink := newTestService(t)
	ctx := context.Background()

	backend.setPage(lanternUrl, lanternPage("10"))
	story, err := service.TrackStory(ctx, "g1", "m1", "mara", lanternUrl)
	require.NoError(t, err)

	backend.listings[royalroad.MainCategory] = []royalroad.ListedFiction{
		{FictionID: "999", Position: 1},
		{FictionID: "12345", Position: 2},
	}

	batch, err := service.RunRisingStars(ctx)
	require.NoError(t, err)
	require.Len(t, batch.Reports, 1)
	require.Equal(t,
		"**<@m1>'s story The Lantern Road has reached Rising Stars Main at position #2! 🎉**",
		batch.Reports[0].Announcements[0].Message,
	)

	announced, err := state.MainAnnounced(ctx, "g1", story.ID)
	require.NoError(t, err)
	require.True(t, announced)

	batch, err = service.RunRisingStars(ctx)
	require.NoError(t, err)
	require.Empty(t, batch.Reports)
	require.Equal(t, []string{mainListingKey}, sink.keys())
}

func TestEvaluateMainListingNotListed(t *testing.T) {
	service, backend, _, _ := newTestService(t)
	ctx := context.Background()

	backend.setPage(lanternUrl, lanternPage("10"))
	story, err := service.TrackStory(ctx, "g1", "m1", "mara", lanternUrl)
	require.NoError(t, err)

	a, err := service.EvaluateMainListing(ctx, Subscription{GuildID: "g1", MemberID: "m1", StoryID: story.ID})
	require.NoError(t, err)
	require.Nil(t, a)
}

// countingFetcher records the highest number of concurrent fetches of the
// same url.
type countingFetcher struct {
	*memoryBackend
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *countingFetcher) FetchStory(ctx context.Context, url string) (royalroad.RawStats, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(time.Millisecond * 5)
	return f.memoryBackend.FetchStory(ctx, url)
}

func TestEvaluateStorySerializedPerStory(t *testing.T) {
	backend := newMemoryBackend()
	fetcher := &countingFetcher{memoryBackend: backend}
	state := newMemoryState()
	sink := &recordingSink{}
	service := NewService(Options{
		Fetcher:     fetcher,
		Stories:     backend,
		Leaderboard: backend,
		Registry:    backend,
		State:       state,
		Sink:        sink,
		Workers:     8,
	})
	ctx := context.Background()

	backend.setPage(lanternUrl, lanternPage("600"))
	story, err := service.TrackStory(ctx, "g1", "m1", "mara", lanternUrl)
	require.NoError(t, err)
	fetcher.maxSeen.Store(0)

	sub := Subscription{GuildID: "g1", MemberID: "m1", MemberName: "mara", StoryID: story.ID}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.EvaluateStory(ctx, sub)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), fetcher.maxSeen.Load())
	require.Equal(t, []string{"followers-500"}, sink.keys())
}
