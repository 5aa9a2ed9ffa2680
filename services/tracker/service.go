package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storywatch-backend/lib/scrapers/royalroad"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// KindMainListing marks the announcement made when a story first appears
// on the main Rising Stars list.
const KindMainListing ThresholdKind = "main_listing"

const mainListingKey = "rsMain"

type Options struct {
	Fetcher     Fetcher
	Stories     StoryRepository
	Leaderboard Leaderboard
	Registry    Registry
	State       StateStore
	Sink        Sink

	// defaults to DefaultThresholds()
	Thresholds []Threshold
	// the number of stories evaluated concurrently by batch runs, defaults
	// to 4
	Workers int
	Now     func() time.Time
}

type Service struct {
	fetcher     Fetcher
	stories     StoryRepository
	leaderboard Leaderboard
	registry    Registry
	state       StateStore
	sink        Sink
	workers     int
	now         func() time.Time

	thresholds ThresholdEvaluator
	ranks      RankMachine
	locks      *storyLocks
}

func NewService(opts Options) Service {
	if opts.Thresholds == nil {
		opts.Thresholds = DefaultThresholds()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return Service{
		fetcher:     opts.Fetcher,
		stories:     opts.Stories,
		leaderboard: opts.Leaderboard,
		registry:    opts.Registry,
		state:       opts.State,
		sink:        opts.Sink,
		workers:     opts.Workers,
		now:         opts.Now,
		thresholds: ThresholdEvaluator{
			Thresholds: opts.Thresholds,
			State:      opts.State,
			Sink:       opts.Sink,
			Now:        opts.Now,
		},
		ranks: RankMachine{
			Thresholds: opts.Thresholds,
			State:      opts.State,
			Sink:       opts.Sink,
			Now:        opts.Now,
		},
		locks: &storyLocks{},
	}
}

// Scrape fetches a story page and upserts the story.
func (s Service) Scrape(ctx context.Context, storyUrl string) (StoryRecord, NormalizedStats, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()
	span.SetAttributes(attribute.String("url", storyUrl))

	raw, err := s.fetcher.FetchStory(ctx, storyUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch story")
		return StoryRecord{}, NormalizedStats{}, err
	}
	stats := Normalize(raw)

	story, err := s.stories.UpsertStory(ctx, storyUrl, stats)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upsert story")
		return StoryRecord{}, NormalizedStats{}, err
	}
	return story, stats, nil
}

// TrackStory scrapes a story and subscribes the member to it.
func (s Service) TrackStory(ctx context.Context, guildID, memberID, memberName, storyUrl string) (StoryRecord, error) {
	ctx, span := tracer.Start(ctx, "TrackStory")
	defer span.End()

	story, _, err := s.Scrape(ctx, storyUrl)
	if err != nil {
		return StoryRecord{}, err
	}

	err = s.registry.Track(ctx, Subscription{
		GuildID:    guildID,
		MemberID:   memberID,
		MemberName: memberName,
		StoryID:    story.ID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to track story")
		return StoryRecord{}, err
	}

	slog.InfoContext(ctx, "tracking story", "guild", guildID, "member", memberID, "story", story.Name)
	return story, nil
}

type Report struct {
	Subscription  Subscription    `json:"subscription"`
	Story         StoryRecord     `json:"story"`
	Stats         MergedStats     `json:"stats"`
	Announcements []Announcement  `json:"announcements"`
	Transition    *RankTransition `json:"transition,omitempty"`
}

// EvaluateStory re-scrapes a tracked story and emits every newly crossed
// milestone and rank for the subscription.
func (s Service) EvaluateStory(ctx context.Context, sub Subscription) (Report, error) {
	ctx, span := tracer.Start(ctx, "EvaluateStory")
	defer span.End()
	span.SetAttributes(
		attribute.String("guild", sub.GuildID),
		attribute.String("member", sub.MemberID),
		attribute.Int64("story", sub.StoryID),
	)

	unlock := s.locks.lock(sub.StoryID)
	defer unlock()

	report := Report{Subscription: sub}

	stored, err := s.stories.GetStory(ctx, sub.StoryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get story")
		return report, err
	}
	story, stats, err := s.Scrape(ctx, stored.URL)
	if err != nil {
		return report, err
	}
	report.Story = story

	entries, err := s.leaderboard.ActiveEntries(ctx, story.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get leaderboard entries")
		return report, err
	}
	report.Stats = Aggregate(stats, entries)

	report.Announcements, err = s.thresholds.Evaluate(ctx, sub, story, report.Stats)
	if err != nil {
		return report, err
	}
	report.Transition, err = s.ranks.Evaluate(ctx, sub, story, report.Stats)
	if err != nil {
		return report, err
	}

	return report, nil
}

// EvaluateMainListing announces a story the first time it is seen on the
// main Rising Stars list in a guild. It returns nil when there is nothing
// to announce.
func (s Service) EvaluateMainListing(ctx context.Context, sub Subscription) (*Announcement, error) {
	ctx, span := tracer.Start(ctx, "EvaluateMainListing")
	defer span.End()

	unlock := s.locks.lock(sub.StoryID)
	defer unlock()

	entries, err := s.leaderboard.ActiveEntries(ctx, sub.StoryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get leaderboard entries")
		return nil, err
	}
	merged := Aggregate(NormalizedStats{}, entries)
	if !merged.RSMain {
		return nil, nil
	}

	announced, err := s.state.MainAnnounced(ctx, sub.GuildID, sub.StoryID)
	if err != nil || announced {
		return nil, err
	}

	story, err := s.stories.GetStory(ctx, sub.StoryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get story")
		return nil, err
	}

	message, err := RenderMainListing(MessageParams{
		MemberID:   sub.MemberID,
		MemberName: sub.MemberName,
		Story:      story.Name,
		Stats:      merged,
	})
	if err != nil {
		return nil, err
	}

	var position int64
	if merged.RSPosition != nil {
		position = int64(*merged.RSPosition)
	}
	a := Announcement{
		ID:        uuid.NewString(),
		GuildID:   sub.GuildID,
		MemberID:  sub.MemberID,
		StoryID:   story.ID,
		StoryName: story.Name,
		StoryURL:  story.URL,
		Key:       mainListingKey,
		Kind:      KindMainListing,
		Stat:      "rsPosition",
		Value:     position,
		Message:   message,
		CreatedAt: s.now(),
	}
	err = s.sink.Announce(ctx, a)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to emit main listing announcement")
		return nil, err
	}
	announcementCounter.Add(ctx, 1)

	err = s.state.MarkMainAnnounced(ctx, sub.GuildID, sub.StoryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist main listing announcement")
		return &a, err
	}
	return &a, nil
}

type Failure struct {
	Subscription Subscription `json:"subscription"`
	Error        string       `json:"error"`
}

type BatchReport struct {
	Reports  []Report  `json:"reports"`
	Failures []Failure `json:"failures"`
}

// forEach runs fn for every subscription on a bounded number of workers.
// A failing subscription is logged and recorded without stopping the
// others.
func (s Service) forEach(ctx context.Context, subs []Subscription, fn func(context.Context, Subscription) (*Report, error)) BatchReport {
	var mutex sync.Mutex
	var batch BatchReport

	group := errgroup.Group{}
	group.SetLimit(s.workers)
	for _, sub := range subs {
		group.Go(func() error {
			report, err := fn(ctx, sub)

			mutex.Lock()
			defer mutex.Unlock()
			if err != nil {
				slog.WarnContext(
					ctx, "failed to evaluate story",
					"guild", sub.GuildID,
					"member", sub.MemberID,
					"story", sub.StoryID,
					"err", err,
				)
				evaluationFailures.Add(ctx, 1)
				batch.Failures = append(batch.Failures, Failure{
					Subscription: sub,
					Error:        err.Error(),
				})
				return nil
			}
			if report != nil {
				batch.Reports = append(batch.Reports, *report)
			}
			return nil
		})
	}
	group.Wait()

	return batch
}

// RunLiveStats evaluates every subscription of a guild, or of every guild
// when guildID is "".
func (s Service) RunLiveStats(ctx context.Context, guildID string) (BatchReport, error) {
	ctx, span := tracer.Start(ctx, "RunLiveStats")
	defer span.End()

	subs, err := s.registry.Subscriptions(ctx, guildID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list subscriptions")
		return BatchReport{}, err
	}

	batch := s.forEach(ctx, subs, func(ctx context.Context, sub Subscription) (*Report, error) {
		report, err := s.EvaluateStory(ctx, sub)
		if err != nil {
			return nil, err
		}
		return &report, nil
	})

	slog.InfoContext(
		ctx, "live stats run finished",
		"evaluated", len(batch.Reports),
		"failed", len(batch.Failures),
	)
	return batch, nil
}

// RunRisingStars refreshes every Rising Stars list then announces tracked
// stories that are newly on the main list. A list that fails to load keeps
// its previous entries.
func (s Service) RunRisingStars(ctx context.Context) (BatchReport, error) {
	ctx, span := tracer.Start(ctx, "RunRisingStars")
	defer span.End()

	categories := append([]string{royalroad.MainCategory}, Genres...)

	group := errgroup.Group{}
	group.SetLimit(s.workers)
	for _, category := range categories {
		group.Go(func() error {
			listed, err := s.fetcher.FetchRisingStars(ctx, category)
			if err != nil {
				slog.WarnContext(ctx, "failed to fetch rising stars", "category", category, "err", err)
				return nil
			}
			ids := make([]string, len(listed))
			for i, l := range listed {
				ids[i] = l.FictionID
			}
			err = s.leaderboard.RecordListing(ctx, category, ids)
			if err != nil {
				slog.WarnContext(ctx, "failed to record rising stars", "category", category, "err", err)
			}
			return nil
		})
	}
	group.Wait()

	subs, err := s.registry.Subscriptions(ctx, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list subscriptions")
		return BatchReport{}, err
	}

	batch := s.forEach(ctx, subs, func(ctx context.Context, sub Subscription) (*Report, error) {
		a, err := s.EvaluateMainListing(ctx, sub)
		if err != nil || a == nil {
			return nil, err
		}
		return &Report{
			Subscription:  sub,
			Announcements: []Announcement{*a},
		}, nil
	})
	return batch, nil
}
