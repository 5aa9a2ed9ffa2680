package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

type Announcement struct {
	ID        string        `json:"id"`
	GuildID   string        `json:"guild_id"`
	MemberID  string        `json:"member_id"`
	StoryID   int64         `json:"story_id"`
	StoryName string        `json:"story_name"`
	StoryURL  string        `json:"story_url"`
	Key       string        `json:"key"`
	Kind      ThresholdKind `json:"kind"`
	Stat      string        `json:"stat"`
	Value     int64         `json:"value"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
}

// ThresholdEvaluator announces milestones the first time a story crosses
// them in a guild.
type ThresholdEvaluator struct {
	Thresholds []Threshold
	State      StateStore
	Sink       Sink
	Now        func() time.Time
}

type crossedGroup struct {
	retained Threshold
	crossed  []Threshold
}

// crossed groups the milestones that are crossed and not yet announced by
// statistic, in table order.
func (e ThresholdEvaluator) crossed(stats MergedStats, announced map[string]bool) []*crossedGroup {
	var groups []*crossedGroup
	byStat := map[string]*crossedGroup{}

	for _, t := range e.Thresholds {
		if t.Kind == KindRank || announced[t.Key] {
			continue
		}
		if !t.Crosses(stats.Stat(t.Stat)) {
			continue
		}

		g, ok := byStat[t.Stat]
		if !ok {
			g = &crossedGroup{retained: t}
			byStat[t.Stat] = g
			groups = append(groups, g)
		} else if t.further(g.retained) {
			g.retained = t
		}
		g.crossed = append(g.crossed, t)
	}

	return groups
}

// Evaluate emits one announcement per statistic for the furthest newly
// crossed milestone. Each announcement is sent before the milestones it
// implies are persisted, a failure in either stops the evaluation.
func (e ThresholdEvaluator) Evaluate(ctx context.Context, sub Subscription, story StoryRecord, stats MergedStats) ([]Announcement, error) {
	ctx, span := tracer.Start(ctx, "ThresholdEvaluator:Evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("guild", sub.GuildID),
		attribute.Int64("story", story.ID),
	)

	announced, err := e.State.AnnouncedThresholds(ctx, sub.GuildID, story.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read announced thresholds")
		return nil, err
	}

	var emitted []Announcement
	for _, g := range e.crossed(stats, announced) {
		t := g.retained
		message, err := t.Render(MessageParams{
			MemberID:   sub.MemberID,
			MemberName: sub.MemberName,
			Story:      story.Name,
			Value:      t.Value,
			Stats:      stats,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to render message")
			return emitted, err
		}

		a := Announcement{
			ID:        uuid.NewString(),
			GuildID:   sub.GuildID,
			MemberID:  sub.MemberID,
			StoryID:   story.ID,
			StoryName: story.Name,
			StoryURL:  story.URL,
			Key:       t.Key,
			Kind:      t.Kind,
			Stat:      t.Stat,
			Value:     t.Value,
			Message:   message,
			CreatedAt: now(e.Now),
		}
		err = e.Sink.Announce(ctx, a)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to emit announcement")
			return emitted, err
		}
		emitted = append(emitted, a)
		announcementCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("stat", t.Stat)))

		var keys []string
		for _, c := range g.crossed {
			if t.Implies(c) {
				keys = append(keys, c.Key)
			}
		}
		err = e.State.MarkAnnounced(ctx, sub.GuildID, story.ID, keys)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to persist announced thresholds")
			return emitted, err
		}
	}

	span.SetAttributes(attribute.Int("emitted", len(emitted)))
	return emitted, nil
}
