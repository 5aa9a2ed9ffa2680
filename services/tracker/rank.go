package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Rank is a reward tier, ordered RankNone < RankB < RankA < RankS.
type Rank int

const (
	RankNone Rank = iota
	RankB
	RankA
	RankS
)

var rankNames = map[Rank]string{
	RankB: "B-Rank",
	RankA: "A-Rank",
	RankS: "S-Rank",
}

func (r Rank) String() string {
	name, ok := rankNames[r]
	if !ok {
		return ""
	}
	return name
}

// ParseRank is the inverse of Rank.String, "" parses as RankNone.
func ParseRank(s string) (Rank, error) {
	if s == "" {
		return RankNone, nil
	}
	for r, name := range rankNames {
		if name == s {
			return r, nil
		}
	}
	return RankNone, fmt.Errorf("unknown rank %q", s)
}

func (r Rank) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(text []byte) error {
	parsed, err := ParseRank(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type RankTransition struct {
	ID        string    `json:"id"`
	GuildID   string    `json:"guild_id"`
	MemberID  string    `json:"member_id"`
	StoryID   int64     `json:"story_id"`
	StoryName string    `json:"story_name"`
	StoryURL  string    `json:"story_url"`
	Previous  Rank      `json:"previous"`
	Achieved  Rank      `json:"achieved"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// RankMachine moves a (guild, member, story) up the rank ladder. It never
// demotes.
type RankMachine struct {
	Thresholds []Threshold
	State      StateStore
	Sink       Sink
	Now        func() time.Time
}

// achieved returns the highest rank threshold whose condition holds, or
// nil when none do.
func (m RankMachine) achieved(stats MergedStats) *Threshold {
	var best *Threshold
	for i, t := range m.Thresholds {
		if t.Kind != KindRank || t.Condition == nil {
			continue
		}
		if !t.Condition.Holds(stats) {
			continue
		}
		if best == nil || t.Reward > best.Reward {
			best = &m.Thresholds[i]
		}
	}
	return best
}

// Evaluate computes the rank achieved by the story and, when it is higher
// than the stored rank, emits the transition and then persists it. It
// returns nil when nothing changed.
func (m RankMachine) Evaluate(ctx context.Context, sub Subscription, story StoryRecord, stats MergedStats) (*RankTransition, error) {
	ctx, span := tracer.Start(ctx, "RankMachine:Evaluate")
	defer span.End()

	best := m.achieved(stats)
	if best == nil {
		return nil, nil
	}

	previous, err := m.State.UserRank(ctx, sub.GuildID, sub.MemberID, story.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read user rank")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("previous", previous.String()),
		attribute.String("achieved", best.Reward.String()),
	)
	if best.Reward <= previous {
		return nil, nil
	}

	message, err := best.Render(MessageParams{
		MemberID:   sub.MemberID,
		MemberName: sub.MemberName,
		Story:      story.Name,
		Value:      best.Value,
		Stats:      stats,
		Reason:     best.Condition.Reason(stats),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to render rank message")
		return nil, err
	}

	transition := RankTransition{
		ID:        uuid.NewString(),
		GuildID:   sub.GuildID,
		MemberID:  sub.MemberID,
		StoryID:   story.ID,
		StoryName: story.Name,
		StoryURL:  story.URL,
		Previous:  previous,
		Achieved:  best.Reward,
		Message:   message,
		CreatedAt: now(m.Now),
	}

	err = m.Sink.RankChanged(ctx, transition)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to emit rank transition")
		return nil, err
	}
	rankCounter.Add(ctx, 1)

	err = m.State.SetUserRank(ctx, sub.GuildID, sub.MemberID, story.ID, best.Reward)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist user rank")
		return &transition, err
	}

	return &transition, nil
}
