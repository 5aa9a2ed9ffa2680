package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"storywatch-backend/services/tracker"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultQueueKey = "storywatch:queue:events"

const (
	EventAnnouncement   = "announcement"
	EventRankTransition = "rank_transition"
)

// Event is the payload pushed on the queue, exactly one of Announcement
// and Transition is set depending on Type.
type Event struct {
	Type         string                  `json:"type"`
	Announcement *tracker.Announcement   `json:"announcement,omitempty"`
	Transition   *tracker.RankTransition `json:"transition,omitempty"`
}

func encodeEvent(event Event) ([]byte, error) {
	return json.Marshal(event)
}

func DecodeEvent(data string) (Event, error) {
	var event Event
	err := json.Unmarshal([]byte(data), &event)
	if err != nil {
		return Event{}, err
	}
	switch event.Type {
	case EventAnnouncement:
		if event.Announcement == nil {
			return Event{}, fmt.Errorf("announcement event without announcement")
		}
	case EventRankTransition:
		if event.Transition == nil {
			return Event{}, fmt.Errorf("rank transition event without transition")
		}
	default:
		return Event{}, fmt.Errorf("unknown event type %q", event.Type)
	}
	return event, nil
}

type RedisConfig struct {
	// either a redis:// url or a bare host:port
	Url   string `json:"url"`
	Queue string `json:"queue"`
}

// RedisSink pushes events on a list for a chat bot to consume with BRPOP.
type RedisSink struct {
	client *redis.Client
	queue  string
}

func NewRedisSink(ctx context.Context, config RedisConfig) (RedisSink, error) {
	if config.Url == "" {
		return RedisSink{}, fmt.Errorf("redis url was not specified")
	}
	if config.Queue == "" {
		config.Queue = DefaultQueueKey
	}

	opt, err := redis.ParseURL(config.Url)
	if err != nil {
		opt = &redis.Options{Addr: config.Url}
	}
	client := redis.NewClient(opt)

	err = client.Ping(ctx).Err()
	if err != nil {
		client.Close()
		return RedisSink{}, err
	}

	return RedisSink{
		client: client,
		queue:  config.Queue,
	}, nil
}

func (s RedisSink) Close() error {
	return s.client.Close()
}

func (s RedisSink) Announce(ctx context.Context, a tracker.Announcement) error {
	return s.push(ctx, Event{Type: EventAnnouncement, Announcement: &a})
}

func (s RedisSink) RankChanged(ctx context.Context, t tracker.RankTransition) error {
	return s.push(ctx, Event{Type: EventRankTransition, Transition: &t})
}

func (s RedisSink) push(ctx context.Context, event Event) error {
	ctx, span := tracer.Start(ctx, "RedisSink.push")
	defer span.End()
	span.SetAttributes(
		attribute.String("queue", s.queue),
		attribute.String("type", event.Type),
	)

	data, err := encodeEvent(event)
	if err != nil {
		return err
	}
	err = s.client.LPush(ctx, s.queue, data).Err()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to push event")
		return err
	}
	return nil
}
