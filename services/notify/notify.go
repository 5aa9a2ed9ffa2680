package notify

import (
	"context"
	"errors"
	"log/slog"

	"storywatch-backend/services/tracker"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("storywatch.services.notify")

// Multi hands every event to each of its sinks, a failing sink does not
// stop the others and the errors of all failing sinks are joined.
type Multi []tracker.Sink

func (m Multi) Announce(ctx context.Context, a tracker.Announcement) error {
	var errs []error
	for _, sink := range m {
		err := sink.Announce(ctx, a)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) RankChanged(ctx context.Context, t tracker.RankTransition) error {
	var errs []error
	for _, sink := range m {
		err := sink.RankChanged(ctx, t)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes events to a structured logger, slog.Default() is used
// when Logger is nil.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s LogSink) Announce(ctx context.Context, a tracker.Announcement) error {
	s.logger().InfoContext(
		ctx, "announcement",
		"guild", a.GuildID,
		"member", a.MemberID,
		"story", a.StoryName,
		"key", a.Key,
		"message", a.Message,
	)
	return nil
}

func (s LogSink) RankChanged(ctx context.Context, t tracker.RankTransition) error {
	s.logger().InfoContext(
		ctx, "rank changed",
		"guild", t.GuildID,
		"member", t.MemberID,
		"story", t.StoryName,
		"previous", t.Previous.String(),
		"achieved", t.Achieved.String(),
		"message", t.Message,
	)
	return nil
}
