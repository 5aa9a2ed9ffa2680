package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storywatch-backend/services/tracker"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func announcement(key, message string, at time.Time) tracker.Announcement {
	return tracker.Announcement{
		ID:        "6f1c1f5e-0000-4000-8000-" + strings.Repeat("0", 12-len(key)) + key,
		GuildID:   "g1",
		MemberID:  "m1",
		StoryID:   1,
		StoryName: "Lantern Road",
		StoryURL:  "https://www.royalroad.com/fiction/12345/lantern-road",
		Key:       key,
		Kind:      tracker.KindMilestone,
		Stat:      "followers",
		Value:     1000,
		Message:   message,
		CreatedAt: at,
	}
}

var transition = tracker.RankTransition{
	ID:        "0b0e7c1a-0000-4000-8000-000000000001",
	GuildID:   "g1",
	MemberID:  "m1",
	StoryID:   1,
	StoryName: "Lantern Road",
	StoryURL:  "https://www.royalroad.com/fiction/12345/lantern-road",
	Previous:  tracker.RankB,
	Achieved:  tracker.RankA,
	Message:   "Lantern Road has reached A-Rank",
	CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
}

type recordingSink struct {
	err    error
	events []string
}

func (s *recordingSink) Announce(ctx context.Context, a tracker.Announcement) error {
	s.events = append(s.events, a.Key)
	return s.err
}

func (s *recordingSink) RankChanged(ctx context.Context, t tracker.RankTransition) error {
	s.events = append(s.events, t.Achieved.String())
	return s.err
}

func TestMulti(t *testing.T) {
	first := &recordingSink{err: errors.New("first is down")}
	second := &recordingSink{}
	third := &recordingSink{err: errors.New("third is down")}
	sink := Multi{first, second, third}

	err := sink.Announce(context.Background(), announcement("1000", "hi", time.Now()))
	require.ErrorContains(t, err, "first is down")
	require.ErrorContains(t, err, "third is down")

	err = sink.RankChanged(context.Background(), transition)
	require.Error(t, err)

	for _, s := range []*recordingSink{first, second, third} {
		require.Equal(t, []string{"1000", "A-Rank"}, s.events)
	}

	require.NoError(t, Multi{second}.Announce(context.Background(), announcement("2000", "hi", time.Now())))
	require.NoError(t, Multi{}.RankChanged(context.Background(), transition))
}

func TestLogSink(t *testing.T) {
	buffer := &bytes.Buffer{}
	sink := LogSink{Logger: slog.New(slog.NewTextHandler(buffer, nil))}

	require.NoError(t, sink.Announce(context.Background(), announcement("1000", "first thousand", time.Now())))
	require.NoError(t, sink.RankChanged(context.Background(), transition))

	out := buffer.String()
	require.Contains(t, out, `msg=announcement`)
	require.Contains(t, out, `key=1000`)
	require.Contains(t, out, `message="first thousand"`)
	require.Contains(t, out, `msg="rank changed"`)
	require.Contains(t, out, `previous=B-Rank achieved=A-Rank`)
}

func TestFeedSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds", "milestones.atom")
	sink, err := NewFeedSink(FeedConfig{Path: path, MaxItems: 2})
	require.NoError(t, err)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, sink.Announce(context.Background(), announcement("100", "oldest entry", start)))
	require.NoError(t, sink.Announce(context.Background(), announcement("200", "middle entry", start.Add(time.Hour))))
	require.NoError(t, sink.RankChanged(context.Background(), transition))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	atom := string(contents)

	require.Contains(t, atom, "<feed")
	require.NotContains(t, atom, "oldest entry")
	require.Contains(t, atom, "middle entry")
	require.Contains(t, atom, "Lantern Road has reached A-Rank")
	require.Less(t,
		strings.Index(atom, "Lantern Road has reached A-Rank"),
		strings.Index(atom, "middle entry"),
	)

	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestFeedSinkRequiresPath(t *testing.T) {
	_, err := NewFeedSink(FeedConfig{})
	require.Error(t, err)
}

func TestNewEmailSink(t *testing.T) {
	testCases := []struct {
		name   string
		config EmailConfig
		ok     bool
	}{
		{
			name:   "missing server",
			config: EmailConfig{Smtp: SmtpConfig{EmailAddress: "bot@example.com"}, To: []string{"a@example.com"}},
		},
		{
			name:   "missing recipients",
			config: EmailConfig{Smtp: SmtpConfig{Server: "localhost", EmailAddress: "bot@example.com"}},
		},
		{
			name:   "valid",
			config: EmailConfig{Smtp: SmtpConfig{Server: "localhost", EmailAddress: "bot@example.com"}, To: []string{"a@example.com"}},
			ok:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sink, err := NewEmailSink(tc.config)
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, 587, sink.config.Smtp.Port)
		})
	}
}

func TestDecodeEvent(t *testing.T) {
	a := announcement("1000", "first thousand", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	event, err := DecodeEvent(`{"type":"announcement","announcement":{"id":"x","guild_id":"g1","key":"1000","kind":"milestone","value":1000}}`)
	require.NoError(t, err)
	require.Equal(t, "1000", event.Announcement.Key)
	require.Equal(t, tracker.KindMilestone, event.Announcement.Kind)

	event, err = DecodeEvent(`{"type":"rank_transition","transition":{"previous":"","achieved":"S-Rank"}}`)
	require.NoError(t, err)
	require.Equal(t, tracker.RankNone, event.Transition.Previous)
	require.Equal(t, tracker.RankS, event.Transition.Achieved)

	for _, malformed := range []string{
		`{"type":"announcement"}`,
		`{"type":"rank_transition"}`,
		`{"type":"something"}`,
		`not json`,
	} {
		_, err := DecodeEvent(malformed)
		require.Error(t, err, malformed)
	}

	// an event survives the trip through the queue payload
	payload, err := encodeEvent(Event{Type: EventAnnouncement, Announcement: &a})
	require.NoError(t, err)
	decoded, err := DecodeEvent(string(payload))
	require.NoError(t, err)
	if diff := cmp.Diff(a, *decoded.Announcement); diff != "" {
		t.Fatal(diff)
	}
}
