package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"storywatch-backend/services/tracker"

	"github.com/gorilla/feeds"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type FeedConfig struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Link  string `json:"link"`
	// the number of entries kept in the feed, defaults to 50
	MaxItems int `json:"max_items"`
}

// FeedSink renders events into an Atom feed file, newest first. Entries
// are kept in memory, the file is rewritten on every event.
type FeedSink struct {
	config FeedConfig
	mutex  *sync.Mutex
	items  *[]*feeds.Item
}

func NewFeedSink(config FeedConfig) (FeedSink, error) {
	if config.Path == "" {
		return FeedSink{}, fmt.Errorf("feed path was not specified")
	}
	if config.Title == "" {
		config.Title = "Story milestones"
	}
	if config.Link == "" {
		config.Link = "https://www.royalroad.com/"
	}
	if config.MaxItems <= 0 {
		config.MaxItems = 50
	}

	path, err := filepath.Abs(config.Path)
	if err != nil {
		return FeedSink{}, err
	}
	config.Path = path
	err = os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return FeedSink{}, err
	}

	return FeedSink{
		config: config,
		mutex:  &sync.Mutex{},
		items:  &[]*feeds.Item{},
	}, nil
}

func (s FeedSink) Announce(ctx context.Context, a tracker.Announcement) error {
	return s.add(ctx, &feeds.Item{
		Title:       fmt.Sprintf("%s: %s", a.StoryName, a.Key),
		Link:        &feeds.Link{Href: a.StoryURL, Rel: "alternate", Type: "text/html"},
		Id:          "urn:uuid:" + a.ID,
		Description: a.Message,
		Created:     a.CreatedAt,
		Updated:     a.CreatedAt,
	})
}

func (s FeedSink) RankChanged(ctx context.Context, t tracker.RankTransition) error {
	return s.add(ctx, &feeds.Item{
		Title:       fmt.Sprintf("%s: %s", t.StoryName, t.Achieved),
		Link:        &feeds.Link{Href: t.StoryURL, Rel: "alternate", Type: "text/html"},
		Id:          "urn:uuid:" + t.ID,
		Description: t.Message,
		Created:     t.CreatedAt,
		Updated:     t.CreatedAt,
	})
}

func (s FeedSink) add(ctx context.Context, item *feeds.Item) error {
	_, span := tracer.Start(ctx, "FeedSink.add")
	defer span.End()
	span.SetAttributes(attribute.String("id", item.Id))

	s.mutex.Lock()
	defer s.mutex.Unlock()

	items := append([]*feeds.Item{item}, *s.items...)
	if len(items) > s.config.MaxItems {
		items = items[:s.config.MaxItems]
	}

	err := s.write(items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write feed")
		return err
	}
	*s.items = items
	return nil
}

func (s FeedSink) write(items []*feeds.Item) error {
	updated := time.Now()
	if len(items) > 0 && !items[0].Created.IsZero() {
		updated = items[0].Created
	}
	feed := &feeds.Feed{
		Title:   s.config.Title,
		Link:    &feeds.Link{Href: s.config.Link, Rel: "self", Type: "text/html"},
		Id:      s.config.Link,
		Created: updated,
		Updated: updated,
		Items:   items,
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return err
	}

	// readers never observe a partially written feed
	tmp := s.config.Path + ".tmp"
	err = os.WriteFile(tmp, []byte(atom), 0644)
	if err != nil {
		return err
	}
	return os.Rename(tmp, s.config.Path)
}
