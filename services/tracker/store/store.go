package store

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"storywatch-backend/lib/textutil"
	"storywatch-backend/services/tracker"
	"storywatch-backend/services/tracker/store/db"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("storywatch.services.tracker.store")

// Store persists stories, Rising Stars entries, subscriptions and
// announcement state in a sqlite (or libsql) database.
type Store struct {
	db  *sql.DB
	qry *db.Queries
	now func() time.Time

	// guards read-modify-write of the state documents
	stateMutex *sync.Mutex
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:         database,
		qry:        db.New(database),
		now:        time.Now,
		stateMutex: &sync.Mutex{},
	}
}

func storageError(op string, err error) error {
	return &tracker.StorageError{Op: op, Err: err}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

func fromNullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func toRecord(s db.Story) tracker.StoryRecord {
	return tracker.StoryRecord{
		ID:         s.ID,
		URL:        s.StoryAddress,
		FictionID:  s.StoryID.String,
		Name:       s.StoryName,
		AuthorID:   s.StoryAuthorID.String,
		AuthorName: s.StoryAuthor.String,
		Blurb:      s.Blurb.String,
		CoverImage: s.CoverImage.String,
		Latest: tracker.Snapshot{
			Followers:  fromNullInt(s.LatestFollowers),
			Ratings:    fromNullInt(s.LatestRatings),
			Favourites: fromNullInt(s.LatestFavourites),
			TotalViews: fromNullInt(s.LatestViews),
			WordCount:  fromNullInt(s.LatestWords),
		},
		UpdatedAt: time.Unix(s.UpdatedAt, 0),
	}
}

func (s Store) UpsertStory(ctx context.Context, url string, stats tracker.NormalizedStats) (tracker.StoryRecord, error) {
	ctx, span := tracer.Start(ctx, "UpsertStory")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	record, err := s.upsertStory(ctx, url, stats)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return tracker.StoryRecord{}, storageError("upsert story", err)
	}
	return record, nil
}

func (s Store) upsertStory(ctx context.Context, url string, stats tracker.NormalizedStats) (tracker.StoryRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tracker.StoryRecord{}, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	var name string
	if stats.Title != nil {
		name = *stats.Title
	}
	var blurb sql.NullString
	if stats.Description != nil {
		blurb = sql.NullString{
			String: textutil.TrimBlurb(*stats.Description, tracker.BlurbLength),
			Valid:  true,
		}
	}
	updatedAt := s.now().Unix()

	id, err := txqry.GetStoryIdByAddress(ctx, url)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id, err = txqry.CreateStory(ctx, db.CreateStoryParams{
			StoryAddress:  url,
			StoryID:       nullString(stats.FictionID),
			StoryName:     name,
			StoryAuthorID: nullString(stats.AuthorID),
			StoryAuthor:   nullString(stats.AuthorName),
			Blurb:         blurb,
			CoverImage:    nullString(stats.CoverImage),
			UpdatedAt:     updatedAt,
		})
		if err != nil {
			return tracker.StoryRecord{}, err
		}
	case err != nil:
		return tracker.StoryRecord{}, err
	default:
		err = txqry.UpdateStory(ctx, db.UpdateStoryParams{
			ID:            id,
			StoryID:       nullString(stats.FictionID),
			StoryName:     name,
			StoryAuthorID: nullString(stats.AuthorID),
			StoryAuthor:   nullString(stats.AuthorName),
			Blurb:         blurb,
			CoverImage:    nullString(stats.CoverImage),
			UpdatedAt:     updatedAt,
		})
		if err != nil {
			return tracker.StoryRecord{}, err
		}
	}

	snapshot := stats.Snapshot()
	err = txqry.UpdateStorySnapshot(ctx, db.UpdateStorySnapshotParams{
		ID:               id,
		LatestFollowers:  nullInt(snapshot.Followers),
		LatestRatings:    nullInt(snapshot.Ratings),
		LatestFavourites: nullInt(snapshot.Favourites),
		LatestViews:      nullInt(snapshot.TotalViews),
		LatestWords:      nullInt(snapshot.WordCount),
	})
	if err != nil {
		return tracker.StoryRecord{}, err
	}

	row, err := txqry.GetStory(ctx, id)
	if err != nil {
		return tracker.StoryRecord{}, err
	}
	err = tx.Commit()
	if err != nil {
		return tracker.StoryRecord{}, err
	}
	return toRecord(row), nil
}

func (s Store) GetStory(ctx context.Context, id int64) (tracker.StoryRecord, error) {
	row, err := s.qry.GetStory(ctx, id)
	if err != nil {
		return tracker.StoryRecord{}, storageError("get story", err)
	}
	return toRecord(row), nil
}

func (s Store) ListStories(ctx context.Context) ([]tracker.StoryRecord, error) {
	rows, err := s.qry.ListStories(ctx)
	if err != nil {
		return nil, storageError("list stories", err)
	}
	records := make([]tracker.StoryRecord, len(rows))
	for i, r := range rows {
		records[i] = toRecord(r)
	}
	return records, nil
}

// the minimum Jaro-Winkler similarity of a name to a query for it to be
// considered a match
const searchThreshold = 0.8

// SearchStories returns the stories whose name contains the query or is
// similar to it, most similar first.
func (s Store) SearchStories(ctx context.Context, query string) ([]tracker.StoryRecord, error) {
	ctx, span := tracer.Start(ctx, "SearchStories")
	defer span.End()

	stories, err := s.ListStories(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	normalized := textutil.NormalizeName(query)
	if normalized == "" {
		return nil, nil
	}

	type scored struct {
		record     tracker.StoryRecord
		similarity float64
	}
	var matches []scored
	for _, story := range stories {
		similarity := matchr.JaroWinkler(normalized, textutil.NormalizeName(story.Name), false)
		if textutil.MatchName(story.Name, []string{normalized}) {
			similarity = 1
		}
		if similarity < searchThreshold {
			continue
		}
		matches = append(matches, scored{record: story, similarity: similarity})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].similarity > matches[j].similarity
	})

	out := make([]tracker.StoryRecord, len(matches))
	for i, m := range matches {
		out[i] = m.record
	}
	span.SetAttributes(attribute.Int("matches", len(out)))
	return out, nil
}

// WithClock returns a copy of the store that timestamps writes with now.
func (s Store) WithClock(now func() time.Time) Store {
	s.now = now
	return s
}
