package store

import (
	"context"
	"database/sql"

	"storywatch-backend/services/tracker"
	"storywatch-backend/services/tracker/store/db"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func (s Store) ActiveEntries(ctx context.Context, storyID int64) ([]tracker.LeaderboardEntry, error) {
	rows, err := s.qry.GetActiveRisingStars(ctx, storyID)
	if err != nil {
		return nil, storageError("get active rising stars", err)
	}
	entries := make([]tracker.LeaderboardEntry, len(rows))
	for i, r := range rows {
		entries[i] = tracker.LeaderboardEntry{
			StoryID:         r.StoryID,
			Category:        r.Genre,
			HighestPosition: int(r.HighestPosition),
			Active:          r.Active,
		}
	}
	return entries, nil
}

// Entries lists every entry of a category, best position first.
func (s Store) Entries(ctx context.Context, category string) ([]tracker.LeaderboardEntry, error) {
	rows, err := s.qry.GetRisingStars(ctx, category)
	if err != nil {
		return nil, storageError("get rising stars", err)
	}
	entries := make([]tracker.LeaderboardEntry, len(rows))
	for i, r := range rows {
		entries[i] = tracker.LeaderboardEntry{
			StoryID:         r.StoryID,
			Category:        r.Genre,
			HighestPosition: int(r.HighestPosition),
			Active:          r.Active,
		}
	}
	return entries, nil
}

// RecordListing marks the known stories among fictionIDs as listed on the
// category at their position (1-based, in slice order), keeping the best
// position ever seen. Every other story of the category becomes inactive.
func (s Store) RecordListing(ctx context.Context, category string, fictionIDs []string) error {
	ctx, span := tracer.Start(ctx, "RecordListing")
	defer span.End()
	span.SetAttributes(
		attribute.String("category", category),
		attribute.Int("listed", len(fictionIDs)),
	)

	err := s.recordListing(ctx, category, fictionIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return storageError("record listing", err)
	}
	return nil
}

func (s Store) recordListing(ctx context.Context, category string, fictionIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.DeactivateRisingStars(ctx, category)
	if err != nil {
		return err
	}
	for i, fictionID := range fictionIDs {
		storyIDs, err := txqry.GetStoryIdsByFictionId(ctx, sql.NullString{String: fictionID, Valid: true})
		if err != nil {
			return err
		}
		for _, storyID := range storyIDs {
			err = txqry.UpsertRisingStar(ctx, db.UpsertRisingStarParams{
				StoryID:         storyID,
				Genre:           category,
				HighestPosition: int64(i + 1),
			})
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}
