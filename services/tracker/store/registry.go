package store

import (
	"context"

	"storywatch-backend/services/tracker"
	"storywatch-backend/services/tracker/store/db"
)

func (s Store) Track(ctx context.Context, sub tracker.Subscription) error {
	err := s.qry.CreateUserStory(ctx, db.CreateUserStoryParams{
		GuildID:    sub.GuildID,
		MemberID:   sub.MemberID,
		MemberName: sub.MemberName,
		StoryID:    sub.StoryID,
	})
	if err != nil {
		return storageError("track story", err)
	}
	return nil
}

// Untrack removes every story tracked by a member of a guild and returns
// how many there were.
func (s Store) Untrack(ctx context.Context, guildID, memberID string) (int64, error) {
	n, err := s.qry.DeleteUserStories(ctx, db.DeleteUserStoriesParams{
		GuildID:  guildID,
		MemberID: memberID,
	})
	if err != nil {
		return 0, storageError("untrack stories", err)
	}
	return n, nil
}

func (s Store) Subscriptions(ctx context.Context, guildID string) ([]tracker.Subscription, error) {
	var rows []db.UserStory
	var err error
	if guildID == "" {
		rows, err = s.qry.GetAllUserStories(ctx)
	} else {
		rows, err = s.qry.GetUserStories(ctx, guildID)
	}
	if err != nil {
		return nil, storageError("list subscriptions", err)
	}

	subs := make([]tracker.Subscription, len(rows))
	for i, r := range rows {
		subs[i] = tracker.Subscription{
			GuildID:    r.GuildID,
			MemberID:   r.MemberID,
			MemberName: r.MemberName,
			StoryID:    r.StoryID,
		}
	}
	return subs, nil
}

func (s Store) MemberStories(ctx context.Context, guildID, memberID string) ([]tracker.StoryRecord, error) {
	rows, err := s.qry.GetMemberStories(ctx, db.GetMemberStoriesParams{
		GuildID:  guildID,
		MemberID: memberID,
	})
	if err != nil {
		return nil, storageError("list member stories", err)
	}
	records := make([]tracker.StoryRecord, len(rows))
	for i, r := range rows {
		records[i] = toRecord(r)
	}
	return records, nil
}
