package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"storywatch-backend/services/tracker"
	"storywatch-backend/services/tracker/store/db"
)

// names of the state documents in the config_document table
const (
	AnnouncedThresholdsDocument = "announced_thresholds"
	UserRanksDocument           = "user_ranks"
	AnnouncedMainDocument       = "announced_main"
)

// guild -> story -> threshold key -> announced
type announcedThresholds map[string]map[string]map[string]bool

// guild -> member -> story -> rank
type userRanks map[string]map[string]map[string]tracker.Rank

// guild -> story -> announced
type announcedMain map[string]map[string]bool

func storyKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func readDocument[T any](ctx context.Context, qry *db.Queries, name string) (T, error) {
	var doc T
	body, err := qry.GetConfigDocument(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, nil
	}
	if err != nil {
		return doc, storageError("read "+name, err)
	}
	err = json.Unmarshal([]byte(body), &doc)
	if err != nil {
		return doc, &tracker.ConfigError{Document: name, Err: err}
	}
	return doc, nil
}

// updateDocument applies update to a document inside a transaction.
func updateDocument[T any](ctx context.Context, s Store, name string, update func(doc T) T) error {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("begin "+name, err)
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	doc, err := readDocument[T](ctx, txqry, name)
	if err != nil {
		return err
	}
	body, err := json.Marshal(update(doc))
	if err != nil {
		return storageError("encode "+name, err)
	}
	err = txqry.SetConfigDocument(ctx, db.SetConfigDocumentParams{
		Name: name,
		Body: string(body),
	})
	if err != nil {
		return storageError("write "+name, err)
	}
	err = tx.Commit()
	if err != nil {
		return storageError("commit "+name, err)
	}
	return nil
}

func (s Store) AnnouncedThresholds(ctx context.Context, guildID string, storyID int64) (map[string]bool, error) {
	doc, err := readDocument[announcedThresholds](ctx, s.qry, AnnouncedThresholdsDocument)
	if err != nil {
		return nil, err
	}
	out := map[string]bool{}
	for key, announced := range doc[guildID][storyKey(storyID)] {
		if announced {
			out[key] = true
		}
	}
	return out, nil
}

func (s Store) MarkAnnounced(ctx context.Context, guildID string, storyID int64, keys []string) error {
	return updateDocument(ctx, s, AnnouncedThresholdsDocument, func(doc announcedThresholds) announcedThresholds {
		if doc == nil {
			doc = announcedThresholds{}
		}
		if doc[guildID] == nil {
			doc[guildID] = map[string]map[string]bool{}
		}
		story := storyKey(storyID)
		if doc[guildID][story] == nil {
			doc[guildID][story] = map[string]bool{}
		}
		for _, k := range keys {
			doc[guildID][story][k] = true
		}
		return doc
	})
}

func (s Store) UserRank(ctx context.Context, guildID, memberID string, storyID int64) (tracker.Rank, error) {
	doc, err := readDocument[userRanks](ctx, s.qry, UserRanksDocument)
	if err != nil {
		return tracker.RankNone, err
	}
	return doc[guildID][memberID][storyKey(storyID)], nil
}

// SetUserRank stores rank unless a higher one is already stored.
func (s Store) SetUserRank(ctx context.Context, guildID, memberID string, storyID int64, rank tracker.Rank) error {
	return updateDocument(ctx, s, UserRanksDocument, func(doc userRanks) userRanks {
		if doc == nil {
			doc = userRanks{}
		}
		if doc[guildID] == nil {
			doc[guildID] = map[string]map[string]tracker.Rank{}
		}
		if doc[guildID][memberID] == nil {
			doc[guildID][memberID] = map[string]tracker.Rank{}
		}
		story := storyKey(storyID)
		if rank > doc[guildID][memberID][story] {
			doc[guildID][memberID][story] = rank
		}
		return doc
	})
}

func (s Store) MainAnnounced(ctx context.Context, guildID string, storyID int64) (bool, error) {
	doc, err := readDocument[announcedMain](ctx, s.qry, AnnouncedMainDocument)
	if err != nil {
		return false, err
	}
	return doc[guildID][storyKey(storyID)], nil
}

func (s Store) MarkMainAnnounced(ctx context.Context, guildID string, storyID int64) error {
	return updateDocument(ctx, s, AnnouncedMainDocument, func(doc announcedMain) announcedMain {
		if doc == nil {
			doc = announcedMain{}
		}
		if doc[guildID] == nil {
			doc[guildID] = map[string]bool{}
		}
		doc[guildID][storyKey(storyID)] = true
		return doc
	})
}
