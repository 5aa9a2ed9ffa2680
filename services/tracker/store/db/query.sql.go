package db

import (
	"context"
	"database/sql"
)

const createStory = `-- name: CreateStory :one
insert into story (story_address, story_id, story_name, story_author_id, story_author, blurb, cover_image, updated_at)
values (?, ?, ?, ?, ?, ?, ?, ?)
returning id
`

type CreateStoryParams struct {
	StoryAddress  string
	StoryID       sql.NullString
	StoryName     string
	StoryAuthorID sql.NullString
	StoryAuthor   sql.NullString
	Blurb         sql.NullString
	CoverImage    sql.NullString
	UpdatedAt     int64
}

func (q *Queries) CreateStory(ctx context.Context, arg CreateStoryParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createStory,
		arg.StoryAddress,
		arg.StoryID,
		arg.StoryName,
		arg.StoryAuthorID,
		arg.StoryAuthor,
		arg.Blurb,
		arg.CoverImage,
		arg.UpdatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createUserStory = `-- name: CreateUserStory :exec
insert into user_story (guild_id, member_id, member_name, story_id)
values (?, ?, ?, ?)
on conflict (guild_id, member_id, story_id) do update set
    member_name = excluded.member_name
`

type CreateUserStoryParams struct {
	GuildID    string
	MemberID   string
	MemberName string
	StoryID    int64
}

func (q *Queries) CreateUserStory(ctx context.Context, arg CreateUserStoryParams) error {
	_, err := q.db.ExecContext(ctx, createUserStory,
		arg.GuildID,
		arg.MemberID,
		arg.MemberName,
		arg.StoryID,
	)
	return err
}

const deactivateRisingStars = `-- name: DeactivateRisingStars :exec
update rising_stars set active = 0 where genre = ?
`

func (q *Queries) DeactivateRisingStars(ctx context.Context, genre string) error {
	_, err := q.db.ExecContext(ctx, deactivateRisingStars, genre)
	return err
}

const deleteUserStories = `-- name: DeleteUserStories :execrows
delete from user_story where guild_id = ? and member_id = ?
`

type DeleteUserStoriesParams struct {
	GuildID  string
	MemberID string
}

func (q *Queries) DeleteUserStories(ctx context.Context, arg DeleteUserStoriesParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteUserStories, arg.GuildID, arg.MemberID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getActiveRisingStars = `-- name: GetActiveRisingStars :many
select story_id, genre, highest_position, active from rising_stars where story_id = ? and active = 1 order by genre
`

func (q *Queries) GetActiveRisingStars(ctx context.Context, storyID int64) ([]RisingStar, error) {
	rows, err := q.db.QueryContext(ctx, getActiveRisingStars, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RisingStar
	for rows.Next() {
		var i RisingStar
		if err := rows.Scan(
			&i.StoryID,
			&i.Genre,
			&i.HighestPosition,
			&i.Active,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getAllUserStories = `-- name: GetAllUserStories :many
select guild_id, member_id, member_name, story_id from user_story order by guild_id, member_id, story_id
`

func (q *Queries) GetAllUserStories(ctx context.Context) ([]UserStory, error) {
	rows, err := q.db.QueryContext(ctx, getAllUserStories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UserStory
	for rows.Next() {
		var i UserStory
		if err := rows.Scan(
			&i.GuildID,
			&i.MemberID,
			&i.MemberName,
			&i.StoryID,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getConfigDocument = `-- name: GetConfigDocument :one
select body from config_document where name = ?
`

func (q *Queries) GetConfigDocument(ctx context.Context, name string) (string, error) {
	row := q.db.QueryRowContext(ctx, getConfigDocument, name)
	var body string
	err := row.Scan(&body)
	return body, err
}

const getMemberStories = `-- name: GetMemberStories :many
select story.id, story.story_address, story.story_id, story.story_name, story.story_author_id, story.story_author, story.blurb, story.cover_image, story.latest_followers, story.latest_ratings, story.latest_favourites, story.latest_views, story.latest_words, story.updated_at from user_story
inner join story on story.id = user_story.story_id
where user_story.guild_id = ? and user_story.member_id = ?
order by story.story_name
`

type GetMemberStoriesParams struct {
	GuildID  string
	MemberID string
}

func (q *Queries) GetMemberStories(ctx context.Context, arg GetMemberStoriesParams) ([]Story, error) {
	rows, err := q.db.QueryContext(ctx, getMemberStories, arg.GuildID, arg.MemberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Story
	for rows.Next() {
		i, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRisingStars = `-- name: GetRisingStars :many
select story_id, genre, highest_position, active from rising_stars where genre = ? order by highest_position, story_id
`

func (q *Queries) GetRisingStars(ctx context.Context, genre string) ([]RisingStar, error) {
	rows, err := q.db.QueryContext(ctx, getRisingStars, genre)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RisingStar
	for rows.Next() {
		var i RisingStar
		if err := rows.Scan(
			&i.StoryID,
			&i.Genre,
			&i.HighestPosition,
			&i.Active,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getStory = `-- name: GetStory :one
select id, story_address, story_id, story_name, story_author_id, story_author, blurb, cover_image, latest_followers, latest_ratings, latest_favourites, latest_views, latest_words, updated_at from story where id = ?
`

func (q *Queries) GetStory(ctx context.Context, id int64) (Story, error) {
	row := q.db.QueryRowContext(ctx, getStory, id)
	return scanStory(row)
}

const getStoryIdByAddress = `-- name: GetStoryIdByAddress :one
select id from story where story_address = ?
`

func (q *Queries) GetStoryIdByAddress(ctx context.Context, storyAddress string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getStoryIdByAddress, storyAddress)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getStoryIdsByFictionId = `-- name: GetStoryIdsByFictionId :many
select id from story where story_id = ?
`

func (q *Queries) GetStoryIdsByFictionId(ctx context.Context, storyID sql.NullString) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, getStoryIdsByFictionId, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getUserStories = `-- name: GetUserStories :many
select guild_id, member_id, member_name, story_id from user_story where guild_id = ? order by member_id, story_id
`

func (q *Queries) GetUserStories(ctx context.Context, guildID string) ([]UserStory, error) {
	rows, err := q.db.QueryContext(ctx, getUserStories, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UserStory
	for rows.Next() {
		var i UserStory
		if err := rows.Scan(
			&i.GuildID,
			&i.MemberID,
			&i.MemberName,
			&i.StoryID,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listStories = `-- name: ListStories :many
select id, story_address, story_id, story_name, story_author_id, story_author, blurb, cover_image, latest_followers, latest_ratings, latest_favourites, latest_views, latest_words, updated_at from story order by story_name
`

func (q *Queries) ListStories(ctx context.Context) ([]Story, error) {
	rows, err := q.db.QueryContext(ctx, listStories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Story
	for rows.Next() {
		i, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setConfigDocument = `-- name: SetConfigDocument :exec
insert into config_document (name, body) values (?, ?)
on conflict (name) do update set body = excluded.body
`

type SetConfigDocumentParams struct {
	Name string
	Body string
}

func (q *Queries) SetConfigDocument(ctx context.Context, arg SetConfigDocumentParams) error {
	_, err := q.db.ExecContext(ctx, setConfigDocument, arg.Name, arg.Body)
	return err
}

const updateStory = `-- name: UpdateStory :exec
update story set
    story_id = ?,
    story_name = ?,
    story_author_id = ?,
    story_author = ?,
    blurb = ?,
    cover_image = ?,
    updated_at = ?
where id = ?
`

type UpdateStoryParams struct {
	StoryID       sql.NullString
	StoryName     string
	StoryAuthorID sql.NullString
	StoryAuthor   sql.NullString
	Blurb         sql.NullString
	CoverImage    sql.NullString
	UpdatedAt     int64
	ID            int64
}

func (q *Queries) UpdateStory(ctx context.Context, arg UpdateStoryParams) error {
	_, err := q.db.ExecContext(ctx, updateStory,
		arg.StoryID,
		arg.StoryName,
		arg.StoryAuthorID,
		arg.StoryAuthor,
		arg.Blurb,
		arg.CoverImage,
		arg.UpdatedAt,
		arg.ID,
	)
	return err
}

const updateStorySnapshot = `-- name: UpdateStorySnapshot :exec
update story set
    latest_followers = ?,
    latest_ratings = ?,
    latest_favourites = ?,
    latest_views = ?,
    latest_words = ?
where id = ?
`

type UpdateStorySnapshotParams struct {
	LatestFollowers  sql.NullInt64
	LatestRatings    sql.NullInt64
	LatestFavourites sql.NullInt64
	LatestViews      sql.NullInt64
	LatestWords      sql.NullInt64
	ID               int64
}

func (q *Queries) UpdateStorySnapshot(ctx context.Context, arg UpdateStorySnapshotParams) error {
	_, err := q.db.ExecContext(ctx, updateStorySnapshot,
		arg.LatestFollowers,
		arg.LatestRatings,
		arg.LatestFavourites,
		arg.LatestViews,
		arg.LatestWords,
		arg.ID,
	)
	return err
}

const upsertRisingStar = `-- name: UpsertRisingStar :exec
insert into rising_stars (story_id, genre, highest_position, active)
values (?, ?, ?, 1)
on conflict (story_id, genre) do update set
    highest_position = min(rising_stars.highest_position, excluded.highest_position),
    active = 1
`

type UpsertRisingStarParams struct {
	StoryID         int64
	Genre           string
	HighestPosition int64
}

func (q *Queries) UpsertRisingStar(ctx context.Context, arg UpsertRisingStarParams) error {
	_, err := q.db.ExecContext(ctx, upsertRisingStar, arg.StoryID, arg.Genre, arg.HighestPosition)
	return err
}
