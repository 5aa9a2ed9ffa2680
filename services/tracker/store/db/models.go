package db

import (
	"database/sql"
)

type ConfigDocument struct {
	Name string
	Body string
}

type RisingStar struct {
	StoryID         int64
	Genre           string
	HighestPosition int64
	Active          bool
}

type Story struct {
	ID               int64
	StoryAddress     string
	StoryID          sql.NullString
	StoryName        string
	StoryAuthorID    sql.NullString
	StoryAuthor      sql.NullString
	Blurb            sql.NullString
	CoverImage       sql.NullString
	LatestFollowers  sql.NullInt64
	LatestRatings    sql.NullInt64
	LatestFavourites sql.NullInt64
	LatestViews      sql.NullInt64
	LatestWords      sql.NullInt64
	UpdatedAt        int64
}

type UserStory struct {
	GuildID    string
	MemberID   string
	MemberName string
	StoryID    int64
}
