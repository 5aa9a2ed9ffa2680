package db

type scanner interface {
	Scan(dest ...any) error
}

func scanStory(row scanner) (Story, error) {
	var i Story
	err := row.Scan(
		&i.ID,
		&i.StoryAddress,
		&i.StoryID,
		&i.StoryName,
		&i.StoryAuthorID,
		&i.StoryAuthor,
		&i.Blurb,
		&i.CoverImage,
		&i.LatestFollowers,
		&i.LatestRatings,
		&i.LatestFavourites,
		&i.LatestViews,
		&i.LatestWords,
		&i.UpdatedAt,
	)
	return i, err
}
