package rpc

import "storywatch-backend/services/tracker"

const ServiceName = "storywatch.tracker.v1.TrackerService"

const (
	TrackStoryProcedure    = "/" + ServiceName + "/TrackStory"
	EvaluateStoryProcedure = "/" + ServiceName + "/EvaluateStory"
	ListStoriesProcedure   = "/" + ServiceName + "/ListStories"
)

type TrackStoryRequest struct {
	GuildID    string `json:"guild_id"`
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
	Url        string `json:"url"`
}

type TrackStoryResponse struct {
	Story tracker.StoryRecord `json:"story"`
}

type EvaluateStoryRequest struct {
	GuildID  string `json:"guild_id"`
	MemberID string `json:"member_id"`
	StoryID  int64  `json:"story_id"`
}

type EvaluateStoryResponse struct {
	Report tracker.Report `json:"report"`
}

// ListStoriesRequest selects stories matching Query when it is set, the
// stories of a member when GuildID and MemberID are set, or every story.
type ListStoriesRequest struct {
	GuildID  string `json:"guild_id"`
	MemberID string `json:"member_id"`
	Query    string `json:"query"`
}

type ListStoriesResponse struct {
	Stories []tracker.StoryRecord `json:"stories"`
}
