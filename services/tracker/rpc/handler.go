package rpc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"storywatch-backend/lib/serviceutil"
	"storywatch-backend/services/tracker"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("storywatch.services.tracker.rpc")

// Stories is the read side of the story store.
type Stories interface {
	ListStories(ctx context.Context) ([]tracker.StoryRecord, error)
	SearchStories(ctx context.Context, query string) ([]tracker.StoryRecord, error)
	MemberStories(ctx context.Context, guildID, memberID string) ([]tracker.StoryRecord, error)
	Subscriptions(ctx context.Context, guildID string) ([]tracker.Subscription, error)
}

type Handler struct {
	service tracker.Service
	stories Stories
}

func NewHandler(service tracker.Service, stories Stories) Handler {
	return Handler{
		service: service,
		stories: stories,
	}
}

// NewTrackerServiceHandler returns the path the handler should be mounted
// on and the handler serving every procedure of the service.
func NewTrackerServiceHandler(h Handler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(serviceutil.JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(TrackStoryProcedure, connect.NewUnaryHandler(TrackStoryProcedure, h.TrackStory, opts...))
	mux.Handle(EvaluateStoryProcedure, connect.NewUnaryHandler(EvaluateStoryProcedure, h.EvaluateStory, opts...))
	mux.Handle(ListStoriesProcedure, connect.NewUnaryHandler(ListStoriesProcedure, h.ListStories, opts...))
	return "/" + ServiceName + "/", mux
}

// connectError maps domain errors onto connect codes.
func connectError(err error) error {
	var fetchErr *tracker.FetchError
	var parseErr *tracker.ParseError
	var storageErr *tracker.StorageError
	var configErr *tracker.ConfigError

	switch {
	case errors.As(err, &fetchErr):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.As(err, &parseErr):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, sql.ErrNoRows):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.As(err, &storageErr), errors.As(err, &configErr):
		return connect.NewError(connect.CodeInternal, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	}
	return connect.NewError(connect.CodeUnknown, err)
}

func (h Handler) TrackStory(ctx context.Context, req *connect.Request[TrackStoryRequest]) (*connect.Response[TrackStoryResponse], error) {
	ctx, span := tracer.Start(ctx, "TrackStory")
	defer span.End()

	if req.Msg.GuildID == "" || req.Msg.MemberID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("guild and member must be specified"))
	}
	parsed, err := url.Parse(req.Msg.Url)
	if err != nil || parsed.Host == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid story url %q", req.Msg.Url))
	}
	span.SetAttributes(attribute.String("url", req.Msg.Url))

	story, err := h.service.TrackStory(ctx, req.Msg.GuildID, req.Msg.MemberID, req.Msg.MemberName, req.Msg.Url)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&TrackStoryResponse{Story: story}), nil
}

func (h Handler) EvaluateStory(ctx context.Context, req *connect.Request[EvaluateStoryRequest]) (*connect.Response[EvaluateStoryResponse], error) {
	ctx, span := tracer.Start(ctx, "EvaluateStory")
	defer span.End()

	subs, err := h.stories.Subscriptions(ctx, req.Msg.GuildID)
	if err != nil {
		return nil, connectError(err)
	}

	var sub *tracker.Subscription
	for _, s := range subs {
		if s.MemberID == req.Msg.MemberID && s.StoryID == req.Msg.StoryID {
			sub = &s
			break
		}
	}
	if sub == nil {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf(
			"member %s of guild %s does not track story %d",
			req.Msg.MemberID, req.Msg.GuildID, req.Msg.StoryID,
		))
	}

	report, err := h.service.EvaluateStory(ctx, *sub)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&EvaluateStoryResponse{Report: report}), nil
}

func (h Handler) ListStories(ctx context.Context, req *connect.Request[ListStoriesRequest]) (*connect.Response[ListStoriesResponse], error) {
	ctx, span := tracer.Start(ctx, "ListStories")
	defer span.End()

	var stories []tracker.StoryRecord
	var err error
	switch {
	case req.Msg.Query != "":
		stories, err = h.stories.SearchStories(ctx, req.Msg.Query)
	case req.Msg.GuildID != "" && req.Msg.MemberID != "":
		stories, err = h.stories.MemberStories(ctx, req.Msg.GuildID, req.Msg.MemberID)
	default:
		stories, err = h.stories.ListStories(ctx)
	}
	if err != nil {
		return nil, connectError(err)
	}
	if stories == nil {
		stories = []tracker.StoryRecord{}
	}
	return connect.NewResponse(&ListStoriesResponse{Stories: stories}), nil
}
