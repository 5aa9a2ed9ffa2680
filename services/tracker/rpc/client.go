package rpc

import (
	"context"
	"strings"

	"storywatch-backend/lib/serviceutil"

	"connectrpc.com/connect"
)

type Client struct {
	trackStory    *connect.Client[TrackStoryRequest, TrackStoryResponse]
	evaluateStory *connect.Client[EvaluateStoryRequest, EvaluateStoryResponse]
	listStories   *connect.Client[ListStoriesRequest, ListStoriesResponse]
}

func NewClient(httpClient connect.HTTPClient, baseUrl string, opts ...connect.ClientOption) Client {
	baseUrl = strings.TrimRight(baseUrl, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(serviceutil.JSONCodec{})}, opts...)
	return Client{
		trackStory: connect.NewClient[TrackStoryRequest, TrackStoryResponse](
			httpClient, baseUrl+TrackStoryProcedure, opts...,
		),
		evaluateStory: connect.NewClient[EvaluateStoryRequest, EvaluateStoryResponse](
			httpClient, baseUrl+EvaluateStoryProcedure, opts...,
		),
		listStories: connect.NewClient[ListStoriesRequest, ListStoriesResponse](
			httpClient, baseUrl+ListStoriesProcedure, opts...,
		),
	}
}

func (c Client) TrackStory(ctx context.Context, req TrackStoryRequest) (TrackStoryResponse, error) {
	res, err := c.trackStory.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return TrackStoryResponse{}, err
	}
	return *res.Msg, nil
}

func (c Client) EvaluateStory(ctx context.Context, req EvaluateStoryRequest) (EvaluateStoryResponse, error) {
	res, err := c.evaluateStory.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return EvaluateStoryResponse{}, err
	}
	return *res.Msg, nil
}

func (c Client) ListStories(ctx context.Context, req ListStoriesRequest) (ListStoriesResponse, error) {
	res, err := c.listStories.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return ListStoriesResponse{}, err
	}
	return *res.Msg, nil
}
