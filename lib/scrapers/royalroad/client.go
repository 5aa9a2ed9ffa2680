package royalroad

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"storywatch-backend/lib/restyutil"
	"storywatch-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultBaseUrl = "https://www.royalroad.com"

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// defaults to 30 seconds
	Timeout time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(opts.Timeout)

	telemetry.InstrumentResty(client, "storywatch.lib.scrapers.royalroad/http")
	restyutil.DumpClient(client, dumpOutput)

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	if !res.IsSuccess() {
		return nil, &FetchError{URL: target, Status: res.StatusCode()}
	}
	return res.Body(), nil
}

// FetchStory downloads and parses a fiction page. storyUrl may be absolute
// or relative to the client's base url.
func (c *Client) FetchStory(ctx context.Context, storyUrl string) (RawStats, error) {
	ctx, span := tracer.Start(ctx, "FetchStory")
	defer span.End()
	span.SetAttributes(attribute.String("url", storyUrl))

	body, err := c.get(ctx, storyUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch story page")
		return RawStats{}, err
	}

	stats, err := ParseStory(ctx, bytes.NewReader(body), storyUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse story page")
		return RawStats{}, err
	}
	return stats, nil
}

// FetchRisingStars downloads and parses the Rising Stars list of a
// category, which is either MainCategory or a genre.
func (c *Client) FetchRisingStars(ctx context.Context, category string) ([]ListedFiction, error) {
	ctx, span := tracer.Start(ctx, "FetchRisingStars")
	defer span.End()
	span.SetAttributes(attribute.String("category", category))

	target := RisingStarsPath(category)
	body, err := c.get(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch rising stars")
		return nil, err
	}

	listed, err := ParseRisingStars(ctx, bytes.NewReader(body), target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse rising stars")
		return nil, err
	}
	return listed, nil
}

func RisingStarsPath(category string) string {
	if category == MainCategory {
		return "/fictions/rising-stars"
	}
	return fmt.Sprintf("/fictions/rising-stars?genre=%s", url.QueryEscape(category))
}
