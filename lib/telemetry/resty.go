package telemetry

import (
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

// response bodies of scraped pages can be large, only this many bytes are
// attached to a span
const maxBodyAttribute = 4096

// InstrumentResty wraps every request made by the client in a span named
// after the request method and annotated with the response.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), req.Method)
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(onAfterResponse)
	client.OnError(onError)
}

func headerAttributes(prefix string, headers http.Header) []attribute.KeyValue {
	var out []attribute.KeyValue
	for header, values := range headers {
		out = append(out, attribute.StringSlice(
			fmt.Sprintf("%s/header: %s", prefix, header),
			values,
		))
	}
	return out
}

func truncate(body string) string {
	if len(body) <= maxBodyAttribute {
		return body
	}
	return body[:maxBodyAttribute] + "..."
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)
	// res.Request.RawRequest is only populated after the request is sent
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	span.SetAttributes(headerAttributes("request", res.Request.Header)...)
	span.SetAttributes(headerAttributes("response", res.Header())...)
	span.SetAttributes(attribute.String("response/body", truncate(res.String())))

	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}
	return nil
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetName(fmt.Sprintf("http %s", req.Method))
	span.SetAttributes(headerAttributes("request", req.Header)...)

	if req.RawRequest == nil {
		return
	}
	span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
}
