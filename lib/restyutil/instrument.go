package restyutil

import (
	"context"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type DumpOutput interface {
	Write(id string, contents string)
}

type messageIdKey struct{}

// DumpClient writes every request/response pair the client makes to output
// while debug logging is enabled. output can be nil, in which case this is
// a no-op.
func DumpClient(client *resty.Client, output DumpOutput) {
	if output == nil {
		return
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx := req.Context()
		if !slog.Default().Enabled(ctx, slog.LevelDebug) {
			return nil
		}
		messageId := uuid.NewString()
		slog.DebugContext(
			ctx, "start request",
			"method", req.Method,
			"url", req.URL,
			"message_id", messageId,
		)
		req.SetContext(context.WithValue(ctx, messageIdKey{}, messageId))
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		ctx := res.Request.Context()
		messageId, ok := ctx.Value(messageIdKey{}).(string)
		if !ok {
			return nil
		}
		output.Write(messageId, formatHttpMessage(res))
		slog.DebugContext(
			ctx, "request finished",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"status", res.StatusCode(),
			"message_id", messageId,
		)
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		messageId, _ := req.Context().Value(messageIdKey{}).(string)
		slog.ErrorContext(
			req.Context(), "request failed",
			"method", req.Method,
			"url", req.URL,
			"err", err,
			"message_id", messageId,
		)
	})
}
