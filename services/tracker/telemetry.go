package tracker

import (
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("storywatch.services.tracker")

var meter = otel.Meter("storywatch.services.tracker")
var announcementCounter, _ = meter.Int64Counter("announcements")
var rankCounter, _ = meter.Int64Counter("rank_transitions")
var evaluationFailures, _ = meter.Int64Counter("evaluation_failures")

func now(fn func() time.Time) time.Time {
	if fn == nil {
		return time.Now()
	}
	return fn()
}
