package royalroad

import (
	"storywatch-backend/lib/restyutil"
	"storywatch-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("storywatch.lib.scrapers.royalroad")

// SetRestyDumpOutput makes every client created afterwards dump its HTTP
// exchanges to out while debug logging is enabled.
func SetRestyDumpOutput(out restyutil.DumpOutput) {
	dumpOutput = out
}

var dumpOutput restyutil.DumpOutput
