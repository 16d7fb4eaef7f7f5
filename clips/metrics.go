package clips

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/StephenDK/Secure-Line/internal/otel"
)

var (
	clipsStored       metric.Int64Counter
	clipsFetched      metric.Int64Counter
	clipsExpired      metric.Int64Counter
	clipFetchesFailed metric.Int64Counter

	clipPayloadBytes metric.Int64Histogram
)

func init() {
	f := intotel.NewFactory("clips.store", intotel.PrefixClips)

	f.Int64Counter(&clipsStored, "stored",
		metric.WithDescription("Total clips ingested"))

	f.Int64Counter(&clipsFetched, "fetched",
		metric.WithDescription("Total clips handed out on successful fetch"))

	f.Int64Counter(&clipsExpired, "expired",
		metric.WithDescription("Total clips discarded by TTL expiry"))

	f.Int64Counter(&clipFetchesFailed, "fetches.failed",
		metric.WithDescription("Total rejected fetch attempts"))

	f.Int64Histogram(&clipPayloadBytes, "payload.bytes",
		metric.WithDescription("Size of ingested clip payloads"))
}
