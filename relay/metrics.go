package relay

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/StephenDK/Secure-Line/internal/otel"
)

var (
	// Connection metrics
	connectionsActive   metric.Int64UpDownCounter
	connectionsTotal    metric.Int64Counter
	connectionsRejected metric.Int64Counter

	// Room metrics
	roomsActive   metric.Int64UpDownCounter
	peersActive   metric.Int64UpDownCounter
	joinsTotal    metric.Int64Counter
	joinsRejected metric.Int64Counter

	// Message metrics
	messagesReceived  metric.Int64Counter
	messagesForwarded metric.Int64Counter
	messagesDropped   metric.Int64Counter
	forwardsFailed    metric.Int64Counter
)

func init() {
	f := intotel.NewFactory("relay", intotel.PrefixRelay)

	f.Int64UpDownCounter(&connectionsActive, "connections.active",
		metric.WithDescription("Number of active WebSocket connections"))

	f.Int64Counter(&connectionsTotal, "connections.total",
		metric.WithDescription("Total WebSocket connections established"))

	f.Int64Counter(&connectionsRejected, "connections.rejected",
		metric.WithDescription("Total connections rejected before admission"))

	f.Int64UpDownCounter(&roomsActive, "rooms.active",
		metric.WithDescription("Number of rooms with at least one occupant"))

	f.Int64UpDownCounter(&peersActive, "peers.active",
		metric.WithDescription("Number of occupied room slots"))

	f.Int64Counter(&joinsTotal, "joins.total",
		metric.WithDescription("Total successful room joins"))

	f.Int64Counter(&joinsRejected, "joins.rejected",
		metric.WithDescription("Total joins rejected with room full"))

	f.Int64Counter(&messagesReceived, "messages.received",
		metric.WithDescription("Total messages received from clients"))

	f.Int64Counter(&messagesForwarded, "messages.forwarded",
		metric.WithDescription("Total messages forwarded to the peer slot"))

	f.Int64Counter(&messagesDropped, "messages.dropped",
		metric.WithDescription("Total messages dropped without forwarding"))

	f.Int64Counter(&forwardsFailed, "forwards.failed",
		metric.WithDescription("Total forward attempts that failed to send"))
}
