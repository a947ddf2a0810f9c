package ports

import (
	"context"

	"vitals/domain/alerting"
)

// AlertChannel delivers alerts to one external destination. Send errors are
// logged by the caller and never affect recorded alert state.
type AlertChannel interface {
	// Name identifies the channel in logs.
	Name() string

	// Enabled reports whether the channel should receive dispatches.
	Enabled() bool

	// Send delivers one alert. Implementations that talk to the network
	// must bound their own retries and timeouts and must not block the
	// caller beyond local bookkeeping.
	Send(ctx context.Context, alert alerting.Alert) error
}
