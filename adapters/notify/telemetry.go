package notify

import (
	"context"

	"vitals/domain/alerting"
	"vitals/ports"
)

// TelemetryChannel forwards alerts to the structured telemetry sink.
type TelemetryChannel struct {
	sink ports.TelemetrySink
}

// NewTelemetryChannel creates a channel over the given sink.
func NewTelemetryChannel(sink ports.TelemetrySink) *TelemetryChannel {
	return &TelemetryChannel{sink: sink}
}

// Name implements ports.AlertChannel.
func (c *TelemetryChannel) Name() string { return "telemetry" }

// Enabled implements ports.AlertChannel.
func (c *TelemetryChannel) Enabled() bool { return c.sink != nil }

// Send emits the alert as a structured event. The sink contract forbids
// panics, so this channel cannot fail.
func (c *TelemetryChannel) Send(ctx context.Context, alert alerting.Alert) error {
	c.sink.Emit("alert_triggered", map[string]interface{}{
		"alert_id": alert.ID.String(),
		"kind":     string(alert.Kind),
		"metric":   alert.Metric,
		"severity": string(alert.Severity),
		"page":     alert.Page,
		"current":  alert.CurrentValue,
		"message":  alert.Message,
	})
	return nil
}
