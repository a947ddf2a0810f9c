package notify

import (
	"context"
	"log"

	"vitals/domain/alerting"
)

// EmailChannel is a stub: it logs where a real deployment would send
// mail. Kept as a channel so wiring does not change when a provider is
// plugged in.
type EmailChannel struct {
	recipient string
	enabled   bool
}

// NewEmailChannel creates the email stub. An empty recipient disables it.
func NewEmailChannel(recipient string) *EmailChannel {
	return &EmailChannel{recipient: recipient, enabled: recipient != ""}
}

// Name implements ports.AlertChannel.
func (c *EmailChannel) Name() string { return "email" }

// Enabled implements ports.AlertChannel.
func (c *EmailChannel) Enabled() bool { return c.enabled }

// Send logs the stubbed delivery.
func (c *EmailChannel) Send(ctx context.Context, alert alerting.Alert) error {
	log.Printf("[Email] would send %s alert %s to %s", alert.Severity, alert.ID, c.recipient)
	return nil
}
