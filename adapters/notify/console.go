// Package notify provides the local alert channels: console logging, the
// telemetry sink bridge, and the email stub. The webhook channel lives in
// adapters/webhook.
package notify

import (
	"context"
	"log"

	"vitals/domain/alerting"
)

// ConsoleChannel logs every alert. It is always enabled.
type ConsoleChannel struct{}

// NewConsoleChannel creates the console channel.
func NewConsoleChannel() *ConsoleChannel {
	return &ConsoleChannel{}
}

// Name implements ports.AlertChannel.
func (c *ConsoleChannel) Name() string { return "console" }

// Enabled implements ports.AlertChannel; the console never turns off.
func (c *ConsoleChannel) Enabled() bool { return true }

// Send logs the alert.
func (c *ConsoleChannel) Send(ctx context.Context, alert alerting.Alert) error {
	log.Printf("[Alert][%s] %s: %s", alert.Severity, alert.Kind, alert.Message)
	return nil
}
