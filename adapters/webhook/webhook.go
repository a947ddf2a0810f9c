// Package webhook posts alerts to an external HTTP endpoint.
//
// Dispatch is fire-and-forget: Send returns immediately after handing the
// alert to a bounded background worker, so a slow or dead endpoint can
// never block alert recording or any caller-facing path.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"vitals/domain/alerting"
)

// Config holds webhook delivery settings.
type Config struct {
	URL string

	// Timeout bounds each POST attempt.
	Timeout time.Duration

	// MaxRetries bounds re-attempts after a failed POST.
	MaxRetries int

	// MaxInFlight bounds concurrent deliveries; excess alerts are
	// dropped with a log line rather than queued without bound.
	MaxInFlight int64
}

// DefaultConfig returns the stock delivery settings.
func DefaultConfig(url string) Config {
	return Config{
		URL:         url,
		Timeout:     5 * time.Second,
		MaxRetries:  2,
		MaxInFlight: 8,
	}
}

// Channel delivers alerts over HTTP POST.
type Channel struct {
	config Config
	client *http.Client
	sem    *semaphore.Weighted
}

// New creates a webhook channel. An empty URL yields a disabled channel.
func New(config Config) *Channel {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.MaxInFlight <= 0 {
		config.MaxInFlight = 8
	}
	return &Channel{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		sem:    semaphore.NewWeighted(config.MaxInFlight),
	}
}

// Name implements ports.AlertChannel.
func (c *Channel) Name() string { return "webhook" }

// Enabled implements ports.AlertChannel.
func (c *Channel) Enabled() bool { return c.config.URL != "" }

// Send hands the alert to a background delivery attempt and returns
// immediately. When the in-flight bound is saturated the alert is dropped
// and logged, never queued.
func (c *Channel) Send(ctx context.Context, alert alerting.Alert) error {
	if !c.sem.TryAcquire(1) {
		log.Printf("[Webhook] dropping alert %s: too many deliveries in flight", alert.ID)
		return nil
	}
	go func() {
		defer c.sem.Release(1)
		if err := c.deliver(alert); err != nil {
			log.Printf("[Webhook] giving up on alert %s after %d attempts: %v",
				alert.ID, c.config.MaxRetries+1, err)
		}
	}()
	return nil
}

// deliver POSTs the alert, retrying up to the configured bound.
func (c *Channel) deliver(alert alerting.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
		lastErr = c.post(payload)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (c *Channel) post(payload []byte) error {
	req, err := http.NewRequest(http.MethodPost, c.config.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
