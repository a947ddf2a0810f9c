// Package collector samples performance metrics per page visit.
//
// A Bernoulli trial at Observe time decides whether a visit is
// instrumented at all, which bounds collection volume. Within an
// instrumented visit each metric latches on its first observed value, so
// overlapping signal sources (navigation timing, paint observers, manual
// marks) cannot double-emit the same metric.
package collector

import (
	"log"
	"time"

	"vitals/domain/core"
	"vitals/domain/perf"
	"vitals/ports"
)

// SampleHandler receives the visit's sample after each newly latched
// metric. Handlers run synchronously in callback order; the latch
// guarantees each metric appears in at most one invocation as "new".
type SampleHandler func(sample perf.MetricSample, metric string, value float64)

// Collector creates instrumented page visits.
type Collector struct {
	rng       ports.RNG
	clock     ports.Clock
	telemetry ports.TelemetrySink
}

// New creates a metric collector.
func New(rng ports.RNG, clock ports.Clock, telemetry ports.TelemetrySink) *Collector {
	if clock == nil {
		clock = ports.SystemClock()
	}
	return &Collector{rng: rng, clock: clock, telemetry: telemetry}
}

// Visit is one page visit's collection context. Not safe for concurrent
// use: callbacks within one page context never overlap.
type Visit struct {
	collector *Collector
	page      string
	sessionID core.SessionID
	userID    core.UserID
	sampled   bool
	closed    bool
	latched   map[string]float64
	handlers  []SampleHandler
}

// Observe registers collection for the current page context. The sample
// rate is clamped to [0,1]; unsampled visits return a Visit that drops
// every Record call.
func (c *Collector) Observe(page string, sampleRate float64, sessionID core.SessionID, userID core.UserID) *Visit {
	if sampleRate < 0 {
		sampleRate = 0
	}
	if sampleRate > 1 {
		sampleRate = 1
	}

	sampled := sampleRate > 0 && c.rng.Float64() < sampleRate
	if !sampled {
		log.Printf("[Collector] page %s not sampled (rate=%.2f)", page, sampleRate)
	}
	return &Visit{
		collector: c,
		page:      page,
		sessionID: sessionID,
		userID:    userID,
		sampled:   sampled,
		latched:   make(map[string]float64),
	}
}

// OnSample subscribes a handler to this visit's latched metrics.
func (v *Visit) OnSample(h SampleHandler) {
	v.handlers = append(v.handlers, h)
}

// Sampled reports whether this visit is instrumented.
func (v *Visit) Sampled() bool { return v.sampled }

// Record latches a metric value. The first observation wins; later values
// for the same metric on the same visit are dropped. Records on unsampled
// or closed visits are no-ops.
func (v *Visit) Record(metric string, value float64) {
	if !v.sampled || v.closed {
		return
	}
	if _, seen := v.latched[metric]; seen {
		return
	}
	v.latched[metric] = value

	sample := v.Sample()
	if v.collector.telemetry != nil {
		v.collector.telemetry.Emit("metric_collected", map[string]interface{}{
			"page":   v.page,
			"metric": metric,
			"value":  value,
		})
	}
	for _, h := range v.handlers {
		h(sample, metric, value)
	}
}

// Sample snapshots the latched metrics collected so far.
func (v *Visit) Sample() perf.MetricSample {
	metrics := make(map[string]float64, len(v.latched))
	for k, val := range v.latched {
		metrics[k] = val
	}
	return perf.MetricSample{
		Page:      v.page,
		Metrics:   metrics,
		Timestamp: v.now(),
		SessionID: v.sessionID,
		UserID:    v.userID,
	}
}

// Close tears the visit down. Idempotent; further Records are dropped.
func (v *Visit) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.handlers = nil
}

func (v *Visit) now() time.Time {
	return v.collector.clock.Now()
}
