package perf

import (
	"time"

	"vitals/domain/core"
)

// Well-known performance metric names collected per page visit.
const (
	MetricPageLoadTime           = "page_load_time"
	MetricFirstContentfulPaint   = "first_contentful_paint"
	MetricLargestContentfulPaint = "largest_contentful_paint"
	MetricTimeToInteractive      = "time_to_interactive"
	MetricCumulativeLayoutShift  = "cumulative_layout_shift"
	MetricInteractionDelay       = "interaction_delay"
)

// PageClass groups pages that share a performance budget.
type PageClass string

const (
	// PageClassDefault is the fallback budget class for unknown pages.
	PageClassDefault   PageClass = "default"
	PageClassDashboard PageClass = "dashboard"
	PageClassEditor    PageClass = "editor"
	PageClassReport    PageClass = "report"
)

// MetricSample is one page visit's worth of latched metric observations.
// Samples are ephemeral: consumers keep at most a bounded rolling window.
type MetricSample struct {
	Page      string             `json:"page"`
	Metrics   map[string]float64 `json:"metrics"`
	Timestamp time.Time          `json:"timestamp"`
	SessionID core.SessionID     `json:"session_id"`
	UserID    core.UserID        `json:"user_id,omitempty"`
}

// Clone returns a deep copy so retained history cannot alias caller maps.
func (s MetricSample) Clone() MetricSample {
	metrics := make(map[string]float64, len(s.Metrics))
	for k, v := range s.Metrics {
		metrics[k] = v
	}
	out := s
	out.Metrics = metrics
	return out
}
