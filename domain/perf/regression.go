package perf

import "time"

// Trend is the direction of a detected metric shift.
type Trend string

const (
	TrendDegrading Trend = "degrading"
	TrendImproving Trend = "improving"
)

// Regression is a flagged deviation of a metric from its rolling
// historical baseline.
type Regression struct {
	Page          string    `json:"page"`
	Metric        string    `json:"metric"`
	Current       float64   `json:"current"`
	Baseline      float64   `json:"baseline"`
	ChangePercent float64   `json:"change_percent"`
	Trend         Trend     `json:"trend"`
	Severity      Severity  `json:"severity"`
	Confidence    float64   `json:"confidence"`
	DetectedAt    time.Time `json:"detected_at"`
}
