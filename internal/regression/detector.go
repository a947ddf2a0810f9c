// Package regression flags metric shifts against rolling page baselines.
package regression

import (
	"log"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"vitals/domain/perf"
	"vitals/ports"
)

// Config holds detection settings.
type Config struct {
	// WindowAge prunes history entries older than this many minutes.
	WindowAge int

	// MinSamples is the evidence floor: below it no regression is ever
	// reported regardless of deviation.
	MinSamples int

	// SensitivityPercent is the minimum absolute change percent that
	// counts as a regression.
	SensitivityPercent float64
}

// DefaultConfig returns the stock detection settings.
func DefaultConfig() Config {
	return Config{
		WindowAge:          60,
		MinSamples:         5,
		SensitivityPercent: 15,
	}
}

// Detector keeps a pruned rolling history per page and compares each new
// sample's metrics against the median baseline over the window.
type Detector struct {
	config  Config
	clock   ports.Clock
	history map[string][]perf.MetricSample
}

// New creates a regression detector.
func New(config Config, clock ports.Clock) *Detector {
	if clock == nil {
		clock = ports.SystemClock()
	}
	if config.MinSamples <= 0 {
		config.MinSamples = DefaultConfig().MinSamples
	}
	if config.SensitivityPercent <= 0 {
		config.SensitivityPercent = DefaultConfig().SensitivityPercent
	}
	if config.WindowAge <= 0 {
		config.WindowAge = DefaultConfig().WindowAge
	}
	return &Detector{
		config:  config,
		clock:   clock,
		history: make(map[string][]perf.MetricSample),
	}
}

// Check appends the sample to the page's history, prunes entries older
// than the window, and flags metrics whose change against the median
// baseline meets the sensitivity threshold. With fewer than MinSamples
// retained entries there is insufficient evidence and nothing is flagged.
func (d *Detector) Check(page string, sample perf.MetricSample) []perf.Regression {
	now := d.clock.Now()
	cutoff := now.Add(-time.Duration(d.config.WindowAge) * time.Minute)

	entries := d.history[page]
	entries = append(entries, sample.Clone())
	pruned := entries[:0]
	for _, e := range entries {
		if !e.Timestamp.Before(cutoff) {
			pruned = append(pruned, e)
		}
	}
	d.history[page] = pruned

	if len(pruned) < d.config.MinSamples {
		return nil
	}

	var regressions []perf.Regression
	for metric, current := range sample.Metrics {
		historical := metricSeries(pruned, metric)
		if len(historical) < d.config.MinSamples {
			continue
		}

		baseline, err := stats.Median(historical)
		if err != nil || baseline == 0 {
			continue
		}
		changePercent := (current - baseline) / baseline * 100
		if math.Abs(changePercent) < d.config.SensitivityPercent {
			continue
		}

		trend := perf.TrendImproving
		if changePercent > 0 {
			trend = perf.TrendDegrading
		}
		regressions = append(regressions, perf.Regression{
			Page:          page,
			Metric:        metric,
			Current:       current,
			Baseline:      baseline,
			ChangePercent: changePercent,
			Trend:         trend,
			Severity:      perf.SeverityForChangePercent(math.Abs(changePercent)),
			Confidence:    confidence(historical),
			DetectedAt:    now,
		})
	}

	if len(regressions) > 0 {
		log.Printf("[Regression] page %s: %d metric(s) shifted beyond %.0f%%",
			page, len(regressions), d.config.SensitivityPercent)
	}
	return regressions
}

// HistorySize reports the retained window length for a page.
func (d *Detector) HistorySize(page string) int {
	return len(d.history[page])
}

// confidence estimates how trustworthy a detected shift is from the
// coefficient of variation of the historical values: a quiet baseline
// makes a shift more likely to be real than noise. Floored at 0.5.
func confidence(values []float64) float64 {
	mean, err := stats.Mean(values)
	if err != nil || mean == 0 {
		return 0.5
	}
	stdDev, err := stats.StandardDeviation(values)
	if err != nil {
		return 0.5
	}
	c := 1 - stdDev/math.Abs(mean)
	if c < 0.5 {
		return 0.5
	}
	if c > 1 {
		return 1
	}
	return c
}

// metricSeries extracts one metric's values from the window in order.
func metricSeries(entries []perf.MetricSample, metric string) []float64 {
	out := make([]float64, 0, len(entries))
	for _, e := range entries {
		if v, ok := e.Metrics[metric]; ok {
			out = append(out, v)
		}
	}
	return out
}
