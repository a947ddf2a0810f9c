package app

import (
	"log"

	"vitals/domain/core"
	"vitals/domain/perf"
	"vitals/internal/alerting"
	"vitals/internal/budget"
	"vitals/internal/collector"
	"vitals/internal/regression"
	"vitals/ports"
)

// Monitor is the session-scoped facade over the performance pipeline: a
// page visit's latched metrics flow into budget evaluation and regression
// detection, and what they flag flows into the alert manager.
//
// One Monitor serves one session context; callbacks within it never
// overlap, matching the collector's latch assumptions.
type Monitor struct {
	collector  *collector.Collector
	budget     *budget.Evaluator
	regression *regression.Detector
	alerts     *alerting.Manager
	telemetry  ports.TelemetrySink

	visits []*collector.Visit
	closed bool
}

// NewMonitor wires the performance pipeline.
func NewMonitor(col *collector.Collector, eval *budget.Evaluator, det *regression.Detector, alerts *alerting.Manager, telemetry ports.TelemetrySink) *Monitor {
	return &Monitor{
		collector:  col,
		budget:     eval,
		regression: det,
		alerts:     alerts,
		telemetry:  telemetry,
	}
}

// ObservePage registers collection for a page context. Every newly latched
// metric triggers budget evaluation, rule matching, and a regression
// check; anything flagged is handed to the alert manager. All downstream
// failures stay inside this subsystem (fail-open).
func (m *Monitor) ObservePage(page string, pageClass perf.PageClass, sampleRate float64, sessionID, userID string) *collector.Visit {
	visit := m.collector.Observe(page, sampleRate, core.SessionID(sessionID), core.UserID(userID))
	if m.closed {
		visit.Close()
		return visit
	}

	visit.OnSample(func(sample perf.MetricSample, metric string, value float64) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Monitor] pipeline panic on %s/%s suppressed: %v", page, metric, r)
			}
		}()

		report := m.budget.Evaluate(sample, pageClass)
		if !report.Passed() {
			m.emit("budget_violations", map[string]interface{}{
				"page":       page,
				"page_class": string(report.PageClass),
				"score":      report.Score,
				"violations": len(report.Violations),
				"worst":      string(report.Worst()),
			})
		}

		m.alerts.EvaluateMetric(page, metric, value)

		for _, reg := range m.regression.Check(page, sample) {
			m.alerts.IngestRegression(reg)
		}
	})

	m.visits = append(m.visits, visit)
	return visit
}

// EvaluateBudget exposes one-off budget evaluation for callers outside a
// page context (e.g. the HTTP API).
func (m *Monitor) EvaluateBudget(sample perf.MetricSample, pageClass perf.PageClass) perf.BudgetReport {
	return m.budget.Evaluate(sample, pageClass)
}

// CheckRegression exposes one-off regression checking.
func (m *Monitor) CheckRegression(page string, sample perf.MetricSample) []perf.Regression {
	return m.regression.Check(page, sample)
}

// Alerts returns the alert manager for listing and resolution.
func (m *Monitor) Alerts() *alerting.Manager {
	return m.alerts
}

// Close disposes every visit subscription exactly once. Idempotent.
func (m *Monitor) Close() {
	if m.closed {
		return
	}
	m.closed = true
	for _, v := range m.visits {
		v.Close()
	}
	m.visits = nil
}

func (m *Monitor) emit(event string, props map[string]interface{}) {
	if m.telemetry != nil {
		m.telemetry.Emit(event, props)
	}
}
