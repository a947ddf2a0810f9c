package app

import (
	"math/rand"
	"testing"
	"time"

	"vitals/adapters/memory"
	domainalerting "vitals/domain/alerting"
	"vitals/domain/core"
	"vitals/domain/perf"
	"vitals/internal/alerting"
	"vitals/internal/budget"
	"vitals/internal/collector"
	"vitals/internal/regression"
)

func newMonitorHarness(t *testing.T) (*Monitor, *memory.FakeClock, *memory.RecordingSink) {
	t.Helper()
	clock := memory.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	telemetry := memory.NewRecordingSink()
	telemetry.Quiet = true
	rng := rand.New(rand.NewSource(1))

	alerts := alerting.NewManager(alerting.DefaultConfig(), clock, nil, nil)
	monitor := NewMonitor(
		collector.New(rng, clock, telemetry),
		budget.NewEvaluator(nil),
		regression.New(regression.DefaultConfig(), clock),
		alerts,
		telemetry,
	)
	return monitor, clock, telemetry
}

func seedLoadTimeRule(t *testing.T, m *Monitor, threshold float64) {
	t.Helper()
	err := m.Alerts().AddRule(domainalerting.Rule{
		ID:        core.RuleID("rule-load"),
		Name:      "slow load",
		Metric:    perf.MetricPageLoadTime,
		Condition: domainalerting.ConditionGreaterThan,
		Threshold: threshold,
		Severity:  perf.SeverityHigh,
		Cooldown:  time.Minute,
		Enabled:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestPipelineBudgetAndThreshold(t *testing.T) {
	monitor, _, telemetry := newMonitorHarness(t)
	seedLoadTimeRule(t, monitor, 3000)

	visit := monitor.ObservePage("/recipes", perf.PageClassDefault, 1, "s1", "u1")
	visit.Record(perf.MetricPageLoadTime, 7000)

	if got := telemetry.CountByName("budget_violations"); got != 1 {
		t.Errorf("budget_violations emissions = %d, want 1", got)
	}

	active := monitor.Alerts().ListActive()
	if len(active) != 1 {
		t.Fatalf("active alerts = %d, want 1", len(active))
	}
	if active[0].Kind != domainalerting.KindThreshold {
		t.Errorf("alert kind = %s, want threshold", active[0].Kind)
	}
	if active[0].Page != "/recipes" {
		t.Errorf("alert page = %s", active[0].Page)
	}
}

func TestPipelineRegressionAlert(t *testing.T) {
	monitor, clock, _ := newMonitorHarness(t)

	for i := 0; i < 9; i++ {
		v := monitor.ObservePage("/recipes", perf.PageClassDefault, 1, "s1", "u1")
		v.Record(perf.MetricPageLoadTime, 2000)
		clock.Advance(time.Minute)
	}

	// Under budget, but 50% above the rolling median baseline.
	v := monitor.ObservePage("/recipes", perf.PageClassDefault, 1, "s1", "u1")
	v.Record(perf.MetricPageLoadTime, 2900)

	regressions := monitor.Alerts().List(domainalerting.Filter{Kind: domainalerting.KindRegression})
	if len(regressions) != 1 {
		t.Fatalf("regression alerts = %d, want 1", len(regressions))
	}
	if regressions[0].PreviousValue != 2000 {
		t.Errorf("baseline = %v, want 2000", regressions[0].PreviousValue)
	}
}

func TestPipelinePanicSuppressed(t *testing.T) {
	clock := memory.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	telemetry := memory.NewRecordingSink()
	telemetry.Quiet = true
	rng := rand.New(rand.NewSource(1))

	// A nil detector makes the regression stage panic; the visit must keep
	// working regardless.
	monitor := NewMonitor(
		collector.New(rng, clock, telemetry),
		budget.NewEvaluator(nil),
		nil,
		alerting.NewManager(alerting.DefaultConfig(), clock, nil, nil),
		telemetry,
	)

	v := monitor.ObservePage("/recipes", perf.PageClassDefault, 1, "s1", "u1")
	v.Record(perf.MetricPageLoadTime, 7000)
	v.Record(perf.MetricTimeToInteractive, 12000)

	if got := len(v.Sample().Metrics); got != 2 {
		t.Errorf("latched metrics = %d, want 2 despite downstream panic", got)
	}
}

func TestUnsampledVisitBypassesPipeline(t *testing.T) {
	monitor, _, telemetry := newMonitorHarness(t)

	v := monitor.ObservePage("/recipes", perf.PageClassDefault, 0, "s1", "u1")
	v.Record(perf.MetricPageLoadTime, 99999)

	if got := telemetry.CountByName("budget_violations"); got != 0 {
		t.Errorf("unsampled visit reached the pipeline, emissions = %d", got)
	}
	if got := len(monitor.Alerts().ListActive()); got != 0 {
		t.Errorf("unsampled visit produced %d alerts", got)
	}
}

func TestMonitorCloseIdempotent(t *testing.T) {
	monitor, _, telemetry := newMonitorHarness(t)
	seedLoadTimeRule(t, monitor, 3000)

	v := monitor.ObservePage("/recipes", perf.PageClassDefault, 1, "s1", "u1")
	monitor.Close()
	monitor.Close()

	v.Record(perf.MetricPageLoadTime, 7000)
	if got := telemetry.CountByName("budget_violations"); got != 0 {
		t.Errorf("closed monitor processed a record, emissions = %d", got)
	}

	// Visits observed after Close arrive already closed.
	late := monitor.ObservePage("/recipes", perf.PageClassDefault, 1, "s2", "u2")
	late.Record(perf.MetricPageLoadTime, 7000)
	if got := len(monitor.Alerts().ListActive()); got != 0 {
		t.Errorf("post-close visit fired %d alerts", got)
	}
}
