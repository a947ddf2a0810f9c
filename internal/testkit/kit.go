// Package testkit assembles a fully wired in-memory engine for tests and
// demo runs.
package testkit

import (
	"math/rand"
	"time"

	"vitals/adapters/memory"
	"vitals/adapters/notify"
	"vitals/app"
	"vitals/domain/alerting"
	"vitals/domain/core"
	"vitals/domain/experiment"
	"vitals/domain/perf"
	internalalerting "vitals/internal/alerting"
	"vitals/internal/budget"
	"vitals/internal/collector"
	"vitals/internal/regression"
	"vitals/ports"
)

// Kit is a wired in-memory engine with deterministic clock and RNG.
type Kit struct {
	Clock     *memory.FakeClock
	Store     *memory.KVStore
	Telemetry *memory.RecordingSink
	Registry  *app.Registry
	Assigner  *app.Assigner
	Results   *app.Aggregator
	Alerts    *internalalerting.Manager
	Monitor   *app.Monitor
}

// New builds a kit seeded for reproducible draws. The clock starts at a
// fixed instant; tests advance it explicitly.
func New(seed int64) *Kit {
	clock := memory.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := memory.NewKVStore()
	telemetry := memory.NewRecordingSink()
	telemetry.Quiet = true
	rng := rand.New(rand.NewSource(seed))

	registry := app.NewRegistry(app.DefaultRegistryConfig(), clock)
	aggregator := app.NewAggregator(registry, telemetry, app.DefaultAggregatorConfig())
	assigner := app.NewAssigner(registry, store, telemetry, rng, clock, app.DefaultAssignerConfig())

	alerts := internalalerting.NewManager(
		internalalerting.DefaultConfig(),
		clock,
		[]ports.AlertChannel{
			notify.NewConsoleChannel(),
			notify.NewTelemetryChannel(telemetry),
		},
		nil,
	)

	monitor := app.NewMonitor(
		collector.New(rng, clock, telemetry),
		budget.NewEvaluator(nil),
		regression.New(regression.DefaultConfig(), clock),
		alerts,
		telemetry,
	)

	return &Kit{
		Clock:     clock,
		Store:     store,
		Telemetry: telemetry,
		Registry:  registry,
		Assigner:  assigner,
		Results:   aggregator,
		Alerts:    alerts,
		Monitor:   monitor,
	}
}

// SeedExperiment creates and starts a two-variant 50/50 experiment.
func (k *Kit) SeedExperiment(id string) *experiment.Experiment {
	exp := &experiment.Experiment{
		ID:   core.ExperimentID(id),
		Name: "Seeded " + id,
		Variants: []experiment.Variant{
			{ID: "control", Name: "Control", Weight: 0.5},
			{ID: "treatment", Name: "Treatment", Weight: 0.5},
		},
		Criteria: experiment.SuccessCriteria{
			PrimaryMetric: perf.MetricPageLoadTime,
			Criteria: []experiment.SuccessCriterion{
				{Metric: perf.MetricPageLoadTime, Threshold: 3000, Weight: 1.0},
			},
		},
	}
	if err := k.Registry.Create(exp); err != nil {
		panic(err)
	}
	if err := k.Registry.Start(exp.ID); err != nil {
		panic(err)
	}
	return exp
}

// SeedRule registers an enabled page-load threshold rule.
func (k *Kit) SeedRule(id string, threshold float64, cooldown time.Duration) {
	if err := k.Alerts.AddRule(alerting.Rule{
		ID:        core.RuleID(id),
		Name:      id,
		Metric:    perf.MetricPageLoadTime,
		Condition: alerting.ConditionGreaterThan,
		Threshold: threshold,
		Severity:  perf.SeverityHigh,
		Cooldown:  cooldown,
		Enabled:   true,
	}); err != nil {
		panic(err)
	}
}
