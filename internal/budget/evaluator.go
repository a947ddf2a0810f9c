// Package budget grades metric samples against page-class budgets.
package budget

import (
	"math"

	"vitals/domain/perf"
)

// severityDeductions are the fixed score penalties per violation.
var severityDeductions = map[perf.Severity]float64{
	perf.SeverityCritical: 25,
	perf.SeverityHigh:     15,
	perf.SeverityMedium:   10,
	perf.SeverityLow:      5,
}

// DefaultBudgets returns the stock budget tables per page class.
// Values are milliseconds except cumulative_layout_shift (unitless).
func DefaultBudgets() map[perf.PageClass]perf.Budget {
	return map[perf.PageClass]perf.Budget{
		perf.PageClassDefault: {
			perf.MetricPageLoadTime:           3000,
			perf.MetricFirstContentfulPaint:   1800,
			perf.MetricLargestContentfulPaint: 2500,
			perf.MetricTimeToInteractive:      3800,
			perf.MetricCumulativeLayoutShift:  0.1,
			perf.MetricInteractionDelay:       200,
		},
		perf.PageClassDashboard: {
			perf.MetricPageLoadTime:           4000,
			perf.MetricFirstContentfulPaint:   2000,
			perf.MetricLargestContentfulPaint: 3000,
			perf.MetricTimeToInteractive:      4500,
			perf.MetricCumulativeLayoutShift:  0.15,
			perf.MetricInteractionDelay:       250,
		},
		perf.PageClassEditor: {
			perf.MetricPageLoadTime:           3500,
			perf.MetricFirstContentfulPaint:   1800,
			perf.MetricLargestContentfulPaint: 2800,
			perf.MetricTimeToInteractive:      4000,
			perf.MetricCumulativeLayoutShift:  0.1,
			perf.MetricInteractionDelay:       150,
		},
		perf.PageClassReport: {
			perf.MetricPageLoadTime:           5000,
			perf.MetricFirstContentfulPaint:   2500,
			perf.MetricLargestContentfulPaint: 3500,
			perf.MetricTimeToInteractive:      5500,
			perf.MetricCumulativeLayoutShift:  0.2,
			perf.MetricInteractionDelay:       300,
		},
	}
}

// Evaluator compares samples against per-page-class budget tables.
type Evaluator struct {
	budgets map[perf.PageClass]perf.Budget
}

// NewEvaluator creates a budget evaluator. A nil table map falls back to
// the defaults; an unknown page class falls back to the default class.
func NewEvaluator(budgets map[perf.PageClass]perf.Budget) *Evaluator {
	if budgets == nil {
		budgets = DefaultBudgets()
	}
	return &Evaluator{budgets: budgets}
}

// Evaluate checks every metric present in the sample against the page
// class's budget. The score starts at 100 and loses a fixed deduction per
// violation by severity, floored at 0.
func (e *Evaluator) Evaluate(sample perf.MetricSample, pageClass perf.PageClass) perf.BudgetReport {
	table, ok := e.budgets[pageClass]
	if !ok {
		pageClass = perf.PageClassDefault
		table = e.budgets[perf.PageClassDefault]
	}

	report := perf.BudgetReport{PageClass: pageClass, Score: 100}
	for metric, actual := range sample.Metrics {
		budget, tracked := table[metric]
		if !tracked || budget <= 0 || actual <= budget {
			continue
		}
		severity := perf.SeverityForBudgetRatio(actual / budget)
		report.Violations = append(report.Violations, perf.BudgetViolation{
			Metric:   metric,
			Actual:   actual,
			Budget:   budget,
			Severity: severity,
		})
		report.Score -= severityDeductions[severity]
	}
	report.Score = math.Max(0, report.Score)
	return report
}
