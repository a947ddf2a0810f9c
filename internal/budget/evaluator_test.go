package budget

import (
	"testing"

	"vitals/domain/perf"
)

func sampleWith(metrics map[string]float64) perf.MetricSample {
	return perf.MetricSample{Page: "/recipes", Metrics: metrics}
}

func TestCleanSampleScoresFull(t *testing.T) {
	e := NewEvaluator(nil)
	report := e.Evaluate(sampleWith(map[string]float64{
		perf.MetricPageLoadTime:         2000,
		perf.MetricFirstContentfulPaint: 1000,
	}), perf.PageClassDefault)

	if !report.Passed() {
		t.Fatalf("expected no violations, got %d", len(report.Violations))
	}
	if report.Score != 100 {
		t.Errorf("score = %v, want 100", report.Score)
	}
}

func TestScoreDeductions(t *testing.T) {
	e := NewEvaluator(nil)

	tests := []struct {
		name      string
		metrics   map[string]float64
		wantScore float64
		wantCount int
	}{
		{
			name: "one critical violation",
			metrics: map[string]float64{
				// 7000 / 3000 = 2.33x budget
				perf.MetricPageLoadTime: 7000,
			},
			wantScore: 75,
			wantCount: 1,
		},
		{
			name: "two critical violations",
			metrics: map[string]float64{
				perf.MetricPageLoadTime:         7000,
				perf.MetricFirstContentfulPaint: 4000,
			},
			wantScore: 50,
			wantCount: 2,
		},
		{
			name: "one medium violation",
			metrics: map[string]float64{
				// 3900 / 3000 = 1.3x budget
				perf.MetricPageLoadTime: 3900,
			},
			wantScore: 90,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := e.Evaluate(sampleWith(tt.metrics), perf.PageClassDefault)
			if report.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", report.Score, tt.wantScore)
			}
			if len(report.Violations) != tt.wantCount {
				t.Errorf("violations = %d, want %d", len(report.Violations), tt.wantCount)
			}
		})
	}
}

func TestScoreFlooredAtZero(t *testing.T) {
	e := NewEvaluator(nil)
	// Five critical violations would deduct 125 points.
	report := e.Evaluate(sampleWith(map[string]float64{
		perf.MetricPageLoadTime:           9000,
		perf.MetricFirstContentfulPaint:   6000,
		perf.MetricLargestContentfulPaint: 8000,
		perf.MetricTimeToInteractive:      12000,
		perf.MetricInteractionDelay:       700,
	}), perf.PageClassDefault)

	if report.Score != 0 {
		t.Errorf("score = %v, want floor of 0", report.Score)
	}
	if len(report.Violations) != 5 {
		t.Errorf("violations = %d, want 5", len(report.Violations))
	}
}

func TestViolationSeverityGrading(t *testing.T) {
	e := NewEvaluator(nil)

	// 1.3x the page_load_time budget grades medium, 2.1x grades critical.
	for _, tt := range []struct {
		actual float64
		want   perf.Severity
	}{
		{3000 * 1.3, perf.SeverityMedium},
		{3000 * 2.1, perf.SeverityCritical},
	} {
		report := e.Evaluate(sampleWith(map[string]float64{perf.MetricPageLoadTime: tt.actual}), perf.PageClassDefault)
		if len(report.Violations) != 1 {
			t.Fatalf("actual=%v: expected one violation", tt.actual)
		}
		if got := report.Violations[0].Severity; got != tt.want {
			t.Errorf("actual=%v: severity = %s, want %s", tt.actual, got, tt.want)
		}
	}
}

func TestUnknownPageClassFallsBack(t *testing.T) {
	e := NewEvaluator(nil)
	report := e.Evaluate(sampleWith(map[string]float64{perf.MetricPageLoadTime: 7000}), perf.PageClass("mystery"))

	if report.PageClass != perf.PageClassDefault {
		t.Errorf("page class = %s, want fallback to default", report.PageClass)
	}
	if len(report.Violations) != 1 {
		t.Errorf("expected violation against default budget, got %d", len(report.Violations))
	}
}

func TestUntrackedMetricIgnored(t *testing.T) {
	e := NewEvaluator(map[perf.PageClass]perf.Budget{
		perf.PageClassDefault: {perf.MetricPageLoadTime: 3000},
	})
	report := e.Evaluate(sampleWith(map[string]float64{
		perf.MetricPageLoadTime: 2000,
		"custom_metric":         999999,
	}), perf.PageClassDefault)

	if !report.Passed() {
		t.Errorf("untracked metrics must not produce violations: %+v", report.Violations)
	}
}

func TestWorstViolation(t *testing.T) {
	e := NewEvaluator(nil)
	report := e.Evaluate(sampleWith(map[string]float64{
		perf.MetricPageLoadTime:         3900, // medium
		perf.MetricFirstContentfulPaint: 4000, // critical
	}), perf.PageClassDefault)

	if worst := report.Worst(); worst != perf.SeverityCritical {
		t.Errorf("worst severity = %s, want critical", worst)
	}
}
