package experiment

import (
	"testing"

	"vitals/domain/core"
)

func validExperiment() *Experiment {
	return &Experiment{
		ID:   "menu-layout",
		Name: "Menu layout test",
		Variants: []Variant{
			{ID: "control", Name: "Control", Weight: 0.5},
			{ID: "compact", Name: "Compact", Weight: 0.5},
		},
		Criteria: SuccessCriteria{
			PrimaryMetric: "page_load_time",
			Criteria: []SuccessCriterion{
				{Metric: "page_load_time", Threshold: 2000, Weight: 1.0},
			},
		},
	}
}

// TestValidate covers the structural invariants of an experiment definition
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Experiment)
		wantErr bool
	}{
		{"valid", func(e *Experiment) {}, false},
		{"missing id", func(e *Experiment) { e.ID = "" }, true},
		{"missing name", func(e *Experiment) { e.Name = "" }, true},
		{"single variant", func(e *Experiment) { e.Variants = e.Variants[:1] }, true},
		{"weights under 1", func(e *Experiment) { e.Variants[0].Weight = 0.3 }, true},
		{"weights over 1", func(e *Experiment) { e.Variants[1].Weight = 0.8 }, true},
		{"rounding tolerated", func(e *Experiment) {
			e.Variants[0].Weight = 0.3333
			e.Variants[1].Weight = 0.6667
		}, false},
		{"negative weight", func(e *Experiment) {
			e.Variants[0].Weight = -0.5
			e.Variants[1].Weight = 1.5
		}, true},
		{"no criteria", func(e *Experiment) { e.Criteria.Criteria = nil }, true},
	}

	for _, test := range tests {
		e := validExperiment()
		test.mutate(e)
		err := e.Validate()
		if test.wantErr && err == nil {
			t.Errorf("%s: expected error, got none", test.name)
		}
		if !test.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
		}
	}
}

// TestStatusTransitions checks that the lifecycle is monotonic
func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusDraft, StatusRunning, true},
		{StatusRunning, StatusCompleted, true},
		{StatusDraft, StatusCompleted, false},
		{StatusRunning, StatusDraft, false},
		{StatusCompleted, StatusRunning, false},
		{StatusCompleted, StatusDraft, false},
		{StatusCompleted, StatusCompleted, false},
	}

	for _, test := range tests {
		if got := test.from.CanTransition(test.to); got != test.allowed {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", test.from, test.to, got, test.allowed)
		}
	}
}

// TestControl returns the first variant as the control arm
func TestControl(t *testing.T) {
	e := validExperiment()
	if e.Control() != core.VariantID("control") {
		t.Errorf("expected control variant, got %s", e.Control())
	}

	empty := &Experiment{}
	if empty.Control() != ControlVariant {
		t.Errorf("expected fallback control for empty experiment, got %s", empty.Control())
	}
}

// TestVariantLookup finds variants by ID
func TestVariantLookup(t *testing.T) {
	e := validExperiment()
	if v := e.Variant("compact"); v == nil || v.Name != "Compact" {
		t.Errorf("expected to find compact variant, got %+v", v)
	}
	if v := e.Variant("missing"); v != nil {
		t.Errorf("expected nil for missing variant, got %+v", v)
	}
}

// TestTotalSamples sums users across variants
func TestTotalSamples(t *testing.T) {
	e := validExperiment()
	e.Variants[0].UsersSeen = 40
	e.Variants[1].UsersSeen = 60
	if got := e.TotalSamples(); got != 100 {
		t.Errorf("TotalSamples() = %d, want 100", got)
	}
}
