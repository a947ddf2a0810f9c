package perf

import "testing"

// TestSeverityForBudgetRatio checks the ratio grading boundaries
func TestSeverityForBudgetRatio(t *testing.T) {
	tests := []struct {
		ratio    float64
		expected Severity
	}{
		{1.05, SeverityLow},
		{1.19, SeverityLow},
		{1.2, SeverityMedium},
		{1.3, SeverityMedium},
		{1.49, SeverityMedium},
		{1.5, SeverityHigh},
		{1.99, SeverityHigh},
		{2.0, SeverityCritical},
		{2.1, SeverityCritical},
		{5.0, SeverityCritical},
	}

	for _, test := range tests {
		if got := SeverityForBudgetRatio(test.ratio); got != test.expected {
			t.Errorf("SeverityForBudgetRatio(%v) = %s, want %s", test.ratio, got, test.expected)
		}
	}
}

// TestSeverityForChangePercent checks the baseline deviation grading
func TestSeverityForChangePercent(t *testing.T) {
	tests := []struct {
		change   float64
		expected Severity
	}{
		{10, SeverityLow},
		{15, SeverityMedium},
		{29.9, SeverityMedium},
		{30, SeverityHigh},
		{49.9, SeverityHigh},
		{50, SeverityCritical},
		{120, SeverityCritical},
	}

	for _, test := range tests {
		if got := SeverityForChangePercent(test.change); got != test.expected {
			t.Errorf("SeverityForChangePercent(%v) = %s, want %s", test.change, got, test.expected)
		}
	}
}

// TestSeverityRank orders severities
func TestSeverityRank(t *testing.T) {
	if !(SeverityLow.Rank() < SeverityMedium.Rank() &&
		SeverityMedium.Rank() < SeverityHigh.Rank() &&
		SeverityHigh.Rank() < SeverityCritical.Rank()) {
		t.Error("severity ranks are not strictly increasing")
	}
	if Severity("unknown").Rank() != 0 {
		t.Error("unknown severity should rank 0")
	}
}
