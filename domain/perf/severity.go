package perf

// Severity is the ordinal classification of how far a metric strayed from
// its budget or baseline.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for comparison; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// SeverityForBudgetRatio grades a budget overrun by actual/budget ratio.
func SeverityForBudgetRatio(ratio float64) Severity {
	switch {
	case ratio < 1.2:
		return SeverityLow
	case ratio < 1.5:
		return SeverityMedium
	case ratio < 2.0:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// SeverityForChangePercent grades a baseline deviation by absolute
// percentage change.
func SeverityForChangePercent(absChange float64) Severity {
	switch {
	case absChange >= 50:
		return SeverityCritical
	case absChange >= 30:
		return SeverityHigh
	case absChange >= 15:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
