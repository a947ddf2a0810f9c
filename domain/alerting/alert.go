package alerting

import (
	"time"

	"vitals/domain/core"
	"vitals/domain/perf"
)

// Kind distinguishes how an alert was produced.
type Kind string

const (
	KindThreshold  Kind = "threshold"
	KindRegression Kind = "regression"
)

// Condition is the comparison an alert rule applies to a metric value.
type Condition string

const (
	ConditionGreaterThan Condition = "greater_than"
	ConditionLessThan    Condition = "less_than"
	ConditionEquals      Condition = "equals"
	ConditionNotEquals   Condition = "not_equals"
)

// Matches evaluates the condition against a value and a threshold.
func (c Condition) Matches(value, threshold float64) bool {
	switch c {
	case ConditionGreaterThan:
		return value > threshold
	case ConditionLessThan:
		return value < threshold
	case ConditionEquals:
		return value == threshold
	case ConditionNotEquals:
		return value != threshold
	default:
		return false
	}
}

// Rule is an operator-configured threshold with a dedup cooldown.
type Rule struct {
	ID        core.RuleID   `json:"id"`
	Name      string        `json:"name"`
	Metric    string        `json:"metric"`
	Condition Condition     `json:"condition"`
	Threshold float64       `json:"threshold"`
	Severity  perf.Severity `json:"severity"`
	Cooldown  time.Duration `json:"cooldown"`
	Enabled   bool          `json:"enabled"`
}

// Validate checks that the rule is well formed.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return core.NewValidationError("id", "rule ID is required")
	}
	if r.Metric == "" {
		return core.NewValidationError("metric", "rule metric is required")
	}
	switch r.Condition {
	case ConditionGreaterThan, ConditionLessThan, ConditionEquals, ConditionNotEquals:
	default:
		return core.NewValidationError("condition", "unknown condition "+string(r.Condition))
	}
	if r.Cooldown < 0 {
		return core.NewValidationError("cooldown", "cooldown cannot be negative")
	}
	return nil
}

// Alert is a recorded threshold breach or regression event.
type Alert struct {
	ID            core.AlertID  `json:"id"`
	Kind          Kind          `json:"kind"`
	RuleID        core.RuleID   `json:"rule_id,omitempty"`
	Metric        string        `json:"metric"`
	CurrentValue  float64       `json:"current_value"`
	Threshold     float64       `json:"threshold,omitempty"`
	PreviousValue float64       `json:"previous_value,omitempty"`
	Severity      perf.Severity `json:"severity"`
	Message       string        `json:"message"`
	Page          string        `json:"page,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	Resolved      bool          `json:"resolved"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty"`
}

// Filter narrows alert listings.
type Filter struct {
	ActiveOnly bool
	Kind       Kind
	Page       string
	Metric     string
}

// Match reports whether an alert satisfies the filter.
func (f Filter) Match(a Alert) bool {
	if f.ActiveOnly && a.Resolved {
		return false
	}
	if f.Kind != "" && a.Kind != f.Kind {
		return false
	}
	if f.Page != "" && a.Page != f.Page {
		return false
	}
	if f.Metric != "" && a.Metric != f.Metric {
		return false
	}
	return true
}
