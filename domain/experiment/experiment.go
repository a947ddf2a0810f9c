package experiment

import (
	"math"
	"time"

	"vitals/domain/core"
)

// Status represents the lifecycle state of an experiment
type Status string

const (
	StatusDraft     Status = "draft"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

// ControlVariant is the designated fallback variant returned when an
// experiment cannot be resolved. It is never persisted.
const ControlVariant core.VariantID = "control"

// weightTolerance absorbs float rounding when validating that variant
// weights sum to 1.
const weightTolerance = 0.001

// CanTransition reports whether the status machine allows moving from s to
// target. Transitions are monotonic: draft -> running -> completed.
func (s Status) CanTransition(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusRunning
	case StatusRunning:
		return target == StatusCompleted
	default:
		return false
	}
}

// Variant is one arm of an experiment with a fixed traffic-share weight.
type Variant struct {
	ID             core.VariantID     `json:"id"`
	Name           string             `json:"name"`
	Weight         float64            `json:"weight"`
	Performance    map[string]float64 `json:"performance"`
	UsersSeen      int                `json:"users_seen"`
	Conversions    int                `json:"conversions"`
	ConversionRate float64            `json:"conversion_rate"`
}

// SuccessCriterion scores one metric against a target threshold.
type SuccessCriterion struct {
	Metric    string  `json:"metric"`
	Threshold float64 `json:"threshold"`
	Weight    float64 `json:"weight"`
}

// SuccessCriteria defines how variant performance is scored.
type SuccessCriteria struct {
	PrimaryMetric string             `json:"primary_metric"`
	Criteria      []SuccessCriterion `json:"criteria"`
}

// Experiment is an A/B test definition with its lifecycle state and,
// once completed, its computed results.
type Experiment struct {
	ID            core.ExperimentID `json:"id"`
	Name          string            `json:"name"`
	Variants      []Variant         `json:"variants"`
	Status        Status            `json:"status"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	Duration      time.Duration     `json:"duration"`
	Criteria      SuccessCriteria   `json:"success_criteria"`
	MinSampleSize int               `json:"min_sample_size"`
	MaxSampleSize int               `json:"max_sample_size"`
	Results       *Results          `json:"results,omitempty"`
}

// Validate checks structural invariants of an experiment definition.
func (e *Experiment) Validate() error {
	if e.ID == "" {
		return core.NewValidationError("id", "experiment ID is required")
	}
	if e.Name == "" {
		return core.NewValidationError("name", "experiment name is required")
	}
	if len(e.Variants) < 2 {
		return core.ErrTooFewVariants
	}

	total := 0.0
	for _, v := range e.Variants {
		if v.ID == "" {
			return core.NewValidationError("variants", "variant ID is required")
		}
		if v.Weight < 0 || v.Weight > 1 {
			return core.NewValidationError("variants", "variant weight must be in [0,1]")
		}
		total += v.Weight
	}
	if math.Abs(total-1.0) > weightTolerance {
		return core.ErrInvalidWeights
	}

	if len(e.Criteria.Criteria) == 0 {
		return core.NewValidationError("success_criteria", "at least one criterion is required")
	}
	return nil
}

// Clone returns a deep copy of the experiment. Variant state is copied so
// the clone can be read or encoded while the original keeps accumulating
// events; attached Results are shared because they are immutable once
// written.
func (e *Experiment) Clone() *Experiment {
	out := *e
	out.Variants = make([]Variant, len(e.Variants))
	for i, v := range e.Variants {
		out.Variants[i] = v
		perf := make(map[string]float64, len(v.Performance))
		for k, val := range v.Performance {
			perf[k] = val
		}
		out.Variants[i].Performance = perf
	}
	return &out
}

// Control returns the first variant's ID, the conventional control arm.
func (e *Experiment) Control() core.VariantID {
	if len(e.Variants) == 0 {
		return ControlVariant
	}
	return e.Variants[0].ID
}

// Variant returns a pointer to the variant with the given ID, or nil.
func (e *Experiment) Variant(id core.VariantID) *Variant {
	for i := range e.Variants {
		if e.Variants[i].ID == id {
			return &e.Variants[i]
		}
	}
	return nil
}

// TotalSamples sums users seen across all variants.
func (e *Experiment) TotalSamples() int {
	total := 0
	for _, v := range e.Variants {
		total += v.UsersSeen
	}
	return total
}
