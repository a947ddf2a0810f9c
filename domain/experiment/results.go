package experiment

import (
	"time"

	"vitals/domain/core"
)

// SignificanceMode selects how confidence and p-value are estimated.
type SignificanceMode string

const (
	// SignificanceHeuristic estimates confidence from the spread between
	// best and worst variant scores. This mirrors the original engine's
	// simplified heuristic rather than a rigorous statistical test.
	SignificanceHeuristic SignificanceMode = "heuristic"

	// SignificanceZTest runs a two-proportion z-test on conversion rates
	// between the winning variant and the control.
	SignificanceZTest SignificanceMode = "ztest"
)

// VariantSummary is the scored outcome of a single variant.
type VariantSummary struct {
	VariantID      core.VariantID     `json:"variant_id"`
	Name           string             `json:"name"`
	Score          float64            `json:"score"`
	UsersSeen      int                `json:"users_seen"`
	Conversions    int                `json:"conversions"`
	ConversionRate float64            `json:"conversion_rate"`
	Performance    map[string]float64 `json:"performance"`
}

// Results holds the computed outcome of an experiment.
type Results struct {
	ExperimentID core.ExperimentID `json:"experiment_id"`
	TotalSamples int               `json:"total_samples"`
	Winner       core.VariantID    `json:"winner"`
	Confidence   float64           `json:"confidence"`
	PValue       float64           `json:"p_value"`
	EffectSize   float64           `json:"effect_size"`
	Significant  bool              `json:"significant"`
	Mode         SignificanceMode  `json:"mode"`
	Variants     []VariantSummary  `json:"variants"`
	ComputedAt   time.Time         `json:"computed_at"`
}
