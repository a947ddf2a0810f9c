package app

import (
	"log"
	"math"
	"sync"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"vitals/domain/core"
	"vitals/domain/experiment"
	"vitals/ports"
)

// significanceMargin is the score spread (in points) past which the
// heuristic declares a meaningful difference between variants.
const significanceMargin = 10.0

// AggregatorConfig holds results computation settings.
type AggregatorConfig struct {
	// Mode selects heuristic parity with the original engine or the
	// principled two-proportion z-test.
	Mode experiment.SignificanceMode
}

// DefaultAggregatorConfig keeps the original heuristic for behavioral
// parity; callers can opt into the z-test.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{Mode: experiment.SignificanceHeuristic}
}

// Aggregator accumulates per-variant performance and conversion events and
// computes experiment results: per-variant scores, the winning variant,
// and a confidence estimate. It also watches completion triggers and
// finishes experiments through the registry when one fires.
type Aggregator struct {
	mu        sync.Mutex
	registry  *Registry
	telemetry ports.TelemetrySink
	config    AggregatorConfig

	// metricCounts tracks per-metric sample counts per variant so the
	// running performance means stay incremental.
	metricCounts map[core.ExperimentID]map[core.VariantID]map[string]int
}

// NewAggregator creates a results aggregator bound to the registry.
func NewAggregator(registry *Registry, telemetry ports.TelemetrySink, config AggregatorConfig) *Aggregator {
	agg := &Aggregator{
		registry:     registry,
		telemetry:    telemetry,
		config:       config,
		metricCounts: make(map[core.ExperimentID]map[core.VariantID]map[string]int),
	}
	registry.bindScorer(agg)
	return agg
}

// RecordPerformance folds one user's metric observations into the
// variant's running performance means and sample count. Events for
// unknown experiments or variants are logged and dropped, never surfaced;
// events for experiments that are no longer running are dropped so
// attached results stay frozen.
func (a *Aggregator) RecordPerformance(experimentID core.ExperimentID, variantID core.VariantID, metrics map[string]float64, userID core.UserID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	dropReason := ""
	trigger := ""
	ok := a.registry.update(experimentID, func(exp *experiment.Experiment) {
		if exp.Status != experiment.StatusRunning {
			dropReason = "experiment not running"
			return
		}
		variant := exp.Variant(variantID)
		if variant == nil {
			dropReason = "unknown variant " + variantID.String()
			return
		}

		variant.UsersSeen++
		counts := a.counts(experimentID, variantID)
		for metric, value := range metrics {
			counts[metric]++
			n := float64(counts[metric])
			variant.Performance[metric] += (value - variant.Performance[metric]) / n
		}
		if variant.UsersSeen > 0 {
			variant.ConversionRate = float64(variant.Conversions) / float64(variant.UsersSeen)
		}
		trigger = a.completionTrigger(exp)
	})
	if !ok {
		log.Printf("[Results] dropping performance for unknown experiment %s", experimentID)
		return
	}
	if dropReason != "" {
		log.Printf("[Results] dropping performance for %s: %s", experimentID, dropReason)
		return
	}
	if trigger != "" {
		log.Printf("[Results] completing experiment %s (trigger=%s)", experimentID, trigger)
		if _, err := a.registry.Complete(experimentID); err != nil {
			log.Printf("[Results] completion of %s failed: %v", experimentID, err)
		}
	}
}

// RecordConversion counts one conversion for the variant. Conversions for
// experiments that are no longer running are dropped.
func (a *Aggregator) RecordConversion(experimentID core.ExperimentID, variantID core.VariantID, userID core.UserID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	dropReason := ""
	ok := a.registry.update(experimentID, func(exp *experiment.Experiment) {
		if exp.Status != experiment.StatusRunning {
			dropReason = "experiment not running"
			return
		}
		variant := exp.Variant(variantID)
		if variant == nil {
			dropReason = "unknown variant " + variantID.String()
			return
		}

		variant.Conversions++
		if variant.UsersSeen > 0 {
			variant.ConversionRate = float64(variant.Conversions) / float64(variant.UsersSeen)
		}
	})
	if !ok {
		log.Printf("[Results] dropping conversion for unknown experiment %s", experimentID)
		return
	}
	if dropReason != "" {
		log.Printf("[Results] dropping conversion for %s: %s", experimentID, dropReason)
	}
}

// GetResults returns attached results for completed experiments, or a live
// computation for running ones. Unknown experiments return nil.
func (a *Aggregator) GetResults(experimentID core.ExperimentID) *experiment.Results {
	exp, ok := a.registry.Get(experimentID)
	if !ok {
		return nil
	}
	if exp.Status == experiment.StatusCompleted && exp.Results != nil {
		return exp.Results
	}
	return a.Compute(exp)
}

// Compute scores every variant, picks the winner, and estimates
// significance in the configured mode.
func (a *Aggregator) Compute(exp *experiment.Experiment) *experiment.Results {
	results := &experiment.Results{
		ExperimentID: exp.ID,
		TotalSamples: exp.TotalSamples(),
		Mode:         a.config.Mode,
		ComputedAt:   a.registry.clock.Now(),
	}

	scores := make([]float64, 0, len(exp.Variants))
	best := -1.0
	for _, v := range exp.Variants {
		score := scoreVariant(&v, exp.Criteria)
		scores = append(scores, score)
		perf := make(map[string]float64, len(v.Performance))
		for k, val := range v.Performance {
			perf[k] = val
		}
		results.Variants = append(results.Variants, experiment.VariantSummary{
			VariantID:      v.ID,
			Name:           v.Name,
			Score:          score,
			UsersSeen:      v.UsersSeen,
			Conversions:    v.Conversions,
			ConversionRate: v.ConversionRate,
			Performance:    perf,
		})
		if score > best {
			best = score
			results.Winner = v.ID
		}
	}

	switch a.config.Mode {
	case experiment.SignificanceZTest:
		a.applyZTest(exp, results)
	default:
		applyHeuristic(scores, results)
	}
	results.Significant = results.Significant && results.TotalSamples >= exp.MinSampleSize

	a.emit("experiment_results_computed", map[string]interface{}{
		"experiment_id": exp.ID.String(),
		"winner":        results.Winner.String(),
		"confidence":    results.Confidence,
		"samples":       results.TotalSamples,
	})
	return results
}

// scoreVariant combines each success criterion as
// min(value/threshold, 1) * weight, normalized by total weight and scaled
// to 0-100.
func scoreVariant(v *experiment.Variant, criteria experiment.SuccessCriteria) float64 {
	totalWeight := 0.0
	weighted := 0.0
	for _, c := range criteria.Criteria {
		if c.Threshold <= 0 || c.Weight <= 0 {
			continue
		}
		value, ok := v.Performance[c.Metric]
		if !ok {
			continue
		}
		weighted += math.Min(value/c.Threshold, 1.0) * c.Weight
		totalWeight += c.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight * 100
}

// applyHeuristic estimates significance from the spread between best and
// worst variant scores. This is a documented simplification carried over
// from the original engine, not a rigorous statistical test.
func applyHeuristic(scores []float64, results *experiment.Results) {
	if len(scores) < 2 {
		results.Confidence = 0.5
		results.PValue = 0.5
		return
	}

	max, _ := stats.Max(scores)
	min, _ := stats.Min(scores)
	spread := max - min

	results.Confidence = math.Min(0.99, 0.5+spread/100)
	results.PValue = math.Max(0.01, 0.5-spread/100)
	results.Significant = spread > significanceMargin

	stdDev, err := stats.StandardDeviation(scores)
	if err == nil && stdDev > 0 {
		results.EffectSize = spread / stdDev
	}
}

// applyZTest runs a two-proportion z-test on conversion rates between the
// winning variant and the control (or the runner-up when the control
// wins). Degenerate inputs fall back to the heuristic's neutral values.
func (a *Aggregator) applyZTest(exp *experiment.Experiment, results *experiment.Results) {
	winner := exp.Variant(results.Winner)
	baseline := exp.Variant(exp.Control())
	if winner != nil && baseline != nil && winner.ID == baseline.ID {
		baseline = runnerUp(results, exp)
	}
	if winner == nil || baseline == nil || winner.UsersSeen == 0 || baseline.UsersSeen == 0 {
		results.Confidence = 0.5
		results.PValue = 0.5
		return
	}

	n1, n2 := float64(winner.UsersSeen), float64(baseline.UsersSeen)
	p1, p2 := winner.ConversionRate, baseline.ConversionRate
	pooled := (float64(winner.Conversions) + float64(baseline.Conversions)) / (n1 + n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/n1 + 1/n2))
	if se == 0 {
		results.Confidence = 0.5
		results.PValue = 0.5
		return
	}

	z := (p1 - p2) / se
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	results.PValue = 2 * (1 - normal.CDF(math.Abs(z)))
	results.Confidence = 1 - results.PValue
	results.EffectSize = p1 - p2
	results.Significant = results.PValue < 0.05
}

// runnerUp finds the non-winning variant with the highest score.
func runnerUp(results *experiment.Results, exp *experiment.Experiment) *experiment.Variant {
	bestScore := -1.0
	var best *experiment.Variant
	for _, summary := range results.Variants {
		if summary.VariantID == results.Winner {
			continue
		}
		if summary.Score > bestScore {
			bestScore = summary.Score
			best = exp.Variant(summary.VariantID)
		}
	}
	return best
}

// completionTrigger checks the three completion triggers against the live
// experiment: the time box elapsed, the sample cap was hit, or minimum
// samples were reached with a clear score separation. Returns the trigger
// name or "". Runs inside a registry update, so reads are consistent.
func (a *Aggregator) completionTrigger(exp *experiment.Experiment) string {
	now := a.registry.clock.Now()
	total := exp.TotalSamples()
	switch {
	case !exp.EndTime.IsZero() && !now.Before(exp.EndTime):
		return "time_elapsed"
	case total >= exp.MaxSampleSize:
		return "max_samples"
	case total >= exp.MinSampleSize && a.scoreSpread(exp) > significanceMargin:
		return "significance"
	}
	return ""
}

// scoreSpread returns max-min of current variant scores.
func (a *Aggregator) scoreSpread(exp *experiment.Experiment) float64 {
	max, min := math.Inf(-1), math.Inf(1)
	for i := range exp.Variants {
		score := scoreVariant(&exp.Variants[i], exp.Criteria)
		max = math.Max(max, score)
		min = math.Min(min, score)
	}
	if math.IsInf(max, -1) {
		return 0
	}
	return max - min
}

func (a *Aggregator) counts(experimentID core.ExperimentID, variantID core.VariantID) map[string]int {
	byVariant, ok := a.metricCounts[experimentID]
	if !ok {
		byVariant = make(map[core.VariantID]map[string]int)
		a.metricCounts[experimentID] = byVariant
	}
	counts, ok := byVariant[variantID]
	if !ok {
		counts = make(map[string]int)
		byVariant[variantID] = counts
	}
	return counts
}

func (a *Aggregator) emit(event string, props map[string]interface{}) {
	if a.telemetry != nil {
		a.telemetry.Emit(event, props)
	}
}
