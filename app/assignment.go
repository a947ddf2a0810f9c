package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"vitals/domain/core"
	"vitals/domain/experiment"
	"vitals/ports"
)

// assignmentRecord is the JSON payload persisted per (experiment, user).
// Expiry is derived from AssignedAt plus the rotation period at read time,
// so shortening the rotation period retroactively expires old records.
type assignmentRecord struct {
	ExperimentID string    `json:"experimentId"`
	VariantID    string    `json:"variantId"`
	AssignedAt   time.Time `json:"assignedAt"`
}

// AssignerConfig holds sticky-assignment settings.
type AssignerConfig struct {
	// RotationPeriod bounds how long a user stays pinned to a variant.
	RotationPeriod time.Duration
}

// DefaultAssignerConfig returns the stock 30-day rotation.
func DefaultAssignerConfig() AssignerConfig {
	return AssignerConfig{RotationPeriod: 30 * 24 * time.Hour}
}

// Assigner is the variant assignment store: it binds users to experiment
// variants with weighted random selection and keeps the binding sticky for
// the rotation period via the injected key-value store.
//
// All failure paths are fail-open: storage errors read as cache misses,
// malformed records read as absent, and unknown experiments resolve to the
// control identifier. Assign never returns an error to the caller.
type Assigner struct {
	registry  *Registry
	store     ports.AssignmentStore
	telemetry ports.TelemetrySink
	rng       ports.RNG
	clock     ports.Clock
	config    AssignerConfig

	storageWarn sync.Once
}

// NewAssigner creates a variant assignment store.
func NewAssigner(registry *Registry, store ports.AssignmentStore, telemetry ports.TelemetrySink, rng ports.RNG, clock ports.Clock, config AssignerConfig) *Assigner {
	if clock == nil {
		clock = ports.SystemClock()
	}
	return &Assigner{
		registry:  registry,
		store:     store,
		telemetry: telemetry,
		rng:       rng,
		clock:     clock,
		config:    config,
	}
}

// Assign returns the variant for (experimentID, userID). A user keeps the
// same variant until the rotation period elapses; after that the next call
// performs a fresh weighted draw.
func (a *Assigner) Assign(ctx context.Context, experimentID core.ExperimentID, userID core.UserID) core.VariantID {
	exp, ok := a.registry.Get(experimentID)
	if !ok {
		log.Printf("[Assignment] unknown experiment %s, falling back to control", experimentID)
		return experiment.ControlVariant
	}

	now := a.clock.Now()
	key := assignmentKey(experimentID, userID)

	if rec, ok := a.lookup(ctx, key); ok {
		expiresAt := rec.AssignedAt.Add(a.config.RotationPeriod)
		if now.Before(expiresAt) && exp.Variant(core.VariantID(rec.VariantID)) != nil {
			return core.VariantID(rec.VariantID)
		}
	}

	variantID := a.draw(exp)
	a.persist(ctx, key, assignmentRecord{
		ExperimentID: experimentID.String(),
		VariantID:    variantID.String(),
		AssignedAt:   now,
	})

	a.emit("experiment_assigned", map[string]interface{}{
		"experiment_id": experimentID.String(),
		"variant_id":    variantID.String(),
		"user_id":       userID.String(),
	})
	return variantID
}

// lookup reads and decodes the stored record. Storage errors and malformed
// payloads both read as misses so a fresh draw happens instead.
func (a *Assigner) lookup(ctx context.Context, key string) (assignmentRecord, bool) {
	raw, found, err := a.store.Get(ctx, key)
	if err != nil {
		a.storageWarn.Do(func() {
			log.Printf("[Assignment] storage read failed, treating as miss: %v", err)
		})
		return assignmentRecord{}, false
	}
	if !found {
		return assignmentRecord{}, false
	}

	var rec assignmentRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.VariantID == "" || rec.AssignedAt.IsZero() {
		log.Printf("[Assignment] malformed record at %s, reassigning", key)
		return assignmentRecord{}, false
	}
	return rec, true
}

// draw performs cumulative-sum weighted selection over the experiment's
// variants. If weights do not cover the draw (they should sum to 1), the
// first variant wins as the control fallback.
func (a *Assigner) draw(exp *experiment.Experiment) core.VariantID {
	u := a.rng.Float64()
	cumulative := 0.0
	for _, v := range exp.Variants {
		cumulative += v.Weight
		if cumulative >= u {
			return v.ID
		}
	}
	return exp.Control()
}

// persist writes the new record. A write failure only costs stickiness.
func (a *Assigner) persist(ctx context.Context, key string, rec assignmentRecord) {
	payload, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[Assignment] marshal failed for %s: %v", key, err)
		return
	}
	if err := a.store.Set(ctx, key, string(payload)); err != nil {
		log.Printf("[Assignment] storage write failed for %s: %v", key, err)
	}
}

func (a *Assigner) emit(event string, props map[string]interface{}) {
	if a.telemetry != nil {
		a.telemetry.Emit(event, props)
	}
}

// assignmentKey builds the store key for one (experiment, user) pair.
func assignmentKey(experimentID core.ExperimentID, userID core.UserID) string {
	return fmt.Sprintf("assignment:%s:%s", experimentID, userID)
}
