package app

import (
	"log"
	"sync"
	"time"

	"vitals/domain/core"
	"vitals/domain/experiment"
	"vitals/ports"
)

// scorer computes results for an experiment. The aggregator binds itself
// here at wiring time so Complete can attach final results.
type scorer interface {
	Compute(exp *experiment.Experiment) *experiment.Results
}

// RegistryConfig holds experiment lifecycle defaults.
type RegistryConfig struct {
	// DefaultDuration is applied when a definition carries no duration.
	DefaultDuration time.Duration

	// DefaultMinSampleSize gates early significance-based completion.
	DefaultMinSampleSize int

	// DefaultMaxSampleSize forces completion once enough users were seen.
	DefaultMaxSampleSize int
}

// DefaultRegistryConfig returns the stock lifecycle configuration.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		DefaultDuration:      14 * 24 * time.Hour,
		DefaultMinSampleSize: 100,
		DefaultMaxSampleSize: 10000,
	}
}

// Registry owns experiment definitions and drives the
// draft -> running -> completed lifecycle. Transitions are monotonic;
// completing a completed experiment is a no-op.
type Registry struct {
	mu          sync.RWMutex
	experiments map[core.ExperimentID]*experiment.Experiment
	config      RegistryConfig
	clock       ports.Clock
	scorer      scorer
}

// NewRegistry creates an experiment registry.
func NewRegistry(config RegistryConfig, clock ports.Clock) *Registry {
	if clock == nil {
		clock = ports.SystemClock()
	}
	return &Registry{
		experiments: make(map[core.ExperimentID]*experiment.Experiment),
		config:      config,
		clock:       clock,
	}
}

// Create validates and stores an experiment definition in draft state.
func (r *Registry) Create(def *experiment.Experiment) error {
	if def.Duration <= 0 {
		def.Duration = r.config.DefaultDuration
	}
	if def.MinSampleSize <= 0 {
		def.MinSampleSize = r.config.DefaultMinSampleSize
	}
	if def.MaxSampleSize <= 0 {
		def.MaxSampleSize = r.config.DefaultMaxSampleSize
	}
	if err := def.Validate(); err != nil {
		return err
	}
	for i := range def.Variants {
		if def.Variants[i].Performance == nil {
			def.Variants[i].Performance = make(map[string]float64)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.experiments[def.ID]; exists {
		return core.NewValidationError("id", "experiment already exists: "+def.ID.String())
	}
	def.Status = experiment.StatusDraft
	def.Results = nil
	r.experiments[def.ID] = def
	log.Printf("[Registry] created experiment %s (%d variants)", def.ID, len(def.Variants))
	return nil
}

// Start moves a draft experiment to running and stamps its time box.
func (r *Registry) Start(id core.ExperimentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.experiments[id]
	if !ok {
		return core.NewNotFoundError("experiment", id.String())
	}
	if !exp.Status.CanTransition(experiment.StatusRunning) {
		return core.NewTransitionError(string(exp.Status), string(experiment.StatusRunning))
	}

	exp.Status = experiment.StatusRunning
	exp.StartTime = r.clock.Now()
	exp.EndTime = exp.StartTime.Add(exp.Duration)
	log.Printf("[Registry] started experiment %s, ends %s", id, exp.EndTime.Format(time.RFC3339))
	return nil
}

// Complete finishes a running experiment and attaches computed results.
// Calling Complete on an already-completed experiment is a no-op and
// returns the existing results.
func (r *Registry) Complete(id core.ExperimentID) (*experiment.Results, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.experiments[id]
	if !ok {
		return nil, core.NewNotFoundError("experiment", id.String())
	}
	if exp.Status == experiment.StatusCompleted {
		return exp.Results, nil
	}
	if !exp.Status.CanTransition(experiment.StatusCompleted) {
		return nil, core.NewTransitionError(string(exp.Status), string(experiment.StatusCompleted))
	}

	exp.Status = experiment.StatusCompleted
	exp.EndTime = r.clock.Now()
	if r.scorer != nil {
		exp.Results = r.scorer.Compute(exp)
	}
	log.Printf("[Registry] completed experiment %s", id)
	return exp.Results, nil
}

// Get returns a deep copy of the experiment with the given ID. Callers can
// read or encode the copy without holding any lock; live state only changes
// through update and the lifecycle methods.
func (r *Registry) Get(id core.ExperimentID) (*experiment.Experiment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.experiments[id]
	if !ok {
		return nil, false
	}
	return exp.Clone(), true
}

// List returns copies of all experiments, optionally filtered by status.
func (r *Registry) List(status experiment.Status) []*experiment.Experiment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*experiment.Experiment, 0, len(r.experiments))
	for _, exp := range r.experiments {
		if status == "" || exp.Status == status {
			out = append(out, exp.Clone())
		}
	}
	return out
}

// update runs fn against the live experiment under the write lock, so
// event folding excludes concurrent snapshots. Reports whether the
// experiment exists. fn must not call back into the registry.
func (r *Registry) update(id core.ExperimentID, fn func(*experiment.Experiment)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.experiments[id]
	if !ok {
		return false
	}
	fn(exp)
	return true
}

// bindScorer registers the results computer used by Complete.
func (r *Registry) bindScorer(s scorer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scorer = s
}
