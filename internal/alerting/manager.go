// Package alerting matches metrics against rules and dispatches alerts.
//
// Dispatch is fail-open: channel errors are logged and never unwind alert
// state or reach the host application's rendering path.
package alerting

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"vitals/domain/alerting"
	"vitals/domain/core"
	"vitals/domain/perf"
	"vitals/ports"
)

// Config holds alert manager settings.
type Config struct {
	// RegressionDedupWindow suppresses repeat regression alerts for the
	// same (page, metric) pair within this window.
	RegressionDedupWindow time.Duration
}

// DefaultConfig returns the stock alerting settings.
func DefaultConfig() Config {
	return Config{RegressionDedupWindow: 10 * time.Minute}
}

// Manager owns alert rules, recorded alerts, cooldown state, and channel
// dispatch.
type Manager struct {
	mu     sync.Mutex
	config Config
	clock  ports.Clock

	rules          map[core.RuleID]*alerting.Rule
	ruleOrder      []core.RuleID
	alerts         map[core.AlertID]*alerting.Alert
	alertOrder     []core.AlertID
	cooldownUntil  map[core.RuleID]time.Time
	lastRegression map[string]time.Time

	channels []ports.AlertChannel
	history  ports.AlertHistory
}

// NewManager creates an alert manager. history may be nil; channels may be
// empty.
func NewManager(config Config, clock ports.Clock, channels []ports.AlertChannel, history ports.AlertHistory) *Manager {
	if clock == nil {
		clock = ports.SystemClock()
	}
	if config.RegressionDedupWindow <= 0 {
		config.RegressionDedupWindow = DefaultConfig().RegressionDedupWindow
	}
	return &Manager{
		config:         config,
		clock:          clock,
		rules:          make(map[core.RuleID]*alerting.Rule),
		alerts:         make(map[core.AlertID]*alerting.Alert),
		cooldownUntil:  make(map[core.RuleID]time.Time),
		lastRegression: make(map[string]time.Time),
		channels:       channels,
		history:        history,
	}
}

// AddRule registers a rule. Invalid rules are rejected.
func (m *Manager) AddRule(rule alerting.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rules[rule.ID]; !exists {
		m.ruleOrder = append(m.ruleOrder, rule.ID)
	}
	m.rules[rule.ID] = &rule
	return nil
}

// SetRuleEnabled toggles a rule. Unknown rules report false.
func (m *Manager) SetRuleEnabled(id core.RuleID, enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[id]
	if !ok {
		return false
	}
	rule.Enabled = enabled
	return true
}

// Rules returns the registered rules in insertion order.
func (m *Manager) Rules() []alerting.Rule {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]alerting.Rule, 0, len(m.ruleOrder))
	for _, id := range m.ruleOrder {
		out = append(out, *m.rules[id])
	}
	return out
}

// EvaluateMetric checks every enabled rule for the metric against its
// condition. A matching rule outside its cooldown window emits one alert
// and re-arms the cooldown; within the window the breach is suppressed.
func (m *Manager) EvaluateMetric(page, metric string, value float64) []alerting.Alert {
	m.mu.Lock()
	now := m.clock.Now()
	var fired []*alerting.Alert
	for _, id := range m.ruleOrder {
		rule := m.rules[id]
		if !rule.Enabled || rule.Metric != metric {
			continue
		}
		if !rule.Condition.Matches(value, rule.Threshold) {
			continue
		}
		if until, cooling := m.cooldownUntil[rule.ID]; cooling && now.Before(until) {
			continue
		}

		alert := &alerting.Alert{
			ID:           core.AlertID(core.NewID()),
			Kind:         alerting.KindThreshold,
			RuleID:       rule.ID,
			Metric:       metric,
			CurrentValue: value,
			Threshold:    rule.Threshold,
			Severity:     rule.Severity,
			Page:         page,
			Message: fmt.Sprintf("%s %s %s threshold %.2f (current %.2f)",
				metric, string(rule.Condition), rule.Name, rule.Threshold, value),
			Timestamp: now,
		}
		m.record(alert)
		m.cooldownUntil[rule.ID] = now.Add(rule.Cooldown)
		fired = append(fired, alert)
	}
	m.mu.Unlock()

	out := make([]alerting.Alert, 0, len(fired))
	for _, alert := range fired {
		m.dispatch(*alert)
		out = append(out, *alert)
	}
	return out
}

// IngestRegression turns a detected regression into an alert. Regression
// alerts bypass rule cooldowns but repeat (page, metric) pairs within the
// dedup window are suppressed.
func (m *Manager) IngestRegression(reg perf.Regression) *alerting.Alert {
	m.mu.Lock()
	now := m.clock.Now()
	key := regressionKey(reg.Page, reg.Metric)
	if last, seen := m.lastRegression[key]; seen && now.Sub(last) < m.config.RegressionDedupWindow {
		m.mu.Unlock()
		return nil
	}
	m.lastRegression[key] = now

	alert := &alerting.Alert{
		ID:            core.AlertID(core.NewID()),
		Kind:          alerting.KindRegression,
		Metric:        reg.Metric,
		CurrentValue:  reg.Current,
		PreviousValue: reg.Baseline,
		Severity:      reg.Severity,
		Page:          reg.Page,
		Message: fmt.Sprintf("%s on %s %s by %.1f%% (baseline %.2f, current %.2f)",
			reg.Metric, reg.Page, string(reg.Trend), reg.ChangePercent, reg.Baseline, reg.Current),
		Timestamp: now,
	}
	m.record(alert)
	m.mu.Unlock()

	m.dispatch(*alert)
	return alert
}

// Resolve marks an alert resolved. Idempotent; unknown IDs report false.
func (m *Manager) Resolve(id core.AlertID) bool {
	m.mu.Lock()
	alert, ok := m.alerts[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	already := alert.Resolved
	var at time.Time
	if !already {
		at = m.clock.Now()
		alert.Resolved = true
		alert.ResolvedAt = &at
	}
	m.mu.Unlock()

	if !already && m.history != nil {
		if err := m.history.MarkResolved(context.Background(), id, at); err != nil {
			log.Printf("[AlertManager] history resolve failed for %s: %v", id, err)
		}
	}
	return true
}

// ListActive returns unresolved alerts, newest first.
func (m *Manager) ListActive() []alerting.Alert {
	return m.List(alerting.Filter{ActiveOnly: true})
}

// List returns alerts matching the filter, newest first.
func (m *Manager) List(filter alerting.Filter) []alerting.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []alerting.Alert
	for _, id := range m.alertOrder {
		alert := m.alerts[id]
		if filter.Match(*alert) {
			out = append(out, *alert)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// record stores the alert locally and best-effort in history. Caller
// holds m.mu.
func (m *Manager) record(alert *alerting.Alert) {
	m.alerts[alert.ID] = alert
	m.alertOrder = append(m.alertOrder, alert.ID)
	if m.history != nil {
		if err := m.history.Record(context.Background(), *alert); err != nil {
			log.Printf("[AlertManager] history write failed for %s: %v", alert.ID, err)
		}
	}
}

// dispatch delivers the alert to every enabled channel. Failures are
// logged and swallowed; the alert stays recorded either way.
func (m *Manager) dispatch(alert alerting.Alert) {
	for _, ch := range m.channels {
		if !ch.Enabled() {
			continue
		}
		if err := ch.Send(context.Background(), alert); err != nil {
			log.Printf("[AlertManager] channel %s failed for alert %s: %v", ch.Name(), alert.ID, err)
		}
	}
}

func regressionKey(page, metric string) string {
	return page + "|" + metric + "|" + string(alerting.KindRegression)
}
