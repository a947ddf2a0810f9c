package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"vitals/domain/alerting"
	"vitals/domain/core"
	"vitals/domain/perf"
	"vitals/ports"
)

// alertHistory implements ports.AlertHistory on Postgres.
type alertHistory struct {
	db *sqlx.DB
}

// NewAlertHistory creates a Postgres alert history.
func NewAlertHistory(db *sqlx.DB) ports.AlertHistory {
	return &alertHistory{db: db}
}

// Record inserts one alert row.
func (h *alertHistory) Record(ctx context.Context, a alerting.Alert) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO alerts (
			id, kind, rule_id, metric, current_value, threshold, previous_value,
			severity, message, page, created_at, resolved, resolved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, string(a.Kind), a.RuleID, a.Metric, a.CurrentValue, a.Threshold, a.PreviousValue,
		string(a.Severity), a.Message, a.Page, a.Timestamp, a.Resolved, a.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}
	return nil
}

// MarkResolved stamps resolution on an alert row.
func (h *alertHistory) MarkResolved(ctx context.Context, id core.AlertID, at time.Time) error {
	_, err := h.db.ExecContext(ctx,
		`UPDATE alerts SET resolved = TRUE, resolved_at = $2 WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}
	return nil
}

// List returns alerts matching the filter, newest first.
func (h *alertHistory) List(ctx context.Context, filter alerting.Filter) ([]alerting.Alert, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, kind, COALESCE(rule_id, ''), metric, current_value,
			COALESCE(threshold, 0), COALESCE(previous_value, 0), severity,
			message, COALESCE(page, ''), created_at, resolved, resolved_at
		 FROM alerts ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var out []alerting.Alert
	for rows.Next() {
		var a alerting.Alert
		var kind, severity string
		if err := rows.Scan(
			&a.ID, &kind, &a.RuleID, &a.Metric, &a.CurrentValue,
			&a.Threshold, &a.PreviousValue, &severity,
			&a.Message, &a.Page, &a.Timestamp, &a.Resolved, &a.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Kind = alerting.Kind(kind)
		a.Severity = perf.Severity(severity)
		if filter.Match(a) {
			out = append(out, a)
		}
	}
	return out, rows.Err()
}
