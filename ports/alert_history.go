package ports

import (
	"context"
	"time"

	"vitals/domain/alerting"
	"vitals/domain/core"
)

// AlertHistory persists alerts beyond process memory for later review.
// The in-memory alert state remains authoritative; history writes are
// best-effort.
type AlertHistory interface {
	Record(ctx context.Context, alert alerting.Alert) error
	MarkResolved(ctx context.Context, id core.AlertID, at time.Time) error
	List(ctx context.Context, filter alerting.Filter) ([]alerting.Alert, error)
}
