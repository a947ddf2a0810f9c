package ports

// TelemetrySink receives structured observability events from the engine.
// Implementations must never panic and must never block a caller's hot
// path; failures are the sink's own problem (fail-open).
type TelemetrySink interface {
	Emit(event string, props map[string]interface{})
}
