package logging

import (
	"context"
	"log/slog"

	"atomflow/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID is the standardized structured logging key for workflow job identifiers.
	FieldJobID = "job_id"
	// FieldFlow is the standardized structured logging key for flow names.
	FieldFlow = "flow"
	// FieldCalcDir is the standardized structured logging key for calculation directories.
	FieldCalcDir = "calc_dir"
	// FieldEventType is the standardized structured logging key for machine-readable event markers.
	FieldEventType = "event_type"
	// FieldFormula is the standardized structured logging key for chemical formulas.
	FieldFormula = "formula"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.JobIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJobID, id))
	}
	if component, ok := services.ComponentFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldComponent, component))
	}
	if dir, ok := services.CalcDirFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCalcDir, dir))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
