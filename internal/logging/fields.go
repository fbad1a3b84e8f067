package logging

import (
	"context"
	"log/slog"

	"tokensmith/internal/services"
)

// Structured field keys shared by every tokensmith log line.
const (
	FieldComponent = "component"
	FieldCreature  = "creature"
	FieldStage     = "stage"
	FieldRunID     = "run_id"
	// FieldEventType classifies a line for filtering, e.g. "portrait_fallback".
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact states what the warning cost the build.
	FieldImpact = "impact"
)

// ContextFields returns the creature, stage and run id carried by ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if name, ok := services.CreatureFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCreature, name))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, rid))
	}
	return fields
}

// WithContext tags logger with the build fields carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = nop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(args(fields)...)
}
