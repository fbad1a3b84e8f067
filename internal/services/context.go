package services

import "context"

type contextKey string

const (
	creatureKey contextKey = "creature"
	stageKey    contextKey = "stage"
	runIDKey    contextKey = "run_id"
)

// WithCreature annotates context with the creature currently being built.
func WithCreature(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, creatureKey, name)
}

// CreatureFromContext extracts the creature name if present.
func CreatureFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(creatureKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the build stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRunID annotates context with the batch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the batch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
