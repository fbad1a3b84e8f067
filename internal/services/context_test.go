package services_test

import (
	"context"
	"testing"

	"tokensmith/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCreature(ctx, "Goblin")
	ctx = services.WithStage(ctx, "archive")
	ctx = services.WithRunID(ctx, "run-123")

	if name, ok := services.CreatureFromContext(ctx); !ok || name != "Goblin" {
		t.Fatalf("unexpected creature: %v %v", name, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "archive" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
