package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tokensmith/internal/archive"
	"tokensmith/internal/ledger"
	"tokensmith/internal/logging"
	"tokensmith/internal/services"
)

// ErrNothingToDeliver reports a ledger without any usable creature archive.
var ErrNothingToDeliver = errors.New("no built creature archives recorded")

// Ledger is the read side of the build ledger used by Deliver.
type Ledger interface {
	Successful(ctx context.Context) ([]ledger.Build, error)
	Library(ctx context.Context) (*ledger.Build, error)
}

// DeliveryResult describes an aggregate archive written by Deliver.
type DeliveryResult struct {
	Path    string
	Members []string
	Library string
	// Missing lists recorded archives no longer present on disk.
	Missing []string
	// Shadowed lists creatures left out because a newer build of another
	// creature owns the same container file name.
	Shadowed []string
}

// Deliver assembles the aggregate archive from the latest successful build
// of every creature recorded in the ledger. Recorded containers are copied
// as-is. When the ledger holds no usable library container a fresh one is
// written first.
func (r *Runner) Deliver(ctx context.Context, book Ledger) (DeliveryResult, error) {
	ctx = services.WithStage(ctx, StageDelivery)
	logger := logging.WithContext(ctx, r.logger)

	builds, err := book.Successful(ctx)
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("read ledger: %w", err)
	}
	res := DeliveryResult{Path: r.DeliveryPath()}
	builds = r.newestPerFile(ctx, builds, &res)
	for _, b := range builds {
		if !exists(b.ArchivePath) {
			res.Missing = append(res.Missing, b.ArchivePath)
			logging.WarnWithContext(logger, "recorded archive missing", "archive_missing",
				logging.String(logging.FieldCreature, b.Creature),
				logging.String("path", b.ArchivePath),
				logging.String(logging.FieldErrorHint, "rebuild the creature"),
				logging.String(logging.FieldImpact, "creature left out of the delivery archive"),
			)
			continue
		}
		res.Members = append(res.Members, b.ArchivePath)
	}
	if len(res.Members) == 0 {
		return res, ErrNothingToDeliver
	}

	lib, err := book.Library(ctx)
	if err != nil {
		return res, fmt.Errorf("read ledger: %w", err)
	}
	if lib != nil && exists(lib.ArchivePath) {
		res.Library = lib.ArchivePath
	} else {
		built := r.library(ctx)
		if built.Err != nil {
			return res, built.Err
		}
		runID := r.newRunID()
		r.record(services.WithRunID(ctx, runID), runID, built)
		res.Library = built.Archive.Path
	}

	if err := archive.BuildDelivery(res.Path, res.Members, res.Library); err != nil {
		return res, err
	}
	logger.Info("delivery archive written",
		logging.String(logging.FieldEventType, "delivery_written"),
		logging.String("path", res.Path),
		logging.Int("members", len(res.Members)),
	)
	return res, nil
}

// newestPerFile keeps, for every container file name, the most recently
// recorded build. Older rows point at files since overwritten by another
// creature or would collide inside the aggregate.
func (r *Runner) newestPerFile(ctx context.Context, builds []ledger.Build, res *DeliveryResult) []ledger.Build {
	owner := make(map[string]int, len(builds))
	for i, b := range builds {
		key := strings.ToLower(filepath.Base(b.ArchivePath))
		if j, ok := owner[key]; !ok || b.ID > builds[j].ID {
			owner[key] = i
		}
	}
	logger := logging.WithContext(ctx, r.logger)
	kept := make([]ledger.Build, 0, len(owner))
	for i, b := range builds {
		if owner[strings.ToLower(filepath.Base(b.ArchivePath))] == i {
			kept = append(kept, b)
			continue
		}
		res.Shadowed = append(res.Shadowed, b.Creature)
		logging.WarnWithContext(logger, "recorded archive superseded", "archive_shadowed",
			logging.String(logging.FieldCreature, b.Creature),
			logging.String("path", b.ArchivePath),
			logging.String(logging.FieldErrorHint, "rebuild the creature together with the others sharing its name"),
			logging.String(logging.FieldImpact, "creature left out of the delivery archive"),
		)
	}
	return kept
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
