package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tokensmith/internal/archive"
	"tokensmith/internal/asset"
	"tokensmith/internal/config"
	"tokensmith/internal/creature"
	"tokensmith/internal/ledger"
	"tokensmith/internal/logging"
	"tokensmith/internal/macro"
	"tokensmith/internal/render"
	"tokensmith/internal/services"
	"tokensmith/internal/source"
	"tokensmith/internal/textutil"
)

// Build stages, as reported in logs and outcomes.
const (
	StageSource   = "source"
	StageRecord   = "record"
	StagePortrait = "portrait"
	StageMacros   = "macros"
	StagePackage  = "package"
	StageLibrary  = "library"
	StageDelivery = "delivery"
)

// Recorder persists build outcomes.
type Recorder interface {
	Record(ctx context.Context, b ledger.Build) (*ledger.Build, error)
}

// Runner builds token containers for a batch of creature sources.
type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	renderer  render.Renderer
	resolver  *asset.Resolver
	packager  *archive.Packager
	catalog   []creature.Spell
	overrides creature.Overrides
	recorder  Recorder
	presets   map[macro.Kind]macro.Override
	newRunID  func() string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithRecorder records every outcome, typically into a ledger.Store.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithRenderer replaces the embedded template set.
func WithRenderer(renderer render.Renderer) Option {
	return func(r *Runner) { r.renderer = renderer }
}

// WithCatalog supplies the spell catalog instead of reading paths.spell_catalog.
func WithCatalog(spells []creature.Spell) Option {
	return func(r *Runner) { r.catalog = spells }
}

// WithMacroOverride applies a presentation override to every variant of kind.
func WithMacroOverride(kind macro.Kind, ov macro.Override) Option {
	return func(r *Runner) {
		if r.presets == nil {
			r.presets = make(map[macro.Kind]macro.Override)
		}
		r.presets[kind] = ov
	}
}

// New prepares a runner from cfg. The spell catalog and overrides file are
// read here so a bad path fails before any creature is processed.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "config is required", nil)
	}
	r := &Runner{cfg: cfg, newRunID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "pipeline")

	if r.renderer == nil {
		renderer, err := render.New()
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "load templates", err)
		}
		r.renderer = renderer
	}
	if r.catalog == nil && cfg.Paths.SpellCatalog != "" {
		spells, err := creature.LoadSpellCatalog(cfg.Paths.SpellCatalog)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "spell catalog", err)
		}
		r.catalog = spells
	}
	r.overrides = creature.BuiltinOverrides()
	if cfg.Paths.OverridesFile != "" {
		ov, err := creature.LoadOverrides(cfg.Paths.OverridesFile)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "overrides", err)
		}
		r.overrides = ov
	}

	r.resolver = asset.NewResolver(asset.NewCache(), cfg.Paths.ImageDirs,
		asset.WithThreshold(cfg.Build.MatchThreshold),
		asset.WithDefaultPortrait(cfg.Paths.DefaultPortrait),
		asset.WithLogger(r.logger),
	)
	r.packager = archive.NewPackager(r.renderer, archive.Options{
		OutDir:         cfg.Paths.BuildDir,
		ThumbnailSmall: cfg.Build.ThumbnailSmall,
		ThumbnailLarge: cfg.Build.ThumbnailLarge,
		LibraryName:    cfg.Build.LibraryName,
		Logger:         r.logger,
	})
	return r, nil
}

// Run builds one container per item, in order, up to build.max_items items.
// Per-creature failures are captured in the summary; the returned error is
// reserved for cancellation and run-level failures.
func (r *Runner) Run(ctx context.Context, items []source.Item) (*Summary, error) {
	runID := r.newRunID()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	summary := &Summary{RunID: runID, Delivery: r.cfg.Build.Delivery}
	limit := r.cfg.Build.MaxItems
	logger.Info("build started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("items", len(items)),
		logging.Int("max_items", limit),
		logging.Bool("delivery", r.cfg.Build.Delivery),
	)

	names := fileNames{}
	names.claim(r.cfg.Build.LibraryName)
	for _, item := range items {
		if limit > 0 && len(summary.Outcomes) >= limit {
			summary.Skipped = len(items) - len(summary.Outcomes)
			logger.Info("max items reached", logging.Int("skipped", summary.Skipped))
			break
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome := r.process(ctx, item, names)
		r.record(ctx, runID, outcome)
		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	if summary.Built() > 0 {
		lib := r.library(ctx)
		r.record(ctx, runID, lib)
		summary.Library = &lib
	}

	if r.cfg.Build.Delivery && summary.Library != nil && summary.Library.Err == nil {
		members := make([]string, 0, summary.Built())
		for _, o := range summary.Outcomes {
			if o.Err == nil {
				members = append(members, o.Archive.Path)
			}
		}
		target := r.DeliveryPath()
		if err := archive.BuildDelivery(target, members, summary.Library.Archive.Path); err != nil {
			summary.DeliveryErr = err
			logging.ErrorWithContext(logger, "delivery archive failed", "delivery_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check free space and permissions of paths.build_dir"),
			)
		} else {
			summary.DeliveryPath = target
		}
	}

	logger.Info("build finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("built", summary.Built()),
		logging.Int("failed", summary.Failed()),
		logging.Int("warnings", summary.Warnings()),
	)
	return summary, nil
}

// DeliveryPath is where the aggregate archive is written.
func (r *Runner) DeliveryPath() string {
	return filepath.Join(r.cfg.Paths.BuildDir, r.cfg.Build.DeliveryName+archive.DeliveryExtension)
}

func (r *Runner) process(ctx context.Context, item source.Item, names fileNames) Outcome {
	ctx = services.WithCreature(ctx, item.Name)
	out := Outcome{Name: item.Name, Origin: item.Origin}

	if item.Err != nil {
		return r.fail(ctx, out, StageSource, item.Err)
	}

	rec, err := creature.New(item.Raw, creature.WithOverrides(r.overrides))
	if err != nil {
		return r.fail(ctx, out, StageRecord, err)
	}
	out.Name = rec.Name()
	ctx = services.WithCreature(ctx, rec.Name())

	portrait, match, err := r.resolver.Portrait(services.WithStage(ctx, StagePortrait), rec.Name())
	if err != nil {
		return r.fail(ctx, out, StagePortrait, err)
	}
	out.Match = match
	if match.Fallback {
		miss := services.Wrap(services.ErrAssetMiss, StagePortrait, "match", rec.Name(), nil)
		out.Warnings = append(out.Warnings, miss)
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "no portrait matched", "portrait_fallback",
			logging.Float64("best_ratio", match.Ratio),
			logging.String(logging.FieldErrorHint, "add an image named after the creature to paths.image_dirs"),
			logging.String(logging.FieldImpact, "default portrait used"),
		)
	}

	gen := macro.Generate(rec, macro.Options{
		Delivery:  r.cfg.Build.Delivery,
		Health:    r.cfg.Build.HealthMacros,
		Catalog:   r.catalog,
		Library:   r.cfg.Build.LibraryName,
		Overrides: r.presets,
		Logger:    logging.WithContext(services.WithStage(ctx, StageMacros), r.logger),
	})
	out.Warnings = append(out.Warnings, gen.Warnings...)

	tok := archive.Token{
		Record:   rec,
		Variants: gen.Variants,
		Portrait: portrait,
		FileName: names.claim(rec.Name()),
	}
	if tok.FileName != textutil.SanitizeFileName(rec.Name()) {
		logging.WithContext(ctx, r.logger).Info("container name already used in this run",
			logging.String(logging.FieldEventType, "container_renamed"),
			logging.String("file_name", tok.FileName),
		)
	}
	if icon := r.resolver.Icon(services.WithStage(ctx, StagePortrait), rec.Name()); icon != nil {
		tok.Extra = append(tok.Extra, icon)
	}
	res, err := r.packager.Build(services.WithStage(ctx, StagePackage), tok)
	if err != nil {
		return r.fail(ctx, out, StagePackage, err)
	}
	out.Archive = res

	logging.WithContext(ctx, r.logger).Info("token built",
		logging.String(logging.FieldEventType, "token_built"),
		logging.String("path", res.Path),
		logging.Int("macros", res.Macros),
		logging.Bool("portrait_fallback", match.Fallback),
	)
	return out
}

func (r *Runner) library(ctx context.Context) Outcome {
	name := r.cfg.Build.LibraryName
	ctx = services.WithCreature(services.WithStage(ctx, StageLibrary), name)
	out := Outcome{Name: name, Library: true}

	portrait, err := r.resolver.Default()
	if err != nil {
		return r.fail(ctx, out, StageLibrary, err)
	}
	res, err := r.packager.BuildLibrary(ctx, portrait)
	if err != nil {
		return r.fail(ctx, out, StageLibrary, err)
	}
	out.Archive = res
	return out
}

func (r *Runner) fail(ctx context.Context, out Outcome, stage string, err error) Outcome {
	out.Stage = stage
	out.Err = err
	logging.ErrorWithContext(logging.WithContext(services.WithStage(ctx, stage), r.logger), "token build failed", "token_failed",
		logging.Error(err),
		logging.String("error_class", services.Classify(err)),
		logging.String(logging.FieldErrorHint, hint(err)),
	)
	return out
}

func (r *Runner) record(ctx context.Context, runID string, out Outcome) {
	if r.recorder == nil {
		return
	}
	b := ledger.Build{
		RunID:            runID,
		Creature:         out.Name,
		ArchivePath:      out.Archive.Path,
		PortraitChecksum: out.Archive.Portrait,
		PortraitFallback: out.Match.Fallback,
		Macros:           out.Archive.Macros,
		Library:          out.Library,
		Status:           ledger.StatusBuilt,
	}
	if out.Err != nil {
		b.Status = ledger.StatusFailed
		b.ArchivePath = ""
		b.ErrorClass = services.Classify(out.Err)
		b.ErrorMessage = out.Err.Error()
	}
	if strings.TrimSpace(b.Creature) == "" {
		b.Creature = out.Origin
	}
	if _, err := r.recorder.Record(ctx, b); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "ledger write failed", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.ledger_path"),
			logging.String(logging.FieldImpact, "build missing from later delivery runs"),
		)
	}
}

func hint(err error) string {
	switch {
	case errors.Is(err, services.ErrMissingField), errors.Is(err, services.ErrInvalidField):
		return "fix the creature's source entry"
	case errors.Is(err, services.ErrArchiveWrite):
		return "check free space and permissions of paths.build_dir"
	case errors.Is(err, services.ErrConfiguration):
		return "check paths.default_portrait"
	default:
		return "check logs for details"
	}
}
