package asset

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"tokensmith/internal/logging"
	"tokensmith/internal/services"
	"tokensmith/internal/textutil"
)

// DefaultThreshold is the similarity ratio a library file name must exceed.
const DefaultThreshold = 0.8

// IconSuffix marks library files holding a creature's secondary icon, as in
// "Goblin_icon.png". Icon files are never portrait candidates.
const IconSuffix = "_icon"

// Match describes how a portrait was chosen.
type Match struct {
	// Path is the chosen library file; empty when the default was used.
	Path  string
	Ratio float64
	// Fallback is true when no candidate exceeded the threshold.
	Fallback bool
}

// Resolver picks creature portraits from image library directories.
type Resolver struct {
	cache       *Cache
	dirs        []string
	threshold   float64
	defaultPath string
	logger      *slog.Logger

	defaultOnce  sync.Once
	defaultImage *Image
	defaultErr   error
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold float64) ResolverOption {
	return func(r *Resolver) {
		if threshold > 0 {
			r.threshold = threshold
		}
	}
}

// WithDefaultPortrait uses the image at path instead of the built-in portrait.
func WithDefaultPortrait(path string) ResolverOption {
	return func(r *Resolver) {
		r.defaultPath = path
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver builds a resolver over dirs backed by cache.
func NewResolver(cache *Cache, dirs []string, opts ...ResolverOption) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	r := &Resolver{
		cache:     cache,
		dirs:      append([]string(nil), dirs...),
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "asset")
	return r
}

// Cache returns the backing cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Candidates lists every image file across the library directories.
func (r *Resolver) Candidates() ([]string, error) {
	var all []string
	for _, dir := range r.dirs {
		files, err := r.cache.Files(dir)
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
	}
	return all, nil
}

// Portrait returns the library image whose file name best matches name, or
// the default portrait when no candidate's ratio exceeds the threshold. A
// miss is never an error; the only failure is an unreadable default. Results
// are memoized per creature name.
func (r *Resolver) Portrait(ctx context.Context, name string) (*Image, Match, error) {
	if p, ok := r.cache.portrait(name); ok {
		return p.image, p.match, nil
	}
	img, match, err := r.resolve(ctx, name)
	if err != nil {
		return nil, Match{}, err
	}
	r.cache.storePortrait(name, portrait{image: img, match: match})
	return img, match, nil
}

func (r *Resolver) resolve(ctx context.Context, name string) (*Image, Match, error) {
	logger := logging.WithContext(ctx, r.logger)

	candidates, err := r.Candidates()
	if err != nil {
		logging.WarnWithContext(logger, "image library unreadable", "image_library_unreadable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.image_dirs"),
			logging.String(logging.FieldImpact, "default portrait used"),
		)
		candidates = nil
	}

	portraits := candidates[:0:0]
	stems := make([]string, 0, len(candidates))
	for _, path := range candidates {
		s := stem(path)
		if isIcon(s) {
			continue
		}
		portraits = append(portraits, path)
		stems = append(stems, s)
	}
	candidates = portraits
	index, ratio := textutil.BestMatch(name, stems)
	if index >= 0 && ratio > r.threshold {
		img, err := r.cache.Load(candidates[index])
		if err == nil {
			logger.Debug("portrait matched",
				logging.String("path", candidates[index]),
				logging.Float64("ratio", ratio),
			)
			return img, Match{Path: candidates[index], Ratio: ratio}, nil
		}
		logging.WarnWithContext(logger, "matched portrait unreadable", "portrait_unreadable",
			logging.Error(err),
			logging.String("path", candidates[index]),
			logging.String(logging.FieldImpact, "default portrait used"),
		)
	}

	img, err := r.Default()
	if err != nil {
		return nil, Match{}, err
	}
	logger.Debug("portrait fallback",
		logging.String(logging.FieldEventType, "portrait_fallback"),
		logging.Float64("best_ratio", ratio),
		logging.Int("candidates", len(candidates)),
	)
	return img, Match{Ratio: ratio, Fallback: true}, nil
}

// Icon returns the library file named after the creature with IconSuffix,
// compared case-insensitively. Icons are optional: a missing or unreadable
// file yields nil.
func (r *Resolver) Icon(ctx context.Context, name string) *Image {
	candidates, err := r.Candidates()
	if err != nil {
		return nil
	}
	want := []string{name + IconSuffix, textutil.SanitizeFileName(name) + IconSuffix}
	for _, path := range candidates {
		s := stem(path)
		if !strings.EqualFold(s, want[0]) && !strings.EqualFold(s, want[1]) {
			continue
		}
		img, err := r.cache.Load(path)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, r.logger), "icon unreadable", "icon_unreadable",
				logging.Error(err),
				logging.String("path", path),
				logging.String(logging.FieldImpact, "token built without icon"),
			)
			return nil
		}
		return img
	}
	return nil
}

func isIcon(stem string) bool {
	return len(stem) > len(IconSuffix) && strings.EqualFold(stem[len(stem)-len(IconSuffix):], IconSuffix)
}

// Default returns the configured default portrait, or the built-in one.
func (r *Resolver) Default() (*Image, error) {
	r.defaultOnce.Do(func() {
		if r.defaultPath == "" {
			r.defaultImage = DefaultPortrait()
			return
		}
		img, err := r.cache.Load(r.defaultPath)
		if err != nil {
			r.defaultErr = services.Wrap(services.ErrConfiguration, "asset", "default portrait", r.defaultPath, err)
			return
		}
		r.defaultImage = img
	})
	return r.defaultImage, r.defaultErr
}
