package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"tokensmith/internal/asset"
	"tokensmith/internal/creature"
	"tokensmith/internal/logging"
	"tokensmith/internal/macro"
	"tokensmith/internal/render"
	"tokensmith/internal/services"
	"tokensmith/internal/textutil"
)

// PropertiesVersion is the tabletop version recorded in properties.xml.
const PropertiesVersion = "1.4.1.8"

// Token is everything needed to package one creature.
type Token struct {
	Record   *creature.Record
	Variants []macro.Variant
	Portrait *asset.Image
	// Extra lists further assets stored alongside the portrait, such as icons.
	Extra []*asset.Image
	// FileName is the container base name without extension. Empty means
	// the sanitized creature name.
	FileName string
}

// Result describes a written container.
type Result struct {
	Name     string
	Path     string
	Portrait string
	Assets   int
	Macros   int
	Bytes    int64
}

// State is one token state flag.
type State struct {
	Name  string
	Value bool
}

// Macro is one rendered macro button.
type Macro struct {
	Index     int
	Label     string
	Group     string
	Color     string
	FontColor string
	Command   string
}

// ContentData feeds the content template.
type ContentData struct {
	Name       string
	Portrait   string
	Width      int
	Height     int
	Notes      string
	Library    bool
	States     []State
	Properties []creature.Property
	Macros     []Macro
}

// Options configures a Packager.
type Options struct {
	OutDir         string
	ThumbnailSmall int
	ThumbnailLarge int
	LibraryName    string
	Logger         *slog.Logger
}

// Packager renders tokens and writes their containers.
type Packager struct {
	renderer render.Renderer
	opts     Options
	logger   *slog.Logger
}

// NewPackager builds a Packager. Zero thumbnail bounds default to 50 and 500.
func NewPackager(renderer render.Renderer, opts Options) *Packager {
	if opts.ThumbnailSmall <= 0 {
		opts.ThumbnailSmall = 50
	}
	if opts.ThumbnailLarge <= 0 {
		opts.ThumbnailLarge = 500
	}
	if opts.LibraryName == "" {
		opts.LibraryName = "Lib:Monsters"
	}
	return &Packager{
		renderer: renderer,
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "archive"),
	}
}

// FileName returns the container file name for a display name.
func FileName(name string) string {
	return textutil.SanitizeFileName(name) + Extension
}

// Path returns where the container for name is written.
func (p *Packager) Path(name string) string {
	return filepath.Join(p.opts.OutDir, FileName(name))
}

func (p *Packager) target(base string) string {
	return filepath.Join(p.opts.OutDir, base+Extension)
}

// Build renders tok and writes its container.
func (p *Packager) Build(ctx context.Context, tok Token) (Result, error) {
	if tok.Record == nil || tok.Portrait == nil {
		return Result{}, services.Wrap(services.ErrInvalidField, "archive", "build", "token needs a record and a portrait", nil)
	}
	rec := tok.Record

	macros, err := p.renderMacros(tok.Variants)
	if err != nil {
		return Result{}, err
	}
	props := append(rec.Properties(), creature.Property{Name: "MaxHitDice", Value: hitDiceJSON(rec.MaxHitDice())})
	data := ContentData{
		Name:       rec.Name(),
		Portrait:   tok.Portrait.Checksum,
		Width:      tok.Portrait.Width,
		Height:     tok.Portrait.Height,
		Notes:      notes(rec),
		States:     []State{{Name: "Concentrating", Value: false}},
		Properties: props,
		Macros:     macros,
	}
	images := append([]*asset.Image{tok.Portrait}, tok.Extra...)
	base := tok.FileName
	if base == "" {
		base = textutil.SanitizeFileName(rec.Name())
	}
	return p.write(ctx, rec.Name(), p.target(base), data, tok.Portrait, images)
}

// libraryMacros are the shared routines every creature command delegates to.
var libraryMacros = []struct {
	label    string
	template string
}{
	{"WeaponAttack", render.LibWeapon},
	{"Describe", render.LibDescribe},
	{"CastSpell", render.LibSpell},
	{"Sheet", render.LibSheet},
	{"PotionOfHealing", render.LibPotion},
	{"ChangeHP", render.LibChangeHP},
}

// BuildLibrary writes the shared library token that creature macros call into.
func (p *Packager) BuildLibrary(ctx context.Context, portrait *asset.Image) (Result, error) {
	if portrait == nil {
		return Result{}, services.Wrap(services.ErrInvalidField, "archive", "library", "library token needs a portrait", nil)
	}
	macros := make([]Macro, 0, len(libraryMacros))
	for i, lm := range libraryMacros {
		body, err := p.renderer.Render(lm.template, nil)
		if err != nil {
			return Result{}, services.Wrap(services.ErrInvalidField, "archive", "render library macro", lm.label, err)
		}
		macros = append(macros, Macro{
			Index:     i + 1,
			Label:     lm.label,
			Group:     "Library",
			Color:     "gray",
			FontColor: "white",
			Command:   body,
		})
	}
	data := ContentData{
		Name:     p.opts.LibraryName,
		Portrait: portrait.Checksum,
		Width:    portrait.Width,
		Height:   portrait.Height,
		Notes:    "Shared macros for generated creature tokens.",
		Library:  true,
		Macros:   macros,
	}
	return p.write(ctx, p.opts.LibraryName, p.Path(p.opts.LibraryName), data, portrait, []*asset.Image{portrait})
}

func (p *Packager) renderMacros(variants []macro.Variant) ([]Macro, error) {
	out := make([]Macro, 0, len(variants))
	for i, v := range variants {
		if v.Library == "" {
			v.Library = p.opts.LibraryName
		}
		body, err := p.renderer.Render(v.Template, v)
		if err != nil {
			return nil, services.Wrap(services.ErrInvalidField, "archive", "render macro", v.Label, err)
		}
		out = append(out, Macro{
			Index:     i + 1,
			Label:     v.Label,
			Group:     v.Group,
			Color:     v.Color,
			FontColor: v.FontColor,
			Command:   body,
		})
	}
	return out, nil
}

func (p *Packager) write(ctx context.Context, name, target string, data ContentData, portrait *asset.Image, images []*asset.Image) (Result, error) {
	logger := logging.WithContext(ctx, p.logger)

	content, err := p.renderer.Render(render.Content, data)
	if err != nil {
		return Result{}, services.Wrap(services.ErrInvalidField, "archive", "render content", name, err)
	}
	properties, err := p.renderer.Render(render.Properties, map[string]string{"Version": PropertiesVersion})
	if err != nil {
		return Result{}, services.Wrap(services.ErrInvalidField, "archive", "render properties", name, err)
	}

	bundle := Bundle{Content: content, Properties: properties}
	for _, img := range images {
		if img == nil {
			continue
		}
		meta, err := p.renderer.Render(render.AssetMeta, map[string]string{
			"Checksum":  img.Checksum,
			"Name":      name,
			"Extension": img.Extension(),
		})
		if err != nil {
			return Result{}, services.Wrap(services.ErrInvalidField, "archive", "render asset", img.Checksum, err)
		}
		bundle.Assets = append(bundle.Assets, Asset{Image: img, Meta: meta})
	}
	if bundle.Thumbnail, err = portrait.Thumbnail(p.opts.ThumbnailSmall, p.opts.ThumbnailSmall); err != nil {
		return Result{}, services.Wrap(services.ErrInvalidField, "archive", "thumbnail", name, err)
	}
	if bundle.ThumbnailLarge, err = portrait.Thumbnail(p.opts.ThumbnailLarge, p.opts.ThumbnailLarge); err != nil {
		return Result{}, services.Wrap(services.ErrInvalidField, "archive", "thumbnail", name, err)
	}

	if err := WriteFile(target, bundle); err != nil {
		return Result{}, err
	}

	res := Result{
		Name:     name,
		Path:     target,
		Portrait: portrait.Checksum,
		Assets:   len(bundle.unique()),
		Macros:   len(data.Macros),
		Bytes:    fileSize(target),
	}
	logger.Debug("container written",
		logging.String("path", res.Path),
		logging.Int("assets", res.Assets),
		logging.Int("macros", res.Macros),
	)
	return res, nil
}

func hitDiceJSON(pool []creature.HitDie) string {
	m := make(map[string]int, len(pool))
	for _, hd := range pool {
		m[hd.Die] = hd.Count
	}
	data, _ := json.Marshal(m)
	return string(data)
}

// notes is the short stat line shown in the token notes.
func notes(rec *creature.Record) string {
	kind := rec.Type()
	if sub := rec.Subtype(); sub != "" {
		kind = fmt.Sprintf("%s (%s)", kind, sub)
	}
	lines := []string{fmt.Sprintf("%s %s, %s", rec.Size(), kind, rec.Alignment())}
	if s := rec.Senses(); s != "" {
		lines = append(lines, "Senses "+s)
	}
	if l := rec.Languages(); l != "" {
		lines = append(lines, "Languages "+l)
	}
	lines = append(lines, "Challenge "+rec.ChallengeRating())
	return strings.Join(lines, "\n")
}
