package macro

import (
	"fmt"
	"log/slog"
	"strings"

	"tokensmith/internal/creature"
	"tokensmith/internal/logging"
	"tokensmith/internal/services"
)

// Options controls Generate.
type Options struct {
	// Delivery suppresses the debug macro.
	Delivery bool
	// Health adds the HealthMacros after the utility macros.
	Health bool
	// Catalog is the spell catalog used to resolve known spells.
	Catalog []creature.Spell
	// Library is the library token name commands delegate to.
	Library string
	// Overrides applies a per-instance presentation override to every
	// variant of the given kind.
	Overrides map[Kind]Override
	Logger    *slog.Logger
}

// Result is the outcome of Generate. Warnings carry every entry that was
// skipped; they never abort generation.
type Result struct {
	Variants []Variant
	Warnings []error
}

// Kinds returns the kind of every variant, in order.
func (r Result) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.Variants))
	for _, v := range r.Variants {
		kinds = append(kinds, v.Kind)
	}
	return kinds
}

type generator struct {
	rec    *creature.Record
	opts   Options
	logger *slog.Logger
	out    Result
}

// Generate derives the ordered macro set for rec: actions, reactions,
// legendary actions, lair actions, regional effects, special abilities, the
// spellcasting header, known spells, the utility macros, then the optional
// health macros and the debug macro.
func Generate(rec *creature.Record, opts Options) Result {
	g := &generator{
		rec:    rec,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "macro").With(logging.String(logging.FieldCreature, rec.Name())),
	}

	g.attacks(KindAttack, "actions", rec.Actions(), "")
	g.attacks(KindAttack, "reactions", rec.Reactions(), "Reaction")
	g.attacks(KindLegendary, "legendary_actions", rec.LegendaryActions(), "")
	g.attacks(KindLair, "lair_actions", rec.LairActions(), "")
	g.attacks(KindRegional, "regional_effects", rec.RegionalEffects(), "")
	g.specials()
	g.spells()

	for _, kind := range []Kind{KindSheet, KindInit, KindSave, KindCheck} {
		g.add(NewUtility(kind, rec, g.override(kind)))
	}
	if opts.Health {
		for _, h := range HealthMacros {
			g.add(NewHealth(rec, h.Label, h.Routine, g.override(KindHealth)))
		}
	}
	if !opts.Delivery {
		g.add(NewUtility(KindDebug, rec, g.override(KindDebug)))
	}
	return g.out
}

func (g *generator) add(v Variant) {
	v.Library = g.opts.Library
	g.out.Variants = append(g.out.Variants, v)
}

func (g *generator) override(kind Kind) Override {
	return g.opts.Overrides[kind]
}

func (g *generator) warn(err error, eventType string) {
	g.out.Warnings = append(g.out.Warnings, err)
	logging.WarnWithContext(g.logger, "macro skipped", eventType,
		logging.Error(err),
		logging.String(logging.FieldImpact, "creature built without this macro"),
	)
}

func (g *generator) named(section string, abilities []creature.Ability) []creature.Ability {
	kept := make([]creature.Ability, 0, len(abilities))
	for i, a := range abilities {
		if strings.TrimSpace(a.Name) == "" {
			g.warn(services.Wrap(services.ErrMalformedCapability, "macro", section,
				fmt.Sprintf("entry %d has no name", i), nil), "ability_unnamed")
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func (g *generator) attacks(kind Kind, section string, abilities []creature.Ability, group string) {
	for _, a := range g.named(section, abilities) {
		g.add(NewAttack(kind, g.rec, a, group, g.override(kind)))
	}
}

func (g *generator) specials() {
	for _, a := range g.named("special_abilities", g.rec.SpecialAbilities()) {
		if creature.IsSpellcasting(a) {
			continue
		}
		g.add(NewSpecial(g.rec, a, g.override(KindSpecial)))
	}
}

func (g *generator) spells() {
	sc, err := g.rec.Spellcasting()
	if err != nil {
		g.warn(err, "spellcasting_malformed")
		return
	}
	if sc == nil {
		return
	}
	for _, a := range g.rec.SpecialAbilities() {
		if creature.IsSpellcasting(a) {
			g.add(NewSpellcasting(g.rec, a, sc, g.override(KindSpellcasting)))
			break
		}
	}
	for _, spell := range g.rec.KnownSpells(g.opts.Catalog) {
		g.add(NewSpell(g.rec, spell, sc, g.override(KindSpell)))
	}
}
