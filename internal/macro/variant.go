package macro

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tokensmith/internal/creature"
)

// Override replaces presentation defaults for a single variant. Empty fields
// keep the default.
type Override struct {
	Group     string
	Color     string
	FontColor string
}

// Variant is one macro button. Creature is always set; Ability, Spell and
// Spellcasting are set only for the kinds that use them.
type Variant struct {
	Kind      Kind
	Label     string
	Group     string
	Color     string
	FontColor string
	// Template names the render template producing the command body.
	Template string
	// Library is the library token the command delegates to.
	Library string
	// Routine is the library macro a health variant calls.
	Routine string

	Creature     *creature.Record
	Ability      *creature.Ability
	Spell        *creature.Spell
	Spellcasting *creature.Spellcasting
}

func (v Variant) String() string {
	return fmt.Sprintf("%s<%s,grp=%s>", v.Kind, v.Label, v.Group)
}

// newVariant resolves presentation for kind. Group precedence is override,
// then the computed group, then the kind default. Colors follow override,
// then kind default, then the group color map.
func newVariant(kind Kind, label, group string, ov Override) Variant {
	p := presentations[kind]
	v := Variant{Kind: kind, Label: label, Template: p.template}

	switch {
	case ov.Group != "":
		v.Group = ov.Group
	case group != "":
		v.Group = group
	default:
		v.Group = p.group
	}

	switch {
	case ov.Color != "":
		v.Color = ov.Color
	case p.color != "":
		v.Color = p.color
	default:
		v.Color = groupColor(v.Group)
	}

	switch {
	case ov.FontColor != "":
		v.FontColor = ov.FontColor
	case p.fontColor != "":
		v.FontColor = p.fontColor
	default:
		v.FontColor = groupFontColor(v.Color)
	}
	return v
}

// NewAttack builds an Attack-style variant for ability. kind must be one of
// KindAttack, KindLegendary, KindLair or KindRegional; group may be empty to
// use the kind default.
func NewAttack(kind Kind, rec *creature.Record, ability creature.Ability, group string, ov Override) Variant {
	v := newVariant(kind, attackLabel(ability), group, ov)
	if !ability.HasDamage() {
		v.Template = presentations[KindSpecial].template
	}
	v.Creature = rec
	v.Ability = &ability
	return v
}

// NewSpecial builds a plain description variant for a special ability.
func NewSpecial(rec *creature.Record, ability creature.Ability, ov Override) Variant {
	v := newVariant(KindSpecial, ability.Name, "", ov)
	v.Creature = rec
	v.Ability = &ability
	return v
}

// NewSpellcasting builds the spellcasting header variant. Its group names the
// casting attribute, save DC and spell attack bonus.
func NewSpellcasting(rec *creature.Record, entry creature.Ability, sc *creature.Spellcasting, ov Override) Variant {
	v := newVariant(KindSpellcasting, entry.Name, spellcastingGroup(sc), ov)
	v.Creature = rec
	v.Ability = &entry
	v.Spellcasting = sc
	return v
}

// NewSpell builds a spell variant grouped by spell level.
func NewSpell(rec *creature.Record, spell creature.Spell, sc *creature.Spellcasting, ov Override) Variant {
	v := newVariant(KindSpell, spell.Name+spellSuffix(spell), spellGroup(spell.Level), ov)
	v.Creature = rec
	v.Spell = &spell
	v.Spellcasting = sc
	return v
}

var utilityLabels = map[Kind]string{
	KindSheet: "Sheet",
	KindInit:  "Initiative",
	KindSave:  "Saving Throw",
	KindCheck: "Check",
	KindDebug: "Debug",
}

// HealthMacros are the hit point buttons added when Options.Health is set,
// keyed by label with the library routine each one calls.
var HealthMacros = []struct {
	Label   string
	Routine string
}{
	{"Potion of Healing", "PotionOfHealing"},
	{"Change HP", "ChangeHP"},
}

// NewHealth builds a hit point macro that hands the token to routine.
func NewHealth(rec *creature.Record, label, routine string, ov Override) Variant {
	v := newVariant(KindHealth, label, "", ov)
	v.Creature = rec
	v.Routine = routine
	return v
}

// NewUtility builds one of the fixed utility macros.
func NewUtility(kind Kind, rec *creature.Record, ov Override) Variant {
	v := newVariant(kind, utilityLabels[kind], "", ov)
	v.Creature = rec
	return v
}

// attackLabel appends "+{hit} {dice}+{bonus}" when the ability deals dice damage.
func attackLabel(a creature.Ability) string {
	if !a.HasDamage() {
		return a.Name
	}
	return fmt.Sprintf("%s %+d %s%+d", a.Name, a.AttackBonus, a.DamageDice, a.DamageBonus)
}

func spellSuffix(s creature.Spell) string {
	var b strings.Builder
	if s.IsBonusAction() {
		b.WriteString(" (BA)")
	}
	if s.IsReaction() {
		b.WriteString(" (R)")
	}
	if s.Concentration {
		b.WriteString(" (C)")
	}
	return b.String()
}

func spellGroup(level int) string {
	if level == 0 {
		return "Cantrips"
	}
	return fmt.Sprintf("Level %d", level)
}

func spellcastingGroup(sc *creature.Spellcasting) string {
	if sc == nil {
		return ""
	}
	return fmt.Sprintf("Spells (%s, DC %d, %+d)", sc.Attribute.Short(), sc.SaveDC, sc.AttackBonus)
}

func isSpellGroup(group string) bool {
	return group == "Cantrips" || strings.HasPrefix(group, "Level ") || strings.HasPrefix(group, "Spells (")
}

// DamageType is the ability's damage type in title case ("Bludgeoning").
func (v Variant) DamageType() string {
	if v.Ability == nil || v.Ability.DamageType == "" {
		return "Unknown"
	}
	return cases.Title(language.English).String(v.Ability.DamageType)
}

// FlavorText is the line shown when the attack is rolled.
func (v Variant) FlavorText() string {
	if v.Ability == nil || v.Creature == nil {
		return ""
	}
	return fmt.Sprintf("The %s attacks with its %s.", v.Creature.Name(), strings.ToLower(v.Ability.Name))
}

// Description is the free text shown by description-style macros.
func (v Variant) Description() string {
	switch {
	case v.Ability != nil:
		return v.Ability.Description
	case v.Spell != nil:
		return v.Spell.Description
	}
	return ""
}

// Initiative is the creature's initiative modifier.
func (v Variant) Initiative() int {
	if v.Creature == nil {
		return 0
	}
	return v.Creature.Bonus(creature.Dexterity)
}

// Roll is one named d20 modifier offered by the save and check macros.
type Roll struct {
	Name  string
	Bonus int
}

// Saves lists the saving throw modifiers in sheet order.
func (v Variant) Saves() []Roll {
	if v.Creature == nil {
		return nil
	}
	rolls := make([]Roll, 0, len(creature.Attributes))
	for _, attr := range creature.Attributes {
		rolls = append(rolls, Roll{attr.Title(), v.Creature.Save(attr)})
	}
	return rolls
}

// Checks lists raw ability checks followed by every skill.
func (v Variant) Checks() []Roll {
	if v.Creature == nil {
		return nil
	}
	rolls := make([]Roll, 0, len(creature.Attributes)+len(creature.Skills))
	for _, attr := range creature.Attributes {
		rolls = append(rolls, Roll{attr.Title(), v.Creature.Bonus(attr)})
	}
	for _, skill := range creature.Skills {
		rolls = append(rolls, Roll{skill.Name, v.Creature.SkillBonus(skill.Name)})
	}
	return rolls
}
