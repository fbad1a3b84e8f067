package creature

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Dice is a "{count}d{die}" expression.
type Dice struct {
	Count int
	Die   int
}

func (d Dice) String() string {
	return fmt.Sprintf("%dd%d", d.Count, d.Die)
}

var hitDicePattern = regexp.MustCompile(`^\s*(\d+)\s*d\s*(\d+)`)

// ParseDice reads the leading "{count}d{die}" of value.
func ParseDice(value string) (Dice, bool) {
	m := hitDicePattern.FindStringSubmatch(value)
	if m == nil {
		return Dice{}, false
	}
	count, _ := strconv.Atoi(m[1])
	die, _ := strconv.Atoi(m[2])
	if count <= 0 || die <= 0 {
		return Dice{}, false
	}
	return Dice{Count: count, Die: die}, true
}

// Record is the normalized, immutable view of one creature. The spellcasting
// block is derived on first use and memoized.
type Record struct {
	raw map[string]any

	name       string
	size       string
	kind       string
	alignment  string
	armorClass int
	hitPoints  int
	hitDice    Dice
	challenge  string
	scores     map[Attribute]int
	text       map[string]string

	actions   []Ability
	reactions []Ability
	specials  []Ability
	legendary []Ability
	lair      []Ability
	regional  []Ability

	spellOnce    sync.Once
	spellcasting *Spellcasting
	spellErr     error
}

// Option configures New.
type Option func(*options)

type options struct {
	overrides Overrides
}

// WithOverrides replaces the built-in corrections with o.
func WithOverrides(o Overrides) Option {
	return func(opts *options) {
		if o != nil {
			opts.overrides = o
		}
	}
}

// New validates raw against the field rules and decodes it into a Record.
// raw is not modified. A missing required field fails with ErrMissingField.
func New(raw map[string]any, opts ...Option) (*Record, error) {
	o := options{overrides: BuiltinOverrides()}
	for _, opt := range opts {
		opt(&o)
	}

	src := maps.Clone(raw)
	if src == nil {
		src = map[string]any{}
	}

	nameValue, err := lookupIn(src, "name")
	if err != nil {
		return nil, err
	}
	name := asText(nameValue)
	if name == "" {
		return nil, missingField("name")
	}
	if patch, ok := o.overrides.lookup(name); ok {
		maps.Copy(src, patch)
	}

	r := &Record{
		raw:    src,
		name:   name,
		scores: make(map[Attribute]int, len(Attributes)),
		text:   make(map[string]string, len(textFields)),
	}
	if err := r.decode(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Record) decode() error {
	var err error
	if r.size, err = r.requiredText("size"); err != nil {
		return err
	}
	if r.kind, err = r.requiredText("type"); err != nil {
		return err
	}
	if r.alignment, err = r.requiredText("alignment"); err != nil {
		return err
	}
	if r.armorClass, err = r.requiredInt("armor_class"); err != nil {
		return err
	}
	if r.hitPoints, err = r.requiredInt("hit_points"); err != nil {
		return err
	}

	hd, err := r.requiredText("hit_dice")
	if err != nil {
		return err
	}
	dice, ok := ParseDice(hd)
	if !ok {
		return invalidField("hit_dice", hd)
	}
	r.hitDice = dice

	for _, attr := range Attributes {
		score, err := r.requiredInt(string(attr))
		if err != nil {
			return err
		}
		r.scores[attr] = score
	}

	cr, err := lookupIn(r.raw, "challenge_rating")
	if err != nil {
		return err
	}
	if r.challenge, ok = asChallenge(cr); !ok {
		return invalidField("challenge_rating", cr)
	}

	for _, key := range textFields {
		v, err := lookupIn(r.raw, key)
		if err != nil {
			return err
		}
		r.text[key] = asText(v)
	}

	lists := []struct {
		key string
		dst *[]Ability
	}{
		{"actions", &r.actions},
		{"reactions", &r.reactions},
		{"special_abilities", &r.specials},
		{"legendary_actions", &r.legendary},
		{"lair_actions", &r.lair},
		{"regional_effects", &r.regional},
	}
	for _, l := range lists {
		v, err := lookupIn(r.raw, l.key)
		if err != nil {
			return err
		}
		if *l.dst, err = decodeAbilities(l.key, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *Record) requiredText(key string) (string, error) {
	v, err := lookupIn(r.raw, key)
	if err != nil {
		return "", err
	}
	text := asText(v)
	if text == "" {
		return "", missingField(key)
	}
	return text, nil
}

func (r *Record) requiredInt(key string) (int, error) {
	v, err := lookupIn(r.raw, key)
	if err != nil {
		return 0, err
	}
	n, ok := asInt(v)
	if !ok {
		return 0, invalidField(key, v)
	}
	return n, nil
}

// Lookup resolves a source field through the field rules.
func (r *Record) Lookup(key string) (any, error) {
	return lookupIn(r.raw, key)
}

func (r *Record) Name() string            { return r.name }
func (r *Record) Size() string            { return r.size }
func (r *Record) Type() string            { return r.kind }
func (r *Record) Subtype() string         { return r.text["subtype"] }
func (r *Record) Alignment() string       { return r.alignment }
func (r *Record) ArmorClass() int         { return r.armorClass }
func (r *Record) HitPoints() int          { return r.hitPoints }
func (r *Record) HitDice() Dice           { return r.hitDice }
func (r *Record) ChallengeRating() string { return r.challenge }
func (r *Record) Speed() string           { return r.text["speed"] }
func (r *Record) Senses() string          { return r.text["senses"] }
func (r *Record) Languages() string       { return r.text["languages"] }

func (r *Record) Actions() []Ability          { return r.actions }
func (r *Record) Reactions() []Ability        { return r.reactions }
func (r *Record) SpecialAbilities() []Ability { return r.specials }
func (r *Record) LegendaryActions() []Ability { return r.legendary }
func (r *Record) LairActions() []Ability      { return r.lair }
func (r *Record) RegionalEffects() []Ability  { return r.regional }

// Score returns the raw ability score.
func (r *Record) Score(a Attribute) int {
	return r.scores[a]
}

// Bonus returns floor((score-10)/2) for a.
func (r *Record) Bonus(a Attribute) int {
	return Bonus(r.scores[a])
}

// RollMaxHP returns the hit point roll "{count}d{die}+{count*con bonus}".
// A negative constitution bonus renders as "3d8-3".
func (r *Record) RollMaxHP() string {
	total := r.hitDice.Count * r.Bonus(Constitution)
	if total < 0 {
		return fmt.Sprintf("%s%d", r.hitDice, total)
	}
	return fmt.Sprintf("%s+%d", r.hitDice, total)
}

// HitDie is one row of the hit dice pool.
type HitDie struct {
	Die   string
	Count int
}

// MaxHitDice returns the hit dice pool: d12, d10, d8 and d6 rows, zero except
// for the creature's own die. An unusual die is appended after them.
func (r *Record) MaxHitDice() []HitDie {
	own := fmt.Sprintf("1d%d", r.hitDice.Die)
	pool := []HitDie{{"1d12", 0}, {"1d10", 0}, {"1d8", 0}, {"1d6", 0}}
	found := false
	for i := range pool {
		if pool[i].Die == own {
			pool[i].Count = r.hitDice.Count
			found = true
		}
	}
	if !found {
		pool = append(pool, HitDie{own, r.hitDice.Count})
	}
	return pool
}

func savePattern(a Attribute) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + a.Short() + `|` + string(a) + `)\s*([+-]\s*\d+)`)
}

var savePatterns = func() map[Attribute]*regexp.Regexp {
	out := make(map[Attribute]*regexp.Regexp, len(Attributes))
	for _, a := range Attributes {
		out[a] = savePattern(a)
	}
	return out
}()

// Save resolves the saving throw bonus for a. An explicit "<attr>_save" field
// wins, then the matching entry of the free-text saves field, then the
// attribute bonus.
func (r *Record) Save(a Attribute) int {
	if v, ok := r.raw[string(a)+"_save"]; ok && v != nil {
		if n, ok := asInt(v); ok {
			return n
		}
	}
	if m := savePatterns[a].FindStringSubmatch(r.text["saves"]); m != nil {
		if n, ok := signedInt(m[1]); ok {
			return n
		}
	}
	return r.Bonus(a)
}

// SkillBonus resolves a skill check bonus with the same precedence as Save:
// explicit field, free-text skills entry, then the skill's attribute bonus.
// Unknown skill names resolve to zero.
func (r *Record) SkillBonus(name string) int {
	skill, ok := lookupSkill(name)
	if !ok {
		return 0
	}
	if v, ok := r.raw[skillKey(skill.Name)]; ok && v != nil {
		if n, ok := asInt(v); ok {
			return n
		}
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(skill.Name) + `\s*([+-]\s*\d+)`)
	if m := re.FindStringSubmatch(r.text["skills"]); m != nil {
		if n, ok := signedInt(m[1]); ok {
			return n
		}
	}
	return r.Bonus(skill.Attribute)
}

func signedInt(value string) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimPrefix(value, "+"), " ", ""))
	return n, err == nil
}

// Property is one token property shown on the sheet.
type Property struct {
	Name  string
	Value string
}

// Properties returns the token property list in sheet order.
func (r *Record) Properties() []Property {
	return []Property{
		{"AC", strconv.Itoa(r.armorClass)},
		{"MaxHp", strconv.Itoa(r.hitPoints)},
		{"Hp", strconv.Itoa(r.hitPoints)},
		{"HitDice", r.hitDice.String()},
		{"Charisma", strconv.Itoa(r.scores[Charisma])},
		{"Strength", strconv.Itoa(r.scores[Strength])},
		{"Dexterity", strconv.Itoa(r.scores[Dexterity])},
		{"Intelligence", strconv.Itoa(r.scores[Intelligence])},
		{"Wisdom", strconv.Itoa(r.scores[Wisdom])},
		{"Constitution", strconv.Itoa(r.scores[Constitution])},
		{"Immunity", jsonWords(r.text["damage_immunities"])},
		{"Resistance", jsonWords(r.text["damage_resistances"])},
		{"CreatureType", r.kind + ", CR " + r.challenge},
		{"Alignment", r.alignment},
		{"Speed", r.text["speed"]},
	}
}

func jsonWords(text string) string {
	words := strings.Fields(text)
	if words == nil {
		words = []string{}
	}
	data, _ := json.Marshal(words)
	return string(data)
}

func (r *Record) String() string {
	return fmt.Sprintf("Record<name=%s,hp=%d(%s),ac=%d,CR%s>", r.name, r.hitPoints, r.RollMaxHP(), r.armorClass, r.challenge)
}
