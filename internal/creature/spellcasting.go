package creature

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tokensmith/internal/services"
)

// ErrMalformedSpellcasting marks a Spellcasting entry whose casting attribute
// cannot be determined.
var ErrMalformedSpellcasting = fmt.Errorf("%w: spellcasting attribute not found", services.ErrMalformedCapability)

// SpellcastingName is the special ability name that carries spellcasting data.
const SpellcastingName = "Spellcasting"

// Spellcasting is the derived casting block of a creature.
type Spellcasting struct {
	Attribute   Attribute
	SaveDC      int
	AttackBonus int
	// Slots holds the slot count for spell levels 1 through 9 at index 0..8.
	Slots       [9]int
	Description string
}

var (
	castingAttributes    = []Attribute{Intelligence, Charisma, Wisdom}
	saveDCPattern        = regexp.MustCompile(`(?i)save dc (\d+)`)
	spellAttackPattern   = regexp.MustCompile(`(?i)\+(\d+) to hit with spell`)
	slotOrdinals         = [9]string{"1st", "2nd", "3rd", "4th", "5th", "6th", "7th", "8th", "9th"}
	slotPatterns         = buildSlotPatterns()
	spellcastingEntryKey = strings.ToLower(SpellcastingName)
)

func buildSlotPatterns() [9]*regexp.Regexp {
	var out [9]*regexp.Regexp
	for i, ordinal := range slotOrdinals {
		out[i] = regexp.MustCompile(`(?i)` + ordinal + `[- ]level \((\d+) slots?`)
	}
	return out
}

// IsSpellcasting reports whether a names the spellcasting entry.
func IsSpellcasting(a Ability) bool {
	return strings.ToLower(strings.TrimSpace(a.Name)) == spellcastingEntryKey
}

// Spellcasting derives the casting block from the special ability named
// "Spellcasting". It returns (nil, nil) for creatures without one, and
// ErrMalformedSpellcasting when the entry names no casting attribute. The
// result is computed once per record.
func (r *Record) Spellcasting() (*Spellcasting, error) {
	r.spellOnce.Do(func() {
		r.spellcasting, r.spellErr = r.deriveSpellcasting()
	})
	return r.spellcasting, r.spellErr
}

func (r *Record) deriveSpellcasting() (*Spellcasting, error) {
	entry, ok := r.spellcastingEntry()
	if !ok {
		return nil, nil
	}
	desc := entry.Description
	lower := strings.ToLower(desc)

	attr, pos := Attribute(""), -1
	for _, candidate := range castingAttributes {
		if i := strings.Index(lower, string(candidate)); i >= 0 && (pos < 0 || i < pos) {
			attr, pos = candidate, i
		}
	}
	if attr == "" {
		return nil, services.Wrap(ErrMalformedSpellcasting, "creature", "spellcasting", r.name, nil)
	}

	sc := &Spellcasting{Attribute: attr, Description: desc}
	if m := saveDCPattern.FindStringSubmatch(desc); m != nil {
		sc.SaveDC, _ = strconv.Atoi(m[1])
	}
	if m := spellAttackPattern.FindStringSubmatch(desc); m != nil {
		sc.AttackBonus, _ = strconv.Atoi(m[1])
	} else {
		sc.AttackBonus = r.Bonus(attr)
	}
	for i, re := range slotPatterns {
		if m := re.FindStringSubmatch(desc); m != nil {
			sc.Slots[i], _ = strconv.Atoi(m[1])
		}
	}
	return sc, nil
}

func (r *Record) spellcastingEntry() (Ability, bool) {
	for _, special := range r.specials {
		if IsSpellcasting(special) {
			return special, true
		}
	}
	return Ability{}, false
}

// KnownSpells returns the catalog spells whose name appears, case-insensitively,
// anywhere in the spellcasting description. Substring matching can both miss
// and over-match; that is accepted. Creatures without a usable spellcasting
// block know no spells.
func (r *Record) KnownSpells(catalog []Spell) []Spell {
	sc, err := r.Spellcasting()
	if err != nil || sc == nil {
		return nil
	}
	desc := strings.ToLower(sc.Description)
	var known []Spell
	for _, spell := range catalog {
		name := strings.ToLower(strings.TrimSpace(spell.Name))
		if name != "" && strings.Contains(desc, name) {
			known = append(known, spell)
		}
	}
	return known
}
