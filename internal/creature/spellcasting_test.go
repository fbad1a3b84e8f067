package creature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokensmith/internal/services"
	"tokensmith/internal/testsupport"
)

const mageCasting = "The mage is a 9th-level spellcaster. Its spellcasting ability is Intelligence " +
	"(spell save DC 14, +6 to hit with spell attacks). The mage has the following wizard spells prepared:\n" +
	"Cantrips (at will): fire bolt, light\n" +
	"1st level (4 slots): detect magic, shield\n" +
	"2nd level (3 slots): misty step, suggestion\n" +
	"3rd level (3 slots): counterspell, fireball, fly\n" +
	"5th level (1 slot): cone of cold"

func TestSpellcastingDerivation(t *testing.T) {
	rec := mustNew(t, testsupport.SpellcasterSource(mageCasting))

	sc, err := rec.Spellcasting()
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, Intelligence, sc.Attribute)
	assert.Equal(t, 14, sc.SaveDC)
	assert.Equal(t, 6, sc.AttackBonus)
	assert.Equal(t, [9]int{4, 3, 3, 0, 1, 0, 0, 0, 0}, sc.Slots)
}

func TestSpellcastingAttackFallsBackToAttributeBonus(t *testing.T) {
	src := testsupport.SpellcasterSource("The shaman's spellcasting ability is Wisdom (spell save DC 11). It knows fire bolt.")
	src["wisdom"] = float64(16)
	rec := mustNew(t, src)

	sc, err := rec.Spellcasting()
	require.NoError(t, err)
	assert.Equal(t, Wisdom, sc.Attribute)
	assert.Equal(t, 11, sc.SaveDC)
	assert.Equal(t, 3, sc.AttackBonus)
	assert.Equal(t, [9]int{}, sc.Slots)
}

func TestSpellcastingPicksEarliestAttribute(t *testing.T) {
	rec := mustNew(t, testsupport.SpellcasterSource("Its spellcasting ability is Charisma. It ignores wisdom and intelligence checks."))
	sc, err := rec.Spellcasting()
	require.NoError(t, err)
	assert.Equal(t, Charisma, sc.Attribute)
}

func TestSpellcastingMalformed(t *testing.T) {
	rec := mustNew(t, testsupport.SpellcasterSource("The goblin knows a few tricks."))

	sc, err := rec.Spellcasting()
	assert.Nil(t, sc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedSpellcasting)
	assert.ErrorIs(t, err, services.ErrMalformedCapability)
	assert.Equal(t, "malformed_capability", services.Classify(err))
	assert.Nil(t, rec.KnownSpells(catalog(t)))
}

func TestSpellcastingAbsent(t *testing.T) {
	rec := mustNew(t, testsupport.GoblinSource())
	sc, err := rec.Spellcasting()
	assert.NoError(t, err)
	assert.Nil(t, sc)
	assert.Empty(t, rec.KnownSpells(catalog(t)))
}

func TestSpellcastingIsMemoized(t *testing.T) {
	rec := mustNew(t, testsupport.SpellcasterSource(mageCasting))
	first, err := rec.Spellcasting()
	require.NoError(t, err)
	second, err := rec.Spellcasting()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestKnownSpellsUsesSubstringMatch(t *testing.T) {
	rec := mustNew(t, testsupport.SpellcasterSource(mageCasting))

	known := rec.KnownSpells(catalog(t))
	names := make([]string, 0, len(known))
	for _, s := range known {
		names = append(names, s.Name)
	}
	// "Fire Bolt" and "Fireball" both match; "Hold Person" does not appear.
	assert.Equal(t, []string{"Fire Bolt", "Shield", "Misty Step", "Fireball"}, names)
}

func catalog(t *testing.T) []Spell {
	t.Helper()
	var spells []Spell
	for _, item := range testsupport.SpellCatalog() {
		spell, err := NewSpell(item.(map[string]any))
		require.NoError(t, err)
		spells = append(spells, spell)
	}
	return spells
}
