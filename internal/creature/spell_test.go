package creature

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokensmith/internal/services"
	"tokensmith/internal/testsupport"
)

func TestLoadSpellCatalog(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "spells.json")
	testsupport.WriteJSON(t, plain, testsupport.SpellCatalog())
	spells, err := LoadSpellCatalog(plain)
	require.NoError(t, err)
	require.Len(t, spells, 5)

	misty := spells[2]
	assert.Equal(t, "Misty Step", misty.Name)
	assert.Equal(t, 2, misty.Level)
	assert.Equal(t, "Evocation", misty.School)
	assert.Equal(t, []string{"V", "S"}, misty.Components)
	assert.Equal(t, []string{"Wizard"}, misty.Classes)
	assert.True(t, misty.IsBonusAction())
	assert.True(t, spells[1].IsReaction())
	assert.True(t, spells[3].Concentration)

	wrapped := filepath.Join(dir, "wrapped.json")
	testsupport.WriteJSON(t, wrapped, map[string]any{"count": 5, "results": testsupport.SpellCatalog()})
	spells, err = LoadSpellCatalog(wrapped)
	require.NoError(t, err)
	assert.Len(t, spells, 5)
}

func TestNewSpellLocalDatabaseShape(t *testing.T) {
	spell, err := NewSpell(map[string]any{
		"name":          "Bless",
		"level":         "1",
		"school":        "Enchantment",
		"desc":          "You bless up to three creatures.",
		"casting_time":  "1 action",
		"concentration": "yes",
		"ritual":        "no",
		"components":    "V, S, M",
		"classes":       "Cleric, Paladin",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, spell.Level)
	assert.True(t, spell.Concentration)
	assert.False(t, spell.Ritual)
	assert.Equal(t, []string{"V", "S", "M"}, spell.Components)
	assert.Equal(t, []string{"Cleric", "Paladin"}, spell.Classes)

	cantrip, err := NewSpell(map[string]any{
		"name": "Light", "level": "cantrip", "school": "Evocation", "desc": "Light.",
		"casting_time": "1 action", "concentration": false, "ritual": false,
		"components": "V, M", "classes": "Wizard",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, cantrip.Level)
}

func TestNewSpellRequiresCatalogKeys(t *testing.T) {
	raw := testsupport.SpellCatalog()[0].(map[string]any)
	delete(raw, "classes")
	_, err := NewSpell(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrMissingField)
	assert.Contains(t, err.Error(), "classes")
}
