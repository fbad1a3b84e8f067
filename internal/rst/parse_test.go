package rst

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokensmith/internal/creature"
	"tokensmith/internal/services"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestParseGoblin(t *testing.T) {
	src, err := Parse(readFixture(t, "goblin.rst"))
	require.NoError(t, err)

	assert.Equal(t, "Goblin", src["name"])
	assert.Equal(t, "Small", src["size"])
	assert.Equal(t, "humanoid", src["type"])
	assert.Equal(t, "goblinoid", src["subtype"])
	assert.Equal(t, "neutral evil", src["alignment"])
	assert.Equal(t, "15 (leather armor, shield)", src["armor_class"])
	assert.Equal(t, 7, src["hit_points"])
	assert.Equal(t, "2d6", src["hit_dice"])
	assert.Equal(t, "30 ft.", src["speed"])
	assert.Equal(t, "Stealth +6", src["skills"])
	assert.Equal(t, "1/4", src["challenge_rating"])
	assert.Equal(t, "", src["saves"])
	for key, want := range map[string]int{"strength": 8, "dexterity": 14, "constitution": 10, "intelligence": 10, "wisdom": 8, "charisma": 8} {
		assert.Equal(t, want, src[key], key)
	}

	specials := src["special_abilities"].([]any)
	require.Len(t, specials, 1)
	assert.Equal(t, "Nimble Escape", specials[0].(map[string]any)["name"])
	assert.Equal(t, "The goblin can take the Disengage or Hide action as a bonus action on each of its turns.",
		specials[0].(map[string]any)["desc"])

	actions := src["actions"].([]any)
	require.Len(t, actions, 2)
	scimitar := actions[0].(map[string]any)
	assert.Equal(t, "Scimitar", scimitar["name"])
	assert.Equal(t, "Melee Weapon Attack: +4 to hit, reach 5 ft., one target. Hit: 5 (1d6 + 2) slashing damage.", scimitar["desc"])
	assert.Empty(t, src["legendary_actions"])
}

func TestParsedSourceBuildsRecord(t *testing.T) {
	src, err := Parse(readFixture(t, "goblin.rst"))
	require.NoError(t, err)

	rec, err := creature.New(src)
	require.NoError(t, err)
	assert.Equal(t, 15, rec.ArmorClass())
	assert.Equal(t, "2d6+0", rec.RollMaxHP())
	assert.Equal(t, 6, rec.SkillBonus("Stealth"))

	scimitar := rec.Actions()[0]
	assert.Equal(t, 4, scimitar.AttackBonus)
	assert.Equal(t, "1d6", scimitar.DamageDice)
	assert.Equal(t, 2, scimitar.DamageBonus)
	assert.Equal(t, "slashing", scimitar.DamageType)
	assert.Equal(t, "piercing", rec.Actions()[1].DamageType)
}

func TestParseColonFieldsAndInnateMerge(t *testing.T) {
	src, err := Parse(readFixture(t, "deep_gnome.rst"))
	require.NoError(t, err)

	assert.Equal(t, "Deep Gnome (Svirfneblin)", src["name"])
	assert.Equal(t, "gnome", src["subtype"])
	assert.Equal(t, 16, src["hit_points"])
	assert.Equal(t, "3d6", src["hit_dice"])
	assert.Equal(t, "cold fire", src["damage_resistances"])
	assert.Equal(t, "1/2", src["challenge_rating"])
	assert.Equal(t, 9, src["charisma"])
	assert.Equal(t, 15, src["strength"])

	specials := src["special_abilities"].([]any)
	require.Len(t, specials, 2)
	assert.Equal(t, "Stone Camouflage", specials[0].(map[string]any)["name"])
	merged := specials[1].(map[string]any)
	assert.Equal(t, "Spellcasting", merged["name"])
	desc := merged["desc"].(string)
	assert.Contains(t, desc, "Innate Spellcasting. The gnome's innate spellcasting ability is Intelligence")
	assert.Contains(t, desc, "At will. nondetection (self only)")
	assert.Contains(t, desc, "1/day each. blindness/deafness, blur, disguise self")

	reactions := src["reactions"].([]any)
	require.Len(t, reactions, 1)
	assert.Equal(t, "Duck", reactions[0].(map[string]any)["name"])

	rec, err := creature.New(src)
	require.NoError(t, err)
	sc, err := rec.Spellcasting()
	require.NoError(t, err)
	assert.Equal(t, creature.Intelligence, sc.Attribute)
	assert.Equal(t, 11, sc.SaveDC)
}

func TestParseMandatoryFields(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		key  string
	}{
		{name: "no title", doc: "just some text\n", key: "title"},
		{name: "no stat block", doc: "Orc\n===\n\nAn orc.\n", key: "armor_class"},
		{name: "no armor class value", doc: "Orc\n===\n\n**Armor Class**\n\n**Hit Points** 15 (2d8 + 6)\n", key: "armor_class"},
		{name: "no hit points", doc: "Orc\n===\n\n**Armor Class** 13\n", key: "hit_points"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, services.ErrMissingField)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestParseAll(t *testing.T) {
	page := "Monsters\n========\n\nIntro text.\n\n" +
		"Orc\n===\n\n*Medium humanoid (orc), chaotic evil*\n\n**Armor Class** 13 (hide armor)\n\n**Hit Points** 15 (2d8 + 6)\n\n" +
		"Ghost\n=====\n\n**Armor Class** 11\n\n"
	entries := ParseAll(page)
	require.Len(t, entries, 2)

	assert.Equal(t, "Orc", entries[0].Name)
	require.NoError(t, entries[0].Err)
	assert.Equal(t, "orc", entries[0].Source["subtype"])

	assert.Equal(t, "Ghost", entries[1].Name)
	assert.ErrorIs(t, entries[1].Err, services.ErrMissingField)
}

func TestScanHeadings(t *testing.T) {
	lines := []string{"=====", "Title", "=====", "", "text", "", "Sub", "---", "", "----", ""}
	hs := scanHeadings(lines)
	require.Len(t, hs, 2)
	assert.Equal(t, heading{line: 0, title: "Title", char: '=', span: 3}, hs[0])
	assert.Equal(t, heading{line: 6, title: "Sub", char: '-', span: 2}, hs[1])
}
