package creature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAbilityInfersFromCanonicalPhrase(t *testing.T) {
	a := NewAbility(map[string]any{
		"name": "Slam",
		"desc": "+9 to hit, reach 10 ft., one target. Hit: 12 (2d6 + 5) bludgeoning damage.",
	})
	assert.Equal(t, "2d6", a.DamageDice)
	assert.Equal(t, 5, a.DamageBonus)
	assert.Equal(t, "bludgeoning", a.DamageType)
	assert.Equal(t, 9, a.AttackBonus)
	assert.Equal(t, 10, a.Reach)
	assert.True(t, a.HasDamage())
}

func TestNewAbilityExplicitFieldsWin(t *testing.T) {
	a := NewAbility(map[string]any{
		"name":         "Bite",
		"desc":         "+9 to hit, reach 10 ft., one target. Hit: 12 (2d6 + 5) bludgeoning damage.",
		"attack_bonus": float64(3),
		"damage_dice":  "1d4",
		"damage_bonus": float64(1),
		"damage_type":  "Piercing",
	})
	assert.Equal(t, 3, a.AttackBonus)
	assert.Equal(t, "1d4", a.DamageDice)
	assert.Equal(t, 1, a.DamageBonus)
	assert.Equal(t, "piercing", a.DamageType)
}

func TestNewAbilityInferenceMissResolvesToZero(t *testing.T) {
	a := NewAbility(map[string]any{
		"name": "Nimble Escape",
		"desc": "The goblin can take the Disengage or Hide action as a bonus action.",
	})
	assert.Equal(t, Ability{Name: "Nimble Escape", Description: a.Description}, a)
	assert.False(t, a.HasDamage())
}

func TestNewAbilityShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Ability
	}{
		{
			name: "combined dice string",
			raw:  map[string]any{"name": "Club", "desc": "", "damage_dice": "1d4+2"},
			want: Ability{Name: "Club", DamageDice: "1d4", DamageBonus: 2},
		},
		{
			name: "damage list",
			raw: map[string]any{
				"name":   "Claw",
				"desc":   []any{"Melee Weapon Attack: +5 to hit."},
				"damage": []any{map[string]any{"damage_dice": "2d4-1", "damage_type": map[string]any{"name": "Slashing"}}},
			},
			want: Ability{Name: "Claw", Description: "Melee Weapon Attack: +5 to hit.", AttackBonus: 5, DamageDice: "2d4", DamageBonus: -1, DamageType: "slashing"},
		},
		{
			name: "negative inferred bonus",
			raw:  map[string]any{"name": "Poke", "desc": "Hit: 1 (1d4 - 1) piercing damage."},
			want: Ability{Name: "Poke", Description: "Hit: 1 (1d4 - 1) piercing damage.", DamageDice: "1d4", DamageBonus: -1, DamageType: "piercing"},
		},
		{
			name: "keyword damage type fallback",
			raw:  map[string]any{"name": "Crush", "desc": "The target takes bludgeoning damage equal to its level."},
			want: Ability{Name: "Crush", Description: "The target takes bludgeoning damage equal to its level.", DamageType: "bludgeoning"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewAbility(tt.raw))
		})
	}
}
