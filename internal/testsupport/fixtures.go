package testsupport

// GoblinSource returns a fresh minimal creature mapping named "Test Goblin"
// with every required field and one action carrying explicit damage fields.
// Numbers are float64, as encoding/json produces them.
func GoblinSource() map[string]any {
	return map[string]any{
		"name":             "Test Goblin",
		"size":             "Small",
		"type":             "humanoid",
		"subtype":          "goblinoid",
		"alignment":        "neutral evil",
		"armor_class":      float64(15),
		"hit_points":       float64(7),
		"hit_dice":         "2d6",
		"speed":            "30 ft.",
		"strength":         float64(8),
		"dexterity":        float64(14),
		"constitution":     float64(10),
		"intelligence":     float64(10),
		"wisdom":           float64(8),
		"charisma":         float64(8),
		"skills":           "Stealth +6",
		"senses":           "darkvision 60 ft., passive Perception 9",
		"languages":        "Common, Goblin",
		"challenge_rating": float64(0.25),
		"actions": []any{
			map[string]any{
				"name":         "Scimitar",
				"desc":         "Melee Weapon Attack: +4 to hit, reach 5 ft., one target. Hit: 5 (1d6 + 2) slashing damage.",
				"attack_bonus": float64(4),
				"damage_dice":  "1d6",
				"damage_bonus": float64(2),
			},
		},
	}
}

// SpellcasterSource returns GoblinSource with a Spellcasting special ability
// whose description is desc.
func SpellcasterSource(desc string) map[string]any {
	src := GoblinSource()
	src["name"] = "Test Goblin Shaman"
	src["special_abilities"] = []any{
		map[string]any{"name": "Spellcasting", "desc": desc},
		map[string]any{"name": "Nimble Escape", "desc": "The goblin can take the Disengage or Hide action as a bonus action."},
	}
	return src
}

// SpellCatalog returns a small catalog in the shape of the rules API.
func SpellCatalog() []any {
	return []any{
		spell("Fire Bolt", 0, "1 action", false),
		spell("Shield", 1, "1 reaction", false),
		spell("Misty Step", 2, "1 bonus action", false),
		spell("Hold Person", 2, "1 action", true),
		spell("Fireball", 3, "1 action", false),
	}
}

func spell(name string, level int, castingTime string, concentration bool) map[string]any {
	return map[string]any{
		"name":          name,
		"level":         float64(level),
		"school":        map[string]any{"name": "Evocation"},
		"desc":          []any{name + " description."},
		"casting_time":  castingTime,
		"concentration": concentration,
		"ritual":        false,
		"components":    []any{"V", "S"},
		"classes":       []any{map[string]any{"name": "Wizard"}},
		"range":         "60 feet",
		"duration":      "Instantaneous",
	}
}
