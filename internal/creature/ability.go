package creature

import (
	"regexp"
	"strconv"
	"strings"
)

// Ability is one action, reaction, special ability, legendary action, lair
// action or regional effect. Numeric fields the source leaves out are inferred
// from Description; anything still unknown keeps its zero value.
type Ability struct {
	Name        string
	Description string
	AttackBonus int
	DamageDice  string
	DamageBonus int
	// DamageType is lowercase ("bludgeoning"); empty when unknown.
	DamageType string
	// Reach is in feet; zero when the ability is not a reach attack.
	Reach int
}

// HasDamage reports whether the ability resolved a damage dice expression.
func (a Ability) HasDamage() bool {
	return a.DamageDice != ""
}

var (
	toHitPattern  = regexp.MustCompile(`(?i)\+\s*(\d+)\s+to hit`)
	damagePattern = regexp.MustCompile(`(?i)\((\d+d\d+)(?:\s*([+-])\s*(\d+))?\)\s*([a-z]+)\s+damage`)
	reachPattern  = regexp.MustCompile(`(?i)reach\s+(\d+)\s*ft`)
	dicePattern   = regexp.MustCompile(`^\s*(\d+d\d+)\s*(?:([+-])\s*(\d+))?\s*$`)
)

// damageKeywords is the last-resort damage type scan, in priority order.
var damageKeywords = []struct{ needle, kind string }{
	{"slashing", "slashing"},
	{"bludgeon", "bludgeoning"},
	{"pierc", "piercing"},
}

// NewAbility decodes one ability mapping. Explicit fields win; each missing
// field is inferred independently from the description.
func NewAbility(raw map[string]any) Ability {
	a := Ability{
		Name:        asText(raw["name"]),
		Description: asDescription(raw["desc"]),
	}

	attackSet := false
	if v, ok := raw["attack_bonus"]; ok && v != nil {
		a.AttackBonus, attackSet = asInt(v)
	}

	bonusSet := false
	if v, ok := raw["damage_bonus"]; ok && v != nil {
		a.DamageBonus, bonusSet = asInt(v)
	}

	if v, ok := raw["damage_dice"]; ok && v != nil {
		if dice, bonus, ok := splitDice(asText(v)); ok {
			a.DamageDice = dice
			if !bonusSet && bonus != 0 {
				a.DamageBonus, bonusSet = bonus, true
			}
		}
	}

	if v, ok := raw["damage_type"]; ok && v != nil {
		a.DamageType = strings.ToLower(asText(v))
	}

	// Newer payloads carry damage as a list of {damage_dice, damage_type}.
	if list, ok := raw["damage"].([]any); ok && len(list) > 0 {
		if first, ok := list[0].(map[string]any); ok {
			if a.DamageDice == "" {
				if dice, bonus, ok := splitDice(asText(first["damage_dice"])); ok {
					a.DamageDice = dice
					if !bonusSet {
						a.DamageBonus, bonusSet = bonus, true
					}
				}
			}
			if a.DamageType == "" {
				a.DamageType = strings.ToLower(asText(first["damage_type"]))
			}
		}
	}

	if v, ok := raw["reach"]; ok && v != nil {
		a.Reach, _ = asInt(v)
	}

	a.infer(attackSet, bonusSet)
	return a
}

func (a *Ability) infer(attackSet, bonusSet bool) {
	desc := a.Description
	if desc == "" {
		return
	}
	if !attackSet {
		if m := toHitPattern.FindStringSubmatch(desc); m != nil {
			a.AttackBonus, _ = strconv.Atoi(m[1])
		}
	}
	if m := damagePattern.FindStringSubmatch(desc); m != nil {
		if a.DamageDice == "" {
			a.DamageDice = m[1]
			if !bonusSet && m[3] != "" {
				n, _ := strconv.Atoi(m[3])
				if m[2] == "-" {
					n = -n
				}
				a.DamageBonus = n
			}
		}
		if a.DamageType == "" {
			a.DamageType = strings.ToLower(m[4])
		}
	}
	if a.DamageType == "" {
		lower := strings.ToLower(desc)
		for _, kw := range damageKeywords {
			if strings.Contains(lower, kw.needle) {
				a.DamageType = kw.kind
				break
			}
		}
	}
	if a.Reach == 0 {
		if m := reachPattern.FindStringSubmatch(desc); m != nil {
			a.Reach, _ = strconv.Atoi(m[1])
		}
	}
}

// splitDice separates "2d6+5" into ("2d6", 5).
func splitDice(value string) (string, int, bool) {
	m := dicePattern.FindStringSubmatch(value)
	if m == nil {
		return "", 0, false
	}
	bonus := 0
	if m[3] != "" {
		bonus, _ = strconv.Atoi(m[3])
		if m[2] == "-" {
			bonus = -bonus
		}
	}
	return m[1], bonus, true
}

func decodeAbilities(key string, value any) ([]Ability, error) {
	if value == nil {
		return nil, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, invalidField(key, value)
	}
	out := make([]Ability, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, invalidField(key, item)
		}
		out = append(out, NewAbility(entry))
	}
	return out, nil
}
