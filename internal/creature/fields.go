package creature

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"tokensmith/internal/services"
)

// fieldRule states how an absent source field resolves.
type fieldRule struct {
	required bool
	fallback any
}

// fieldRules is the complete table of known fields. A key missing from the
// source resolves to its fallback; a required key, or a key not listed here,
// fails with ErrMissingField.
var fieldRules = map[string]fieldRule{
	"name":             {required: true},
	"size":             {required: true},
	"type":             {required: true},
	"alignment":        {required: true},
	"armor_class":      {required: true},
	"hit_points":       {required: true},
	"hit_dice":         {required: true},
	"strength":         {required: true},
	"dexterity":        {required: true},
	"constitution":     {required: true},
	"intelligence":     {required: true},
	"wisdom":           {required: true},
	"charisma":         {required: true},
	"challenge_rating": {required: true},

	"subtype":                {fallback: ""},
	"speed":                  {fallback: ""},
	"senses":                 {fallback: ""},
	"languages":              {fallback: ""},
	"skills":                 {fallback: ""},
	"saves":                  {fallback: ""},
	"damage_vulnerabilities": {fallback: ""},
	"damage_resistances":     {fallback: ""},
	"damage_immunities":      {fallback: ""},
	"condition_immunities":   {fallback: ""},

	"actions":           {fallback: []any(nil)},
	"reactions":         {fallback: []any(nil)},
	"special_abilities": {fallback: []any(nil)},
	"legendary_actions": {fallback: []any(nil)},
	"lair_actions":      {fallback: []any(nil)},
	"regional_effects":  {fallback: []any(nil)},
}

// textFields are the optional free-text fields decoded eagerly into a Record.
var textFields = []string{
	"subtype", "speed", "senses", "languages", "skills", "saves",
	"damage_vulnerabilities", "damage_resistances", "damage_immunities", "condition_immunities",
}

func missingField(key string) error {
	return services.Wrap(services.ErrMissingField, "creature", "lookup", fmt.Sprintf("field %q", key), nil)
}

func invalidField(key string, value any) error {
	return services.Wrap(services.ErrInvalidField, "creature", "decode", fmt.Sprintf("field %q has unusable value %v", key, value), nil)
}

// lookupIn resolves key in src through fieldRules.
func lookupIn(src map[string]any, key string) (any, error) {
	if v, ok := src[key]; ok && v != nil {
		return v, nil
	}
	rule, ok := fieldRules[key]
	if !ok || rule.required {
		return nil, missingField(key)
	}
	return rule.fallback, nil
}

var leadingIntPattern = regexp.MustCompile(`^\s*([+-]?\d+)`)

// asInt decodes JSON numbers, numeric strings ("15 (natural armor)") and the
// list-of-objects armor class shape used by newer API payloads.
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(n), true
	case string:
		m := leadingIntPattern.FindStringSubmatch(v)
		if m == nil {
			return 0, false
		}
		n, err := strconv.Atoi(strings.TrimPrefix(m[1], "+"))
		return n, err == nil
	case []any:
		if len(v) == 0 {
			return 0, false
		}
		return asInt(v[0])
	case map[string]any:
		if inner, ok := v["value"]; ok {
			return asInt(inner)
		}
	}
	return 0, false
}

// asText flattens strings, numbers, string lists and keyed maps (speed) into
// display text.
func asText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if text := asText(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if name, ok := v["name"]; ok {
			return asText(name)
		}
		return keyedText(v)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// keyedText renders {"walk": "30 ft.", "fly": "60 ft."} as "30 ft., fly 60 ft.".
func keyedText(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != "walk" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(m))
	if walk, ok := m["walk"]; ok {
		parts = append(parts, asText(walk))
	}
	for _, k := range keys {
		parts = append(parts, k+" "+asText(m[k]))
	}
	return strings.Join(parts, ", ")
}

// asDescription joins list-shaped descriptions with newlines.
func asDescription(value any) string {
	if list, ok := value.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, asText(item))
		}
		return strings.Join(parts, "\n")
	}
	return asText(value)
}

func asBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "true", "y":
			return true, true
		case "no", "false", "n", "":
			return false, true
		}
	}
	return false, false
}

// asChallenge formats a challenge rating, keeping fractional ratings as fractions.
func asChallenge(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		text := strings.TrimSpace(v)
		if i := strings.IndexAny(text, " ("); i > 0 {
			text = text[:i]
		}
		return text, text != ""
	case float64:
		return formatChallenge(v), true
	case int:
		return strconv.Itoa(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return "", false
		}
		return formatChallenge(f), true
	}
	return "", false
}

func formatChallenge(v float64) string {
	switch v {
	case 0.125:
		return "1/8"
	case 0.25:
		return "1/4"
	case 0.5:
		return "1/2"
	}
	if v == math.Trunc(v) {
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
