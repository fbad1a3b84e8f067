package creature

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"tokensmith/internal/services"
)

// Spell is one entry of the global spell catalog.
type Spell struct {
	Name          string
	Level         int
	School        string
	Description   string
	CastingTime   string
	Concentration bool
	Ritual        bool
	Components    []string
	Classes       []string
	Range         string
	Duration      string
}

var spellRequired = []string{"name", "level", "school", "desc", "casting_time", "concentration", "ritual", "components", "classes"}

// NewSpell decodes one catalog mapping. Every key in the required set must be present.
func NewSpell(raw map[string]any) (Spell, error) {
	for _, key := range spellRequired {
		if v, ok := raw[key]; !ok || v == nil {
			return Spell{}, services.Wrap(services.ErrMissingField, "spells", "decode", fmt.Sprintf("spell %v: field %q", raw["name"], key), nil)
		}
	}
	s := Spell{
		Name:        asText(raw["name"]),
		School:      asText(raw["school"]),
		Description: asDescription(raw["desc"]),
		CastingTime: asText(raw["casting_time"]),
		Components:  asList(raw["components"]),
		Classes:     asList(raw["classes"]),
		Range:       asText(raw["range"]),
		Duration:    asText(raw["duration"]),
	}
	level, ok := asInt(raw["level"])
	if !ok {
		if strings.EqualFold(asText(raw["level"]), "cantrip") {
			level, ok = 0, true
		}
	}
	if !ok || level < 0 || level > 9 {
		return Spell{}, invalidField("level", raw["level"])
	}
	s.Level = level
	if s.Concentration, ok = asBool(raw["concentration"]); !ok {
		return Spell{}, invalidField("concentration", raw["concentration"])
	}
	if s.Ritual, ok = asBool(raw["ritual"]); !ok {
		return Spell{}, invalidField("ritual", raw["ritual"])
	}
	return s, nil
}

// asList accepts a JSON list or a comma separated string.
func asList(value any) []string {
	var out []string
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if text := asText(item); text != "" {
				out = append(out, text)
			}
		}
	default:
		for _, part := range strings.Split(asText(v), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// IsBonusAction reports whether the spell is cast as a bonus action.
func (s Spell) IsBonusAction() bool {
	return strings.Contains(strings.ToLower(s.CastingTime), "bonus action")
}

// IsReaction reports whether the spell is cast as a reaction.
func (s Spell) IsReaction() bool {
	return strings.Contains(strings.ToLower(s.CastingTime), "reaction")
}

// LoadSpellCatalog reads a JSON spell list. Both a bare list and an API
// style {"results": [...]} wrapper are accepted.
func LoadSpellCatalog(path string) ([]Spell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spell catalog: %w", err)
	}
	items, err := DecodeList(data)
	if err != nil {
		return nil, fmt.Errorf("parse spell catalog: %w", err)
	}
	spells := make([]Spell, 0, len(items))
	for _, item := range items {
		spell, err := NewSpell(item)
		if err != nil {
			return nil, err
		}
		spells = append(spells, spell)
	}
	return spells, nil
}

// DecodeList decodes a JSON list of objects, unwrapping {"results": [...]}.
func DecodeList(data []byte) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var wrapper struct {
			Results []map[string]any `json:"results"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, err
		}
		return wrapper.Results, nil
	}
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}
