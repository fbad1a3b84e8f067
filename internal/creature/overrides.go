package creature

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Overrides patches source fields for named creatures, keyed by lowercase name.
type Overrides map[string]map[string]any

// builtinOverrides corrects known upstream data errors.
var builtinOverrides = Overrides{
	"vampire": {"charisma": 18},
}

// BuiltinOverrides returns a copy of the hard-coded corrections.
func BuiltinOverrides() Overrides {
	out := make(Overrides, len(builtinOverrides))
	for name, patch := range builtinOverrides {
		out[name] = maps.Clone(patch)
	}
	return out
}

// LoadOverrides reads a YAML document mapping creature names to field patches
// and layers it over the built-in corrections. An empty path yields only the
// built-ins.
//
//	Vampire:
//	  charisma: 18
//	Goblin Boss:
//	  armor_class: 17
func LoadOverrides(path string) (Overrides, error) {
	out := BuiltinOverrides()
	if strings.TrimSpace(path) == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	var doc map[string]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	for name, patch := range doc {
		key := normalizeName(name)
		if key == "" {
			continue
		}
		merged := out[key]
		if merged == nil {
			merged = make(map[string]any, len(patch))
		}
		for field, value := range patch {
			merged[field] = normalizeYAML(value)
		}
		out[key] = merged
	}
	return out, nil
}

func (o Overrides) lookup(name string) (map[string]any, bool) {
	patch, ok := o[normalizeName(name)]
	return patch, ok && len(patch) > 0
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// normalizeYAML maps yaml.v3 scalars onto the shapes JSON decoding produces
// so the same field decoders serve both.
func normalizeYAML(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeYAML(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalizeYAML(item)
		}
		return out
	}
	return value
}
