package rst

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tokensmith/internal/services"
)

var (
	typePattern   = regexp.MustCompile(`^\*?(Tiny|Small|Medium|Large|Huge|Gargantuan)\s+([^,(*]+?)\s*(?:\(([^)]*)\))?\s*,\s*([^*]+?)\*?$`)
	scorePattern  = regexp.MustCompile(`(\d+)\s*\(\s*[+\-−–]?\s*\d+\s*\)`)
	boldPattern   = regexp.MustCompile(`^\*\*(.+?)\*\*\s*(.*)$`)
	diceInParens  = regexp.MustCompile(`\(\s*(\d+d\d+)`)
	innatePattern = regexp.MustCompile(`(?i)innate|at will|\d+\s*/\s*day`)
)

// statFields maps stat block labels to source keys.
var statFields = map[string]string{
	"armor class":            "armor_class",
	"hit points":             "hit_points",
	"speed":                  "speed",
	"skills":                 "skills",
	"saving throws":          "saves",
	"damage vulnerabilities": "damage_vulnerabilities",
	"damage resistances":     "damage_resistances",
	"damage immunities":      "damage_immunities",
	"condition immunities":   "condition_immunities",
	"senses":                 "senses",
	"languages":              "languages",
	"challenge":              "challenge_rating",
}

var optionalText = []string{
	"subtype", "speed", "skills", "saves", "damage_vulnerabilities", "damage_resistances",
	"damage_immunities", "condition_immunities", "senses", "languages",
}

// abilitySections maps section titles to source keys.
var abilitySections = []struct {
	title string
	key   string
}{
	{"Actions", "actions"},
	{"Reactions", "reactions"},
	{"Legendary Actions", "legendary_actions"},
	{"Lair Actions", "lair_actions"},
	{"Regional Effects", "regional_effects"},
}

var scoreKeys = []string{"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma"}

var markup = strings.NewReplacer("**", "", "*", "", "−", "-", "–", "-", "\\", "")

// Entry is one creature parsed from a page.
type Entry struct {
	Name   string
	Source map[string]any
	Err    error
}

// Parse extracts the first creature of doc.
func Parse(doc string) (map[string]any, error) {
	docs := split(doc)
	if len(docs) == 0 {
		return nil, services.Wrap(services.ErrMissingField, "rst", "parse", "document has no title", nil)
	}
	return parseCreature(docs[0])
}

// ParseAll extracts every creature of a page holding several. Titled
// documents without a stat block are skipped. Each entry carries its own
// error so one bad stat block does not hide the others.
func ParseAll(doc string) []Entry {
	var out []Entry
	for _, d := range split(doc) {
		if _, ok := statBlock(d); !ok {
			continue
		}
		src, err := parseCreature(d)
		out = append(out, Entry{Name: d.title, Source: src, Err: err})
	}
	return out
}

func statBlock(d document) (section, bool) {
	for _, s := range d.sections {
		if strings.Contains(s.text(), "Armor Class") {
			return s, true
		}
	}
	return section{}, false
}

func parseCreature(d document) (map[string]any, error) {
	block, ok := statBlock(d)
	if !ok {
		return nil, missing(d.title, "armor_class")
	}

	src := map[string]any{"name": d.title}
	for _, key := range optionalText {
		src[key] = ""
	}

	var specials []any
	for _, para := range paragraphs(block.lines) {
		if m := typePattern.FindStringSubmatch(para); m != nil && src["size"] == nil {
			src["size"] = m[1]
			src["type"] = strings.TrimSpace(m[2])
			src["subtype"] = strings.TrimSpace(m[3])
			src["alignment"] = strings.TrimSpace(m[4])
			continue
		}
		name, desc, ok := boldPair(para)
		if !ok {
			continue
		}
		if key, known := statFields[strings.ToLower(name)]; known {
			src[key] = desc
			continue
		}
		specials = append(specials, map[string]any{"name": name, "desc": desc})
	}

	if v, _ := src["armor_class"].(string); v == "" {
		return nil, missing(d.title, "armor_class")
	}
	hp, _ := src["hit_points"].(string)
	if hp == "" {
		return nil, missing(d.title, "hit_points")
	}
	if m := diceInParens.FindStringSubmatch(hp); m != nil {
		src["hit_dice"] = m[1]
	}
	if n, err := strconv.Atoi(strings.Fields(hp)[0]); err == nil {
		src["hit_points"] = n
	}
	if cr, ok := src["challenge_rating"].(string); ok {
		if fields := strings.Fields(cr); len(fields) > 0 {
			src["challenge_rating"] = fields[0]
		}
	}

	scores := scorePattern.FindAllStringSubmatch(markup.Replace(block.text()), -1)
	for i, key := range scoreKeys {
		if i >= len(scores) {
			break
		}
		n, _ := strconv.Atoi(scores[i][1])
		src[key] = n
	}

	src["special_abilities"] = mergeInnate(specials)
	for _, as := range abilitySections {
		s, ok := d.find(as.title)
		if !ok {
			src[as.key] = []any{}
			continue
		}
		src[as.key] = entries(s)
	}
	return src, nil
}

// boldPair reads "**Name.** description" and "**Field:** value" paragraphs.
func boldPair(para string) (string, string, bool) {
	m := boldPattern.FindStringSubmatch(para)
	if m == nil {
		return "", "", false
	}
	name := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[1]), ".:"))
	desc := strings.TrimSpace(strings.TrimLeft(m[2], ":."))
	if name == "" {
		return "", "", false
	}
	return markup.Replace(name), strings.TrimSpace(markup.Replace(desc)), true
}

func entries(s section) []any {
	out := []any{}
	for _, para := range paragraphs(s.lines) {
		name, desc, ok := boldPair(para)
		if !ok {
			continue
		}
		out = append(out, map[string]any{"name": name, "desc": desc})
	}
	return out
}

// mergeInnate folds innate, at-will and per-day specials into a single
// "Spellcasting" entry so spellcasting derivation sees one description.
// An existing Spellcasting entry absorbs them.
func mergeInnate(specials []any) []any {
	var kept []any
	var parts []string
	target := -1
	for _, item := range specials {
		entry := item.(map[string]any)
		name := entry["name"].(string)
		desc := entry["desc"].(string)
		switch {
		case strings.EqualFold(name, "spellcasting"):
			target = len(kept)
			parts = append([]string{desc}, parts...)
			kept = append(kept, entry)
		case innatePattern.MatchString(name):
			parts = append(parts, name+". "+desc)
		default:
			kept = append(kept, entry)
		}
	}
	if len(parts) == 0 {
		return append([]any{}, kept...)
	}
	merged := map[string]any{"name": "Spellcasting", "desc": strings.Join(parts, "\n")}
	if target >= 0 {
		kept[target] = merged
		return kept
	}
	return append(kept, merged)
}

func missing(name, key string) error {
	return services.Wrap(services.ErrMissingField, "rst", "parse", fmt.Sprintf("%s: field %q", name, key), nil)
}
