package macro

import "tokensmith/internal/render"

// Kind tags a Variant with its macro category.
type Kind int

const (
	KindAttack Kind = iota
	KindLegendary
	KindLair
	KindRegional
	KindSpecial
	KindSpellcasting
	KindSpell
	KindSheet
	KindInit
	KindSave
	KindCheck
	KindHealth
	KindDebug
)

var kindNames = map[Kind]string{
	KindAttack:       "attack",
	KindLegendary:    "legendary",
	KindLair:         "lair",
	KindRegional:     "regional",
	KindSpecial:      "special",
	KindSpellcasting: "spellcasting",
	KindSpell:        "spell",
	KindSheet:        "sheet",
	KindInit:         "init",
	KindSave:         "save",
	KindCheck:        "check",
	KindHealth:       "health",
	KindDebug:        "debug",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Utility reports whether the kind is one of the fixed, ability-independent macros.
func (k Kind) Utility() bool {
	return k >= KindSheet
}

// presentation holds the defaults of one kind. Empty color fields defer to the
// group color map.
type presentation struct {
	group     string
	color     string
	fontColor string
	template  string
}

var presentations = map[Kind]presentation{
	KindAttack:       {group: "Action", template: render.Attack},
	KindLegendary:    {group: "Legendary", color: "maroon", template: render.Attack},
	KindLair:         {group: "Lair (on init 20)", color: "darkgreen", template: render.Attack},
	KindRegional:     {group: "Regional", color: "teal", template: render.Attack},
	KindSpecial:      {group: "Special", template: render.Description},
	KindSpellcasting: {group: "Spellcasting", template: render.Description},
	KindSpell:        {template: render.SpellMacro},
	KindSheet:        {group: "Utility", template: render.Sheet},
	KindInit:         {group: "Utility", color: "orange", fontColor: "black", template: render.Initiative},
	KindSave:         {group: "Utility", template: render.Save},
	KindCheck:        {group: "Utility", template: render.Check},
	KindHealth:       {group: "Health", template: render.Health},
	KindDebug:        {group: "Debug", template: render.Debug},
}

const (
	defaultColor     = "gray"
	defaultFontColor = "white"
)

var groupColors = map[string]string{
	"Action":   "black",
	"Reaction": "navy",
	"Special":  "blue",
	"Cantrips": "purple",
	"Utility":  "yellow",
	"Health":   "green",
	"Debug":    "gray",
}

// groupColor returns the color keyed by group. Spell level groups and
// spellcasting headers share the spell color.
func groupColor(group string) string {
	if c, ok := groupColors[group]; ok {
		return c
	}
	if isSpellGroup(group) {
		return "purple"
	}
	return defaultColor
}

// groupFontColor picks a readable font color for light backgrounds.
func groupFontColor(color string) string {
	switch color {
	case "yellow", "white", "orange":
		return "black"
	}
	return defaultFontColor
}
