package creature

import (
	"math"
	"strings"
)

// Attribute names one of the six canonical ability scores.
type Attribute string

const (
	Strength     Attribute = "strength"
	Dexterity    Attribute = "dexterity"
	Constitution Attribute = "constitution"
	Intelligence Attribute = "intelligence"
	Wisdom       Attribute = "wisdom"
	Charisma     Attribute = "charisma"
)

// Attributes lists the six scores in sheet order.
var Attributes = []Attribute{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}

// Short returns the three-letter abbreviation used in stat blocks ("Wis").
func (a Attribute) Short() string {
	s := string(a)
	if len(s) < 3 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:3]
}

// Title returns the capitalized attribute name ("Wisdom").
func (a Attribute) Title() string {
	s := string(a)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseAttribute maps a full or abbreviated attribute name to an Attribute.
func ParseAttribute(value string) (Attribute, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, attr := range Attributes {
		if v == string(attr) || v == strings.ToLower(attr.Short()) {
			return attr, true
		}
	}
	return "", false
}

// Bonus derives the modifier of an ability score: floor((score-10)/2).
func Bonus(score int) int {
	return int(math.Floor(float64(score-10) / 2))
}

// Skill pairs a skill name with the attribute it defaults to.
type Skill struct {
	Name      string
	Attribute Attribute
}

// Skills lists every skill in alphabetical order.
var Skills = []Skill{
	{"Acrobatics", Dexterity},
	{"Animal Handling", Wisdom},
	{"Arcana", Intelligence},
	{"Athletics", Strength},
	{"Deception", Charisma},
	{"History", Intelligence},
	{"Insight", Wisdom},
	{"Intimidation", Charisma},
	{"Investigation", Intelligence},
	{"Medicine", Wisdom},
	{"Nature", Intelligence},
	{"Perception", Wisdom},
	{"Performance", Charisma},
	{"Persuasion", Charisma},
	{"Religion", Intelligence},
	{"Sleight of Hand", Dexterity},
	{"Stealth", Dexterity},
	{"Survival", Wisdom},
}

// skillKey is the source field carrying an explicit skill bonus ("sleight_of_hand").
func skillKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func lookupSkill(name string) (Skill, bool) {
	for _, s := range Skills {
		if strings.EqualFold(s.Name, strings.TrimSpace(name)) {
			return s, true
		}
	}
	return Skill{}, false
}
