package render

import (
	"bytes"
	"embed"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Template names understood by the default renderer.
const (
	Content     = "content.xml"
	Properties  = "properties.xml"
	AssetMeta   = "asset.xml"
	Attack      = "attack.mt"
	Description = "description.mt"
	SpellMacro  = "spell.mt"
	Sheet       = "sheet.mt"
	Initiative  = "init.mt"
	Save        = "save.mt"
	Check       = "check.mt"
	Debug       = "debug.mt"
	Health      = "health.mt"

	LibWeapon   = "lib_weapon.mt"
	LibDescribe = "lib_describe.mt"
	LibSpell    = "lib_spell.mt"
	LibSheet    = "lib_sheet.mt"
	LibPotion   = "lib_potion.mt"
	LibChangeHP = "lib_change_hp.mt"
)

// Renderer renders the named template with data.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// Func adapts a plain function to Renderer.
type Func func(name string, data any) (string, error)

// Render calls f.
func (f Func) Render(name string, data any) (string, error) {
	return f(name, data)
}

//go:embed templates/*.tmpl
var embedded embed.FS

// Templates is the default Renderer backed by text/template.
type Templates struct {
	set *template.Template
}

// New parses the embedded templates.
func New() (*Templates, error) {
	return NewFromFS(embedded, "templates/*.tmpl")
}

// NewFromFS parses templates matching pattern in fsys. A template is addressed
// by its file name without the ".tmpl" suffix.
func NewFromFS(fsys fs.FS, pattern string) (*Templates, error) {
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no templates match %q", pattern)
	}
	root := template.New("").Funcs(Funcs())
	for _, file := range matches {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", file, err)
		}
		name := strings.TrimSuffix(path.Base(file), ".tmpl")
		if _, err := root.New(name).Parse(string(data)); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
	}
	return &Templates{set: root}, nil
}

// Render executes the named template.
func (t *Templates) Render(name string, data any) (string, error) {
	tmpl := t.set.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("render %s: unknown template", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Funcs returns the helper functions available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"json2mt": JSONToMT,
		"xml":     EscapeXML,
		"guid":    GUID,
		"title":   Title,
		"lower":   strings.ToLower,
		"quote":   strconv.Quote,
		"signed":  func(n int) string { return fmt.Sprintf("%+d", n) },
	}
}

// JSONToMT swaps escaped double quotes for escaped single quotes, which the
// tabletop macro parser accepts inside json.set arguments.
func JSONToMT(s string) string {
	return strings.ReplaceAll(s, `\"`, `\'`)
}

// EscapeXML escapes s for use as XML character data.
func EscapeXML(s string) string {
	var buf strings.Builder
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// GUID returns a fresh token identifier: a random UUID in padded URL-safe
// base64.
func GUID() string {
	id := uuid.New()
	return base64.URLEncoding.EncodeToString(id[:])
}

// Title capitalizes each word of s ("cold iron" -> "Cold Iron").
func Title(s string) string {
	return cases.Title(language.English).String(s)
}
