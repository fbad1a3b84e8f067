package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokensmith/internal/asset"
	"tokensmith/internal/creature"
	"tokensmith/internal/macro"
	"tokensmith/internal/render"
	"tokensmith/internal/services"
	"tokensmith/internal/testsupport"
)

func newPackager(t *testing.T, dir string) *Packager {
	t.Helper()
	tmpl, err := render.New()
	require.NoError(t, err)
	return NewPackager(tmpl, Options{OutDir: dir})
}

func goblinToken(t *testing.T, portrait *asset.Image, extra ...*asset.Image) Token {
	t.Helper()
	rec, err := creature.New(testsupport.GoblinSource())
	require.NoError(t, err)
	res := macro.Generate(rec, macro.Options{Delivery: true})
	return Token{Record: rec, Variants: res.Variants, Portrait: portrait, Extra: extra}
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestBuildWritesContainerLayout(t *testing.T) {
	dir := t.TempDir()
	portrait := asset.DefaultPortrait()

	res, err := newPackager(t, dir).Build(context.Background(), goblinToken(t, portrait))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Test Goblin.rptok"), res.Path)
	assert.Equal(t, portrait.Checksum, res.Portrait)
	assert.Equal(t, 1, res.Assets)
	assert.Equal(t, 5, res.Macros)
	assert.Positive(t, res.Bytes)

	entries, err := ReadEntries(res.Path)
	require.NoError(t, err)
	want := []string{
		"assets/" + portrait.Checksum,
		"assets/" + portrait.Checksum + ".png",
		"content.xml",
		"properties.xml",
		"thumbnail",
		"thumbnail_large",
	}
	assert.Equal(t, want, sortedKeys(entries))
	assert.Equal(t, portrait.Bytes(), entries["assets/"+portrait.Checksum+".png"])

	meta := string(entries["assets/"+portrait.Checksum])
	assert.Contains(t, meta, "<id>"+portrait.Checksum+"</id>")
	assert.Contains(t, meta, "<name>Test Goblin</name>")

	thumb, err := asset.Decode("thumbnail", entries["thumbnail"])
	require.NoError(t, err)
	assert.Equal(t, 50, thumb.Width)
	large, err := asset.Decode("thumbnail_large", entries["thumbnail_large"])
	require.NoError(t, err)
	assert.Equal(t, 256, large.Width)

	content := string(entries["content.xml"])
	assert.Contains(t, content, "<name>Test Goblin</name>")
	assert.Contains(t, content, "<id>"+portrait.Checksum+"</id>")
	assert.Contains(t, content, "<string>Concentrating</string>")
	assert.Contains(t, content, "<key>CreatureType</key>")
	assert.Contains(t, content, `<value class="string">humanoid, CR 1/4</value>`)
	assert.Contains(t, content, "<label>Scimitar +4 1d6+2</label>")
	assert.Contains(t, content, "WeaponAttack@Lib:Monsters")
	assert.Equal(t, 5, strings.Count(content, "<net.rptools.maptool.model.MacroButtonProperties>"))
	assert.NotContains(t, content, "<label>Debug</label>")

	assert.Contains(t, string(entries["properties.xml"]), PropertiesVersion)
}

func TestBuildDedupsIdenticalAssets(t *testing.T) {
	data := testsupport.PNGBytes(t, 32, 32, testsupport.Shade(3))
	portrait, err := asset.Decode("goblin.png", data)
	require.NoError(t, err)
	icon, err := asset.Decode("icons/goblin-icon.png", data)
	require.NoError(t, err)
	other, err := asset.Decode("icons/other.png", testsupport.PNGBytes(t, 32, 32, testsupport.Shade(4)))
	require.NoError(t, err)

	res, err := newPackager(t, t.TempDir()).Build(context.Background(), goblinToken(t, portrait, icon, other, icon))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Assets)

	entries, err := ReadEntries(res.Path)
	require.NoError(t, err)
	pngs := 0
	for name := range entries {
		if strings.HasPrefix(name, "assets/") && strings.HasSuffix(name, ".png") {
			pngs++
		}
	}
	assert.Equal(t, 2, pngs)
	assert.Contains(t, entries, "assets/"+portrait.Checksum+".png")
}

func TestWriteNeverDuplicatesEntries(t *testing.T) {
	img := asset.DefaultPortrait()
	b := Bundle{
		Content:    "<c/>",
		Properties: "<p/>",
		Assets:     []Asset{{Image: img, Meta: "a"}, {Image: img, Meta: "b"}, {Image: nil}},
		Thumbnail:  img,
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, b))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, b.Entries(), names)
	assert.Len(t, names, 5)
}

func TestBuildLibrary(t *testing.T) {
	dir := t.TempDir()
	res, err := newPackager(t, dir).BuildLibrary(context.Background(), asset.DefaultPortrait())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Lib_Monsters.rptok"), res.Path)
	assert.Equal(t, len(libraryMacros), res.Macros)

	entries, err := ReadEntries(res.Path)
	require.NoError(t, err)
	content := string(entries["content.xml"])
	assert.Contains(t, content, "<name>Lib:Monsters</name>")
	assert.Contains(t, content, "<label>WeaponAttack</label>")
	assert.Contains(t, content, "<label>PotionOfHealing</label>")
	assert.Contains(t, content, "<label>ChangeHP</label>")
	assert.Contains(t, content, "<tokenShape>SQUARE</tokenShape>")
}

func TestBuildRejectsIncompleteToken(t *testing.T) {
	_, err := newPackager(t, t.TempDir()).Build(context.Background(), Token{})
	assert.ErrorIs(t, err, services.ErrInvalidField)
}

func TestBuildSurfacesRenderFailure(t *testing.T) {
	failing := render.Func(func(name string, data any) (string, error) {
		if name == render.Content {
			return "", errors.New("template exploded")
		}
		return "", nil
	})
	dir := t.TempDir()
	p := NewPackager(failing, Options{OutDir: dir})
	_, err := p.Build(context.Background(), goblinToken(t, asset.DefaultPortrait()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template exploded")

	_, statErr := os.Stat(filepath.Join(dir, "Test Goblin.rptok"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteFileFailureIsArchiveWrite(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	testsupport.WriteBytes(t, blocker, []byte("file"))

	err := WriteFile(filepath.Join(blocker, "x.rptok"), Bundle{})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrArchiveWrite)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Succubus_Incubus.rptok", FileName("Succubus/Incubus"))
	assert.Equal(t, "Lib_Monsters.rptok", FileName("Lib:Monsters"))
}
