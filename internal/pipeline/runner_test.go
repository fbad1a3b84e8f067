package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"tokensmith/internal/archive"
	"tokensmith/internal/asset"
	"tokensmith/internal/config"
	"tokensmith/internal/ledger"
	"tokensmith/internal/macro"
	"tokensmith/internal/pipeline"
	"tokensmith/internal/services"
	"tokensmith/internal/source"
	"tokensmith/internal/testsupport"
)

func newRunner(t *testing.T, cfg *config.Config, opts ...pipeline.Option) *pipeline.Runner {
	t.Helper()
	runner, err := pipeline.New(cfg, opts...)
	if err != nil {
		t.Fatalf("pipeline.New failed: %v", err)
	}
	return runner
}

func openLedger(t *testing.T, cfg *config.Config) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(cfg.Paths.LedgerPath)
	if err != nil {
		t.Fatalf("ledger.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func goblinItem() source.Item {
	return source.Item{Name: "Test Goblin", Origin: "test", Raw: testsupport.GoblinSource()}
}

func readEntries(t *testing.T, path string) map[string][]byte {
	t.Helper()
	entries, err := archive.ReadEntries(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return entries
}

func TestRunBuildsDeliveryForGoblin(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDelivery(true))
	listPath := filepath.Join(testsupport.BaseDir(cfg), "monsters.json")
	testsupport.WriteJSON(t, listPath, []any{testsupport.GoblinSource()})
	items, err := source.Load(listPath)
	if err != nil {
		t.Fatalf("source.Load failed: %v", err)
	}

	summary, err := newRunner(t, cfg).Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Built() != 1 || summary.Failed() != 0 {
		t.Fatalf("expected 1 built and 0 failed, got %d/%d", summary.Built(), summary.Failed())
	}
	if summary.RunID == "" {
		t.Fatal("expected run id to be assigned")
	}

	outcome := summary.Outcomes[0]
	if !outcome.Match.Fallback {
		t.Fatalf("expected default portrait fallback, got %+v", outcome.Match)
	}
	if len(outcome.Warnings) != 1 || !errors.Is(outcome.Warnings[0], services.ErrAssetMiss) {
		t.Fatalf("expected a single asset miss warning, got %v", outcome.Warnings)
	}

	dft := asset.DefaultPortrait()
	entries := readEntries(t, outcome.Archive.Path)
	for _, name := range []string{
		"content.xml",
		"properties.xml",
		"assets/" + dft.Checksum,
		"assets/" + dft.Checksum + ".png",
		"thumbnail",
		"thumbnail_large",
	} {
		if _, ok := entries[name]; !ok {
			t.Fatalf("container missing %s; entries=%v", name, keys(entries))
		}
	}
	if len(entries) != 6 {
		t.Fatalf("expected 6 entries, got %v", keys(entries))
	}

	content := string(entries["content.xml"])
	for _, label := range []string{"Scimitar +4 1d6+2", "Sheet", "Initiative", "Saving Throw", "Check"} {
		if !strings.Contains(content, "<label>"+label+"</label>") {
			t.Fatalf("content missing macro %q", label)
		}
	}
	if strings.Contains(content, "<label>Debug</label>") {
		t.Fatal("delivery build must not carry the debug macro")
	}
	if got := strings.Count(content, "<net.rptools.maptool.model.MacroButtonProperties>"); got != 5 {
		t.Fatalf("expected 5 macros, got %d", got)
	}

	if summary.Library == nil || summary.Library.Err != nil {
		t.Fatalf("expected library container, got %+v", summary.Library)
	}
	if summary.DeliveryPath == "" || summary.DeliveryErr != nil {
		t.Fatalf("expected delivery archive, got path=%q err=%v", summary.DeliveryPath, summary.DeliveryErr)
	}
	aggregate := readEntries(t, summary.DeliveryPath)
	tokenEntry := path.Join(archive.TokensDir, "Test Goblin.rptok")
	libEntry := path.Join(archive.LibraryDir, archive.FileName(cfg.Build.LibraryName))
	if len(aggregate) != 2 {
		t.Fatalf("expected 2 aggregate entries, got %v", keys(aggregate))
	}
	onDisk, err := os.ReadFile(outcome.Archive.Path)
	if err != nil {
		t.Fatalf("read container: %v", err)
	}
	if string(aggregate[tokenEntry]) != string(onDisk) {
		t.Fatal("aggregate must hold the container bytes unchanged")
	}
	if _, ok := aggregate[libEntry]; !ok {
		t.Fatalf("aggregate missing %s", libEntry)
	}
}

func TestRunIncludesDebugMacroOutsideDelivery(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	summary, err := newRunner(t, cfg).Run(context.Background(), []source.Item{goblinItem()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	content := string(readEntries(t, summary.Outcomes[0].Archive.Path)["content.xml"])
	if !strings.Contains(content, "<label>Debug</label>") {
		t.Fatal("expected debug macro outside delivery builds")
	}
	if summary.DeliveryPath != "" {
		t.Fatalf("unexpected delivery archive %q", summary.DeliveryPath)
	}
}

func TestRunUsesMatchingLibraryImage(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithImages("Orc", "test goblin"))
	summary, err := newRunner(t, cfg).Run(context.Background(), []source.Item{goblinItem()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	outcome := summary.Outcomes[0]
	if outcome.Match.Fallback {
		t.Fatalf("expected library match, got %+v", outcome.Match)
	}
	if filepath.Base(outcome.Match.Path) != "test goblin.png" {
		t.Fatalf("unexpected match %q", outcome.Match.Path)
	}
	if len(outcome.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", outcome.Warnings)
	}
	img, err := asset.NewCache().Load(outcome.Match.Path)
	if err != nil {
		t.Fatalf("load image: %v", err)
	}
	if outcome.Archive.Portrait != img.Checksum {
		t.Fatalf("expected portrait %s, got %s", img.Checksum, outcome.Archive.Portrait)
	}
}

func TestRunIsolatesFailingCreatures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := openLedger(t, cfg)

	broken := testsupport.GoblinSource()
	broken["name"] = "Broken Goblin"
	delete(broken, "hit_points")
	items := []source.Item{
		{Name: "Broken Goblin", Raw: broken},
		{Name: "Ghost", Err: services.Wrap(services.ErrMissingField, "rst", "parse", "Ghost: field \"hit_points\"", nil)},
		goblinItem(),
	}

	summary, err := newRunner(t, cfg, pipeline.WithRecorder(store)).Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Built() != 1 || summary.Failed() != 2 {
		t.Fatalf("expected 1 built and 2 failed, got %d/%d", summary.Built(), summary.Failed())
	}
	if got := summary.Outcomes[0]; got.Stage != pipeline.StageRecord || got.Class() != "missing_field" {
		t.Fatalf("unexpected first outcome %+v", got)
	}
	if got := summary.Outcomes[1]; got.Stage != pipeline.StageSource || got.OK() {
		t.Fatalf("unexpected second outcome %+v", got)
	}
	if !summary.Outcomes[2].OK() {
		t.Fatalf("goblin should build after failures: %v", summary.Outcomes[2].Err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.BuildDir, "Broken Goblin.rptok")); !os.IsNotExist(err) {
		t.Fatalf("failed creature must not leave a container, stat err=%v", err)
	}

	rows, err := store.Run(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("ledger run: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 3 creature rows and 1 library row, got %d", len(rows))
	}
	if rows[0].Status != ledger.StatusFailed || rows[0].ErrorClass != "missing_field" {
		t.Fatalf("unexpected ledger row %+v", rows[0])
	}
	if !rows[2].Succeeded() || !rows[2].PortraitFallback || rows[2].Macros != 6 {
		t.Fatalf("unexpected goblin row %+v", rows[2])
	}
	if !rows[3].Library {
		t.Fatalf("expected library row last, got %+v", rows[3])
	}
}

func TestRunStopsAtMaxItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Build.MaxItems = 1

	orc := testsupport.GoblinSource()
	orc["name"] = "Orc"
	items := []source.Item{goblinItem(), {Name: "Orc", Raw: orc}}

	summary, err := newRunner(t, cfg).Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(summary.Outcomes) != 1 || summary.Skipped != 1 {
		t.Fatalf("expected 1 outcome and 1 skipped, got %d/%d", len(summary.Outcomes), summary.Skipped)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.BuildDir, "Orc.rptok")); !os.IsNotExist(err) {
		t.Fatalf("expected Orc to be skipped, stat err=%v", err)
	}
}

func TestRunReportsArchiveWriteFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocker := filepath.Join(testsupport.BaseDir(cfg), "blocker")
	testsupport.WriteBytes(t, blocker, []byte("not a directory"))
	cfg.Paths.BuildDir = filepath.Join(blocker, "build")

	summary, err := newRunner(t, cfg).Run(context.Background(), []source.Item{goblinItem()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got := summary.Outcomes[0]
	if got.OK() || got.Stage != pipeline.StagePackage || !errors.Is(got.Err, services.ErrArchiveWrite) {
		t.Fatalf("expected archive write failure, got %+v", got)
	}
	if summary.Library != nil {
		t.Fatal("library must not be built when nothing was built")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newRunner(t, cfg).Run(ctx, []source.Item{goblinItem()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(summary.Outcomes) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(summary.Outcomes))
	}
}

func TestNewRejectsUnreadableSpellCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.SpellCatalog = filepath.Join(testsupport.BaseDir(cfg), "missing.json")
	_, err := pipeline.New(cfg)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunResolvesKnownSpellsFromCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.SpellCatalog = filepath.Join(testsupport.BaseDir(cfg), "spells.json")
	testsupport.WriteJSON(t, cfg.Paths.SpellCatalog, testsupport.SpellCatalog())

	shaman := testsupport.SpellcasterSource("The shaman is a 3rd-level spellcaster. Its spellcasting ability is " +
		"Wisdom (spell save DC 11, +3 to hit with spell attacks). It has the following spells prepared: " +
		"Cantrips (at will): fire bolt. 1st level (2 slots): shield.")
	items := []source.Item{{Name: "Test Goblin Shaman", Raw: shaman}}

	summary, err := newRunner(t, cfg).Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	content := string(readEntries(t, summary.Outcomes[0].Archive.Path)["content.xml"])
	for _, label := range []string{"Fire Bolt", "Shield (R)"} {
		if !strings.Contains(content, "<label>"+label+"</label>") {
			t.Fatalf("content missing spell macro %q", label)
		}
	}
}

func TestRunAppliesMacroOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := newRunner(t, cfg, pipeline.WithMacroOverride(macro.KindAttack, macro.Override{Group: "Melee", Color: "red"}))

	summary, err := runner.Run(context.Background(), []source.Item{goblinItem()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	content := string(readEntries(t, summary.Outcomes[0].Archive.Path)["content.xml"])
	if !strings.Contains(content, "<colorKey>red</colorKey>") || !strings.Contains(content, "<group>Melee</group>") {
		t.Fatal("expected attack macro to carry the override group and color")
	}
	if !strings.Contains(content, "<group>Utility</group>") {
		t.Fatal("override must not touch utility macros")
	}
}

func TestRunAddsHealthMacrosWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDelivery(true))
	cfg.Build.HealthMacros = true

	summary, err := newRunner(t, cfg).Run(context.Background(), []source.Item{goblinItem()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	content := string(readEntries(t, summary.Outcomes[0].Archive.Path)["content.xml"])
	for _, want := range []string{
		"<label>Potion of Healing</label>",
		"<label>Change HP</label>",
		"<group>Health</group>",
		"PotionOfHealing@" + cfg.Build.LibraryName,
		"ChangeHP@" + cfg.Build.LibraryName,
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("content missing %q", want)
		}
	}
	if summary.Outcomes[0].Archive.Macros != 7 {
		t.Fatalf("expected 7 macros, got %d", summary.Outcomes[0].Archive.Macros)
	}
}

func TestRunSuffixesCollidingContainerNames(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDelivery(true))
	store := openLedger(t, cfg)

	slash := testsupport.GoblinSource()
	slash["name"] = "Succubus/Incubus"
	underscore := testsupport.GoblinSource()
	underscore["name"] = "Succubus_Incubus"
	items := []source.Item{
		{Name: "Succubus/Incubus", Raw: slash},
		{Name: "Succubus_Incubus", Raw: underscore},
		goblinItem(),
	}

	summary, err := newRunner(t, cfg, pipeline.WithRecorder(store)).Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Built() != 3 {
		t.Fatalf("expected 3 built, got %d", summary.Built())
	}
	first, second := summary.Outcomes[0].Archive.Path, summary.Outcomes[1].Archive.Path
	if filepath.Base(first) != "Succubus_Incubus.rptok" || filepath.Base(second) != "Succubus_Incubus (2).rptok" {
		t.Fatalf("unexpected container names %q and %q", first, second)
	}
	for _, p := range []string{first, second} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected container %s: %v", p, err)
		}
	}
	if summary.DeliveryErr != nil || summary.DeliveryPath == "" {
		t.Fatalf("expected delivery archive, got path=%q err=%v", summary.DeliveryPath, summary.DeliveryErr)
	}
	aggregate := readEntries(t, summary.DeliveryPath)
	if len(aggregate) != 4 {
		t.Fatalf("expected 3 tokens and the library, got %v", keys(aggregate))
	}

	res, err := newRunner(t, cfg).Deliver(context.Background(), store)
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if len(res.Members) != 3 || len(res.Shadowed) != 0 {
		t.Fatalf("expected 3 members from the ledger, got %+v", res)
	}
}

func TestRunAddsIconFromImageLibrary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithImages("Test Goblin", "Test Goblin_icon"))

	summary, err := newRunner(t, cfg).Run(context.Background(), []source.Item{goblinItem()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	outcome := summary.Outcomes[0]
	if filepath.Base(outcome.Match.Path) != "Test Goblin.png" {
		t.Fatalf("icon must not be chosen as portrait, got %q", outcome.Match.Path)
	}
	if outcome.Archive.Assets != 2 {
		t.Fatalf("expected portrait and icon assets, got %d", outcome.Archive.Assets)
	}
	icon, err := asset.NewCache().Load(filepath.Join(cfg.Paths.ImageDirs[0], "Test Goblin_icon.png"))
	if err != nil {
		t.Fatalf("load icon: %v", err)
	}
	if _, ok := readEntries(t, outcome.Archive.Path)["assets/"+icon.Checksum]; !ok {
		t.Fatalf("container missing icon asset %s", icon.Checksum)
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
