package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path"
	"testing"

	"tokensmith/internal/archive"
	"tokensmith/internal/ledger"
	"tokensmith/internal/pipeline"
	"tokensmith/internal/source"
	"tokensmith/internal/testsupport"
)

func TestDeliverAggregatesLedgerBuilds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := openLedger(t, cfg)
	runner := newRunner(t, cfg, pipeline.WithRecorder(store))

	orc := testsupport.GoblinSource()
	orc["name"] = "Orc"
	if _, err := runner.Run(context.Background(), []source.Item{goblinItem()}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := runner.Run(context.Background(), []source.Item{{Name: "Orc", Raw: orc}, goblinItem()}); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	res, err := runner.Deliver(context.Background(), store)
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if len(res.Members) != 2 || len(res.Missing) != 0 {
		t.Fatalf("expected 2 members, got %+v", res)
	}
	entries := readEntries(t, res.Path)
	want := []string{
		path.Join(archive.TokensDir, "Orc.rptok"),
		path.Join(archive.TokensDir, "Test Goblin.rptok"),
		path.Join(archive.LibraryDir, archive.FileName(cfg.Build.LibraryName)),
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), keys(entries))
	}
	for _, name := range want {
		if _, ok := entries[name]; !ok {
			t.Fatalf("aggregate missing %s; entries=%v", name, keys(entries))
		}
	}
}

func TestDeliverSkipsMissingArchivesAndRebuildsLibrary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := openLedger(t, cfg)
	runner := newRunner(t, cfg, pipeline.WithRecorder(store))

	orc := testsupport.GoblinSource()
	orc["name"] = "Orc"
	summary, err := runner.Run(context.Background(), []source.Item{goblinItem(), {Name: "Orc", Raw: orc}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := os.Remove(summary.Outcomes[1].Archive.Path); err != nil {
		t.Fatalf("remove orc container: %v", err)
	}
	if err := os.Remove(summary.Library.Archive.Path); err != nil {
		t.Fatalf("remove library container: %v", err)
	}

	res, err := runner.Deliver(context.Background(), store)
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if len(res.Members) != 1 || len(res.Missing) != 1 {
		t.Fatalf("expected 1 member and 1 missing, got %+v", res)
	}
	if _, err := os.Stat(res.Library); err != nil {
		t.Fatalf("expected rebuilt library container: %v", err)
	}
	lib, err := store.Library(context.Background())
	if err != nil || lib == nil {
		t.Fatalf("expected library build recorded, got %v %v", lib, err)
	}
}

func TestDeliverWithEmptyLedger(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := openLedger(t, cfg)
	_, err := newRunner(t, cfg).Deliver(context.Background(), store)
	if !errors.Is(err, pipeline.ErrNothingToDeliver) {
		t.Fatalf("expected ErrNothingToDeliver, got %v", err)
	}

	failed := ledger.Build{RunID: "r", Creature: "Ghost", Status: ledger.StatusFailed, ErrorClass: "missing_field"}
	if _, err := store.Record(context.Background(), failed); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := newRunner(t, cfg).Deliver(context.Background(), store); !errors.Is(err, pipeline.ErrNothingToDeliver) {
		t.Fatalf("failed builds must not be delivered, got %v", err)
	}
}

func TestDeliverKeepsNewestBuildPerContainerName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := openLedger(t, cfg)
	runner := newRunner(t, cfg, pipeline.WithRecorder(store))

	slash := testsupport.GoblinSource()
	slash["name"] = "Succubus/Incubus"
	underscore := testsupport.GoblinSource()
	underscore["name"] = "Succubus_Incubus"
	if _, err := runner.Run(context.Background(), []source.Item{
		{Name: "Succubus/Incubus", Raw: slash},
		{Name: "Succubus_Incubus", Raw: underscore},
	}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	// Built alone, the second creature takes the unsuffixed file name back.
	if _, err := runner.Run(context.Background(), []source.Item{{Name: "Succubus_Incubus", Raw: underscore}}); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	res, err := runner.Deliver(context.Background(), store)
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if len(res.Members) != 1 || len(res.Shadowed) != 1 || res.Shadowed[0] != "Succubus/Incubus" {
		t.Fatalf("expected the older build to be shadowed, got %+v", res)
	}
	if _, ok := readEntries(t, res.Path)[path.Join(archive.TokensDir, "Succubus_Incubus.rptok")]; !ok {
		t.Fatal("aggregate missing the surviving container")
	}
}
