// # internal/history/store_test.go
package history

import (
	"path/filepath"
	"testing"
	"time"

	"nuxtscan/internal/output"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndLoadSnapshot(t *testing.T) {
	store := openTempStore(t)

	findings := []output.Finding{
		{Category: output.CategoryUnusedExport, Severity: output.SeverityUnused},
		{Category: output.CategoryUnusedExport, Severity: output.SeverityUnused},
		{Category: output.CategoryVulnerability, Severity: output.SeverityCritical},
	}
	snapshot := NewSnapshot("clean", findings)
	snapshot.UnitCount = 12
	snapshot.SkippedCount = 1
	snapshot.SymbolCount = 80
	snapshot.EdgeCount = 120

	if snapshot.RunID == "" {
		t.Fatal("NewSnapshot did not assign a run id")
	}

	if err := store.SaveSnapshot("myproject", snapshot); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	loaded, err := store.LoadSnapshots("myproject", time.Time{})
	if err != nil {
		t.Fatalf("LoadSnapshots failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(loaded))
	}

	got := loaded[0]
	if got.RunID != snapshot.RunID || got.Mode != "clean" {
		t.Errorf("snapshot = %+v", got)
	}
	if got.UnitCount != 12 || got.SkippedCount != 1 || got.SymbolCount != 80 || got.EdgeCount != 120 {
		t.Errorf("counts wrong: %+v", got)
	}
	if got.Categories[output.CategoryUnusedExport] != 2 {
		t.Errorf("unused export count = %d", got.Categories[output.CategoryUnusedExport])
	}
	if got.Categories[output.CategoryVulnerability] != 1 {
		t.Errorf("vulnerability count = %d", got.Categories[output.CategoryVulnerability])
	}
}

func TestStore_SnapshotsOrderedByTime(t *testing.T) {
	store := openTempStore(t)

	older := NewSnapshot("clean", nil)
	older.Timestamp = time.Now().Add(-time.Hour).UTC()
	newer := NewSnapshot("clean", nil)

	if err := store.SaveSnapshot("", newer); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSnapshot("", older); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadSnapshots("", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(loaded))
	}
	if !loaded[0].Timestamp.Before(loaded[1].Timestamp) {
		t.Error("snapshots not ordered by timestamp")
	}

	// Since filter excludes the older run.
	recent, err := store.LoadSnapshots("", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].RunID != newer.RunID {
		t.Errorf("since filter wrong: %+v", recent)
	}
}

func TestOpen_RejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpen_RejectsDirectory(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("expected error for directory path")
	}
}
