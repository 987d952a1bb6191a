package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, debounce time.Duration, onChange func([]string)) *Watcher {
	t.Helper()
	w, err := NewWatcher(debounce, []string{"node_modules", ".git"}, []string{"*.min.js"}, onChange)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestScheduleChange_DebouncesIntoOneBatch(t *testing.T) {
	batches := make(chan []string, 1)
	w := newTestWatcher(t, 20*time.Millisecond, func(paths []string) {
		batches <- paths
	})

	w.scheduleChange("a.vue")
	w.scheduleChange("b.ts")
	w.scheduleChange("a.vue") // duplicate collapses

	select {
	case paths := <-batches:
		if len(paths) != 2 {
			t.Errorf("expected 2 paths in batch, got %v", paths)
		}
	case <-time.After(time.Second):
		t.Fatal("debounce never flushed")
	}

	select {
	case paths := <-batches:
		t.Errorf("unexpected second batch: %v", paths)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestShouldExcludeFile(t *testing.T) {
	w := newTestWatcher(t, time.Millisecond, func([]string) {})

	cases := []struct {
		path string
		want bool
	}{
		{"pages/index.vue", false},
		{"utils/math.ts", false},
		{"assets/site.css", false},
		{"vendor/app.min.js", true},
		{"README.md", true},
		{"logo.png", true},
	}
	for _, c := range cases {
		if got := w.shouldExcludeFile(c.path); got != c.want {
			t.Errorf("shouldExcludeFile(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestShouldExcludeDir(t *testing.T) {
	w := newTestWatcher(t, time.Millisecond, func([]string) {})

	if !w.shouldExcludeDir("project/node_modules") {
		t.Error("node_modules not excluded")
	}
	if w.shouldExcludeDir("project/components") {
		t.Error("components wrongly excluded")
	}
}

func TestWatch_FiresOnWrite(t *testing.T) {
	root := t.TempDir()

	batches := make(chan []string, 4)
	w := newTestWatcher(t, 20*time.Millisecond, func(paths []string) {
		batches <- paths
	})

	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	target := filepath.Join(root, "index.vue")
	if err := os.WriteFile(target, []byte("<template />"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-batches:
		if len(paths) == 0 {
			t.Error("empty change batch")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change batch after write")
	}
}
