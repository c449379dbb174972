package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherScanExisting(t *testing.T) {
	dir := t.TempDir()

	files := map[string]bool{
		"backlog.pdf":  true,
		"notes.txt":    true,
		".hidden.txt":  false,
		"upload.part":  false,
	}
	for name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	rec := &eventRecorder{}
	w := &Watcher{inboxDir: dir}
	w.debouncer = newDebouncer(10*time.Millisecond, rec.record)
	defer w.debouncer.Stop()

	w.scanExisting()
	time.Sleep(80 * time.Millisecond)

	got := rec.snapshot()
	seen := make(map[string]EventType, len(got))
	for _, e := range got {
		seen[filepath.Base(e.path)] = e.eventType
	}

	for name, want := range files {
		_, ok := seen[name]
		if ok != want {
			t.Errorf("file %q queued = %v, want %v", name, ok, want)
		}
	}
	if _, ok := seen["subdir"]; ok {
		t.Error("directories must not be queued")
	}
	for _, e := range got {
		if e.eventType != EventCreate {
			t.Errorf("file %q queued as %v, want create", filepath.Base(e.path), e.eventType)
		}
	}
}
