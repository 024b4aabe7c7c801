package watcher_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/spachava753/assetflow/internal/watcher"
)

func TestOpString(t *testing.T) {
	tests := []struct {
		op   watcher.Op
		want string
	}{
		{op: watcher.OpCreate, want: "CREATE"},
		{op: watcher.OpWrite, want: "WRITE"},
		{op: watcher.OpCreate | watcher.OpWrite, want: "CREATE|WRITE"},
		{op: 0, want: "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func newWatcher(t *testing.T, root string) *watcher.Watcher {
	t.Helper()
	w, err := watcher.New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func waitEvent(t *testing.T, events <-chan watcher.Event, wantPath string) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Path == wantPath {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event on %s", wantPath)
		}
	}
}

func TestOnChange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file watching test in short mode")
	}

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "css", "src"), 0755); err != nil {
		t.Fatalf("creating css/src: %v", err)
	}

	w := newWatcher(t, root)

	events := make(chan watcher.Event, 16)
	sub, err := w.OnChange("css/src/*.css", func(ev watcher.Event) {
		events <- ev
	})
	if err != nil {
		t.Fatalf("OnChange: %v", err)
	}
	if sub.Pattern() != "css/src/*.css" {
		t.Errorf("expected pattern css/src/*.css, got %s", sub.Pattern())
	}

	// Not matching: wrong extension.
	if err := os.WriteFile(filepath.Join(root, "css", "src", "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("writing notes.txt: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "css", "src", "style.css"), []byte("a{}"), 0644); err != nil {
		t.Fatalf("writing style.css: %v", err)
	}

	waitEvent(t, events, "css/src/style.css")

	for len(events) > 0 {
		if ev := <-events; ev.Path == "css/src/notes.txt" {
			t.Errorf("unexpected event for non-matching file %s", ev.Path)
		}
	}
}

func TestOnChangeMissingBase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file watching test in short mode")
	}

	root := t.TempDir()
	w := newWatcher(t, root)

	events := make(chan watcher.Event, 16)
	if _, err := w.OnChange("images/*", func(ev watcher.Event) {
		events <- ev
	}); err != nil {
		t.Fatalf("OnChange: %v", err)
	}

	imagesDir := filepath.Join(root, "images")
	if err := os.Mkdir(imagesDir, 0755); err != nil {
		t.Fatalf("creating images: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !slices.Contains(w.WatchedDirs(), imagesDir) {
		if time.Now().After(deadline) {
			t.Fatal("images directory was never watched")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := os.WriteFile(filepath.Join(imagesDir, "logo.png"), []byte("png"), 0644); err != nil {
		t.Fatalf("writing logo.png: %v", err)
	}

	waitEvent(t, events, "images/logo.png")
}

func TestCancel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file watching test in short mode")
	}

	root := t.TempDir()
	w := newWatcher(t, root)

	events := make(chan watcher.Event, 16)
	sub, err := w.OnChange("*.html", func(ev watcher.Event) {
		events <- ev
	})
	if err != nil {
		t.Fatalf("OnChange: %v", err)
	}

	sub.Cancel()
	sub.Cancel()

	if err := os.WriteFile(filepath.Join(root, "about.html"), []byte("<p>x</p>"), 0644); err != nil {
		t.Fatalf("writing about.html: %v", err)
	}

	select {
	case ev := <-events:
		t.Errorf("unexpected event after cancel: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestOnChangeAfterClose(t *testing.T) {
	w, err := watcher.New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := w.OnChange("*.html", func(watcher.Event) {}); err != watcher.ErrWatcherClosed {
		t.Errorf("expected ErrWatcherClosed, got %v", err)
	}
}

func TestOnChangeRejectsNegated(t *testing.T) {
	w := newWatcher(t, t.TempDir())
	if _, err := w.OnChange("!index.html", func(watcher.Event) {}); err == nil {
		t.Error("expected error for negated pattern")
	}
}

func TestDirectoryChangesIgnored(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file watching test in short mode")
	}

	root := t.TempDir()
	imagesDir := filepath.Join(root, "images")
	if err := os.MkdirAll(filepath.Join(imagesDir, "old"), 0755); err != nil {
		t.Fatalf("creating images/old: %v", err)
	}

	w := newWatcher(t, root)

	events := make(chan watcher.Event, 64)
	if _, err := w.OnChange("images/*", func(ev watcher.Event) {
		events <- ev
	}); err != nil {
		t.Fatalf("OnChange: %v", err)
	}

	// Events in one directory arrive in order, so each file event below
	// means the directory changes before it were handled.
	if err := os.Mkdir(filepath.Join(imagesDir, "dist"), 0755); err != nil {
		t.Fatalf("creating images/dist: %v", err)
	}
	if err := os.WriteFile(filepath.Join(imagesDir, "logo.png"), []byte("png"), 0644); err != nil {
		t.Fatalf("writing logo.png: %v", err)
	}
	waitEventWithout(t, events, "images/logo.png", "images/dist", "images/old")

	for _, dir := range []string{"dist", "old"} {
		if err := os.RemoveAll(filepath.Join(imagesDir, dir)); err != nil {
			t.Fatalf("removing images/%s: %v", dir, err)
		}
	}
	if err := os.WriteFile(filepath.Join(imagesDir, "icon.png"), []byte("png"), 0644); err != nil {
		t.Fatalf("writing icon.png: %v", err)
	}
	waitEventWithout(t, events, "images/icon.png", "images/dist", "images/old")
}

// waitEventWithout waits for an event on wantPath and fails on any event
// for one of the forbidden paths seen before it.
func waitEventWithout(t *testing.T, events <-chan watcher.Event, wantPath string, forbidden ...string) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Path == wantPath {
				return
			}
			if slices.Contains(forbidden, ev.Path) {
				t.Errorf("unexpected directory event %s %s", ev.Op, ev.Path)
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event on %s", wantPath)
		}
	}
}
