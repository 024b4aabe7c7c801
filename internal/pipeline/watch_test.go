package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spachava753/assetflow/internal/models"
	"github.com/spachava753/assetflow/internal/pipeline"
)

func TestWatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file watching test in short mode")
	}

	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/keep.txt": "keep"})

	reg := pipeline.NewRegistry()
	reg.Define(pipeline.Task{Name: "upper", Sources: []string{"src/*.txt"}, Steps: []pipeline.Step{upper}, Dest: "out"})
	r := newRunner(t, reg, root)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Watch(ctx, []pipeline.Binding{{Pattern: "src/*.txt", Task: "upper"}})
	}()

	// Keep touching the file until the watcher has picked it up.
	src := filepath.Join(root, "src", "new.txt")
	out := filepath.Join(root, "out", "new.txt")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if err := os.WriteFile(src, []byte("fresh"), 0644); err != nil {
			t.Fatalf("writing source: %v", err)
		}
		time.Sleep(100 * time.Millisecond)

		if data, err := os.ReadFile(out); err == nil && string(data) == "FRESH" {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("watched task never produced output")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchUnknownTask(t *testing.T) {
	r := newRunner(t, pipeline.NewRegistry(), t.TempDir())

	err := r.Watch(context.Background(), []pipeline.Binding{{Pattern: "*.html", Task: "minify-html"}})
	if !errors.Is(err, pipeline.ErrUnknownTask) {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
}

func TestWatchIgnoresOwnOutput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping file watching test in short mode")
	}

	root := t.TempDir()
	writeTree(t, root, map[string]string{"images/logo.png": "png"})

	var runs atomic.Int32
	counted := pipeline.StepFunc{
		StepName: "count",
		Fn: func(_ context.Context, f models.File) (models.File, error) {
			runs.Add(1)
			return f, nil
		},
	}

	marker := make(chan struct{}, 16)
	reg := pipeline.NewRegistry()
	reg.Define(pipeline.Task{Name: "optimize-images", Sources: []string{"images/*"}, Steps: []pipeline.Step{counted}, Dest: "images/dist"})
	reg.DefineFunc("marker", "", func(context.Context, *pipeline.Runner) error {
		marker <- struct{}{}
		return nil
	})
	r := newRunner(t, reg, root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- r.Watch(ctx, []pipeline.Binding{
			{Pattern: "images/*", Task: "optimize-images"},
			{Pattern: "marker.txt", Task: "marker"},
		})
	}()

	// touchMarker writes marker.txt until its task runs, so every earlier
	// event has been dispatched.
	touchMarker := func() {
		t.Helper()
		for len(marker) > 0 {
			<-marker
		}
		deadline := time.After(5 * time.Second)
		for {
			if err := os.WriteFile(filepath.Join(root, "marker.txt"), []byte("x"), 0644); err != nil {
				t.Fatalf("writing marker: %v", err)
			}
			select {
			case <-marker:
				time.Sleep(200 * time.Millisecond)
				return
			case <-time.After(100 * time.Millisecond):
			case <-deadline:
				t.Fatal("watcher never dispatched marker.txt")
			}
		}
	}

	touchMarker()

	// Build, then clean and build again, the way a default run does.
	if _, err := r.Run(context.Background(), "optimize-images"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := r.Clean(context.Background(), []string{"images/dist"}); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := r.Run(context.Background(), "optimize-images"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	touchMarker()

	if got := runs.Load(); got != 2 {
		t.Errorf("expected only the 2 direct runs, got %d: output directory changes triggered rebuilds", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
