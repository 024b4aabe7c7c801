package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/spachava753/assetflow/internal/pattern"
	"github.com/spachava753/assetflow/internal/watcher"
)

// Binding re-runs Task whenever a file matching Pattern changes.
type Binding struct {
	Pattern string
	Task    string
}

// Watch runs bound tasks on file changes until ctx is cancelled. Changes
// inside a bound task's own destination are ignored. Each event starts its
// own run, so runs of the same task can overlap; failures are logged and
// watching continues. On return every subscription is cancelled and
// in-flight runs have finished.
func (r *Runner) Watch(ctx context.Context, bindings []Binding) error {
	for _, b := range bindings {
		if _, ok := r.registry.Lookup(b.Task); !ok {
			return unknownTask(b.Task)
		}
	}

	w, err := watcher.New(r.root)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	var wg sync.WaitGroup
	subs := make([]*watcher.Subscription, 0, len(bindings))
	defer func() {
		for _, sub := range subs {
			sub.Cancel()
		}
		w.Close()
		wg.Wait()
	}()

	for _, b := range bindings {
		outputs := r.outputDirs(b.Task, make(map[string]bool))
		sub, err := w.OnChange(b.Pattern, func(ev watcher.Event) {
			if inAny(ev.Path, outputs) {
				slog.Debug("ignoring change in output directory", "path", ev.Path, "task", b.Task)
				return
			}
			wg.Go(func() {
				slog.Info("change detected", "path", ev.Path, "op", ev.Op.String(), "task", b.Task)
				if _, err := r.Run(ctx, b.Task); err != nil && ctx.Err() == nil {
					slog.Error("watched task failed", "task", b.Task, "error", err)
				}
			})
		})
		if err != nil {
			return fmt.Errorf("watching %s: %w", b.Pattern, err)
		}
		subs = append(subs, sub)
		slog.Debug("watching pattern", "pattern", b.Pattern, "task", b.Task)
	}

	slog.Info("watching for changes", "bindings", len(bindings))
	<-ctx.Done()

	slog.Info("stopped watching")
	return nil
}

// outputDirs lists the destinations a task writes to, including those of
// the tasks it composes.
func (r *Runner) outputDirs(name string, seen map[string]bool) []string {
	if seen[name] {
		return nil
	}
	seen[name] = true

	def, ok := r.registry.Lookup(name)
	if !ok {
		return nil
	}

	var dirs []string
	if def.Task != nil {
		dest := def.Task.Dest
		if filepath.IsAbs(dest) {
			dest = r.relative(dest)
		}
		dirs = append(dirs, pattern.Clean(dest))
	}
	for _, sub := range slices.Concat(def.Series, def.Parallel) {
		dirs = append(dirs, r.outputDirs(sub, seen)...)
	}
	return dirs
}

func inAny(rel string, dirs []string) bool {
	for _, dir := range dirs {
		if dir == "." {
			continue
		}
		if rel == dir || strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}
	return false
}
