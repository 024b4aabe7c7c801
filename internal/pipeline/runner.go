package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/spachava753/assetflow/internal/models"
)

// Runner executes tasks from a registry against a project root.
type Runner struct {
	registry    *Registry
	root        string
	concurrency int
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds how many files one task processes at once.
// Values below 1 mean runtime.NumCPU().
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// NewRunner creates a runner. Relative task paths resolve against root.
func NewRunner(registry *Registry, root string, opts ...Option) (*Runner, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	r := &Runner{
		registry: registry,
		root:     absRoot,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency < 1 {
		r.concurrency = runtime.NumCPU()
	}
	return r, nil
}

// Root returns the absolute project root.
func (r *Runner) Root() string {
	return r.root
}

// Registry returns the registry tasks are looked up in.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run executes one task and returns once every matched file has been
// written or the first failure has stopped the task.
func (r *Runner) Run(ctx context.Context, name string) (*models.TaskResult, error) {
	def, ok := r.registry.Lookup(name)
	if !ok {
		return nil, unknownTask(name)
	}

	result := &models.TaskResult{
		Name:      name,
		RunID:     ulid.Make().String(),
		StartedAt: time.Now(),
	}
	logger := slog.With("task", name, "run_id", result.RunID)
	logger.Info("starting task")

	var err error
	switch {
	case def.Task != nil:
		err = r.runFiles(ctx, logger, *def.Task, result)
	case def.Series != nil:
		result.Subtasks, err = r.RunSequence(ctx, def.Series)
	case def.Parallel != nil:
		result.Subtasks, err = r.RunParallel(ctx, def.Parallel)
	case def.Action != nil:
		err = def.Action(ctx, r)
	}

	result.EndedAt = time.Now()
	result.DurationSec = result.EndedAt.Sub(result.StartedAt).Seconds()

	if err != nil {
		var taskErr *TaskError
		if !errors.As(err, &taskErr) {
			taskErr = &TaskError{Type: models.ErrTaskFailed, Err: err}
			err = taskErr
		}
		if taskErr.Task == "" {
			taskErr.Task = name
		}
		result.Error = taskErr.Failure()
		logger.Error("task failed", "error", err, "duration_sec", result.DurationSec)
		return result, err
	}

	logger.Info("finished task",
		"files", len(result.Files),
		"skipped", result.Skipped,
		"duration_sec", result.DurationSec)
	return result, nil
}

// RunSequence executes tasks strictly in order and stops at the first
// failure. Every name is checked before anything runs.
func (r *Runner) RunSequence(ctx context.Context, names []string) ([]*models.TaskResult, error) {
	for _, name := range names {
		if _, ok := r.registry.Lookup(name); !ok {
			return nil, unknownTask(name)
		}
	}

	results := make([]*models.TaskResult, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := r.Run(ctx, name)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// RunParallel executes tasks concurrently. The first failure cancels the
// rest. Results are in the order of names.
func (r *Runner) RunParallel(ctx context.Context, names []string) ([]*models.TaskResult, error) {
	for _, name := range names {
		if _, ok := r.registry.Lookup(name); !ok {
			return nil, unknownTask(name)
		}
	}

	results := make([]*models.TaskResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			res, err := r.Run(gctx, name)
			results[i] = res
			return err
		})
	}
	err := g.Wait()

	return slices.DeleteFunc(results, func(res *models.TaskResult) bool { return res == nil }), err
}

// Clean removes each directory and its contents. Missing directories are
// not an error.
func (r *Runner) Clean(ctx context.Context, dirs []string) error {
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := r.resolveDir(dir)
		if err != nil {
			return &TaskError{Path: dir, Type: models.ErrFilesystemFailed, Err: err}
		}

		if err := os.RemoveAll(target); err != nil {
			return &TaskError{Path: dir, Type: models.ErrFilesystemFailed, Err: fmt.Errorf("removing directory: %w", err)}
		}
		slog.Debug("removed directory", "path", dir)
	}
	return nil
}

// resolveDir maps a configured directory to an absolute path strictly
// inside the project root.
func (r *Runner) resolveDir(dir string) (string, error) {
	target := dir
	if !filepath.IsAbs(target) {
		target = filepath.Join(r.root, filepath.FromSlash(dir))
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(r.root, target)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("refusing to touch %s: not inside the project root", dir)
	}
	return target, nil
}
