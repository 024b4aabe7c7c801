package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/spachava753/assetflow/internal/models"
	"github.com/spachava753/assetflow/internal/pattern"
)

// runFiles processes the task's matched files in parallel. The first
// failure cancels the remaining files.
func (r *Runner) runFiles(ctx context.Context, logger *slog.Logger, task Task, result *models.TaskResult) error {
	files, err := r.Collect(task.Sources)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		logger.Info("no files matched", "sources", task.Sources)
		return nil
	}

	dest, err := r.resolveDir(task.Dest)
	if err != nil {
		return &TaskError{Path: task.Dest, Type: models.ErrFilesystemFailed, Err: err}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, f := range files {
		g.Go(func() error {
			res, err := r.processFile(gctx, task, dest, f)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrSkip):
				result.Skipped++
				logger.Debug("skipped file", "path", f.SourcePath())
				return nil
			case err != nil:
				return err
			}
			result.Files = append(result.Files, res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Output < result.Files[j].Output
	})
	return nil
}

// processFile reads one file, folds it through the steps and writes the result.
func (r *Runner) processFile(ctx context.Context, task Task, dest string, f models.File) (models.FileResult, error) {
	var res models.FileResult
	src := f.SourcePath()

	data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(src)))
	if err != nil {
		return res, &TaskError{Path: src, Type: models.ErrFilesystemFailed, Err: fmt.Errorf("reading source: %w", err)}
	}
	f.Contents = data
	f.OriginalContents = data

	for _, step := range task.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		f, err = step.Apply(ctx, f)
		if errors.Is(err, ErrSkip) {
			return res, ErrSkip
		}
		if err != nil {
			return res, &TaskError{Step: step.Name(), Path: src, Type: models.ErrTransformFailed, Err: err}
		}
	}

	out := filepath.Join(dest, filepath.FromSlash(f.Path))
	if err := writeFile(out, f.Contents); err != nil {
		return res, &TaskError{Path: src, Type: models.ErrFilesystemFailed, Err: err}
	}

	res = models.FileResult{
		Source:   src,
		Output:   r.relative(out),
		BytesIn:  int64(len(data)),
		BytesOut: int64(len(f.Contents)),
	}

	if f.SourceMap != nil && f.MapPath != "" {
		mapData, err := f.SourceMap.Marshal()
		if err != nil {
			return res, &TaskError{Path: src, Type: models.ErrTransformFailed, Err: fmt.Errorf("encoding source map: %w", err)}
		}
		mapOut := filepath.Join(dest, filepath.FromSlash(f.MapPath))
		if err := writeFile(mapOut, mapData); err != nil {
			return res, &TaskError{Path: src, Type: models.ErrFilesystemFailed, Err: err}
		}
		res.SourceMap = r.relative(mapOut)
	}

	return res, nil
}

func writeFile(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func (r *Runner) relative(abs string) string {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

// Collect enumerates the regular files selected by the patterns, sorted by
// path. Missing base directories select nothing.
func (r *Runner) Collect(sources []string) ([]models.File, error) {
	set, err := pattern.CompileSet(sources)
	if err != nil {
		return nil, &TaskError{Type: models.ErrInvalidPattern, Err: err}
	}

	seen := make(map[string]bool)
	var files []models.File

	for _, p := range set.Positive() {
		matches, err := r.walk(p)
		if err != nil {
			return nil, &TaskError{Path: p.Base, Type: models.ErrFilesystemFailed, Err: err}
		}

		for _, rel := range matches {
			if seen[rel] || set.Match(rel) == nil {
				continue
			}
			seen[rel] = true

			relPath := p.Rel(rel)
			files = append(files, models.File{
				Base:         p.Base,
				Path:         relPath,
				OriginalPath: relPath,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].SourcePath() < files[j].SourcePath()
	})
	return files, nil
}

// walk lists root-relative paths under the pattern's base that it matches,
// descending no deeper than the pattern allows.
func (r *Runner) walk(p *pattern.Pattern) ([]string, error) {
	base := filepath.Join(r.root, filepath.FromSlash(p.Base))

	info, err := os.Stat(base)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var matches []string
	err = filepath.WalkDir(base, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relToBase, err := filepath.Rel(base, name)
		if err != nil {
			return err
		}
		if relToBase == "." {
			return nil
		}
		depth := strings.Count(filepath.ToSlash(relToBase), "/") + 1

		if d.IsDir() {
			if !p.Recursive() && depth >= p.Depth {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel := path.Join(p.Base, filepath.ToSlash(relToBase))
		if p.Match(rel) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", p.Base, err)
	}
	return matches, nil
}
