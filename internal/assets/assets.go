// Package assets defines the standard front-end build tasks: cleaning output
// directories, minifying HTML, CSS and JavaScript, optimizing images, the
// default sequence and watch mode.
package assets

import (
	"context"
	"fmt"
	"strings"

	"github.com/spachava753/assetflow/internal/models"
	"github.com/spachava753/assetflow/internal/pattern"
	"github.com/spachava753/assetflow/internal/pipeline"
	"github.com/spachava753/assetflow/internal/steps"
)

// Task names.
const (
	TaskClean          = "clean"
	TaskMinifyHTML     = "minify-html"
	TaskMinifyCSS      = "minify-css"
	TaskMinifyJS       = "minify-js"
	TaskOptimizeImages = "optimize-images"
	TaskWatch          = "watch"
	TaskDefault        = "default"
	TaskBuild          = "build"
)

// DefaultSequence is the order the default task runs the others in.
var DefaultSequence = []string{TaskClean, TaskMinifyHTML, TaskMinifyCSS, TaskMinifyJS, TaskOptimizeImages}

// Register defines every standard task in reg using cfg.
func Register(reg *pipeline.Registry, cfg models.PipelineConfig) error {
	for _, src := range [][]string{cfg.HTML.Src, cfg.CSS.Src, cfg.JS.Src, cfg.Images.Src} {
		if _, err := pattern.CompileSet(src); err != nil {
			return err
		}
	}

	exclude, err := steps.NewExclude(cfg.HTML.Exclude)
	if err != nil {
		return fmt.Errorf("html exclude: %w", err)
	}

	reg.DefineFunc(TaskClean, "Remove generated output directories", func(ctx context.Context, r *pipeline.Runner) error {
		return r.Clean(ctx, cfg.Clean)
	})

	reg.Define(pipeline.Task{
		Name:    TaskMinifyHTML,
		Usage:   "Collapse whitespace in HTML pages",
		Sources: cfg.HTML.Src,
		Steps: []pipeline.Step{
			exclude,
			steps.NewMinifyHTML(),
			steps.Rename{Suffix: cfg.HTML.Suffix},
		},
		Dest: cfg.HTML.Dest,
	})

	engines, err := steps.ParseTargets(cfg.CSS.Targets)
	if err != nil {
		return err
	}

	// esbuild prefixes while minifying; cssmin needs a separate prefix pass.
	var cssSteps []pipeline.Step
	if cfg.CSS.Minifier == models.CSSMinifierCSSMin {
		cssSteps = append(cssSteps, steps.Autoprefix{Engines: engines})
	}
	cssSteps = append(cssSteps,
		steps.MinifyCSS{Minifier: cfg.CSS.Minifier, Engines: engines},
		steps.Rename{Suffix: cfg.CSS.Suffix},
		steps.WriteSourceMap{Dest: cfg.CSS.Dest},
	)

	reg.Define(pipeline.Task{
		Name:    TaskMinifyCSS,
		Usage:   "Prefix and minify stylesheets with source maps",
		Sources: cfg.CSS.Src,
		Steps:   cssSteps,
		Dest:    cfg.CSS.Dest,
	})

	// Scripts keep their names; only stylesheets and pages get a suffix.
	reg.Define(pipeline.Task{
		Name:    TaskMinifyJS,
		Usage:   "Minify and mangle scripts with source maps",
		Sources: cfg.JS.Src,
		Steps: []pipeline.Step{
			steps.MinifyJS{KeepNames: cfg.JS.KeepNames},
			steps.WriteSourceMap{Dest: cfg.JS.Dest},
		},
		Dest: cfg.JS.Dest,
	})

	reg.Define(pipeline.Task{
		Name:    TaskOptimizeImages,
		Usage:   "Losslessly recompress images",
		Sources: cfg.Images.Src,
		Steps: []pipeline.Step{
			steps.NewOptimizeImage(cfg.Images.JPEGQuality),
		},
		Dest: cfg.Images.Dest,
	})

	reg.DefineSeries(TaskDefault, "Clean, then build every asset", DefaultSequence...)
	reg.DefineParallel(TaskBuild, "Build every asset concurrently without cleaning",
		TaskMinifyHTML, TaskMinifyCSS, TaskMinifyJS, TaskOptimizeImages)

	bindings := WatchBindings(cfg)
	reg.DefineFunc(TaskWatch, "Rebuild assets when their sources change", func(ctx context.Context, r *pipeline.Runner) error {
		return r.Watch(ctx, bindings)
	})

	return nil
}

// WatchBindings maps each source pattern to the task that rebuilds it.
// Negated patterns are not watched.
func WatchBindings(cfg models.PipelineConfig) []pipeline.Binding {
	var bindings []pipeline.Binding
	add := func(task string, sources []string) {
		for _, src := range sources {
			if strings.HasPrefix(strings.TrimSpace(src), "!") {
				continue
			}
			bindings = append(bindings, pipeline.Binding{Pattern: src, Task: task})
		}
	}

	add(TaskMinifyHTML, cfg.HTML.Src)
	add(TaskMinifyCSS, cfg.CSS.Src)
	add(TaskMinifyJS, cfg.JS.Src)
	add(TaskOptimizeImages, cfg.Images.Src)
	return bindings
}
