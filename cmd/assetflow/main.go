package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/goyek/goyek/v2"
	"github.com/goyek/goyek/v2/middleware"

	"github.com/spachava753/assetflow/internal/assets"
	"github.com/spachava753/assetflow/internal/config"
	"github.com/spachava753/assetflow/internal/models"
	"github.com/spachava753/assetflow/internal/pipeline"
	"github.com/spachava753/assetflow/internal/util"
)

type options struct {
	Dir        string
	DirSet     bool
	ConfigPath string
	ReportPath string
	Verbose    bool
	List       bool
	Tasks      []string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	reg := pipeline.NewRegistry()
	if err := assets.Register(reg, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	runner, err := pipeline.NewRunner(reg, cfg.Root, pipeline.WithConcurrency(cfg.Concurrency))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	report := &models.RunReport{Root: runner.Root(), StartedAt: time.Now()}
	flow := newFlow(runner, report)

	if opts.List {
		flow.Print()
		return 0
	}

	tasks := opts.Tasks
	if len(tasks) == 0 {
		tasks = []string{assets.TaskDefault}
	}
	for _, name := range tasks {
		if _, ok := reg.Lookup(name); !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown task %q (known: %s)\n", name, strings.Join(reg.Names(), ", "))
			return 2
		}
	}

	// Setup context with manual signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	defer func() {
		signal.Stop(sigChan)
		cancel()
	}()

	go func() {
		sig, ok := <-sigChan
		if !ok {
			return
		}
		slog.Info("interrupt received, shutting down gracefully...", "signal", sig)
		cancel()
	}()

	execErr := flow.Execute(ctx, tasks)

	report.EndedAt = time.Now()
	report.TotalDurationSec = report.EndedAt.Sub(report.StartedAt).Seconds()
	report.Succeeded = !failed(report.Tasks)

	printSummary(os.Stdout, report)

	if opts.ReportPath != "" {
		if err := writeReport(opts.ReportPath, report); err != nil {
			slog.Error("writing report", "path", opts.ReportPath, "error", err)
			return 1
		}
	}

	if execErr != nil {
		// Watch stops on interrupt without failing.
		if ctx.Err() != nil && report.Succeeded {
			return 0
		}
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.Dir, "C", ".", "Project root directory (overrides root in the -config file)")
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to assetflow.yaml or assetflow.toml (default: looked up in the project root)")
	flag.BoolVar(&opts.Verbose, "v", false, "Enable debug logging")
	flag.StringVar(&opts.ReportPath, "report", "", "Write a JSON run report to this path")
	flag.BoolVar(&opts.List, "list", false, "List tasks and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "assetflow - front-end asset pipeline\n\n")
		fmt.Fprintf(os.Stderr, "Usage: assetflow [options] [task...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  assetflow                   Clean and build every asset\n")
		fmt.Fprintf(os.Stderr, "  assetflow minify-css        Rebuild stylesheets only\n")
		fmt.Fprintf(os.Stderr, "  assetflow -C site watch     Rebuild on change in ./site\n")
	}

	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "C" {
			opts.DirSet = true
		}
	})
	opts.Tasks = flag.Args()
	return opts
}

// loadConfig reads -config, else a config file found in -C, else defaults
// rooted at -C. An explicit -C wins over the root of a -config file.
func loadConfig(opts options) (models.PipelineConfig, error) {
	if opts.ConfigPath != "" {
		cfg, err := config.LoadPipelineConfig(opts.ConfigPath)
		if err != nil {
			return cfg, err
		}
		if opts.DirSet {
			cfg.Root = opts.Dir
		}
		return cfg, nil
	}

	found, ok := config.FindPipelineConfig(opts.Dir)
	if !ok {
		cfg := config.DefaultPipelineConfig()
		cfg.Root = opts.Dir
		return cfg, nil
	}
	return config.LoadPipelineConfig(found)
}

// newFlow exposes every registered task through goyek. Each action
// delegates to the runner and records its result in report.
func newFlow(runner *pipeline.Runner, report *models.RunReport) *goyek.Flow {
	var mu sync.Mutex

	flow := &goyek.Flow{}
	flow.SetOutput(os.Stdout)
	flow.Use(middleware.ReportStatus)

	for _, name := range runner.Registry().Names() {
		def, _ := runner.Registry().Lookup(name)
		flow.Define(goyek.Task{
			Name:  name,
			Usage: def.Usage,
			Action: func(a *goyek.A) {
				res, err := runner.Run(a.Context(), name)
				if res != nil {
					mu.Lock()
					report.Tasks = append(report.Tasks, res)
					mu.Unlock()
				}
				if err != nil {
					a.Error(err)
				}
			},
		})
	}
	return flow
}

func failed(results []*models.TaskResult) bool {
	for _, r := range results {
		if r.Error != nil || failed(r.Subtasks) {
			return true
		}
	}
	return false
}

func printSummary(w io.Writer, report *models.RunReport) {
	if len(report.Tasks) == 0 {
		return
	}

	fmt.Fprintln(w)
	var printTask func(r *models.TaskResult, indent string)
	printTask = func(r *models.TaskResult, indent string) {
		status := "ok"
		if r.Error != nil {
			status = "FAILED"
		}
		line := fmt.Sprintf("%s%s: %s (%.2fs)", indent, r.Name, status, r.DurationSec)
		if len(r.Files) > 0 {
			in, out := r.BytesIn(), r.BytesOut()
			line += fmt.Sprintf(", %d files, %s -> %s (%.1f%% saved)",
				r.FileCount(), util.FormatSize(in), util.FormatSize(out), util.Savings(in, out))
		}
		if r.Skipped > 0 {
			line += fmt.Sprintf(", %d skipped", r.Skipped)
		}
		fmt.Fprintln(w, line)
		for _, sub := range r.Subtasks {
			printTask(sub, indent+"  ")
		}
	}
	for _, r := range report.Tasks {
		printTask(r, "")
	}
	fmt.Fprintf(w, "Duration: %.2fs\n", report.TotalDurationSec)
}

func writeReport(path string, report *models.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
