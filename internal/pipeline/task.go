package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/spachava753/assetflow/internal/models"
)

// Step is one stage of a task's chain. Apply must not modify the contents
// slice of its input; it returns a new record instead.
type Step interface {
	Name() string
	Apply(ctx context.Context, f models.File) (models.File, error)
}

// StepFunc adapts a function to the Step interface.
type StepFunc struct {
	StepName string
	Fn       func(ctx context.Context, f models.File) (models.File, error)
}

func (s StepFunc) Name() string { return s.StepName }

func (s StepFunc) Apply(ctx context.Context, f models.File) (models.File, error) {
	return s.Fn(ctx, f)
}

// Task transforms the files matched by Sources and writes them under Dest.
type Task struct {
	Name    string
	Usage   string
	Sources []string // glob patterns relative to the project root; "!" excludes
	Steps   []Step
	Dest    string // relative to the project root
}

// ActionFunc is the body of a task that does not transform files.
type ActionFunc func(ctx context.Context, r *Runner) error

// Definition is a registered task. Exactly one of Task, Series, Parallel
// or Action is set.
type Definition struct {
	Name     string
	Usage    string
	Task     *Task
	Series   []string
	Parallel []string
	Action   ActionFunc
}

// Registry holds task definitions by name. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Define registers a file task.
func (r *Registry) Define(t Task) {
	task := t
	r.register(Definition{Name: t.Name, Usage: t.Usage, Task: &task})
}

// DefineSeries registers a task that runs other tasks in order.
func (r *Registry) DefineSeries(name, usage string, names ...string) {
	r.register(Definition{Name: name, Usage: usage, Series: append([]string{}, names...)})
}

// DefineParallel registers a task that runs other tasks concurrently.
func (r *Registry) DefineParallel(name, usage string, names ...string) {
	r.register(Definition{Name: name, Usage: usage, Parallel: append([]string{}, names...)})
}

// DefineFunc registers a task backed by a function.
func (r *Registry) DefineFunc(name, usage string, fn ActionFunc) {
	r.register(Definition{Name: name, Usage: usage, Action: fn})
}

// register is last-write-wins: a second definition under the same name
// replaces the first and keeps its position in Names.
func (r *Registry) register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		slog.Warn("task redefined, replacing previous definition", "task", def.Name)
	} else {
		r.order = append(r.order, def.Name)
	}
	r.defs[def.Name] = def
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names returns task names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
