package steps

import (
	"context"

	"github.com/spachava753/assetflow/internal/models"
	"github.com/spachava753/assetflow/internal/pattern"
	"github.com/spachava753/assetflow/internal/pipeline"
)

// Exclude drops files whose path relative to their base matches any pattern.
type Exclude struct {
	patterns []*pattern.Pattern
}

// NewExclude compiles the exclusion patterns.
func NewExclude(patterns []string) (*Exclude, error) {
	ps, err := pattern.CompileAll(patterns)
	if err != nil {
		return nil, err
	}
	return &Exclude{patterns: ps}, nil
}

func (e *Exclude) Name() string { return "exclude" }

func (e *Exclude) Apply(_ context.Context, f models.File) (models.File, error) {
	for _, p := range e.patterns {
		if p.Match(f.Path) {
			return f, pipeline.ErrSkip
		}
	}
	return f, nil
}
