package steps

import (
	"context"
	"fmt"

	"github.com/dchest/cssmin"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/spachava753/assetflow/internal/models"
)

// Autoprefix adds the vendor-prefixed declarations Engines need without
// minifying. It runs ahead of minifiers that cannot prefix themselves.
type Autoprefix struct {
	Engines []api.Engine
}

func (a Autoprefix) Name() string { return "autoprefixer" }

func (a Autoprefix) Apply(_ context.Context, f models.File) (models.File, error) {
	code, sm, err := transform(f, api.TransformOptions{
		Loader:  api.LoaderCSS,
		Engines: a.Engines,
	})
	if err != nil {
		return f, err
	}
	f.Contents = code
	f.SourceMap = sm
	return f, nil
}

// MinifyCSS minifies a stylesheet and attaches a source map. The esbuild
// backend also prefixes for Engines in the same pass.
type MinifyCSS struct {
	Minifier models.CSSMinifier
	Engines  []api.Engine
}

func (m MinifyCSS) Name() string { return "cssnano" }

func (m MinifyCSS) Apply(_ context.Context, f models.File) (models.File, error) {
	switch m.Minifier {
	case models.CSSMinifierCSSMin:
		// cssmin does not track positions; the map only carries the source.
		sm := &models.SourceMap{Version: 3, Names: []string{}}
		sm.SetSource(f.OriginalPath, f.OriginalContents)
		f.Contents = cssmin.Minify(f.Contents)
		f.SourceMap = sm
		return f, nil

	case models.CSSMinifierEsbuild, "":
		code, sm, err := transform(f, api.TransformOptions{
			Loader:           api.LoaderCSS,
			Engines:          m.Engines,
			MinifyWhitespace: true,
			MinifySyntax:     true,
		})
		if err != nil {
			return f, err
		}
		f.Contents = code
		f.SourceMap = sm
		return f, nil

	default:
		return f, fmt.Errorf("unknown css minifier %q", m.Minifier)
	}
}
