package steps

import (
	"context"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/spachava753/assetflow/internal/models"
)

// MinifyJS minifies and mangles one script. Files are never concatenated.
type MinifyJS struct {
	KeepNames bool
}

func (m MinifyJS) Name() string { return "uglify" }

func (m MinifyJS) Apply(_ context.Context, f models.File) (models.File, error) {
	code, sm, err := transform(f, api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		KeepNames:         m.KeepNames,
	})
	if err != nil {
		return f, err
	}
	f.Contents = code
	f.SourceMap = sm
	return f, nil
}
