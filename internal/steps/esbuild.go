package steps

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/spachava753/assetflow/internal/models"
)

// fatalWarnings are esbuild warning IDs that mean the input is malformed.
var fatalWarnings = map[string]bool{
	"css-syntax-error": true,
}

// transform runs esbuild over one file and returns the output with an
// external source map pointing at the file's original contents.
func transform(f models.File, opts api.TransformOptions) ([]byte, *models.SourceMap, error) {
	opts.Sourcefile = f.OriginalPath
	opts.Sourcemap = api.SourceMapExternal
	opts.SourcesContent = api.SourcesContentInclude

	res := api.Transform(string(f.Contents), opts)
	if len(res.Errors) > 0 {
		return nil, nil, messagesError(res.Errors)
	}

	// esbuild recovers from malformed CSS with a warning; treat it as fatal.
	var fatal []api.Message
	for _, w := range res.Warnings {
		if fatalWarnings[w.ID] {
			fatal = append(fatal, w)
			continue
		}
		slog.Debug("esbuild warning", "file", f.OriginalPath, "warning", w.Text)
	}
	if len(fatal) > 0 {
		return nil, nil, messagesError(fatal)
	}

	sm := &models.SourceMap{Version: 3, Names: []string{}}
	if len(res.Map) > 0 {
		parsed, err := models.ParseSourceMap(res.Map)
		if err != nil {
			return nil, nil, err
		}
		sm = parsed
	}
	sm.SetSource(f.OriginalPath, f.OriginalContents)

	return res.Code, sm, nil
}

func messagesError(msgs []api.Message) error {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			parts = append(parts, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		parts = append(parts, m.Text)
	}
	return errors.New(strings.Join(parts, "; "))
}
