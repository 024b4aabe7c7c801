package steps

import (
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	"github.com/spachava753/assetflow/internal/models"
)

// MinifyHTML collapses insignificant whitespace. Comments, quotes, optional
// tags and default attribute values are kept so the markup is otherwise
// unchanged.
type MinifyHTML struct {
	m *minify.M
}

// NewMinifyHTML creates the HTML step.
func NewMinifyHTML() *MinifyHTML {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepComments:        true,
		KeepDefaultAttrVals: true,
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
	})
	return &MinifyHTML{m: m}
}

func (h *MinifyHTML) Name() string { return "htmlmin" }

func (h *MinifyHTML) Apply(_ context.Context, f models.File) (models.File, error) {
	out, err := h.m.Bytes("text/html", f.Contents)
	if err != nil {
		return f, err
	}
	f.Contents = out
	return f, nil
}
