package steps

import (
	"context"
	"path"
	"strings"

	"github.com/spachava753/assetflow/internal/models"
)

// Rename inserts Suffix before the file extension: "about.html" with suffix
// ".min" becomes "about.min.html".
type Rename struct {
	Suffix string
}

func (r Rename) Name() string { return "rename" }

func (r Rename) Apply(_ context.Context, f models.File) (models.File, error) {
	f.Path = AddSuffix(f.Path, r.Suffix)
	return f, nil
}

// AddSuffix inserts suffix between a path's stem and its extension.
func AddSuffix(p, suffix string) string {
	if suffix == "" {
		return p
	}
	ext := path.Ext(p)
	return strings.TrimSuffix(p, ext) + suffix + ext
}
