package steps

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spachava753/assetflow/internal/models"
)

// WriteSourceMap schedules the file's source map to be written to Dir
// (relative to the file) and appends a sourceMappingURL comment. Files
// without a map pass through.
type WriteSourceMap struct {
	Dir        string
	SourceRoot string

	// Dest is the task's output directory relative to the project root.
	// When set, SourceRoot is derived per file so the map's sources resolve
	// back to the file's base directory.
	Dest string
}

func (s WriteSourceMap) Name() string { return "sourcemaps" }

func (s WriteSourceMap) Apply(_ context.Context, f models.File) (models.File, error) {
	if f.SourceMap == nil {
		return f, nil
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}

	name := path.Base(f.Path)
	url := path.Join(dir, name+".map")

	sm := *f.SourceMap
	sm.File = name
	sm.SourceRoot = s.SourceRoot
	if s.Dest != "" {
		root, err := relSlash(path.Join(s.Dest, path.Dir(f.Path), dir), f.Base)
		if err != nil {
			return f, err
		}
		sm.SourceRoot = root
	}
	f.SourceMap = &sm
	f.MapPath = path.Join(path.Dir(f.Path), url)

	var comment string
	if strings.EqualFold(f.Ext(), ".css") {
		comment = fmt.Sprintf("/*# sourceMappingURL=%s */\n", url)
	} else {
		comment = fmt.Sprintf("//# sourceMappingURL=%s\n", url)
	}

	body := strings.TrimRight(string(f.Contents), "\n")
	f.Contents = []byte(body + "\n" + comment)
	return f, nil
}

func relSlash(from, to string) (string, error) {
	rel, err := filepath.Rel(filepath.FromSlash(from), filepath.FromSlash(to))
	if err != nil {
		return "", fmt.Errorf("resolving source root: %w", err)
	}
	return filepath.ToSlash(rel), nil
}
