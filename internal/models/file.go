package models

import "path"

// File is a single record flowing through a task's step chain.
type File struct {
	Base     string // directory Path is relative to, slash-separated and relative to the project root
	Path     string // slash-separated path relative to Base; rename steps rewrite it
	Contents []byte

	// OriginalPath and OriginalContents are what was read from disk. Steps
	// that emit source maps point back at them.
	OriginalPath     string
	OriginalContents []byte

	SourceMap *SourceMap
	MapPath   string // relative to the destination; empty means the map is not written
}

// Ext returns the extension of the current path, including the dot.
func (f File) Ext() string {
	return path.Ext(f.Path)
}

// SourcePath returns the original path relative to the project root.
func (f File) SourcePath() string {
	return path.Join(f.Base, f.OriginalPath)
}
