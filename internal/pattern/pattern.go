// Package pattern compiles the glob patterns used for task sources, exclusions
// and watch bindings.
//
// Patterns are slash-separated and relative to the project root. A leading
// "!" negates a pattern. The static prefix of a pattern (every leading
// segment without glob syntax) is its base: enumeration starts there and
// output paths are taken relative to it.
package pattern

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is a compiled glob.
type Pattern struct {
	Raw     string
	Negated bool

	// Base is the static directory prefix, "." when the pattern starts with
	// glob syntax.
	Base string

	// Depth is how many segments below Base the pattern can match, or -1
	// when it contains "**".
	Depth int

	expr string
	g    glob.Glob
}

// Compile parses a pattern.
func Compile(raw string) (*Pattern, error) {
	expr := strings.TrimSpace(raw)
	negated := strings.HasPrefix(expr, "!")
	expr = strings.TrimPrefix(expr, "!")
	expr = Clean(expr)

	if expr == "." || expr == "" {
		return nil, fmt.Errorf("empty pattern %q", raw)
	}
	if strings.HasPrefix(expr, "../") || expr == ".." {
		return nil, fmt.Errorf("pattern %q escapes the project root", raw)
	}

	g, err := glob.Compile(expr, '/')
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", raw, err)
	}

	base, rest := split(expr)
	depth := strings.Count(rest, "/") + 1
	if strings.Contains(rest, "**") {
		depth = -1
	}

	return &Pattern{
		Raw:     raw,
		Negated: negated,
		Base:    base,
		Depth:   depth,
		expr:    expr,
		g:       g,
	}, nil
}

// MustCompile is Compile for patterns known at build time.
func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// CompileAll compiles a list of patterns.
func CompileAll(raws []string) ([]*Pattern, error) {
	out := make([]*Pattern, 0, len(raws))
	for _, raw := range raws {
		p, err := Compile(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Match reports whether a slash-separated path relative to the project root
// matches the pattern, ignoring negation.
func (p *Pattern) Match(rel string) bool {
	return p.g.Match(Clean(rel))
}

// Rel returns rel relative to the pattern's base.
func (p *Pattern) Rel(rel string) string {
	rel = Clean(rel)
	if p.Base == "." {
		return rel
	}
	return strings.TrimPrefix(rel, p.Base+"/")
}

// Recursive reports whether the pattern can match at any depth.
func (p *Pattern) Recursive() bool {
	return p.Depth < 0
}

func (p *Pattern) String() string {
	return p.Raw
}

// Clean normalizes a slash-separated relative path: "./" prefixes and
// duplicate separators are dropped.
func Clean(rel string) string {
	rel = strings.ReplaceAll(rel, "\\", "/")
	for strings.HasPrefix(rel, "./") {
		rel = strings.TrimPrefix(rel, "./")
	}
	if rel == "" {
		return "."
	}
	return path.Clean(rel)
}

// split separates the static prefix from the glob part. A pattern without
// glob syntax is a literal file whose base is its directory.
func split(expr string) (base, rest string) {
	segments := strings.Split(expr, "/")
	i := 0
	for i < len(segments) && !hasMeta(segments[i]) {
		i++
	}
	if i == len(segments) {
		i = len(segments) - 1
	}
	if i == 0 {
		return ".", expr
	}
	return strings.Join(segments[:i], "/"), strings.Join(segments[i:], "/")
}

func hasMeta(segment string) bool {
	return strings.ContainsAny(segment, `*?[]{}\`)
}

// Set is an ordered list of patterns where negated entries exclude paths
// matched by earlier positive ones.
type Set []*Pattern

// CompileSet compiles patterns into a Set.
func CompileSet(raws []string) (Set, error) {
	ps, err := CompileAll(raws)
	if err != nil {
		return nil, err
	}
	return Set(ps), nil
}

// Match returns the positive pattern that selects rel, or nil.
func (s Set) Match(rel string) *Pattern {
	var selected *Pattern
	for _, p := range s {
		if !p.Match(rel) {
			continue
		}
		if p.Negated {
			selected = nil
		} else if selected == nil {
			selected = p
		}
	}
	return selected
}

// Positive returns the non-negated patterns.
func (s Set) Positive() []*Pattern {
	var out []*Pattern
	for _, p := range s {
		if !p.Negated {
			out = append(out, p)
		}
	}
	return out
}
