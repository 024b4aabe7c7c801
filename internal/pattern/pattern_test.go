package pattern_test

import (
	"testing"

	"github.com/spachava753/assetflow/internal/pattern"
)

func TestCompileBase(t *testing.T) {
	tests := []struct {
		raw       string
		wantBase  string
		wantDepth int
	}{
		{raw: "*.html", wantBase: ".", wantDepth: 1},
		{raw: "./*.html", wantBase: ".", wantDepth: 1},
		{raw: "css/src/*.css", wantBase: "css/src", wantDepth: 1},
		{raw: "./javascript/src/*.js", wantBase: "javascript/src", wantDepth: 1},
		{raw: "images/*", wantBase: "images", wantDepth: 1},
		{raw: "assets/**/*.png", wantBase: "assets", wantDepth: -1},
		{raw: "src/*/main.js", wantBase: "src", wantDepth: 2},
		{raw: "index.html", wantBase: ".", wantDepth: 1},
		{raw: "css/src/style.css", wantBase: "css/src", wantDepth: 1},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			p, err := pattern.Compile(tt.raw)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.raw, err)
			}
			if p.Base != tt.wantBase {
				t.Errorf("base: expected %q, got %q", tt.wantBase, p.Base)
			}
			if p.Depth != tt.wantDepth {
				t.Errorf("depth: expected %d, got %d", tt.wantDepth, p.Depth)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		raw  string
		rel  string
		want bool
	}{
		{raw: "*.html", rel: "about.html", want: true},
		{raw: "*.html", rel: "./about.html", want: true},
		{raw: "*.html", rel: "pages/about.html", want: false},
		{raw: "images/*", rel: "images/logo.png", want: true},
		{raw: "images/*", rel: "images/dist/logo.png", want: false},
		{raw: "css/src/*.css", rel: "css/src/style.css", want: true},
		{raw: "css/src/*.css", rel: "css/src/style.scss", want: false},
		{raw: "*.{png,jpg}", rel: "photo.jpg", want: true},
		{raw: "!index.html", rel: "index.html", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw+" "+tt.rel, func(t *testing.T) {
			p := pattern.MustCompile(tt.raw)
			if got := p.Match(tt.rel); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestRel(t *testing.T) {
	p := pattern.MustCompile("css/src/*.css")
	if got := p.Rel("css/src/style.css"); got != "style.css" {
		t.Errorf("expected style.css, got %s", got)
	}

	root := pattern.MustCompile("*.html")
	if got := root.Rel("./about.html"); got != "about.html" {
		t.Errorf("expected about.html, got %s", got)
	}
}

func TestCompileRejects(t *testing.T) {
	for _, raw := range []string{"", "./", "../outside/*.css"} {
		if _, err := pattern.Compile(raw); err == nil {
			t.Errorf("expected error compiling %q", raw)
		}
	}
}

func TestSetNegation(t *testing.T) {
	set, err := pattern.CompileSet([]string{"*.html", "!index.html"})
	if err != nil {
		t.Fatalf("CompileSet: %v", err)
	}

	if set.Match("about.html") == nil {
		t.Error("expected about.html to be selected")
	}
	if set.Match("index.html") != nil {
		t.Error("expected index.html to be excluded")
	}
	if len(set.Positive()) != 1 {
		t.Errorf("expected 1 positive pattern, got %d", len(set.Positive()))
	}
}
