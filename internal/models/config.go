package models

// CSSMinifier selects the backend used by the minify-css task.
type CSSMinifier string

const (
	CSSMinifierEsbuild CSSMinifier = "esbuild"
	CSSMinifierCSSMin  CSSMinifier = "cssmin"
)

// PipelineConfig represents the parsed assetflow.yaml / assetflow.toml configuration.
type PipelineConfig struct {
	Root        string       `yaml:"root" toml:"root" json:"root"`
	Concurrency int          `yaml:"concurrency" toml:"concurrency" json:"concurrency"`
	LogLevel    string       `yaml:"log_level,omitempty" toml:"log_level" json:"log_level,omitempty"`
	Clean       []string     `yaml:"clean" toml:"clean" json:"clean"`
	HTML        HTMLConfig   `yaml:"html" toml:"html" json:"html"`
	CSS         CSSConfig    `yaml:"css" toml:"css" json:"css"`
	JS          JSConfig     `yaml:"js" toml:"js" json:"js"`
	Images      ImagesConfig `yaml:"images" toml:"images" json:"images"`
}

type HTMLConfig struct {
	Src     []string `yaml:"src" toml:"src" json:"src"`
	Exclude []string `yaml:"exclude" toml:"exclude" json:"exclude"`
	Dest    string   `yaml:"dest" toml:"dest" json:"dest"`
	Suffix  string   `yaml:"suffix" toml:"suffix" json:"suffix"`
}

type CSSConfig struct {
	Src      []string    `yaml:"src" toml:"src" json:"src"`
	Dest     string      `yaml:"dest" toml:"dest" json:"dest"`
	Suffix   string      `yaml:"suffix" toml:"suffix" json:"suffix"`
	Minifier CSSMinifier `yaml:"minifier" toml:"minifier" json:"minifier"`

	// Targets are the browsers vendor prefixes are added for, e.g. "safari11".
	Targets []string `yaml:"targets" toml:"targets" json:"targets"`
}

// JSConfig has no suffix: minified scripts keep their source names.
type JSConfig struct {
	Src       []string `yaml:"src" toml:"src" json:"src"`
	Dest      string   `yaml:"dest" toml:"dest" json:"dest"`
	KeepNames bool     `yaml:"keep_names" toml:"keep_names" json:"keep_names"`
}

type ImagesConfig struct {
	Src         []string `yaml:"src" toml:"src" json:"src"`
	Dest        string   `yaml:"dest" toml:"dest" json:"dest"`
	JPEGQuality int      `yaml:"jpeg_quality" toml:"jpeg_quality" json:"jpeg_quality"`
}
