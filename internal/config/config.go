package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/spachava753/assetflow/internal/models"
)

// FileNames are the config files looked up in the project root, in order.
var FileNames = []string{"assetflow.yaml", "assetflow.yml", "assetflow.toml"}

// DefaultPipelineConfig returns a PipelineConfig with default values.
func DefaultPipelineConfig() models.PipelineConfig {
	return models.PipelineConfig{
		Root:     ".",
		LogLevel: "info",
		Clean:    []string{"images/dist", "javascript/dist", "css/dist", "dist"},
		HTML: models.HTMLConfig{
			Src:     []string{"*.html"},
			Exclude: []string{"index.html"},
			Dest:    "dist",
			Suffix:  ".min",
		},
		CSS: models.CSSConfig{
			Src:      []string{"css/src/*.css"},
			Dest:     "css/dist",
			Suffix:   ".min",
			Minifier: models.CSSMinifierEsbuild,
			Targets:  []string{"chrome58", "edge16", "firefox57", "safari11", "ios11"},
		},
		JS: models.JSConfig{
			Src:  []string{"javascript/src/*.js"},
			Dest: "javascript/dist",
		},
		Images: models.ImagesConfig{
			Src:         []string{"images/*"},
			Dest:        "images/dist",
			JPEGQuality: 75,
		},
	}
}

// LoadPipelineConfig loads and parses a config file. A relative root is
// resolved against the directory holding the file.
func LoadPipelineConfig(configPath string) (models.PipelineConfig, error) {
	dir, name := filepath.Split(configPath)
	if dir == "" {
		dir = "."
	}

	cfg, err := LoadPipelineConfigFS(os.DirFS(dir), name)
	if err != nil {
		return cfg, err
	}

	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(dir, cfg.Root)
	}
	return cfg, nil
}

// LoadPipelineConfigFS parses the named config file from fsys. The format
// is chosen by extension.
func LoadPipelineConfigFS(fsys fs.FS, name string) (models.PipelineConfig, error) {
	cfg := DefaultPipelineConfig()

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", name, err)
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	case ".toml":
		err = decodeTOML(data, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config format %q", path.Ext(name))
	}
	if err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", name, err)
	}

	applyDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", name, err)
	}
	return cfg, nil
}

// FindPipelineConfig returns the first config file present in root.
func FindPipelineConfig(root string) (string, bool) {
	for _, name := range FileNames {
		p := filepath.Join(root, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

func decodeYAML(data []byte, cfg *models.PipelineConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(data []byte, cfg *models.PipelineConfig) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// applyDefaults fills values the file explicitly zeroed. Lists set to an
// empty list are kept empty; only missing lists fall back.
func applyDefaults(cfg *models.PipelineConfig) {
	def := DefaultPipelineConfig()

	if cfg.Root == "" {
		cfg.Root = def.Root
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Clean == nil {
		cfg.Clean = def.Clean
	}
	if cfg.HTML.Src == nil {
		cfg.HTML.Src = def.HTML.Src
	}
	if cfg.HTML.Dest == "" {
		cfg.HTML.Dest = def.HTML.Dest
	}
	if cfg.CSS.Src == nil {
		cfg.CSS.Src = def.CSS.Src
	}
	if cfg.CSS.Dest == "" {
		cfg.CSS.Dest = def.CSS.Dest
	}
	if cfg.CSS.Targets == nil {
		cfg.CSS.Targets = def.CSS.Targets
	}
	if cfg.CSS.Minifier == "" {
		cfg.CSS.Minifier = def.CSS.Minifier
	}
	if cfg.JS.Src == nil {
		cfg.JS.Src = def.JS.Src
	}
	if cfg.JS.Dest == "" {
		cfg.JS.Dest = def.JS.Dest
	}
	if cfg.Images.Src == nil {
		cfg.Images.Src = def.Images.Src
	}
	if cfg.Images.Dest == "" {
		cfg.Images.Dest = def.Images.Dest
	}
	if cfg.Images.JPEGQuality == 0 {
		cfg.Images.JPEGQuality = def.Images.JPEGQuality
	}
}

// Validate checks values that decoding alone cannot reject.
func Validate(cfg models.PipelineConfig) error {
	if cfg.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", cfg.Concurrency)
	}
	if q := cfg.Images.JPEGQuality; q < 1 || q > 100 {
		return fmt.Errorf("images.jpeg_quality must be between 1 and 100, got %d", q)
	}
	switch cfg.CSS.Minifier {
	case models.CSSMinifierEsbuild, models.CSSMinifierCSSMin:
	default:
		return fmt.Errorf("css.minifier must be %q or %q, got %q",
			models.CSSMinifierEsbuild, models.CSSMinifierCSSMin, cfg.CSS.Minifier)
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	for i, dir := range cfg.Clean {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("clean[%d]: empty directory", i)
		}
	}
	return nil
}

// ParseLogLevel converts a log_level value to a slog level. Empty means info.
func ParseLogLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", level, err)
	}
	return lvl, nil
}
