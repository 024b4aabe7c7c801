package steps

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// ParseTargets converts browser targets such as "safari11" or "chrome58.1"
// into esbuild engines.
func ParseTargets(targets []string) ([]api.Engine, error) {
	engines := make([]api.Engine, 0, len(targets))
	for _, target := range targets {
		t := strings.ToLower(strings.TrimSpace(target))
		i := strings.IndexAny(t, "0123456789")
		if i <= 0 {
			return nil, fmt.Errorf("invalid css target %q: want a browser name followed by a version", target)
		}

		name, ok := engineNames[t[:i]]
		if !ok {
			return nil, fmt.Errorf("invalid css target %q: unknown browser %q", target, t[:i])
		}
		engines = append(engines, api.Engine{Name: name, Version: t[i:]})
	}
	return engines, nil
}
