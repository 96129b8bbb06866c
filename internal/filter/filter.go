package filter

import (
	"path"
	"strings"

	"github.com/samber/lo"

	"github.com/yourorg/botapigen/internal/config"
	"github.com/yourorg/botapigen/pkg/types"
)

// FilterConfig is an alias of config.FilterConfig.
type FilterConfig = config.FilterConfig

// Apply keeps the catalogue entries whose names match an include pattern (all
// of them when there is none) and no exclude pattern. Patterns use path.Match
// syntax, e.g. "send*" or "Input*". Order is preserved.
func Apply(cat types.Catalogue, cfg FilterConfig) types.Catalogue {
	keep := func(name string) bool {
		if len(cfg.Include) > 0 && !matchesAny(name, cfg.Include) {
			return false
		}
		return !matchesAny(name, cfg.Exclude)
	}
	return types.Catalogue{
		Types:   lo.Filter(cat.Types, func(t types.TypeSpec, _ int) bool { return keep(t.Name) }),
		Methods: lo.Filter(cat.Methods, func(m types.MethodSpec, _ int) bool { return keep(m.Name) }),
	}
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
