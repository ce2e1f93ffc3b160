package site

import (
	"sort"

	"github.com/rotisserie/eris"
)

// registry is the closed set of configured sources, keyed by name.
// Populated at init by the per-site files; immutable afterward.
var registry = map[string]Config{}

func register(cfg Config) {
	if _, dup := registry[cfg.Name]; dup {
		panic("site: duplicate registration for " + cfg.Name)
	}
	registry[cfg.Name] = cfg
}

// Lookup returns the config for a source name.
func Lookup(name string) (Config, error) {
	cfg, ok := registry[name]
	if !ok {
		return Config{}, eris.Errorf("site: unknown source %q", name)
	}
	return cfg, nil
}

// Names lists registered source names in stable order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
