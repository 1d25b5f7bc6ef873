package commands

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Registry resolves command names and aliases.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Command
	aliasOf map[string]string // alias to primary name
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]Command),
		aliasOf: make(map[string]string),
	}
}

// Register adds c under its name and aliases. A name that is empty, starts
// with "-", contains whitespace or is already taken is an error, and nothing
// is registered.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	for _, n := range names(c) {
		switch {
		case n == "" || strings.HasPrefix(n, "-") || strings.ContainsAny(n, " \t\n"):
			return fmt.Errorf("command %q: invalid name %q", c.Name(), n)
		case seen[n] || r.taken(n):
			return fmt.Errorf("command %q: name %q already in use", c.Name(), n)
		}
		seen[n] = true
	}

	r.byName[c.Name()] = c
	for _, a := range c.Aliases() {
		r.aliasOf[a] = c.Name()
	}
	return nil
}

func (r *Registry) taken(n string) bool {
	if _, ok := r.byName[n]; ok {
		return true
	}
	_, ok := r.aliasOf[n]
	return ok
}

// Find returns the command registered under name, which may be an alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if primary, ok := r.aliasOf[name]; ok {
		name = primary
	}
	c, ok := r.byName[name]
	return c, ok
}

// All returns each command once, ordered by primary name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Command, 0, len(r.byName))
	for _, n := range slices.Sorted(maps.Keys(r.byName)) {
		out = append(out, r.byName[n])
	}
	return out
}

// DefaultRegistry holds every famcal command; each command file registers
// itself from init.
var DefaultRegistry = NewRegistry()

// Register adds c to DefaultRegistry and panics on a name clash.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
