package codec

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnavailable is returned when no backend is registered under a name.
var ErrUnavailable = errors.New("codec backend unavailable")

// Opener creates a Context for a run.
type Opener func(Settings) (Context, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Opener{}
)

// Register makes a backend available under name. It is meant to be called
// from an init function; registering the same name twice panics.
func Register(name string, open Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if open == nil {
		panic("codec: Register opener is nil")
	}
	if _, dup := registry[name]; dup {
		panic("codec: Register called twice for " + name)
	}
	registry[name] = open
}

// Open creates a Context from the named backend.
func Open(name string, settings Settings) (Context, error) {
	registryMu.RLock()
	open, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q is not compiled in (available: %v)", ErrUnavailable, name, Backends())
	}
	ctx, err := open(settings)
	if err != nil {
		return nil, fmt.Errorf("open %s codec: %w", name, err)
	}
	return ctx, nil
}

// Backends lists registered backend names in sorted order.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
