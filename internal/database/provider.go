package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aakash670/smart-attendance/internal/config"
)

// BackendFactory opens a Store for the given configuration.
type BackendFactory func(ctx context.Context, cfg *config.Config) (Store, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
)

// RegisterBackend registers a Store constructor under name.
// This is called by backend packages from init to avoid import cycles.
func RegisterBackend(name string, factory BackendFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = factory
}

// Backends returns the names of all registered backends.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetStore opens the Store registered under name.
func GetStore(ctx context.Context, name string, cfg *config.Config) (Store, error) {
	backendsMu.RLock()
	factory, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("database backend %q not registered", name)
	}
	store, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", name, err)
	}
	return store, nil
}
