package scanner

import (
	"fmt"
	"sort"
	"sync"

	"github.com/yourusername/market-lens/internal/models"
)

// Factory builds a fresh scanner instance with default parameters
type Factory func() Scanner

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a scanner factory under name. Registering the same name twice
// is a programming error.
func Register(name string, factory Factory) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf("scanner %q already registered", name)
	}
	registry[name] = factory
	return nil
}

// Get returns a new instance of the named scanner
func Get(name string) (Scanner, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrScannerNotFound, name)
	}
	return factory(), nil
}

// List returns registered scanner names with descriptions, sorted by name
func List() map[string]string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make(map[string]string, len(registry))
	for name, factory := range registry {
		out[name] = factory().Description()
	}
	return out
}

// Names returns registered scanner names sorted for deterministic display
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltins wires up the scanners shipped with the binary. Called once
// at process startup; there is no implicit discovery.
func RegisterBuiltins() {
	_ = Register("entry_point", func() Scanner { return NewEntryPointScanner() })
}
