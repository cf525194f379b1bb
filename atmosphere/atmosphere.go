// Package atmosphere provides the atmospheric density models used by drag terms.
package atmosphere

import (
	"fmt"
	"sort"
	"sync"
	"time"

	smd "github.com/lanan07075/aldev-sub001"
)

// Provider returns the atmospheric density in kg/m^3 at a geodetic position.
// Providers are read only once built and may be shared.
type Provider interface {
	Density(epoch time.Time, g smd.Geodetic) (float64, error)
}

// Factory builds a Provider.
type Factory func() (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"exponential": func() (Provider, error) { return Exponential{}, nil },
	}
)

// Register makes a density model available under the provided name.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New returns the model registered under the provided name.
func New(name string) (Provider, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, smd.NewConfigurationError("atmosphere", "model", "unknown model %q (known: %v)", name, Models())
	}
	return f()
}

// Models returns the registered model names, sorted.
func Models() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Static is a constant density, mostly useful for tests.
type Static float64

// Density implements the Provider interface.
func (s Static) Density(time.Time, smd.Geodetic) (float64, error) {
	return float64(s), nil
}

func (s Static) String() string {
	return fmt.Sprintf("static %g kg/m^3", float64(s))
}
