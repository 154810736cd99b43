package playground

import (
	"sort"
	"sync"

	"github.com/samber/mo"
	"github.com/themetester/themetester/vfs"
)

// Mounts maps schemes to the providers serving them.
type Mounts struct {
	mu        sync.RWMutex
	providers map[string]*vfs.Provider
}

// NewMounts returns an empty table.
func NewMounts() *Mounts {
	return &Mounts{providers: make(map[string]*vfs.Provider)}
}

// Register mounts provider under its scheme, replacing any earlier provider.
// The returned func unmounts it unless it was replaced in the meantime.
func (m *Mounts) Register(provider *vfs.Provider) (unregister func()) {
	scheme := provider.Scheme()

	m.mu.Lock()
	m.providers[scheme] = provider
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.providers[scheme] == provider {
			delete(m.providers, scheme)
		}
	}
}

// Get returns the provider mounted under scheme.
func (m *Mounts) Get(scheme string) mo.Option[*vfs.Provider] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if provider, ok := m.providers[scheme]; ok {
		return mo.Some(provider)
	}
	return mo.None[*vfs.Provider]()
}

// Schemes lists the mounted schemes in order.
func (m *Mounts) Schemes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	schemes := make([]string, 0, len(m.providers))
	for scheme := range m.providers {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}
