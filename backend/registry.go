package backend

import (
	"sync"
)

// Factory creates a new backend instance.
type Factory func() GraphicsBackend

// registry holds registered backend factories keyed by graphics API.
var (
	registryMu sync.RWMutex
	backends   = make(map[APIKind]Factory)
)

// Register registers a backend factory for the given graphics API.
// This is called from init() functions in the backend packages.
// Registering the same API twice replaces the previous factory.
func Register(api APIKind, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[api] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(api APIKind) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, api)
}

// IsRegistered checks if a backend for the given API is registered.
func IsRegistered(api APIKind) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[api]
	return ok
}

// New creates a backend for the requested graphics API. The selection is
// made once at startup; the returned backend stays bound to that API for
// its lifetime.
func New(api APIKind) (GraphicsBackend, error) {
	registryMu.RLock()
	factory, ok := backends[api]
	registryMu.RUnlock()

	if !ok || factory == nil {
		return nil, ErrUnsupportedAPI
	}
	b := factory()
	if b == nil {
		return nil, ErrUnsupportedAPI
	}
	return b, nil
}
