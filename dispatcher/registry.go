// Package dispatcher routes a request to the registered backend adapter and
// turns anything the adapter or registry lookup raises into a single
// terminal error delta, so no exception ever escapes past the RPC boundary.
package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"goa.design/goa-ai/model"
)

// Adapter streams one Request through a provider, forwarding every delta to
// emit and returning only once the stream has been fully driven. Adapters
// are themselves responsible for wrapping their upstream calls in a
// retry.Guard; Dispatch only shields against anything that still escapes.
type Adapter interface {
	Stream(ctx context.Context, req model.Request, emit func(model.Delta) error) error
}

// Registry is a one-shot-registration, concurrent-read name-to-adapter map.
// Registration happens at process start; Get is called once per request.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register associates backend with adapter. Registering the same backend
// twice replaces the previous adapter; callers are expected to register all
// backends once at startup before serving traffic.
func (r *Registry) Register(backend string, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[backend] = adapter
}

// Get looks up the adapter for backend. The error message lists every
// registered backend name so a caller sees what is available.
func (r *Registry) Get(backend string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[backend]
	if !ok {
		names := make([]string, 0, len(r.adapters))
		for name := range r.adapters {
			names = append(names, name)
		}
		sort.Strings(names)
		available := strings.Join(names, ", ")
		if available == "" {
			available = "(none)"
		}
		return nil, fmt.Errorf("no provider registered for backend %q; available backends: %s", backend, available)
	}
	return adapter, nil
}
