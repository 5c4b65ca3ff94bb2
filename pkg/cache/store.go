package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidArtifact indicates the artifact is invalid or corrupted
	ErrInvalidArtifact = errors.New("invalid cache artifact")
)

// Store is a key-value cache of artifacts.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the artifact stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (*Artifact, error)

	// Put stores the artifact under key for ttl, replacing any previous value.
	// A ttl <= 0 means the artifact is already stale and is not stored.
	Put(ctx context.Context, key string, artifact *Artifact, ttl time.Duration) error

	// Delete removes the artifact stored under key.
	Delete(ctx context.Context, key string) error
}

// Resource is a named cache resource. Cache returns nil when the resource
// has no usable cache instance (e.g. it has been closed).
type Resource interface {
	Cache() Store
}

// Pinger is implemented by resources that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Registry holds cache resources by name.
type Registry struct {
	mu        sync.RWMutex
	resources map[string]Resource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		resources: make(map[string]Resource),
	}
}

// Register adds or replaces the resource with the given name.
func (r *Registry) Register(name string, resource Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources[name] = resource
}

// Resource looks up a resource by name.
func (r *Registry) Resource(name string) (Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resource, ok := r.resources[name]
	if !ok || resource == nil {
		return nil, false
	}
	return resource, true
}

// Names returns the registered resource names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.resources))
	for name := range r.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ping checks every resource implementing Pinger.
func (r *Registry) Ping(ctx context.Context) error {
	var errs []error
	for _, name := range r.Names() {
		resource, ok := r.Resource(name)
		if !ok {
			continue
		}
		if pinger, ok := resource.(Pinger); ok {
			if err := pinger.Ping(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
