// Package registry keeps the coordinate transformers of the scenes a process works with.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/golang/glog"

	"github.com/ecopia-map/geo_transformer/internal/transformer"
)

var (
	ErrNotFound          = errors.New("coordinate transformer not found")
	ErrAlreadyRegistered = errors.New("coordinate transformer already registered")
)

type Registry struct {
	mu     sync.RWMutex
	scenes map[string]*transformer.CoordinateTransformer
}

func New() *Registry {
	return &Registry{scenes: make(map[string]*transformer.CoordinateTransformer)}
}

// Registers the transformer of a scene. The first registration wins, later ones fail with
// ErrAlreadyRegistered and leave the registered transformer in place.
func (r *Registry) Register(scene string, t *transformer.CoordinateTransformer) error {
	if t == nil {
		return fmt.Errorf("register scene %q: nil transformer", scene)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.scenes[scene]; ok {
		if existing != t {
			glog.Warningf("scene %q already uses %s, ignoring %s", scene, existing, t)
		}
		return fmt.Errorf("%w: scene %q", ErrAlreadyRegistered, scene)
	}
	r.scenes[scene] = t
	return nil
}

func (r *Registry) Get(scene string) (*transformer.CoordinateTransformer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.scenes[scene]
	if !ok {
		return nil, fmt.Errorf("%w: no transformer registered for scene %q", ErrNotFound, scene)
	}
	return t, nil
}

func (r *Registry) Unregister(scene string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scenes, scene)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.scenes))
	for name := range r.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
