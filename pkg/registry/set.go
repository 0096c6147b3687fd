package registry

import "sync"

// Set keeps every published registry version so conversations stay pinned
// to the version they started with.
type Set struct {
	mu       sync.RWMutex
	current  *Registry
	versions map[string]*Registry
}

// NewSet starts a set with an initial registry.
func NewSet(initial *Registry) *Set {
	return &Set{
		current:  initial,
		versions: map[string]*Registry{initial.Version(): initial},
	}
}

// Current returns the registry used for new conversations.
func (s *Set) Current() *Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Get returns the registry for a version, falling back to Current for
// unknown or empty versions.
func (s *Set) Get(version string) *Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.versions[version]; ok {
		return r
	}
	return s.current
}

// Publish makes r the registry for new conversations.
func (s *Set) Publish(r *Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[r.Version()] = r
	s.current = r
}

// Override applies overrides to the current registry and publishes the result.
func (s *Set) Override(o Overrides) (*Registry, error) {
	next, err := s.Current().Apply(o)
	if err != nil {
		return nil, err
	}
	s.Publish(next)
	return next, nil
}
