// Package registry implements the process-level named caches of
// protocols, message templates, clients, and servers that spec.md §1
// and §9 call out as external collaborators ("re-architect as explicit
// maps owned by the session object; do not reintroduce process-wide
// mutable state"). Cache is bounded the way the teacher bounds its own
// LRU caches (e.g. krd/ssh_agent.go's hostAuthCallbacksBySessionID),
// generalized to golang-lru's generic API.
package registry

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize matches the teacher's own LRU sizing convention.
const DefaultSize = 128

// Cache is a bounded, named store of registry entries (protocols,
// message templates, transport clients/servers), one per builder
// session.
type Cache[T any] struct {
	kind string
	lru  *lru.Cache[string, T]
}

// New builds an empty Cache of the given size, used for error messages
// naming the kind of entry it holds (e.g. "protocol", "client").
func New[T any](kind string, size int) (*Cache[T], error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, T](size)
	if err != nil {
		return nil, fmt.Errorf("registry %s: %w", kind, err)
	}
	return &Cache[T]{kind: kind, lru: c}, nil
}

// Put registers value under name, replacing any existing entry; it never
// fails. Callers that need uniqueness check RequireAbsent first.
func (c *Cache[T]) Put(name string, value T) {
	c.lru.Add(name, value)
}

// Get looks up a previously registered entry.
func (c *Cache[T]) Get(name string) (T, bool) {
	return c.lru.Get(name)
}

// Has reports whether name is currently registered.
func (c *Cache[T]) Has(name string) bool {
	return c.lru.Contains(name)
}

// Remove evicts name, if present.
func (c *Cache[T]) Remove(name string) {
	c.lru.Remove(name)
}

// Keys returns every currently registered name.
func (c *Cache[T]) Keys() []string {
	return c.lru.Keys()
}

// Purge clears every entry, used by Session.Reset.
func (c *Cache[T]) Purge() {
	c.lru.Purge()
}

// RequireAbsent returns ErrDuplicateProtocol-flavored error (wrapped
// with the caller's own sentinel) if name is already registered.
func (c *Cache[T]) RequireAbsent(name string, sentinel error) error {
	if c.Has(name) {
		return fmt.Errorf("registry %s: %q already registered: %w", c.kind, name, sentinel)
	}
	return nil
}
