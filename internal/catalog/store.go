package catalog

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Store holds the current catalog. Readers always see a complete catalog:
// a rescan builds a new one and swaps it in, it never edits the active one.
type Store struct {
	roots   Roots
	current atomic.Pointer[Catalog]
	scanMu  sync.Mutex
}

// NewStore scans roots and returns a store holding the result.
func NewStore(roots Roots) (*Store, error) {
	s := &Store{roots: roots}
	if err := s.Rescan(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore wraps an already built catalog. Rescan uses the given roots.
func NewStaticStore(roots Roots, c *Catalog) *Store {
	s := &Store{roots: roots}
	s.current.Store(c)
	return s
}

// Catalog returns the active catalog.
func (s *Store) Catalog() *Catalog {
	return s.current.Load()
}

// Roots returns the roots this store scans.
func (s *Store) Roots() Roots {
	return s.roots
}

// Rescan rebuilds the catalog from disk. On failure the previous catalog stays active.
func (s *Store) Rescan() error {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	c, err := Scan(s.roots)
	if err != nil {
		return fmt.Errorf("failed to scan catalog: %w", err)
	}
	s.current.Store(c)
	return nil
}
