package native

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Symbols is an in-process library: a map from exported name to value.
type Symbols map[string]any

// StaticRegistry serves libraries linked into the host binary. Libraries are
// registered under a name and opened as "builtin:<name>".
type StaticRegistry struct {
	mu   sync.RWMutex
	libs map[string]Symbols
}

// NewStaticRegistry creates an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{libs: make(map[string]Symbols)}
}

// Register makes syms available as builtin:<name>. Registering the same name
// twice replaces the earlier library.
func (r *StaticRegistry) Register(name string, syms Symbols) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.libs[name] = syms
}

// Names returns the registered library names in sorted order.
func (r *StaticRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.libs))
	for name := range r.libs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open implements Opener. Paths without the builtin scheme are not served.
func (r *StaticRegistry) Open(path string) (Library, error) {
	if !IsBuiltin(path) {
		return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, path)
	}
	name := strings.TrimPrefix(path, BuiltinScheme)

	r.mu.RLock()
	syms, ok := r.libs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, path)
	}
	return &staticLibrary{name: name, syms: syms}, nil
}

type staticLibrary struct {
	mu     sync.Mutex
	name   string
	syms   Symbols
	closed bool
}

func (l *staticLibrary) Lookup(symbol string) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	v, ok := l.syms[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s in builtin:%s", ErrSymbolNotFound, symbol, l.name)
	}
	return v, nil
}

func (l *staticLibrary) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
