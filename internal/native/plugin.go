package native

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"plugin"
	"sync"
)

// PluginOpener maps Go plugins built with -buildmode=plugin.
type PluginOpener struct{}

// Open implements Opener. A missing file reports ErrLibraryNotFound so a
// ChainOpener can fall through to the next opener.
func (PluginOpener) Open(path string) (Library, error) {
	if IsBuiltin(path) {
		return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, path)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat library %s: %w", path, err)
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin %s: %w", path, err)
	}
	return &pluginLibrary{path: path, p: p}, nil
}

type pluginLibrary struct {
	mu     sync.Mutex
	path   string
	p      *plugin.Plugin
	closed bool
}

func (l *pluginLibrary) Lookup(symbol string) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	sym, err := l.p.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, symbol, l.path)
	}
	return any(sym), nil
}

// Close marks the handle closed. The Go runtime cannot unmap a plugin, so the
// code stays resident until the process exits.
func (l *pluginLibrary) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
