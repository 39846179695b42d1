// Package native opens the shared libraries that AI Interfaces ship in and
// resolves their exported entry points.
//
// Go can map Go plugins (-buildmode=plugin) into the process through the
// standard plugin package; those can never be unmapped again, so Close on a
// plugin library only marks the handle as closed. Modules linked into the host
// binary are registered with a StaticRegistry instead and are addressed with
// the "builtin:" scheme.
package native

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// BuiltinScheme prefixes library references served by a StaticRegistry.
const BuiltinScheme = "builtin:"

var (
	// ErrSymbolNotFound is returned when a library does not export a symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrSymbolType is returned when a symbol exists but has the wrong type.
	ErrSymbolType = errors.New("symbol has unexpected type")

	// ErrLibraryNotFound is returned when no opener can serve a path.
	ErrLibraryNotFound = errors.New("library not found")

	// ErrClosed is returned by Lookup after Close.
	ErrClosed = errors.New("library closed")
)

// Library is a mapped module whose exported symbols can be looked up.
type Library interface {
	Lookup(symbol string) (any, error)
	Close() error
}

// Opener maps the library stored at path.
type Opener interface {
	Open(path string) (Library, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Library, error)

func (f OpenerFunc) Open(path string) (Library, error) { return f(path) }

// ChainOpener tries each opener in turn and returns the first success.
// An opener that reports ErrLibraryNotFound passes the path on to the next one.
type ChainOpener []Opener

func (c ChainOpener) Open(path string) (Library, error) {
	for _, o := range c {
		lib, err := o.Open(path)
		if err == nil {
			return lib, nil
		}
		if !errors.Is(err, ErrLibraryNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, path)
}

// LibraryFileName returns the platform file name for a library base name,
// e.g. "libAIInterface.so" on linux.
func LibraryFileName(base, goos string) string {
	if goos == "" {
		goos = runtime.GOOS
	}
	switch goos {
	case "windows":
		return base + ".dll"
	case "darwin", "ios":
		return "lib" + base + ".dylib"
	default:
		return "lib" + base + ".so"
	}
}

// IsBuiltin reports whether ref names a statically registered library.
func IsBuiltin(ref string) bool {
	return strings.HasPrefix(ref, BuiltinScheme)
}

// Resolve looks up symbol in lib and converts it to T. It accepts either a
// value of type T or a pointer to one, which is what plugin.Lookup returns
// for exported variables.
func Resolve[T any](lib Library, symbol string) (T, error) {
	var zero T
	sym, err := lib.Lookup(symbol)
	if err != nil {
		return zero, err
	}
	switch v := sym.(type) {
	case T:
		if isNilFunc(v) {
			return zero, fmt.Errorf("%w: %s is nil", ErrSymbolNotFound, symbol)
		}
		return v, nil
	case *T:
		if v == nil || isNilFunc(*v) {
			return zero, fmt.Errorf("%w: %s is nil", ErrSymbolNotFound, symbol)
		}
		return *v, nil
	}
	return zero, fmt.Errorf("%w: %s is %T, want %T", ErrSymbolType, symbol, sym, zero)
}

func isNilFunc(v any) bool {
	rv := reflect.ValueOf(v)
	return !rv.IsValid() || (rv.Kind() == reflect.Func && rv.IsNil())
}
