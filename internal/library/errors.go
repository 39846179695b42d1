package library

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingEntryPoint is returned when an interface library lacks a mandatory symbol.
	ErrMissingEntryPoint = errors.New("missing mandatory entry point")

	// ErrInitFailed is returned when an interface's InitStatic reports failure.
	ErrInitFailed = errors.New("interface static initialisation failed")

	// ErrInterfaceMismatch is returned when an AI is loaded through an interface
	// other than the one its key was resolved against.
	ErrInterfaceMismatch = errors.New("AI belongs to a different interface")
)

// Load stages reported in LoadError.
const (
	StageLocate     = "locate"
	StageOpen       = "open"
	StageResolve    = "resolve"
	StageInitStatic = "init-static"
	StageLoadAI     = "load-ai"
)

// LoadError reports a failure to bring a module into the process.
type LoadError struct {
	Module string // key of the interface or AI being loaded
	Stage  string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s (%s): %v", e.Module, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadError reports whether err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
