package library

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/dyluth/skirmish/internal/aikey"
	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/dyluth/skirmish/internal/guard"
	"github.com/dyluth/skirmish/internal/metrics"
	"github.com/dyluth/skirmish/internal/native"
	"github.com/dyluth/skirmish/pkg/aiabi"
)

// LoadedInterface is one mapped AI Interface library together with the AIs
// loaded through it. There is at most one per InterfaceKey at a time.
type LoadedInterface struct {
	id       int
	key      aikey.InterfaceKey
	desc     *catalog.InterfaceDescriptor
	lib      native.Library
	fns      aiabi.InterfaceLibrary
	callback *aiabi.InterfaceCallback
	guard    *guard.Guard
	metrics  *metrics.Metrics

	mu          sync.Mutex
	initialized bool
	counts      map[aikey.AIKey]int
	tables      map[aikey.AIKey]*AILibrary
	stubbed     map[aikey.AIKey]bool
}

// Key returns the interface key.
func (li *LoadedInterface) Key() aikey.InterfaceKey { return li.key }

// ID returns the interface id handed to InitStatic.
func (li *LoadedInterface) ID() int { return li.id }

// Descriptor returns the catalog entry the interface was loaded from.
func (li *LoadedInterface) Descriptor() *catalog.InterfaceDescriptor { return li.desc }

// Initialized reports whether static initialisation completed.
func (li *LoadedInterface) Initialized() bool {
	li.mu.Lock()
	defer li.mu.Unlock()
	return li.initialized
}

func (li *LoadedInterface) target() string {
	return "interface " + li.key.String()
}

func (li *LoadedInterface) logf(format string, args ...any) {
	log.Printf("[Library] %s: %s", li.key, fmt.Sprintf(format, args...))
}

// resolveEntryPoints fills the function table from lib.
func resolveEntryPoints(lib native.Library) (aiabi.InterfaceLibrary, error) {
	var fns aiabi.InterfaceLibrary
	var err error

	if fns.LoadSkirmishAILibrary, err = native.Resolve[aiabi.LoadSkirmishAILibraryFunc](lib, aiabi.SymbolLoadSkirmishAILibrary); err != nil {
		return fns, mandatory(aiabi.SymbolLoadSkirmishAILibrary, err)
	}
	if fns.UnloadSkirmishAILibrary, err = native.Resolve[aiabi.UnloadSkirmishAILibraryFunc](lib, aiabi.SymbolUnloadSkirmishAILibrary); err != nil {
		return fns, mandatory(aiabi.SymbolUnloadSkirmishAILibrary, err)
	}
	if fns.UnloadAllSkirmishAILibraries, err = native.Resolve[aiabi.UnloadAllSkirmishAILibrariesFunc](lib, aiabi.SymbolUnloadAllSkirmishAILibraries); err != nil {
		return fns, mandatory(aiabi.SymbolUnloadAllSkirmishAILibraries, err)
	}
	if fns.HandleEvent, err = native.Resolve[aiabi.InterfaceHandleEventFunc](lib, aiabi.SymbolHandleEvent); err != nil {
		return fns, mandatory(aiabi.SymbolHandleEvent, err)
	}

	if fns.InitStatic, err = native.Resolve[aiabi.InitStaticFunc](lib, aiabi.SymbolInitStatic); err != nil && !errors.Is(err, native.ErrSymbolNotFound) {
		return fns, err
	}
	if fns.ReleaseStatic, err = native.Resolve[aiabi.ReleaseStaticFunc](lib, aiabi.SymbolReleaseStatic); err != nil && !errors.Is(err, native.ErrSymbolNotFound) {
		return fns, err
	}
	return fns, nil
}

func mandatory(symbol string, err error) error {
	if errors.Is(err, native.ErrSymbolNotFound) {
		return fmt.Errorf("%w: %s", ErrMissingEntryPoint, symbol)
	}
	return err
}

// initStatic runs the optional InitStatic entry point exactly once.
func (li *LoadedInterface) initStatic() error {
	li.mu.Lock()
	defer li.mu.Unlock()
	if li.initialized {
		return nil
	}
	if li.fns.InitStatic != nil {
		code, faulted := li.guard.Call(li.target(), "InitStatic", func() int {
			return li.fns.InitStatic(li.id, li.callback)
		})
		if faulted || code != 0 {
			return fmt.Errorf("%w: code %d", ErrInitFailed, code)
		}
	}
	li.initialized = true
	return nil
}

// LoadAI returns the function table of the AI described by desc, loading it
// through the interface on first use. Every call must be paired with ReleaseAI.
// When the interface returns no table a stub is substituted and recorded.
func (li *LoadedInterface) LoadAI(desc *catalog.AIDescriptor) (*AILibrary, error) {
	key := desc.Key
	if key.Interface != li.key {
		return nil, &LoadError{Module: key.String(), Stage: StageLoadAI,
			Err: fmt.Errorf("%w: wanted %s, have %s", ErrInterfaceMismatch, key.Interface, li.key)}
	}

	li.mu.Lock()
	defer li.mu.Unlock()

	if tbl, ok := li.tables[key]; ok {
		li.counts[key]++
		return tbl, nil
	}

	var fns *aiabi.AILibrary
	_, faulted := li.guard.Call(li.target(), "LoadSkirmishAILibrary", func() int {
		fns = li.fns.LoadSkirmishAILibrary(key.ShortName, key.Version)
		return 0
	})
	if faulted {
		fns = nil
	}

	tbl := newAILibrary(key, fns, li.guard)
	if tbl.IsStub() {
		li.logf("No function table returned for %s, substituting stub", key)
		li.stubbed[key] = true
		li.metrics.StubSubstituted(key.String())
	}
	li.tables[key] = tbl
	li.counts[key]++
	return tbl, nil
}

// ReleaseAI drops one load of key. When its count reaches zero the AI is
// unloaded through the interface. Releasing an AI that is not loaded is a no-op.
func (li *LoadedInterface) ReleaseAI(key aikey.AIKey) {
	li.mu.Lock()
	defer li.mu.Unlock()

	n, ok := li.counts[key]
	if !ok {
		return
	}
	if n > 1 {
		li.counts[key] = n - 1
		return
	}

	delete(li.counts, key)
	delete(li.tables, key)
	code, _ := li.guard.Call(li.target(), "UnloadSkirmishAILibrary", func() int {
		return li.fns.UnloadSkirmishAILibrary(key.ShortName, key.Version)
	})
	if code != 0 {
		li.logf("Unloading %s returned %d", key, code)
	}
}

// LoadCount returns how often key is currently loaded.
func (li *LoadedInterface) LoadCount(key aikey.AIKey) int {
	li.mu.Lock()
	defer li.mu.Unlock()
	return li.counts[key]
}

// TotalLoads returns the sum of all AI load counts.
func (li *LoadedInterface) TotalLoads() int {
	li.mu.Lock()
	defer li.mu.Unlock()
	total := 0
	for _, n := range li.counts {
		total += n
	}
	return total
}

// IsStub reports whether key was loaded as a stub table.
func (li *LoadedInterface) IsStub(key aikey.AIKey) bool {
	li.mu.Lock()
	defer li.mu.Unlock()
	return li.stubbed[key]
}

// Stubbed returns every AI that received a stub table, sorted.
func (li *LoadedInterface) Stubbed() []aikey.AIKey {
	li.mu.Lock()
	defer li.mu.Unlock()
	keys := make([]aikey.AIKey, 0, len(li.stubbed))
	for k := range li.stubbed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// HandleEvent forwards an event to the interface's own handler.
func (li *LoadedInterface) HandleEvent(topic aiabi.Topic, event aiabi.Event) int {
	code, _ := li.guard.Call(li.target(), "HandleEvent("+topic.String()+")", func() int {
		return li.fns.HandleEvent(topic, event)
	})
	return code
}

// unloadAll asks the interface to unload every AI and forgets all counts.
func (li *LoadedInterface) unloadAll() {
	li.mu.Lock()
	defer li.mu.Unlock()

	code, _ := li.guard.Call(li.target(), "UnloadAllSkirmishAILibraries", func() int {
		return li.fns.UnloadAllSkirmishAILibraries()
	})
	if code != 0 {
		li.logf("Unloading all AIs returned %d", code)
	}
	li.counts = make(map[aikey.AIKey]int)
	li.tables = make(map[aikey.AIKey]*AILibrary)
}

// release runs ReleaseStatic and closes the library. A failing ReleaseStatic
// is reported but the library is closed regardless.
func (li *LoadedInterface) release() error {
	li.mu.Lock()
	defer li.mu.Unlock()

	var errs []error
	if li.initialized && li.fns.ReleaseStatic != nil {
		code, faulted := li.guard.Call(li.target(), "ReleaseStatic", func() int {
			return li.fns.ReleaseStatic()
		})
		if faulted || code != 0 {
			errs = append(errs, fmt.Errorf("release-static of %s returned %d", li.key, code))
		}
	}
	li.initialized = false

	if err := li.lib.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close %s: %w", li.key, err))
	}
	return errors.Join(errs...)
}
