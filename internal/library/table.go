// Package library loads AI Interface libraries and the AI function tables
// they provide, counting loads so each library is unmapped only when nothing
// uses it any more.
package library

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dyluth/skirmish/internal/aikey"
	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/dyluth/skirmish/internal/guard"
	"github.com/dyluth/skirmish/internal/metrics"
	"github.com/dyluth/skirmish/internal/native"
	"github.com/dyluth/skirmish/pkg/aiabi"
)

// InterfaceLibraryBase is the base file name of an interface library when the
// descriptor does not name one.
const InterfaceLibraryBase = "AIInterface"

// Table owns every loaded interface, keyed by InterfaceKey.
type Table struct {
	opener  native.Opener
	guard   *guard.Guard
	metrics *metrics.Metrics

	mu     sync.Mutex
	loaded map[aikey.InterfaceKey]*LoadedInterface
	nextID int
	group  singleflight.Group
}

// NewTable creates an empty table that maps libraries with opener.
// m may be nil.
func NewTable(opener native.Opener, g *guard.Guard, m *metrics.Metrics) *Table {
	return &Table{
		opener:  opener,
		guard:   g,
		metrics: m,
		loaded:  make(map[aikey.InterfaceKey]*LoadedInterface),
	}
}

// LibraryPath returns the library reference for desc: the descriptor's
// library property (relative paths are taken from the data dir), or the
// platform file name of AIInterface inside the data dir.
func LibraryPath(desc *catalog.InterfaceDescriptor) string {
	ref := desc.Library()
	switch {
	case ref == "":
		return filepath.Join(desc.DataDir, native.LibraryFileName(InterfaceLibraryBase, ""))
	case native.IsBuiltin(ref), filepath.IsAbs(ref):
		return ref
	default:
		return filepath.Join(desc.DataDir, ref)
	}
}

// Acquire returns the loaded interface for desc, loading and statically
// initialising it on first use. Concurrent callers for the same key share one load.
func (t *Table) Acquire(desc *catalog.InterfaceDescriptor) (*LoadedInterface, error) {
	if li, ok := t.Get(desc.Key); ok {
		return li, nil
	}

	v, err, _ := t.group.Do(desc.Key.String(), func() (interface{}, error) {
		if li, ok := t.Get(desc.Key); ok {
			return li, nil
		}
		li, err := t.load(desc)
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.loaded[desc.Key] = li
		n := len(t.loaded)
		t.mu.Unlock()
		t.metrics.SetLoadedInterfaces(n)
		return li, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*LoadedInterface), nil
}

func (t *Table) load(desc *catalog.InterfaceDescriptor) (*LoadedInterface, error) {
	module := desc.Key.String()
	path := LibraryPath(desc)

	lib, err := t.opener.Open(path)
	if err != nil {
		return nil, &LoadError{Module: module, Stage: StageOpen, Err: err}
	}

	fns, err := resolveEntryPoints(lib)
	if err != nil {
		_ = lib.Close()
		return nil, &LoadError{Module: module, Stage: StageResolve, Err: err}
	}

	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.mu.Unlock()

	li := &LoadedInterface{
		id:      id,
		key:     desc.Key,
		desc:    desc,
		lib:     lib,
		fns:     fns,
		guard:   t.guard,
		metrics: t.metrics,
		counts:  make(map[aikey.AIKey]int),
		tables:  make(map[aikey.AIKey]*AILibrary),
		stubbed: make(map[aikey.AIKey]bool),
	}
	li.callback = &aiabi.InterfaceCallback{
		InterfaceID:   id,
		ShortName:     desc.Key.ShortName,
		Version:       desc.Key.Version,
		DataDir:       desc.DataDir,
		CommonDataDir: desc.CommonDataDir,
		Info:          desc.Info(),
		Log: func(msg string) {
			log.Printf("[Interface %s] %s", desc.Key, msg)
		},
	}

	if err := li.initStatic(); err != nil {
		_ = lib.Close()
		return nil, &LoadError{Module: module, Stage: StageInitStatic, Err: err}
	}

	log.Printf("[Library] Loaded interface %s from %s", desc.Key, path)
	return li, nil
}

// Get returns the loaded interface for key, if any.
func (t *Table) Get(key aikey.InterfaceKey) (*LoadedInterface, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	li, ok := t.loaded[key]
	return li, ok
}

// Release unloads the interface key if no AI is loaded through it any more.
// It reports whether the interface was unloaded.
func (t *Table) Release(key aikey.InterfaceKey) (bool, error) {
	t.mu.Lock()
	li, ok := t.loaded[key]
	if !ok || li.TotalLoads() > 0 {
		t.mu.Unlock()
		return false, nil
	}
	delete(t.loaded, key)
	n := len(t.loaded)
	t.mu.Unlock()

	t.metrics.SetLoadedInterfaces(n)
	err := li.release()
	if err != nil {
		log.Printf("[Library] Errors while unloading interface %s: %v", key, err)
	} else {
		log.Printf("[Library] Unloaded interface %s", key)
	}
	return true, err
}

// ReleaseAll unloads every AI and every interface, regardless of load counts.
func (t *Table) ReleaseAll() error {
	t.mu.Lock()
	all := make([]*LoadedInterface, 0, len(t.loaded))
	for _, li := range t.loaded {
		all = append(all, li)
	}
	t.loaded = make(map[aikey.InterfaceKey]*LoadedInterface)
	t.mu.Unlock()
	t.metrics.SetLoadedInterfaces(0)

	sort.Slice(all, func(i, j int) bool { return all[i].key.Less(all[j].key) })

	var firstErr error
	for _, li := range all {
		li.unloadAll()
		if err := li.release(); err != nil {
			log.Printf("[Library] Errors while unloading interface %s: %v", li.key, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to release all interfaces: %w", err)
			}
		}
	}
	return firstErr
}

// LoadCount returns the load count of ai in its interface, 0 when not loaded.
func (t *Table) LoadCount(ai aikey.AIKey) int {
	li, ok := t.Get(ai.Interface)
	if !ok {
		return 0
	}
	return li.LoadCount(ai)
}

// Loaded returns the keys of every loaded interface, sorted.
func (t *Table) Loaded() []aikey.InterfaceKey {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]aikey.InterfaceKey, 0, len(t.loaded))
	for k := range t.loaded {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Broadcast forwards an event to the handler of every loaded interface in key order.
func (t *Table) Broadcast(topic aiabi.Topic, event aiabi.Event) {
	for _, key := range t.Loaded() {
		if li, ok := t.Get(key); ok {
			li.HandleEvent(topic, event)
		}
	}
}
