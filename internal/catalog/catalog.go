// Package catalog discovers the AI Interfaces and Skirmish AIs installed on disk.
//
// A scan walks the configured roots, parses every descriptor it finds and builds
// an immutable Catalog. Problems with individual descriptors are reported as
// warnings and never abort a scan: a duplicate key keeps the last descriptor
// seen, an unreadable descriptor is skipped, and an AI whose parent interface is
// not installed is dropped because it could never be instantiated.
package catalog

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/dyluth/skirmish/internal/aikey"
)

// ErrNotFound is returned by lookups for keys the catalog does not contain.
var ErrNotFound = errors.New("not found in catalog")

// Roots lists the directories scanned for modules.
type Roots struct {
	Interfaces []string `yaml:"interfaces" json:"interfaces"`
	Skirmish   []string `yaml:"skirmish" json:"skirmish"`
}

// Duplicate records a key contributed by more than one descriptor file.
// Paths are in scan order; the last one is the descriptor kept.
type Duplicate struct {
	Kind  string   `json:"kind"` // "interface" or "skirmish"
	Key   string   `json:"key"`
	Paths []string `json:"paths"`
}

// Catalog is the read-only result of a scan.
type Catalog struct {
	interfaces map[aikey.InterfaceKey]*InterfaceDescriptor
	ais        map[aikey.AIKey]*AIDescriptor
	duplicates []Duplicate
	dropped    []string
}

// Interfaces returns all interface descriptors sorted by key.
func (c *Catalog) Interfaces() []*InterfaceDescriptor {
	out := make([]*InterfaceDescriptor, 0, len(c.interfaces))
	for _, d := range c.interfaces {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// AIs returns all AI descriptors sorted by key.
func (c *Catalog) AIs() []*AIDescriptor {
	out := make([]*AIDescriptor, 0, len(c.ais))
	for _, d := range c.ais {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// InterfaceKeys returns the keys of all known interfaces.
func (c *Catalog) InterfaceKeys() []aikey.InterfaceKey {
	keys := make([]aikey.InterfaceKey, 0, len(c.interfaces))
	for k := range c.interfaces {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// AIKeys returns the keys of all known AIs.
func (c *Catalog) AIKeys() []aikey.AIKey {
	keys := make([]aikey.AIKey, 0, len(c.ais))
	for k := range c.ais {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Interface returns the descriptor for key.
func (c *Catalog) Interface(key aikey.InterfaceKey) (*InterfaceDescriptor, error) {
	d, ok := c.interfaces[key]
	if !ok {
		return nil, fmt.Errorf("interface %s: %w", key, ErrNotFound)
	}
	return d, nil
}

// AI returns the descriptor for key.
func (c *Catalog) AI(key aikey.AIKey) (*AIDescriptor, error) {
	d, ok := c.ais[key]
	if !ok {
		return nil, fmt.Errorf("AI %s: %w", key, ErrNotFound)
	}
	return d, nil
}

// ResolveAI finds the AI named shortName closest at or above version.
// An empty version selects the lowest installed version.
func (c *Catalog) ResolveAI(shortName, version string) aikey.AIKey {
	keys := c.AIKeys()
	if version == "" {
		for _, k := range keys {
			if k.ShortName != shortName {
				continue
			}
			if version == "" || aikey.CompareVersions(k.Version, version) < 0 {
				version = k.Version
			}
		}
		if version == "" {
			return aikey.AIKey{}
		}
	}
	return aikey.ResolveAI(shortName, version, keys)
}

// ResolveInterface finds the interface named shortName closest at or above version.
func (c *Catalog) ResolveInterface(shortName, version string) aikey.InterfaceKey {
	return aikey.ResolveInterface(shortName, version, c.InterfaceKeys())
}

// Duplicates returns the keys contributed by more than one descriptor.
func (c *Catalog) Duplicates() []Duplicate {
	return append([]Duplicate(nil), c.duplicates...)
}

// Dropped returns the descriptor paths of AIs whose interface could not be resolved.
func (c *Catalog) Dropped() []string {
	return append([]string(nil), c.dropped...)
}

// Scan builds a new catalog from the given roots.
// It only fails when no root can be read at all.
func Scan(roots Roots) (*Catalog, error) {
	c := &Catalog{
		interfaces: make(map[aikey.InterfaceKey]*InterfaceDescriptor),
		ais:        make(map[aikey.AIKey]*AIDescriptor),
	}

	readable := 0
	total := len(roots.Interfaces) + len(roots.Skirmish)

	ifacePaths := make(map[aikey.InterfaceKey][]string)
	for _, root := range roots.Interfaces {
		dirs, err := moduleDirs(root, InterfaceInfoFile)
		if err != nil {
			log.Printf("[Catalog] Warning: failed to read interface root %s: %v", root, err)
			continue
		}
		readable++
		for _, dir := range dirs {
			d, err := parseInterface(dir)
			if err != nil {
				log.Printf("[Catalog] Warning: skipping interface descriptor in %s: %v", dir, err)
				continue
			}
			ifacePaths[d.Key] = append(ifacePaths[d.Key], d.Path)
			c.interfaces[d.Key] = d
		}
	}

	type aiID struct{ shortName, version string }
	parsed := make(map[aiID]*AIDescriptor)
	aiPaths := make(map[aiID][]string)
	var order []aiID
	for _, root := range roots.Skirmish {
		dirs, err := moduleDirs(root, AIInfoFile)
		if err != nil {
			log.Printf("[Catalog] Warning: failed to read skirmish root %s: %v", root, err)
			continue
		}
		readable++
		for _, dir := range dirs {
			d, err := parseAI(dir)
			if err != nil {
				log.Printf("[Catalog] Warning: skipping AI descriptor in %s: %v", dir, err)
				continue
			}
			id := aiID{d.ShortName(), d.Version()}
			if _, seen := parsed[id]; !seen {
				order = append(order, id)
			}
			aiPaths[id] = append(aiPaths[id], d.Path)
			parsed[id] = d
		}
	}

	if total > 0 && readable == 0 {
		return nil, fmt.Errorf("failed to read any module root")
	}

	for key, paths := range ifacePaths {
		if len(paths) > 1 {
			c.duplicates = append(c.duplicates, Duplicate{Kind: "interface", Key: key.String(), Paths: paths})
		}
	}

	ifaceKeys := c.InterfaceKeys()
	for _, id := range order {
		d := parsed[id]
		if paths := aiPaths[id]; len(paths) > 1 {
			c.duplicates = append(c.duplicates, Duplicate{
				Kind:  "skirmish",
				Key:   fmt.Sprintf("%s %s", id.shortName, id.version),
				Paths: paths,
			})
		}

		resolved := aikey.ResolveInterface(d.Requested.ShortName, d.Requested.Version, ifaceKeys)
		if resolved.IsUnspecified() {
			log.Printf("[Catalog] Warning: dropping AI %s %s: interface %s not available",
				id.shortName, id.version, d.Requested)
			c.dropped = append(c.dropped, d.Path)
			continue
		}
		d.Key = aikey.NewAIKey(id.shortName, id.version, resolved)
		c.ais[d.Key] = d
	}

	sort.Slice(c.duplicates, func(i, j int) bool {
		if c.duplicates[i].Kind != c.duplicates[j].Kind {
			return c.duplicates[i].Kind < c.duplicates[j].Kind
		}
		return c.duplicates[i].Key < c.duplicates[j].Key
	})
	for _, dup := range c.duplicates {
		log.Printf("[Catalog] Warning: duplicate %s descriptor %s in %v, using %s",
			dup.Kind, dup.Key, dup.Paths, dup.Paths[len(dup.Paths)-1])
	}

	log.Printf("[Catalog] Scan complete: %d interfaces, %d AIs, %d duplicates, %d dropped",
		len(c.interfaces), len(c.ais), len(c.duplicates), len(c.dropped))
	return c, nil
}

// moduleDirs returns the directories below root that contain file, looking at
// the immediate subdirectories and one level of version directories under them.
func moduleDirs(root, file string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == CommonDirName {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if hasFile(dir, file) {
			dirs = append(dirs, dir)
		}

		sub, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, s := range sub {
			if !s.IsDir() || s.Name() == CommonDirName {
				continue
			}
			versionDir := filepath.Join(dir, s.Name())
			if hasFile(versionDir, file) {
				dirs = append(dirs, versionDir)
			}
		}
	}
	return dirs, nil
}

func hasFile(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}

func newDescriptor(dir, file string) (*Descriptor, error) {
	path := filepath.Join(dir, file)
	props, err := ParseProperties(path)
	if err != nil {
		return nil, err
	}
	if err := validateIdentity(props); err != nil {
		return nil, err
	}

	d := &Descriptor{Path: path, DataDir: dir, Properties: props}
	common := filepath.Join(filepath.Dir(dir), CommonDirName)
	if info, err := os.Stat(common); err == nil && info.IsDir() {
		d.CommonDataDir = common
	}
	props[PropDataDir] = d.DataDir
	props[PropDataDirCommon] = d.CommonDataDir
	return d, nil
}

func parseInterface(dir string) (*InterfaceDescriptor, error) {
	d, err := newDescriptor(dir, InterfaceInfoFile)
	if err != nil {
		return nil, err
	}
	return &InterfaceDescriptor{
		Descriptor: *d,
		Key:        aikey.NewInterfaceKey(d.ShortName(), d.Version()),
	}, nil
}

func parseAI(dir string) (*AIDescriptor, error) {
	d, err := newDescriptor(dir, AIInfoFile)
	if err != nil {
		return nil, err
	}

	requested := aikey.NewInterfaceKey(d.prop(PropInterfaceShortName), d.prop(PropInterfaceVersion))
	if requested.ShortName == "" {
		return nil, fmt.Errorf("%s is required", PropInterfaceShortName)
	}

	ai := &AIDescriptor{Descriptor: *d, Requested: requested}
	if hasFile(dir, AIOptionsFile) {
		opts, err := LoadOptions(filepath.Join(dir, AIOptionsFile))
		if err != nil {
			return nil, err
		}
		ai.Options = opts
	}
	return ai, nil
}
