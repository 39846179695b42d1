package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/dyluth/skirmish/internal/config"
	"github.com/dyluth/skirmish/internal/printer"
)

// loadConfig reads skirmish.yml and applies the root flags. Without a config
// file, explicit --interfaces and --skirmish roots are enough.
func loadConfig() (*config.SkirmishConfig, error) {
	path := configPath
	if path == "" {
		path = config.DefaultFileName
	}

	cfg, err := config.Load(path)
	if err != nil {
		if configPath == "" && errors.Is(err, fs.ErrNotExist) && len(interfaceRoots) > 0 && len(skirmishRoots) > 0 {
			return rootsOnlyConfig()
		}
		return nil, printer.Error(
			"failed to load configuration",
			err.Error(),
			[]string{
				"Create a project first:\n  skirmish init",
				"Or name the module roots:\n  skirmish list --interfaces DIR --skirmish DIR",
			},
		)
	}

	// Roots in the file are relative to the file
	base := filepath.Dir(path)
	cfg.Roots.Interfaces = relativeTo(base, cfg.Roots.Interfaces)
	cfg.Roots.Skirmish = relativeTo(base, cfg.Roots.Skirmish)
	applyRootFlags(&cfg.Roots)
	return cfg, nil
}

func rootsOnlyConfig() (*config.SkirmishConfig, error) {
	cfg := &config.SkirmishConfig{Version: "1.0"}
	applyRootFlags(&cfg.Roots)
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyRootFlags(roots *catalog.Roots) {
	if len(interfaceRoots) > 0 {
		roots.Interfaces = interfaceRoots
	}
	if len(skirmishRoots) > 0 {
		roots.Skirmish = skirmishRoots
	}
}

func relativeTo(base string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			out[i] = p
		} else {
			out[i] = filepath.Join(base, p)
		}
	}
	return out
}

// openCatalog scans the configured roots.
func openCatalog(cfg *config.SkirmishConfig) (*catalog.Store, error) {
	store, err := catalog.NewStore(cfg.Roots)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"failed to scan module roots",
			err.Error(),
			map[string]string{
				"Interfaces": fmt.Sprint(cfg.Roots.Interfaces),
				"Skirmish":   fmt.Sprint(cfg.Roots.Skirmish),
			},
			[]string{"Check the roots in skirmish.yml exist and are readable"},
		)
	}
	return store, nil
}

// resolveArgs resolves "<ai> [version]" against the catalog.
func resolveArgs(cat *catalog.Catalog, args []string) (*catalog.AIDescriptor, error) {
	shortName, version := args[0], ""
	if len(args) > 1 {
		version = args[1]
	}

	key := cat.ResolveAI(shortName, version)
	if key.IsUnspecified() {
		want := shortName
		if version != "" {
			want += " " + version + " or newer"
		}
		return nil, printer.Error(
			"AI not found",
			fmt.Sprintf("No installed AI matches %s.", want),
			[]string{"List the installed AIs:\n  skirmish list"},
		)
	}

	desc, err := cat.AI(key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", key, err)
	}
	return desc, nil
}
