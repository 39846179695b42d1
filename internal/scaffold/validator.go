package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyluth/skirmish/internal/config"
)

// CheckExisting checks if skirmish.yml or the AI/ directory already exist in dir
// Returns an error if they do, nil otherwise
func CheckExisting(dir string) error {
	var existing []string

	if _, err := os.Stat(filepath.Join(dir, config.DefaultFileName)); err == nil {
		existing = append(existing, config.DefaultFileName)
	}

	if info, err := os.Stat(filepath.Join(dir, ModulesDir)); err == nil && info.IsDir() {
		existing = append(existing, ModulesDir+"/")
	}

	if len(existing) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("project already initialized\n\nFound existing")
	if len(existing) == 1 {
		fmt.Fprintf(&b, ": %s\n", existing[0])
	} else {
		b.WriteString(" files:\n")
		for _, file := range existing {
			fmt.Fprintf(&b, "  - %s\n", file)
		}
	}
	b.WriteString("\nUse 'skirmish init --force' to reinitialize (this will overwrite existing configuration)")
	return fmt.Errorf("%s", b.String())
}
