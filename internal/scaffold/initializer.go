package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/dyluth/skirmish/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// ModulesDir is the directory holding the generated module tree.
const ModulesDir = "AI"

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

var templates = []struct {
	template string
	path     string
}{
	{"skirmish.yml.tmpl", config.DefaultFileName},
	{"InterfaceInfo.yaml.tmpl", filepath.Join(ModulesDir, "Interfaces", "Null", "0.1", catalog.InterfaceInfoFile)},
	{"AIInfo.yaml.tmpl", filepath.Join(ModulesDir, "Skirmish", "NullAI", "0.1", catalog.AIInfoFile)},
	{"AIOptions.yaml.tmpl", filepath.Join(ModulesDir, "Skirmish", "NullAI", "0.1", catalog.AIOptionsFile)},
}

// Initialize writes a starter skirmish.yml and a module tree for the built-in
// Null interface into dir. With force, an existing skirmish.yml and AI/ are removed first.
func Initialize(dir string, force bool) error {
	if force {
		if err := handleForce(dir); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	for _, file := range files {
		path := filepath.Join(dir, file.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}

	return validateCreatedFiles(dir)
}

// handleForce removes existing files if --force was specified
func handleForce(dir string) error {
	cfg := filepath.Join(dir, config.DefaultFileName)
	if _, err := os.Stat(cfg); err == nil {
		fmt.Printf("⚠️  Removing existing %s...\n", config.DefaultFileName)
		if err := os.Remove(cfg); err != nil {
			return fmt.Errorf("failed to remove %s: %w", config.DefaultFileName, err)
		}
	}

	modules := filepath.Join(dir, ModulesDir)
	if info, err := os.Stat(modules); err == nil && info.IsDir() {
		fmt.Printf("⚠️  Removing existing %s/ directory...\n", ModulesDir)
		if err := os.RemoveAll(modules); err != nil {
			return fmt.Errorf("failed to remove %s/ directory: %w", ModulesDir, err)
		}
	}

	return nil
}

// getTemplateFiles reads all template files
func getTemplateFiles() ([]FileInfo, error) {
	files := make([]FileInfo, 0, len(templates))
	for _, t := range templates {
		content, err := templatesFS.ReadFile("templates/" + t.template)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s template: %w", t.template, err)
		}
		files = append(files, FileInfo{Path: t.path, Content: content, Permissions: 0644})
	}
	return files, nil
}

// validateCreatedFiles loads the new config and scans the new tree, so a
// broken template is caught here rather than on the first run
func validateCreatedFiles(dir string) error {
	cfg, err := config.Load(filepath.Join(dir, config.DefaultFileName))
	if err != nil {
		return fmt.Errorf("created %s is invalid: %w", config.DefaultFileName, err)
	}

	roots := catalog.Roots{}
	for _, r := range cfg.Roots.Interfaces {
		roots.Interfaces = append(roots.Interfaces, filepath.Join(dir, r))
	}
	for _, r := range cfg.Roots.Skirmish {
		roots.Skirmish = append(roots.Skirmish, filepath.Join(dir, r))
	}
	cat, err := catalog.Scan(roots)
	if err != nil {
		return fmt.Errorf("created module tree cannot be scanned: %w", err)
	}
	if len(cat.AIs()) == 0 {
		return fmt.Errorf("created module tree contains no usable AI")
	}
	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess() {
	fmt.Println("\n✅ Successfully initialized skirmish project!")
	fmt.Println("\nCreated:")
	for _, t := range templates {
		fmt.Printf("  ✓ %s\n", t.path)
	}
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'skirmish list' to see the installed AIs")
	fmt.Println("  2. Edit the teams in skirmish.yml")
	fmt.Println("  3. Run 'skirmish run --frames 900' to play a headless match")
}
