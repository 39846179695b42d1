package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/skirmish/internal/aikey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeModule writes a descriptor file (and optional extra files) below root/rel.
func writeModule(t *testing.T, root, rel, file, content string) string {
	t.Helper()
	dir := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0644))
	return dir
}

func setupRoots(t *testing.T) (Roots, string, string) {
	t.Helper()
	base := t.TempDir()
	ifaceRoot := filepath.Join(base, "Interfaces")
	aiRoot := filepath.Join(base, "Skirmish")
	require.NoError(t, os.MkdirAll(ifaceRoot, 0755))
	require.NoError(t, os.MkdirAll(aiRoot, 0755))
	return Roots{Interfaces: []string{ifaceRoot}, Skirmish: []string{aiRoot}}, ifaceRoot, aiRoot
}

func TestScan_InterfacesAndAIs(t *testing.T) {
	roots, ifaceRoot, aiRoot := setupRoots(t)

	writeModule(t, ifaceRoot, "C/0.1", InterfaceInfoFile, `shortName: C
version: 0.1
name: C AI Interface
url: https://example.org/c
`)
	writeModule(t, ifaceRoot, "C/0.3", InterfaceInfoFile, "shortName: C\nversion: 0.3\n")
	nullDir := writeModule(t, aiRoot, "NullAI/1.10", AIInfoFile, `shortName: NullAI
version: 1.10
name: Null AI
description: Does nothing
interfaceShortName: C
interfaceVersion: 0.2
`)
	require.NoError(t, os.MkdirAll(filepath.Join(aiRoot, "NullAI", CommonDirName), 0755))

	c, err := Scan(roots)
	require.NoError(t, err)

	require.Len(t, c.Interfaces(), 2)
	assert.Equal(t, "C AI Interface", c.Interfaces()[0].Name())

	ais := c.AIs()
	require.Len(t, ais, 1)
	ai := ais[0]
	assert.Equal(t, "1.10", ai.Version(), "version must be kept verbatim")
	assert.Equal(t, aikey.NewInterfaceKey("C", "0.3"), ai.Key.Interface, "closest interface at or above 0.2")
	assert.Equal(t, aikey.NewInterfaceKey("C", "0.2"), ai.Requested)
	assert.Equal(t, nullDir, ai.DataDir)
	assert.Equal(t, filepath.Join(aiRoot, "NullAI", CommonDirName), ai.CommonDataDir)
	assert.Equal(t, nullDir, ai.Properties[PropDataDir])
	assert.Empty(t, c.Duplicates())
}

func TestScan_DuplicateDescriptors(t *testing.T) {
	roots, ifaceRoot, aiRoot := setupRoots(t)
	writeModule(t, ifaceRoot, "C", InterfaceInfoFile, "shortName: C\nversion: '0.1'\n")

	first := writeModule(t, aiRoot, "NullAI", AIInfoFile, "shortName: NullAI\nversion: '0.1'\nname: first\ninterfaceShortName: C\n")
	second := writeModule(t, aiRoot, "NullAICopy", AIInfoFile, "shortName: NullAI\nversion: '0.1'\nname: second\ninterfaceShortName: C\n")

	c, err := Scan(roots)
	require.NoError(t, err)

	require.Len(t, c.AIs(), 1, "duplicates collapse into one entry")
	assert.Equal(t, "second", c.AIs()[0].Name(), "the later descriptor wins")

	dups := c.Duplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, "skirmish", dups[0].Kind)
	assert.Equal(t, "NullAI 0.1", dups[0].Key)
	assert.Equal(t, []string{
		filepath.Join(first, AIInfoFile),
		filepath.Join(second, AIInfoFile),
	}, dups[0].Paths)
}

func TestScan_DuplicateInterfaces(t *testing.T) {
	roots, ifaceRoot, _ := setupRoots(t)
	writeModule(t, ifaceRoot, "A", InterfaceInfoFile, "shortName: C\nversion: '0.1'\n")
	writeModule(t, ifaceRoot, "B", InterfaceInfoFile, "shortName: C\nversion: '0.1'\n")

	c, err := Scan(roots)
	require.NoError(t, err)
	assert.Len(t, c.Interfaces(), 1)
	require.Len(t, c.Duplicates(), 1)
	assert.Len(t, c.Duplicates()[0].Paths, 2)
}

func TestScan_DropsAIWithoutInterface(t *testing.T) {
	roots, ifaceRoot, aiRoot := setupRoots(t)
	writeModule(t, ifaceRoot, "C", InterfaceInfoFile, "shortName: C\nversion: '0.1'\n")
	dir := writeModule(t, aiRoot, "JavaAI", AIInfoFile, "shortName: JavaAI\nversion: '1.0'\ninterfaceShortName: Java\n")
	writeModule(t, aiRoot, "TooNew", AIInfoFile, "shortName: TooNew\nversion: '1.0'\ninterfaceShortName: C\ninterfaceVersion: '2.0'\n")

	c, err := Scan(roots)
	require.NoError(t, err)
	assert.Empty(t, c.AIs())
	assert.Contains(t, c.Dropped(), filepath.Join(dir, AIInfoFile))
	assert.Len(t, c.Dropped(), 2)
}

func TestScan_SkipsInvalidDescriptors(t *testing.T) {
	roots, ifaceRoot, aiRoot := setupRoots(t)
	writeModule(t, ifaceRoot, "C", InterfaceInfoFile, "shortName: C\nversion: '0.1'\n")
	writeModule(t, ifaceRoot, "Bad", InterfaceInfoFile, "shortName: Bad Name\nversion: '0.1'\n")
	writeModule(t, ifaceRoot, "Broken", InterfaceInfoFile, "shortName: [unterminated\n")
	writeModule(t, aiRoot, "NoIface", AIInfoFile, "shortName: NoIface\nversion: '0.1'\n")
	writeModule(t, aiRoot, "Nested", AIInfoFile, "shortName: Nested\nversion: '0.1'\ninterfaceShortName: C\nextra:\n  nested: true\n")

	c, err := Scan(roots)
	require.NoError(t, err)
	assert.Len(t, c.Interfaces(), 1)
	assert.Empty(t, c.AIs())
}

func TestScan_MissingRoots(t *testing.T) {
	_, err := Scan(Roots{Interfaces: []string{"/nonexistent/a"}, Skirmish: []string{"/nonexistent/b"}})
	assert.Error(t, err)

	c, err := Scan(Roots{})
	require.NoError(t, err)
	assert.Empty(t, c.Interfaces())
}

func TestScan_AIOptions(t *testing.T) {
	roots, ifaceRoot, aiRoot := setupRoots(t)
	writeModule(t, ifaceRoot, "C", InterfaceInfoFile, "shortName: C\nversion: '0.1'\n")
	dir := writeModule(t, aiRoot, "NullAI", AIInfoFile, "shortName: NullAI\nversion: '0.1'\ninterfaceShortName: C\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, AIOptionsFile), []byte(`options:
  - key: difficulty
    name: Difficulty
    type: list
    default: normal
    items:
      - key: easy
        name: Easy
      - key: normal
        name: Normal
`), 0644))

	c, err := Scan(roots)
	require.NoError(t, err)
	require.Len(t, c.AIs(), 1)
	require.NotNil(t, c.AIs()[0].Options)
	assert.Equal(t, "normal", c.AIs()[0].Options.Defaults()["difficulty"])
}

func TestCatalog_ResolveAI(t *testing.T) {
	roots, ifaceRoot, aiRoot := setupRoots(t)
	writeModule(t, ifaceRoot, "C", InterfaceInfoFile, "shortName: C\nversion: '0.1'\n")
	for _, v := range []string{"0.3", "0.1", "0.2"} {
		writeModule(t, aiRoot, "NullAI/"+v, AIInfoFile, "shortName: NullAI\nversion: '"+v+"'\ninterfaceShortName: C\n")
	}

	c, err := Scan(roots)
	require.NoError(t, err)

	assert.Equal(t, "0.1", c.ResolveAI("NullAI", "").Version, "empty version selects lowest")
	assert.Equal(t, "0.2", c.ResolveAI("NullAI", "0.2").Version)
	assert.True(t, c.ResolveAI("NullAI", "0.4").IsUnspecified())
	assert.True(t, c.ResolveAI("Missing", "").IsUnspecified())
	assert.Equal(t, aikey.NewInterfaceKey("C", "0.1"), c.ResolveInterface("C", "0.1"))

	_, err = c.AI(aikey.AIKey{ShortName: "Missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RescanReplacesCatalog(t *testing.T) {
	roots, ifaceRoot, _ := setupRoots(t)
	writeModule(t, ifaceRoot, "C", InterfaceInfoFile, "shortName: C\nversion: '0.1'\n")

	store, err := NewStore(roots)
	require.NoError(t, err)
	before := store.Catalog()
	assert.Len(t, before.Interfaces(), 1)

	writeModule(t, ifaceRoot, "Java", InterfaceInfoFile, "shortName: Java\nversion: '0.1'\n")
	require.NoError(t, store.Rescan())

	after := store.Catalog()
	assert.Len(t, after.Interfaces(), 2)
	assert.Len(t, before.Interfaces(), 1, "the old catalog is never modified")
}
