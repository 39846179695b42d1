package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/dyluth/skirmish/internal/config"
	"github.com/dyluth/skirmish/internal/printer"
	"github.com/dyluth/skirmish/internal/savestate"
	"github.com/dyluth/skirmish/internal/scaffold"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupProject scaffolds a project in a temp dir and points the root flags at it.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, scaffold.Initialize(dir, false))

	prevConfig, prevIfaces, prevAIs := configPath, interfaceRoots, skirmishRoots
	configPath = filepath.Join(dir, config.DefaultFileName)
	interfaceRoots, skirmishRoots = nil, nil
	t.Cleanup(func() { configPath, interfaceRoots, skirmishRoots = prevConfig, prevIfaces, prevAIs })
	return dir
}

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errBuf := new(bytes.Buffer), new(bytes.Buffer)
	prevOut, prevErr, prevNoColor := printer.Out, printer.Err, color.NoColor
	printer.Out, printer.Err, color.NoColor = out, errBuf, true
	t.Cleanup(func() { printer.Out, printer.Err, color.NoColor = prevOut, prevErr, prevNoColor })
	return out, errBuf
}

func TestLoadConfig_ResolvesRootsAgainstConfigDir(t *testing.T) {
	dir := setupProject(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "AI", "Interfaces")}, cfg.Roots.Interfaces)
	assert.Equal(t, []string{filepath.Join(dir, "AI", "Skirmish")}, cfg.Roots.Skirmish)
	require.Len(t, cfg.Teams, 2)
}

func TestLoadConfig_FlagsOverrideRoots(t *testing.T) {
	setupProject(t)
	interfaceRoots = []string{"/opt/ifaces"}

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/ifaces"}, cfg.Roots.Interfaces)
}

func TestLoadConfig_RootsOnly(t *testing.T) {
	dir := setupProject(t)
	configPath = ""
	interfaceRoots = []string{filepath.Join(dir, "AI", "Interfaces")}
	skirmishRoots = []string{filepath.Join(dir, "AI", "Skirmish")}

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, interfaceRoots, cfg.Roots.Interfaces)
	assert.Empty(t, cfg.Teams)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, stderr := captureOutput(t)
	setupProject(t)
	configPath = filepath.Join(t.TempDir(), "nope.yml")

	_, err := loadConfig()
	require.EqualError(t, err, "failed to load configuration")
	assert.Contains(t, stderr.String(), "skirmish init")
}

func TestListOutput(t *testing.T) {
	setupProject(t)
	cfg, err := loadConfig()
	require.NoError(t, err)
	store, err := openCatalog(cfg)
	require.NoError(t, err)

	t.Run("table", func(t *testing.T) {
		stdout, _ := captureOutput(t)
		outputCatalogTable(store.Catalog(), true)
		out := stdout.String()
		assert.Contains(t, out, "AI Interfaces")
		assert.Contains(t, out, "builtin:Null")
		assert.Contains(t, out, "NullAI")
		assert.Contains(t, out, "shortName = NullAI")
		assert.NotContains(t, out, "⚠️")
	})

	t.Run("json", func(t *testing.T) {
		stdout, _ := captureOutput(t)
		require.NoError(t, outputCatalogJSON(store.Catalog()))

		var listing struct {
			Interfaces []catalog.InterfaceDescriptor `json:"interfaces"`
			AIs        []catalog.AIDescriptor        `json:"ais"`
		}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &listing))
		require.Len(t, listing.Interfaces, 1)
		require.Len(t, listing.AIs, 1)
		assert.Equal(t, "NullAI", listing.AIs[0].Key.ShortName)
		assert.Equal(t, "Null", listing.AIs[0].Key.Interface.ShortName)
	})
}

func TestResolveArgs(t *testing.T) {
	setupProject(t)
	cfg, err := loadConfig()
	require.NoError(t, err)
	store, err := openCatalog(cfg)
	require.NoError(t, err)

	desc, err := resolveArgs(store.Catalog(), []string{"NullAI"})
	require.NoError(t, err)
	assert.Equal(t, "0.1", desc.Key.Version)

	desc, err = resolveArgs(store.Catalog(), []string{"NullAI", "0.0.5"})
	require.NoError(t, err)
	assert.Equal(t, "0.1", desc.Key.Version, "the closest version above the minimum")

	_, stderr := captureOutput(t)
	_, err = resolveArgs(store.Catalog(), []string{"NullAI", "2.0"})
	require.EqualError(t, err, "AI not found")
	assert.Contains(t, stderr.String(), "NullAI 2.0 or newer")
}

func TestOptionRange(t *testing.T) {
	lo, hi := 0.0, 100000.0
	tests := []struct {
		name   string
		option catalog.Option
		want   string
	}{
		{"number range", catalog.Option{Type: catalog.OptionNumber, Min: &lo, Max: &hi}, "0..100000"},
		{"open number", catalog.Option{Type: catalog.OptionNumber}, "-"},
		{"list", catalog.Option{Type: catalog.OptionList, Items: []catalog.OptionItem{{Key: "easy"}, {Key: "hard"}}}, "easy|hard"},
		{"bounded string", catalog.Option{Type: catalog.OptionString, MaxLen: 8}, "<= 8 chars"},
		{"free string", catalog.Option{Type: catalog.OptionString}, "-"},
		{"bool", catalog.Option{Type: catalog.OptionBool}, "true|false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, optionRange(tt.option))
		})
	}
}

func TestParseTeam(t *testing.T) {
	captureOutput(t)

	team, err := parseTeam("3")
	require.NoError(t, err)
	assert.Equal(t, 3, team)

	for _, bad := range []string{"-1", "two", "3abc"} {
		_, err := parseTeam(bad)
		assert.EqualError(t, err, "invalid team", bad)
	}
}

func TestMatchOrConfig(t *testing.T) {
	captureOutput(t)
	cfg := &config.SkirmishConfig{MatchID: "from-config"}

	id, err := matchOrConfig("flag", cfg)
	require.NoError(t, err)
	assert.Equal(t, "flag", id)

	id, err = matchOrConfig("", cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-config", id)

	_, err = matchOrConfig("", &config.SkirmishConfig{})
	assert.EqualError(t, err, "no match given")
}

func TestRunMatch_InMemory(t *testing.T) {
	setupProject(t)
	cfg, err := loadConfig()
	require.NoError(t, err)

	result, err := runMatch(testContext(t), cfg, matchOptions{MatchID: "mem", Frames: 12})
	require.NoError(t, err)

	assert.Equal(t, 12, result.Frames)
	assert.Equal(t, []int{0, 1}, result.Created)
	assert.Empty(t, result.Failed)
	assert.False(t, result.Saved)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "0", result.Rows[0][0])
	assert.Equal(t, "false", result.Rows[0][3])
}

func TestRunMatch_UnknownAIFailsItsTeamOnly(t *testing.T) {
	setupProject(t)
	cfg, err := loadConfig()
	require.NoError(t, err)
	cfg.Teams[1].AI = "Missing"

	result, err := runMatch(testContext(t), cfg, matchOptions{MatchID: "partial", Frames: 3})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, result.Created)
	require.Contains(t, result.Failed, 1)
	assert.Equal(t, 3, result.Frames)
}

func TestRunMatch_CancelledContextStopsEarly(t *testing.T) {
	setupProject(t)
	cfg, err := loadConfig()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	result, err := runMatch(ctx, cfg, matchOptions{MatchID: "cancelled", Frames: 1000})
	require.NoError(t, err)
	assert.Zero(t, result.Frames)
}

func TestRunMatch_SavesAndRestoresThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	setupProject(t)
	cfg, err := loadConfig()
	require.NoError(t, err)
	cfg.Redis = &config.RedisConfig{Addr: mr.Addr(), TTL: "1h"}
	require.NoError(t, cfg.Validate())

	result, err := runMatch(testContext(t), cfg, matchOptions{MatchID: "demo", Frames: 10})
	require.NoError(t, err)
	assert.True(t, result.Saved)

	saved, err := mr.Get(savestate.StateKey("demo", 0))
	require.NoError(t, err)
	assert.Equal(t, "10", saved)
	assert.True(t, mr.Exists(savestate.StateKey("demo", 1)))

	// A restored NullAI resumes from the saved frame even without new frames
	result, err = runMatch(testContext(t), cfg, matchOptions{MatchID: "demo", Frames: 0, Restore: true})
	require.NoError(t, err)
	assert.True(t, result.Saved)
	saved, err = mr.Get(savestate.StateKey("demo", 0))
	require.NoError(t, err)
	assert.Equal(t, "10", saved)
}

func TestNewHost_RedisUnreachable(t *testing.T) {
	_, stderr := captureOutput(t)
	setupProject(t)
	cfg, err := loadConfig()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	cfg.Redis = &config.RedisConfig{Addr: addr}
	require.NoError(t, cfg.Validate())

	_, err = newHost(testContext(t), cfg, "down")
	require.EqualError(t, err, "Redis connection failed")
	assert.Contains(t, stderr.String(), addr)
}
