package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func validConfig() *SkirmishConfig {
	return &SkirmishConfig{
		Version: "1.0",
		Roots:   catalog.Roots{Interfaces: []string{"ifaces"}, Skirmish: []string{"ais"}},
		Teams:   []TeamConfig{{Team: 0, AI: "NullAI"}},
	}
}

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `version: "1.0"
match_id: "m-1"
roots:
  interfaces: ["AI/Interfaces"]
  skirmish: ["AI/Skirmish"]
guard:
  catch_exceptions: false
  max_consecutive_faults: 3
  fault_cooldown: "1m"
catalog:
  watch: true
redis:
  addr: "localhost:6379"
  ttl: "24h"
teams:
  - team: 0
    ai: NullAI
    version: "0.1"
    options:
      difficulty: hard
  - team: 1
    ally_team: 0
    ai: RAI
    cheat: true
  - team: 2
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "m-1", config.MatchID)
	assert.Equal(t, []string{"AI/Interfaces"}, config.Roots.Interfaces)
	assert.Equal(t, []string{"AI/Skirmish"}, config.Roots.Skirmish)

	policy := config.Guard.Policy()
	assert.False(t, policy.CatchExceptions)
	assert.Equal(t, uint32(3), policy.MaxConsecutiveFaults)
	assert.Equal(t, time.Minute, policy.Cooldown)

	assert.True(t, config.Catalog.Watch)
	assert.Equal(t, 500*time.Millisecond, config.Catalog.DebounceDuration())
	assert.Equal(t, "localhost:6379", config.Redis.Addr)
	assert.Equal(t, 24*time.Hour, config.Redis.TTLDuration())

	require.Len(t, config.Teams, 3)
	assert.Equal(t, map[string]string{"difficulty": "hard"}, config.Teams[0].Options)
	assert.Equal(t, 0, *config.Teams[0].AllyTeam, "ally team defaults to the team itself")
	assert.Equal(t, 0, *config.Teams[1].AllyTeam)
	assert.True(t, config.Teams[1].Cheat)
	assert.Empty(t, config.Teams[2].AI)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/skirmish.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `version: "1.0"
teams:
  - this is invalid
    yaml syntax
`)

	config, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_InvalidConfiguration(t *testing.T) {
	path := writeConfig(t, `version: "1.0"
teams: []
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "roots.interfaces is required")
}

func TestValidate_Defaults(t *testing.T) {
	config := validConfig()
	require.NoError(t, config.Validate())

	policy := config.Guard.Policy()
	assert.True(t, policy.CatchExceptions)
	assert.Zero(t, policy.MaxConsecutiveFaults)
	assert.Equal(t, 30*time.Second, policy.Cooldown)
	assert.False(t, config.Catalog.Watch)
	assert.Nil(t, config.Redis)
	assert.Nil(t, config.Metrics)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *SkirmishConfig)
		want   string
	}{
		{
			name:   "unsupported version",
			mutate: func(c *SkirmishConfig) { c.Version = "2.0" },
			want:   "unsupported version: 2.0",
		},
		{
			name:   "no skirmish root",
			mutate: func(c *SkirmishConfig) { c.Roots.Skirmish = nil },
			want:   "roots.skirmish is required",
		},
		{
			name:   "bad cooldown",
			mutate: func(c *SkirmishConfig) { c.Guard = &GuardConfig{FaultCooldown: "soon"} },
			want:   "guard.fault_cooldown: invalid duration",
		},
		{
			name:   "negative cooldown",
			mutate: func(c *SkirmishConfig) { c.Guard = &GuardConfig{FaultCooldown: "-1s"} },
			want:   "guard.fault_cooldown must be positive",
		},
		{
			name:   "bad debounce",
			mutate: func(c *SkirmishConfig) { c.Catalog = &CatalogConfig{Debounce: "x"} },
			want:   "catalog.debounce: invalid duration",
		},
		{
			name:   "redis without addr",
			mutate: func(c *SkirmishConfig) { c.Redis = &RedisConfig{} },
			want:   "redis.addr is required",
		},
		{
			name:   "bad redis ttl",
			mutate: func(c *SkirmishConfig) { c.Redis = &RedisConfig{Addr: "x:1", TTL: "forever"} },
			want:   "redis.ttl: invalid duration",
		},
		{
			name:   "metrics without addr",
			mutate: func(c *SkirmishConfig) { c.Metrics = &MetricsConfig{} },
			want:   "metrics.addr is required",
		},
		{
			name: "duplicate team",
			mutate: func(c *SkirmishConfig) {
				c.Teams = append(c.Teams, TeamConfig{Team: 0, AI: "RAI"})
			},
			want: "duplicate team 0",
		},
		{
			name:   "negative team",
			mutate: func(c *SkirmishConfig) { c.Teams[0].Team = -1 },
			want:   "team number must be >= 0",
		},
		{
			name:   "negative ally team",
			mutate: func(c *SkirmishConfig) { c.Teams[0].AllyTeam = intPtr(-2) },
			want:   "ally_team must be >= 0",
		},
		{
			name: "options without ai",
			mutate: func(c *SkirmishConfig) {
				c.Teams[0].AI = ""
				c.Teams[0].Cheat = true
			},
			want: "need an ai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	config := validConfig()
	config.Guard = &GuardConfig{CatchExceptions: boolPtr(true), FaultCooldown: "5s"}

	err := config.ApplyEnv(map[string]string{
		"SKIRMISH_MATCH_ID":               "from-env",
		"SKIRMISH_CATCH_EXCEPTIONS":       "false",
		"SKIRMISH_MAX_CONSECUTIVE_FAULTS": "4",
		"SKIRMISH_CATALOG_WATCH":          "true",
		"SKIRMISH_REDIS_ADDR":             "redis:6379",
		"SKIRMISH_REDIS_TTL":              "1h",
		"SKIRMISH_METRICS_ADDR":           ":9464",
	})
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, "from-env", config.MatchID)
	policy := config.Guard.Policy()
	assert.False(t, policy.CatchExceptions)
	assert.Equal(t, uint32(4), policy.MaxConsecutiveFaults)
	assert.Equal(t, 5*time.Second, policy.Cooldown, "unset variables keep the file value")
	assert.True(t, config.Catalog.Watch)
	assert.Equal(t, "redis:6379", config.Redis.Addr)
	assert.Equal(t, time.Hour, config.Redis.TTLDuration())
	assert.Equal(t, ":9464", config.Metrics.Addr)
}

func TestApplyEnv_EmptyEnvironmentKeepsFile(t *testing.T) {
	config := validConfig()
	config.MatchID = "file"
	config.Guard = &GuardConfig{CatchExceptions: boolPtr(false), MaxConsecutiveFaults: 2}
	config.Redis = &RedisConfig{Addr: "file:6379", TTL: "10m"}

	require.NoError(t, config.ApplyEnv(map[string]string{}))
	require.NoError(t, config.Validate())

	assert.Equal(t, "file", config.MatchID)
	assert.False(t, config.Guard.Policy().CatchExceptions)
	assert.Equal(t, uint32(2), config.Guard.Policy().MaxConsecutiveFaults)
	assert.Equal(t, "file:6379", config.Redis.Addr)
	assert.Equal(t, 10*time.Minute, config.Redis.TTLDuration())
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	config := validConfig()
	err := config.ApplyEnv(map[string]string{"SKIRMISH_MAX_CONSECUTIVE_FAULTS": "lots"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse environment")
}
