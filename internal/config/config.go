package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/dyluth/skirmish/internal/guard"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up when --config is not given.
const DefaultFileName = "skirmish.yml"

// EnvPrefix prefixes every environment override, e.g. SKIRMISH_REDIS_ADDR.
const EnvPrefix = "SKIRMISH_"

// SkirmishConfig represents the top-level skirmish.yml configuration
type SkirmishConfig struct {
	Version string         `yaml:"version"`
	MatchID string         `yaml:"match_id,omitempty"` // Defaults to a fresh UUID at run time
	Roots   catalog.Roots  `yaml:"roots"`
	Guard   *GuardConfig   `yaml:"guard,omitempty"`
	Catalog *CatalogConfig `yaml:"catalog,omitempty"`
	Redis   *RedisConfig   `yaml:"redis,omitempty"` // Optional: persist AI states and publish the lifecycle journal
	Teams   []TeamConfig   `yaml:"teams"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// GuardConfig controls fault containment around native calls
type GuardConfig struct {
	CatchExceptions      *bool  `yaml:"catch_exceptions,omitempty"`       // Default: true
	MaxConsecutiveFaults uint32 `yaml:"max_consecutive_faults,omitempty"` // 0 = never stop calling a faulting AI
	FaultCooldown        string `yaml:"fault_cooldown,omitempty"`         // Default: 30s

	cooldown time.Duration
}

// CatalogConfig controls catalog rescans
type CatalogConfig struct {
	Watch    bool   `yaml:"watch"`
	Debounce string `yaml:"debounce,omitempty"` // Default: 500ms

	debounce time.Duration
}

// RedisConfig points at the Redis used for saved states and the journal
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	TTL      string `yaml:"ttl,omitempty"` // Expiry of saved states, empty = keep forever

	ttl time.Duration
}

// MetricsConfig enables a Prometheus endpoint for the run command
type MetricsConfig struct {
	Addr string `yaml:"addr"` // e.g. ":9464"
}

// TeamConfig is one team's lobby slot
type TeamConfig struct {
	Team     int               `yaml:"team"`
	AllyTeam *int              `yaml:"ally_team,omitempty"` // Default: the team number itself
	AI       string            `yaml:"ai,omitempty"`        // Empty = no AI on this team
	Version  string            `yaml:"version,omitempty"`   // Minimum version, empty = lowest installed
	Options  map[string]string `yaml:"options,omitempty"`
	Cheat    bool              `yaml:"cheat,omitempty"`
}

// overrides holds the settings that can be changed from the environment.
type overrides struct {
	MatchID              string `env:"MATCH_ID"`
	CatchExceptions      bool   `env:"CATCH_EXCEPTIONS"`
	MaxConsecutiveFaults uint32 `env:"MAX_CONSECUTIVE_FAULTS"`
	FaultCooldown        string `env:"FAULT_COOLDOWN"`
	CatalogWatch         bool   `env:"CATALOG_WATCH"`
	RedisAddr            string `env:"REDIS_ADDR"`
	RedisPassword        string `env:"REDIS_PASSWORD"`
	RedisTTL             string `env:"REDIS_TTL"`
	MetricsAddr          string `env:"METRICS_ADDR"`
}

// ApplyEnv overlays SKIRMISH_* variables from environ onto c. A nil environ
// reads the process environment. Variables that are not set leave c unchanged.
func (c *SkirmishConfig) ApplyEnv(environ map[string]string) error {
	o := overrides{MatchID: c.MatchID, CatchExceptions: true}
	if c.Guard != nil {
		if c.Guard.CatchExceptions != nil {
			o.CatchExceptions = *c.Guard.CatchExceptions
		}
		o.MaxConsecutiveFaults = c.Guard.MaxConsecutiveFaults
		o.FaultCooldown = c.Guard.FaultCooldown
	}
	if c.Catalog != nil {
		o.CatalogWatch = c.Catalog.Watch
	}
	if c.Redis != nil {
		o.RedisAddr = c.Redis.Addr
		o.RedisPassword = c.Redis.Password
		o.RedisTTL = c.Redis.TTL
	}
	if c.Metrics != nil {
		o.MetricsAddr = c.Metrics.Addr
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	c.MatchID = o.MatchID
	if c.Guard == nil {
		c.Guard = &GuardConfig{}
	}
	c.Guard.CatchExceptions = &o.CatchExceptions
	c.Guard.MaxConsecutiveFaults = o.MaxConsecutiveFaults
	c.Guard.FaultCooldown = o.FaultCooldown
	if o.CatalogWatch {
		if c.Catalog == nil {
			c.Catalog = &CatalogConfig{}
		}
		c.Catalog.Watch = true
	} else if c.Catalog != nil {
		c.Catalog.Watch = false
	}
	if o.RedisAddr != "" {
		if c.Redis == nil {
			c.Redis = &RedisConfig{}
		}
		c.Redis.Addr = o.RedisAddr
		c.Redis.Password = o.RedisPassword
		c.Redis.TTL = o.RedisTTL
	}
	if o.MetricsAddr != "" {
		c.Metrics = &MetricsConfig{Addr: o.MetricsAddr}
	}
	return nil
}

// Validate performs strict validation on the configuration and applies defaults
func (c *SkirmishConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Required: somewhere to look for modules
	if len(c.Roots.Interfaces) == 0 {
		return fmt.Errorf("roots.interfaces is required")
	}
	if len(c.Roots.Skirmish) == 0 {
		return fmt.Errorf("roots.skirmish is required")
	}

	if c.Guard == nil {
		c.Guard = &GuardConfig{}
	}
	if err := c.Guard.validate(); err != nil {
		return err
	}

	if c.Catalog == nil {
		c.Catalog = &CatalogConfig{}
	}
	if err := c.Catalog.validate(); err != nil {
		return err
	}

	if c.Redis != nil {
		if err := c.Redis.validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics is configured")
	}

	seen := make(map[int]bool, len(c.Teams))
	for i := range c.Teams {
		t := &c.Teams[i]
		if err := t.Validate(); err != nil {
			return err
		}
		if seen[t.Team] {
			return fmt.Errorf("duplicate team %d: each team can have at most one slot", t.Team)
		}
		seen[t.Team] = true
	}

	return nil
}

func (g *GuardConfig) validate() error {
	if g.CatchExceptions == nil {
		catch := true
		g.CatchExceptions = &catch
	}
	if g.FaultCooldown == "" {
		g.FaultCooldown = "30s"
	}
	d, err := time.ParseDuration(g.FaultCooldown)
	if err != nil {
		return fmt.Errorf("guard.fault_cooldown: invalid duration '%s': %w", g.FaultCooldown, err)
	}
	if d <= 0 {
		return fmt.Errorf("guard.fault_cooldown must be positive, got %s", g.FaultCooldown)
	}
	g.cooldown = d
	return nil
}

func (cc *CatalogConfig) validate() error {
	if cc.Debounce == "" {
		cc.debounce = catalog.DefaultDebounce
		return nil
	}
	d, err := time.ParseDuration(cc.Debounce)
	if err != nil {
		return fmt.Errorf("catalog.debounce: invalid duration '%s': %w", cc.Debounce, err)
	}
	cc.debounce = d
	return nil
}

func (r *RedisConfig) validate() error {
	if r.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is configured")
	}
	if r.TTL == "" {
		return nil
	}
	d, err := time.ParseDuration(r.TTL)
	if err != nil {
		return fmt.Errorf("redis.ttl: invalid duration '%s': %w", r.TTL, err)
	}
	if d < 0 {
		return fmt.Errorf("redis.ttl must be >= 0, got %s", r.TTL)
	}
	r.ttl = d
	return nil
}

// Validate performs validation on a single team slot
func (t *TeamConfig) Validate() error {
	if t.Team < 0 {
		return fmt.Errorf("team %d: team number must be >= 0", t.Team)
	}
	if t.AllyTeam == nil {
		ally := t.Team
		t.AllyTeam = &ally
	} else if *t.AllyTeam < 0 {
		return fmt.Errorf("team %d: ally_team must be >= 0", t.Team)
	}
	if t.AI == "" && (t.Version != "" || len(t.Options) > 0 || t.Cheat) {
		return fmt.Errorf("team %d: version, options and cheat need an ai", t.Team)
	}
	return nil
}

// Policy returns the fault containment policy. Call after Validate.
func (g *GuardConfig) Policy() guard.Policy {
	return guard.Policy{
		CatchExceptions:      g.CatchExceptions == nil || *g.CatchExceptions,
		MaxConsecutiveFaults: g.MaxConsecutiveFaults,
		Cooldown:             g.cooldown,
	}
}

// DebounceDuration returns the parsed debounce. Call after Validate.
func (cc *CatalogConfig) DebounceDuration() time.Duration { return cc.debounce }

// TTLDuration returns the parsed TTL, 0 for none. Call after Validate.
func (r *RedisConfig) TTLDuration() time.Duration { return r.ttl }

// Load reads skirmish.yml from the specified path, applies SKIRMISH_*
// environment overrides and validates the result
func Load(path string) (*SkirmishConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config SkirmishConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.ApplyEnv(nil); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
