// Package registry owns the AI instance of every team for one match and
// dispatches simulation notifications to them.
//
// All methods are safe for concurrent use but serialise on one mutex; events
// reach each team's AI in the order they were generated.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dyluth/skirmish/internal/aikey"
	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/dyluth/skirmish/internal/guard"
	"github.com/dyluth/skirmish/internal/library"
	"github.com/dyluth/skirmish/internal/metrics"
	"github.com/dyluth/skirmish/internal/savestate"
	"github.com/dyluth/skirmish/internal/sim"
	"github.com/dyluth/skirmish/internal/skirmish"
	"github.com/dyluth/skirmish/pkg/aiabi"
)

var (
	// ErrUnresolvedAI is returned when a slot's requested AI matches nothing in the catalog.
	ErrUnresolvedAI = errors.New("requested AI cannot be resolved")

	// ErrCreateFailed is returned when an AI was resolved but could not be started.
	ErrCreateFailed = errors.New("failed to create AI")

	// ErrNoAI is returned for operations on a team without an AI.
	ErrNoAI = errors.New("team has no AI")
)

// CatalogSource provides the active catalog. *catalog.Store implements it.
type CatalogSource interface {
	Catalog() *catalog.Catalog
}

// Config wires a registry to its collaborators. Journal and Metrics are optional.
// A nil Guard is replaced by one using guard.DefaultPolicy.
type Config struct {
	MatchID string
	Catalog CatalogSource
	Table   *library.Table
	Guard   *guard.Guard
	Sim     sim.Simulation
	Journal savestate.Journal
	Metrics *metrics.Metrics
}

// CreateOptions customise one AI at creation.
type CreateOptions struct {
	Options     map[string]string
	CheatEvents bool
}

// Slot is a team's AI request as chosen in the lobby: an AI short name and
// an optional minimum version.
type Slot struct {
	Team      int
	ShortName string
	Version   string
	CreateOptions
}

type entry struct {
	ai    *skirmish.AI
	iface *library.LoadedInterface
	lib   *library.AILibrary
}

// Registry maps teams to their AI instances.
type Registry struct {
	cfg Config

	mu       sync.Mutex
	teams    map[int]*entry
	order    []int // teams with an AI, ascending
	nextAIID int
	anyAI    atomic.Bool

	targetsMu sync.Mutex
	targets   map[string]int // guard target -> team
}

// New creates an empty registry. It installs fault hooks on cfg.Guard.
func New(cfg Config) *Registry {
	if cfg.MatchID == "" {
		cfg.MatchID = "local"
	}
	if cfg.Guard == nil {
		cfg.Guard = guard.New(guard.DefaultPolicy())
	}
	r := &Registry{
		cfg:     cfg,
		teams:   make(map[int]*entry),
		targets: make(map[string]int),
	}
	cfg.Guard.OnFault = r.onFault
	cfg.Guard.OnSkip = func(target, operation string) {
		r.cfg.Metrics.CallSkipped(operation)
	}
	return r
}

// MatchID returns the match this registry belongs to.
func (r *Registry) MatchID() string { return r.cfg.MatchID }

// AnyAI reports whether at least one team has an AI.
func (r *Registry) AnyAI() bool { return r.anyAI.Load() }

// AI returns the instance controlling team.
func (r *Registry) AI(team int) (*skirmish.AI, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.teams[team]
	if !ok {
		return nil, false
	}
	return e.ai, true
}

// Teams returns every team with an AI in ascending order.
func (r *Registry) Teams() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.order...)
}

// CreateAIFromSlot resolves the slot's AI against the catalog and creates it.
// An AI that cannot be resolved fails with ErrUnresolvedAI.
func (r *Registry) CreateAIFromSlot(slot Slot) (aikey.AIKey, error) {
	key := r.cfg.Catalog.Catalog().ResolveAI(slot.ShortName, slot.Version)
	if key.IsUnspecified() {
		version := slot.Version
		if version == "" {
			version = "any version"
		}
		return key, fmt.Errorf("%w: team %d wants %s %s", ErrUnresolvedAI, slot.Team, slot.ShortName, version)
	}
	if !r.CreateAI(slot.Team, key, slot.CreateOptions) {
		return key, fmt.Errorf("%w: team %d, %s", ErrCreateFailed, slot.Team, key)
	}
	return key, nil
}

// CreateAI starts the AI key for team. It returns false, leaving nothing
// registered or loaded, if any step fails or team already has an AI.
func (r *Registry) CreateAI(team int, key aikey.AIKey, opts CreateOptions) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teams[team]; exists {
		r.createFailed(team, key, fmt.Errorf("team already has an AI"))
		return false
	}

	cat := r.cfg.Catalog.Catalog()
	aiDesc, err := cat.AI(key)
	if err != nil {
		// A hand-built key may name the minimum interface version instead of
		// the one the catalog resolved.
		ikey := cat.ResolveInterface(key.Interface.ShortName, key.Interface.Version)
		if ikey.IsUnspecified() {
			r.createFailed(team, key, fmt.Errorf("no interface matches %s", key.Interface))
			return false
		}
		key.Interface = ikey
		if aiDesc, err = cat.AI(key); err != nil {
			r.createFailed(team, key, err)
			return false
		}
	}
	key = aiDesc.Key
	ikey := key.Interface

	ifaceDesc, err := cat.Interface(ikey)
	if err != nil {
		r.createFailed(team, key, err)
		return false
	}

	options, err := resolveOptions(aiDesc, opts.Options)
	if err != nil {
		r.createFailed(team, key, err)
		return false
	}

	iface, err := r.cfg.Table.Acquire(ifaceDesc)
	if err != nil {
		r.createFailed(team, key, err)
		return false
	}

	lib, err := iface.LoadAI(aiDesc)
	if err != nil {
		r.releaseInterface(ikey)
		r.createFailed(team, key, err)
		return false
	}

	r.nextAIID++
	aiID := r.nextAIID
	instance := skirmish.New(skirmish.Config{
		SkirmishAIID:    aiID,
		Team:            team,
		AllyTeam:        r.cfg.Sim.AllyTeam(team),
		Descriptor:      aiDesc,
		Options:         options,
		CheatEvents:     opts.CheatEvents,
		CurrentFrame:    r.cfg.Sim.Frame,
		SendTextMessage: r.sendTextMessage(team),
	}, lib)

	r.setTarget(lib.Target(aiID), team)
	if lib.IsStub() {
		r.publish(r.record(savestate.RecordStub, team, instance, "", "interface returned no function table"))
	}

	if !instance.Init() {
		iface.ReleaseAI(key)
		r.releaseInterface(ikey)
		r.clearTarget(lib.Target(aiID))
		r.createFailed(team, key, fmt.Errorf("init failed"))
		return false
	}

	r.teams[team] = &entry{ai: instance, iface: iface, lib: lib}
	r.reorder()

	r.cfg.Metrics.SetLoadedAIs(len(r.teams))
	r.publish(r.record(savestate.RecordCreated, team, instance, "", ""))
	r.logEvent("ai_created", map[string]interface{}{
		"team":     team,
		"ai":       key.String(),
		"instance": instance.ID().String(),
		"stub":     lib.IsStub(),
		"cheat":    opts.CheatEvents,
	})
	return true
}

// resolveOptions validates values against the AI's schema. AIs without a
// schema receive the values unchanged, with lower-cased keys.
func resolveOptions(desc *catalog.AIDescriptor, values map[string]string) (map[string]string, error) {
	if desc.Options == nil {
		out := make(map[string]string, len(values))
		for k, v := range values {
			out[strings.ToLower(k)] = v
		}
		return out, nil
	}
	resolved, err := desc.Options.Resolve(values)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return resolved, nil
}

// DestroyAI releases team's AI, drops its load count and unloads the
// interface when nothing else uses it. It reports whether team had an AI.
func (r *Registry) DestroyAI(team int, reason aiabi.DieReason) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyLocked(team, reason)
}

func (r *Registry) destroyLocked(team int, reason aiabi.DieReason) bool {
	e, ok := r.teams[team]
	if !ok {
		return false
	}

	e.ai.Release(reason)
	e.iface.ReleaseAI(e.ai.Key())
	delete(r.teams, team)
	r.reorder()
	r.releaseInterface(e.iface.Key())

	target := e.lib.Target(e.ai.SkirmishAIID())
	r.clearTarget(target)
	r.cfg.Guard.Forget(target)

	r.cfg.Metrics.SetLoadedAIs(len(r.teams))
	r.publish(r.record(savestate.RecordDestroyed, team, e.ai, e.ai.DieReason().String(), ""))
	r.logEvent("ai_destroyed", map[string]interface{}{
		"team":     team,
		"ai":       e.ai.Key().String(),
		"instance": e.ai.ID().String(),
		"reason":   e.ai.DieReason().String(),
	})
	return true
}

// MarkDying flags team's AI for removal. It keeps receiving only RELEASE.
func (r *Registry) MarkDying(team int, reason aiabi.DieReason) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.teams[team]
	if !ok {
		return false
	}
	e.ai.SetDying(reason)
	return true
}

// SetCheatEvents toggles cheat visibility for team's AI.
func (r *Registry) SetCheatEvents(team int, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.teams[team]
	if !ok {
		return false
	}
	e.ai.SetCheatEvents(enabled)
	return true
}

// Teardown destroys every AI in descending team order, then unloads every interface.
func (r *Registry) Teardown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	teams := append([]int(nil), r.order...)
	for i := len(teams) - 1; i >= 0; i-- {
		r.destroyLocked(teams[i], aiabi.DieReasonGameOver)
	}
	return r.cfg.Table.ReleaseAll()
}

func (r *Registry) releaseInterface(key aikey.InterfaceKey) {
	if _, err := r.cfg.Table.Release(key); err != nil {
		log.Printf("[Registry] Releasing interface %s: %v", key, err)
	}
}

func (r *Registry) reorder() {
	r.order = r.order[:0]
	for t := range r.teams {
		r.order = append(r.order, t)
	}
	sort.Ints(r.order)
	r.anyAI.Store(len(r.order) > 0)
}

func (r *Registry) createFailed(team int, key aikey.AIKey, err error) {
	log.Printf("[Registry] Failed to create AI %s for team %d: %v", key, team, err)
	r.cfg.Metrics.CreateFailed()
	rec := savestate.NewRecord(savestate.RecordCreateFailed, r.cfg.MatchID, team)
	rec.AI = key.String()
	rec.Detail = err.Error()
	rec.Frame = r.cfg.Sim.Frame()
	r.publish(rec)
}

func (r *Registry) sendTextMessage(team int) func(text string, zone int) int {
	return func(text string, zone int) int {
		log.Printf("[Registry] Team %d AI says (zone %d): %s", team, zone, text)
		return 0
	}
}

func (r *Registry) setTarget(target string, team int) {
	r.targetsMu.Lock()
	defer r.targetsMu.Unlock()
	r.targets[target] = team
}

func (r *Registry) clearTarget(target string) {
	r.targetsMu.Lock()
	defer r.targetsMu.Unlock()
	delete(r.targets, target)
}

// onFault runs inside guard.Call, usually while r.mu is held.
func (r *Registry) onFault(f guard.Fault) {
	r.cfg.Metrics.Fault(f.Operation)

	r.targetsMu.Lock()
	team, ok := r.targets[f.Target]
	r.targetsMu.Unlock()
	if !ok {
		team = -1
	}

	rec := savestate.NewRecord(savestate.RecordFault, r.cfg.MatchID, team)
	rec.AI = f.Target
	rec.Reason = f.Operation
	rec.Detail = fmt.Sprint(f.Recovered)
	rec.Frame = r.cfg.Sim.Frame()
	r.publish(rec)
}

func (r *Registry) record(kind savestate.RecordKind, team int, ai *skirmish.AI, reason, detail string) savestate.Record {
	rec := savestate.NewRecord(kind, r.cfg.MatchID, team)
	rec.AI = ai.Key().String()
	rec.Instance = ai.ID().String()
	rec.Reason = reason
	rec.Detail = detail
	rec.Frame = r.cfg.Sim.Frame()
	return rec
}

func (r *Registry) publish(rec savestate.Record) {
	if r.cfg.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.cfg.Journal.Publish(ctx, rec); err != nil {
		log.Printf("[Registry] Failed to publish %s record: %v", rec.Kind, err)
	}
}

// logEvent writes a structured JSON log line.
func (r *Registry) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "registry"
	data["event_type"] = eventType
	data["match"] = r.cfg.MatchID

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Registry] Failed to marshal log event: %v", err)
		return
	}
	log.Println(string(jsonData))
}
