// Package skirmish implements the AI instance: one running Skirmish AI
// controlling one team, with its lifecycle state machine.
package skirmish

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/dyluth/skirmish/internal/aikey"
	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/dyluth/skirmish/pkg/aiabi"
)

// State is the lifecycle state of an AI instance.
type State int

const (
	StateConstructed State = iota
	StateInitialized
	StateReleasing
	StateReleased
	// StateFailed is terminal: Init did not succeed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateInitialized:
		return "initialized"
	case StateReleasing:
		return "releasing"
	case StateReleased:
		return "released"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNotRunning is returned by Save and Load on an instance that cannot take events.
var ErrNotRunning = errors.New("AI instance is not running")

// Library is the function table an instance drives. *library.AILibrary implements it.
type Library interface {
	Init(aiID int, cb *aiabi.Callback) (code int, faulted bool)
	Release(aiID int) (code int, faulted bool)
	HandleEvent(aiID int, topic aiabi.Topic, event aiabi.Event) (code int, faulted bool)
}

// Config describes the instance to construct.
type Config struct {
	SkirmishAIID int
	Team         int
	AllyTeam     int
	Descriptor   *catalog.AIDescriptor
	Options      map[string]string
	CheatEvents  bool

	// CurrentFrame and SendTextMessage back the callback functions of the
	// same name; nil values are replaced by no-ops.
	CurrentFrame    func() int
	SendTextMessage func(text string, zone int) int
}

// AI is one Skirmish AI instance bound to a team.
type AI struct {
	id       uuid.UUID
	aiID     int
	team     int
	key      aikey.AIKey
	lib      Library
	callback *aiabi.Callback

	mu        sync.Mutex
	state     State
	dying     bool
	dieReason aiabi.DieReason
	cheat     bool
}

// New constructs an instance in StateConstructed. Nothing is sent to the AI
// until Init is called.
func New(cfg Config, lib Library) *AI {
	ai := &AI{
		id:    uuid.New(),
		aiID:  cfg.SkirmishAIID,
		team:  cfg.Team,
		key:   cfg.Descriptor.Key,
		lib:   lib,
		cheat: cfg.CheatEvents,
	}
	ai.callback = ai.buildCallback(cfg)
	return ai
}

func (ai *AI) buildCallback(cfg Config) *aiabi.Callback {
	desc := cfg.Descriptor

	options := make(map[string]string, len(cfg.Options))
	for k, v := range cfg.Options {
		options[k] = v
	}

	frame := cfg.CurrentFrame
	if frame == nil {
		frame = func() int { return 0 }
	}
	send := cfg.SendTextMessage
	if send == nil {
		send = func(string, int) int { return 0 }
	}

	return &aiabi.Callback{
		SkirmishAIID:    cfg.SkirmishAIID,
		Team:            cfg.Team,
		AllyTeam:        cfg.AllyTeam,
		ShortName:       desc.Key.ShortName,
		Version:         desc.Key.Version,
		DataDir:         desc.DataDir,
		CommonDataDir:   desc.CommonDataDir,
		Options:         options,
		Info:            desc.Info(),
		CurrentFrame:    frame,
		Log:             func(msg string) { ai.logf("%s", msg) },
		SendTextMessage: send,
	}
}

func (ai *AI) logf(format string, args ...any) {
	log.Printf("[AI] team %d %s: %s", ai.team, ai.key, fmt.Sprintf(format, args...))
}

// ID returns the unique id of this instance, used to tell instances apart in logs.
func (ai *AI) ID() uuid.UUID { return ai.id }

// SkirmishAIID returns the id the AI sees in its callbacks.
func (ai *AI) SkirmishAIID() int { return ai.aiID }

func (ai *AI) Team() int { return ai.team }

func (ai *AI) Key() aikey.AIKey { return ai.key }

// Callback returns the context block handed to the AI.
func (ai *AI) Callback() *aiabi.Callback { return ai.callback }

// State returns the lifecycle state.
func (ai *AI) State() State {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	return ai.state
}

// IsInitialized reports whether Init succeeded and the instance has not been released.
func (ai *AI) IsInitialized() bool {
	return ai.State() == StateInitialized
}

// IsDying reports whether SetDying was called.
func (ai *AI) IsDying() bool {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	return ai.dying
}

// DieReason returns the recorded reason the instance failed or is being removed.
func (ai *AI) DieReason() aiabi.DieReason {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	return ai.dieReason
}

// CheatEvents reports whether the instance sees events regardless of visibility.
func (ai *AI) CheatEvents() bool {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	return ai.cheat
}

func (ai *AI) SetCheatEvents(enabled bool) {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	ai.cheat = enabled
}

// SetDying marks the instance for removal. From now on only RELEASE is forwarded.
func (ai *AI) SetDying(reason aiabi.DieReason) {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	if !ai.dying {
		ai.dying = true
		ai.dieReason = reason
	}
}

// Init calls the AI's init entry point and then delivers the INIT event.
// A non-zero result or a fault moves the instance to StateFailed with
// DieReasonInitFailed. Init is only effective once.
func (ai *AI) Init() bool {
	ai.mu.Lock()
	defer ai.mu.Unlock()

	if ai.state != StateConstructed {
		return ai.state == StateInitialized
	}

	code, faulted := ai.lib.Init(ai.aiID, ai.callback)
	if code == 0 && !faulted {
		code, faulted = ai.lib.HandleEvent(ai.aiID, aiabi.TopicInit, aiabi.InitEvent{
			SkirmishAIID: ai.aiID,
			Callback:     ai.callback,
		})
	}
	if code != 0 || faulted {
		ai.state = StateFailed
		ai.dieReason = aiabi.DieReasonInitFailed
		ai.logf("Initialisation failed (code %d, faulted %t)", code, faulted)
		return false
	}

	ai.state = StateInitialized
	ai.logf("Initialised as skirmish AI %d", ai.aiID)
	return true
}

// Release sends the RELEASE event and calls the AI's release entry point.
// Only the first call has any effect. An instance that never initialised moves
// straight to StateReleased without being called.
func (ai *AI) Release(reason aiabi.DieReason) {
	ai.mu.Lock()
	defer ai.mu.Unlock()

	switch ai.state {
	case StateReleasing, StateReleased:
		return
	case StateConstructed, StateFailed:
		ai.state = StateReleased
		return
	}

	ai.state = StateReleasing
	if !ai.dying {
		ai.dieReason = reason
	}

	if code, _ := ai.lib.HandleEvent(ai.aiID, aiabi.TopicRelease, aiabi.ReleaseEvent{Reason: reason}); code != 0 {
		ai.logf("RELEASE event returned %d", code)
	}
	if code, _ := ai.lib.Release(ai.aiID); code != 0 {
		ai.logf("Release returned %d", code)
	}
	ai.state = StateReleased
	ai.logf("Released (%s)", reason)
}

// HandleEvent forwards event to the AI. It reports the AI's result and whether
// the event was actually forwarded. Events to an instance that is not
// initialised, or that is dying, are dropped and reported as success. A
// RELEASE event is handled as Release.
func (ai *AI) HandleEvent(topic aiabi.Topic, event aiabi.Event) (code int, delivered bool) {
	if topic == aiabi.TopicRelease {
		reason := aiabi.DieReasonUnspecified
		if ev, ok := event.(aiabi.ReleaseEvent); ok {
			reason = ev.Reason
		}
		ai.Release(reason)
		return 0, true
	}

	ai.mu.Lock()
	defer ai.mu.Unlock()
	if ai.state != StateInitialized || ai.dying {
		return 0, false
	}

	code, faulted := ai.lib.HandleEvent(ai.aiID, topic, event)
	if faulted {
		return 0, true
	}
	return code, true
}
