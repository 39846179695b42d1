package library

import (
	"fmt"

	"github.com/dyluth/skirmish/internal/aikey"
	"github.com/dyluth/skirmish/internal/guard"
	"github.com/dyluth/skirmish/pkg/aiabi"
)

// stubTable stands in for an AI whose interface returned no function table.
// Every entry point succeeds without doing anything.
var stubTable = aiabi.AILibrary{
	Init:        func(int, *aiabi.Callback) int { return 0 },
	Release:     func(int) int { return 0 },
	HandleEvent: func(int, aiabi.Topic, aiabi.Event) int { return 0 },
}

// AILibrary gives every AI function table the same Init/Release/HandleEvent
// contract, and runs each call inside the fault guard. One AILibrary is shared
// by all instances of the same AIKey.
type AILibrary struct {
	key   aikey.AIKey
	fns   aiabi.AILibrary
	stub  bool
	guard *guard.Guard
}

func newAILibrary(key aikey.AIKey, fns *aiabi.AILibrary, g *guard.Guard) *AILibrary {
	if fns == nil {
		return &AILibrary{key: key, fns: stubTable, stub: true, guard: g}
	}
	return &AILibrary{key: key, fns: *fns, guard: g}
}

// Key returns the AI this table belongs to.
func (a *AILibrary) Key() aikey.AIKey { return a.key }

// IsStub reports whether the table was substituted because loading returned nothing.
func (a *AILibrary) IsStub() bool { return a.stub }

// Target is the guard target name of AI instance aiID.
func (a *AILibrary) Target(aiID int) string {
	return fmt.Sprintf("ai %d (%s)", aiID, a.key)
}

// Init calls the AI's init entry point. A missing entry point succeeds.
func (a *AILibrary) Init(aiID int, cb *aiabi.Callback) (code int, faulted bool) {
	if a.fns.Init == nil {
		return 0, false
	}
	return a.guard.Call(a.Target(aiID), "Init", func() int {
		return a.fns.Init(aiID, cb)
	})
}

// Release calls the AI's release entry point. A missing entry point succeeds.
func (a *AILibrary) Release(aiID int) (code int, faulted bool) {
	if a.fns.Release == nil {
		return 0, false
	}
	return a.guard.Call(a.Target(aiID), "Release", func() int {
		return a.fns.Release(aiID)
	})
}

// HandleEvent forwards one event to the AI.
func (a *AILibrary) HandleEvent(aiID int, topic aiabi.Topic, event aiabi.Event) (code int, faulted bool) {
	if a.fns.HandleEvent == nil {
		return 0, false
	}
	return a.guard.Call(a.Target(aiID), "HandleEvent("+topic.String()+")", func() int {
		return a.fns.HandleEvent(aiID, topic, event)
	})
}
