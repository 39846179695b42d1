// Package builtin provides the AI Interface linked into the skirmish binary.
//
// The Null interface serves a single AI, NullAI, which does nothing but keep
// track of the frames it has seen. It gives a headless match something to load
// when no plugin is installed.
package builtin

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/dyluth/skirmish/internal/native"
	"github.com/dyluth/skirmish/pkg/aiabi"
)

const (
	// InterfaceName is the name the interface is registered under.
	InterfaceName = "Null"
	// Library is the descriptor library value that selects it.
	Library = native.BuiltinScheme + InterfaceName
	// NullAIName is the short name of the AI it serves.
	NullAIName = "NullAI"

	defaultLogInterval = 300
)

// NullInterface is the in-process Null interface.
type NullInterface struct {
	mu      sync.Mutex
	cb      *aiabi.InterfaceCallback
	loaded  map[string]int // "shortName version" -> loads
	players map[int]*nullAI
	frame   int
}

type nullAI struct {
	cb          *aiabi.Callback
	logInterval int
	lastFrame   int
	events      int
}

// NewNullInterface creates an interface with nothing loaded.
func NewNullInterface() *NullInterface {
	return &NullInterface{loaded: make(map[string]int), players: make(map[int]*nullAI)}
}

// Register adds a fresh Null interface to reg.
func Register(reg *native.StaticRegistry) *NullInterface {
	n := NewNullInterface()
	reg.Register(InterfaceName, n.Symbols())
	return n
}

// Symbols returns the interface's exported entry points.
func (n *NullInterface) Symbols() native.Symbols {
	return native.Symbols{
		aiabi.SymbolInitStatic:                   aiabi.InitStaticFunc(n.initStatic),
		aiabi.SymbolReleaseStatic:                aiabi.ReleaseStaticFunc(n.releaseStatic),
		aiabi.SymbolLoadSkirmishAILibrary:        aiabi.LoadSkirmishAILibraryFunc(n.load),
		aiabi.SymbolUnloadSkirmishAILibrary:      aiabi.UnloadSkirmishAILibraryFunc(n.unload),
		aiabi.SymbolUnloadAllSkirmishAILibraries: aiabi.UnloadAllSkirmishAILibrariesFunc(n.unloadAll),
		aiabi.SymbolHandleEvent:                  aiabi.InterfaceHandleEventFunc(n.handleInterfaceEvent),
	}
}

// Frame returns the last frame the interface itself was told about.
func (n *NullInterface) Frame() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.frame
}

// Players returns how many NullAI instances are alive.
func (n *NullInterface) Players() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.players)
}

// LastFrame returns the last frame the NullAI with aiID has seen.
func (n *NullInterface) LastFrame(aiID int) (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.players[aiID]
	if !ok {
		return 0, false
	}
	return p.lastFrame, true
}

func (n *NullInterface) initStatic(interfaceID int, cb *aiabi.InterfaceCallback) int {
	n.mu.Lock()
	n.cb = cb
	n.mu.Unlock()
	cb.Log(fmt.Sprintf("interface %d ready", interfaceID))
	return 0
}

func (n *NullInterface) releaseStatic() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cb = nil
	return 0
}

func (n *NullInterface) load(shortName, version string) *aiabi.AILibrary {
	if shortName != NullAIName {
		return nil
	}
	n.mu.Lock()
	n.loaded[shortName+" "+version]++
	n.mu.Unlock()
	return &aiabi.AILibrary{Init: n.initAI, Release: n.releaseAI, HandleEvent: n.handleAIEvent}
}

func (n *NullInterface) unload(shortName, version string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := shortName + " " + version
	if n.loaded[key] == 0 {
		return 1
	}
	delete(n.loaded, key)
	return 0
}

func (n *NullInterface) unloadAll() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loaded = make(map[string]int)
	return 0
}

func (n *NullInterface) handleInterfaceEvent(topic aiabi.Topic, event aiabi.Event) int {
	if ev, ok := event.(aiabi.UpdateEvent); ok {
		n.mu.Lock()
		n.frame = ev.Frame
		n.mu.Unlock()
	}
	return 0
}

func (n *NullInterface) initAI(aiID int, cb *aiabi.Callback) int {
	interval := defaultLogInterval
	if v := cb.OptionValue("log_interval"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 {
			cb.Log(fmt.Sprintf("bad log_interval %q", v))
			return 1
		}
		interval = i
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.players[aiID] = &nullAI{cb: cb, logInterval: interval}
	return 0
}

func (n *NullInterface) releaseAI(aiID int) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.players[aiID]; !ok {
		return 1
	}
	delete(n.players, aiID)
	return 0
}

func (n *NullInterface) handleAIEvent(aiID int, topic aiabi.Topic, event aiabi.Event) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.players[aiID]
	if !ok {
		return 1
	}
	p.events++

	switch ev := event.(type) {
	case aiabi.InitEvent:
		p.cb.Log(fmt.Sprintf("playing team %d (ally team %d)", p.cb.Team, p.cb.AllyTeam))
	case aiabi.UpdateEvent:
		p.lastFrame = ev.Frame
		if p.logInterval > 0 && ev.Frame%p.logInterval == 0 {
			p.cb.Log(fmt.Sprintf("frame %d, %d events so far", ev.Frame, p.events))
		}
	case aiabi.MessageEvent:
		if strings.EqualFold(strings.TrimSpace(ev.Message), "status") {
			p.cb.SendTextMessage(fmt.Sprintf("NullAI idle at frame %d", p.lastFrame), 0)
		}
	case aiabi.SaveEvent:
		if err := os.WriteFile(ev.File, []byte(strconv.Itoa(p.lastFrame)), 0644); err != nil {
			return 1
		}
	case aiabi.LoadEvent:
		data, err := os.ReadFile(ev.File)
		if err != nil {
			return 1
		}
		frame, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			return 1
		}
		p.lastFrame = frame
	case aiabi.ReleaseEvent:
		p.cb.Log(fmt.Sprintf("released: %s", ev.Reason))
	}
	return 0
}
