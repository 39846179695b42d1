package aiabi

// Exported symbol names looked up in an AI Interface library.
const (
	SymbolInitStatic                   = "InitStatic"
	SymbolReleaseStatic                = "ReleaseStatic"
	SymbolLoadSkirmishAILibrary        = "LoadSkirmishAILibrary"
	SymbolUnloadSkirmishAILibrary      = "UnloadSkirmishAILibrary"
	SymbolUnloadAllSkirmishAILibraries = "UnloadAllSkirmishAILibraries"
	SymbolHandleEvent                  = "HandleEvent"
)

// Function types of the interface entry points.
type (
	InitStaticFunc                   = func(interfaceID int, cb *InterfaceCallback) int
	ReleaseStaticFunc                = func() int
	LoadSkirmishAILibraryFunc        = func(shortName, version string) *AILibrary
	UnloadSkirmishAILibraryFunc      = func(shortName, version string) int
	UnloadAllSkirmishAILibrariesFunc = func() int
	InterfaceHandleEventFunc         = func(topic Topic, event Event) int
)

// InterfaceLibrary is the resolved entry point table of one AI Interface.
// InitStatic and ReleaseStatic may be nil, every other field is mandatory.
type InterfaceLibrary struct {
	InitStatic                   InitStaticFunc
	ReleaseStatic                ReleaseStaticFunc
	LoadSkirmishAILibrary        LoadSkirmishAILibraryFunc
	UnloadSkirmishAILibrary      UnloadSkirmishAILibraryFunc
	UnloadAllSkirmishAILibraries UnloadAllSkirmishAILibrariesFunc
	HandleEvent                  InterfaceHandleEventFunc
}

// AILibrary is the function table of one Skirmish AI, returned by the
// interface's LoadSkirmishAILibrary. A nil Init or Release is treated as a
// function that returns 0.
type AILibrary struct {
	Init        func(aiID int, cb *Callback) int
	Release     func(aiID int) int
	HandleEvent func(aiID int, topic Topic, event Event) int
}

// DieReason explains why an AI instance is being torn down.
type DieReason int

const (
	DieReasonUnspecified DieReason = iota
	DieReasonGameOver
	DieReasonTeamDied
	DieReasonInitFailed
	DieReasonKilled
	DieReasonReload
	DieReasonFault
)

func (r DieReason) String() string {
	switch r {
	case DieReasonGameOver:
		return "game_over"
	case DieReasonTeamDied:
		return "team_died"
	case DieReasonInitFailed:
		return "init_failed"
	case DieReasonKilled:
		return "killed"
	case DieReasonReload:
		return "reload"
	case DieReasonFault:
		return "fault"
	default:
		return "unspecified"
	}
}
