// Package aiabi defines the binary contract between the skirmish host and the
// third-party modules it loads.
//
// # Overview
//
// Two kinds of modules cross this boundary. An AI Interface is an adapter library
// that knows how to load Skirmish AIs written against one ABI (native Go, a bridge
// to another runtime, ...). A Skirmish AI is a concrete game-playing module that
// controls exactly one team for the lifetime of a match.
//
// Each kind exposes a fixed function table. Every function returns an int where
// 0 means success and any other value is a module-defined error code.
//
// # Interface table
//
//	InitStatic(interfaceID int, cb *InterfaceCallback) int   // optional
//	ReleaseStatic() int                                      // optional
//	LoadSkirmishAILibrary(shortName, version string) *AILibrary
//	UnloadSkirmishAILibrary(shortName, version string) int
//	UnloadAllSkirmishAILibraries() int
//	HandleEvent(topic Topic, event Event) int
//
// A Go plugin built with -buildmode=plugin exports these under the symbol names
// in the Symbol* constants, either as functions or as variables of function type.
//
// # AI table
//
//	Init(aiID int, cb *Callback) int
//	Release(aiID int) int
//	HandleEvent(aiID int, topic Topic, event Event) int
//
// # Events
//
// All simulation notifications reach an AI through the single HandleEvent entry
// point. The Topic tags which payload struct is carried; every payload implements
// Event and reports its own topic. The set of topics is closed.
// An AI must not retain an Event after HandleEvent returns.
package aiabi
