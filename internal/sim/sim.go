// Package sim declares what the AI host needs from the simulation and
// provides an in-memory World implementing all of it.
package sim

// Units looks up unit ownership.
type Units interface {
	// UnitTeam returns the team owning unit, ok=false for unknown units.
	UnitTeam(unit int) (team int, ok bool)
}

// Alliances answers diplomacy questions between teams.
type Alliances interface {
	Allied(teamA, teamB int) bool
	AllyTeam(team int) int
}

// Visibility reports what a team can currently see.
type Visibility interface {
	InLOS(unit, team int) bool
	InRadar(unit, team int) bool
}

// Clock returns the current simulation frame.
type Clock interface {
	Frame() int
}

// Simulation bundles every collaborator the host consumes.
type Simulation interface {
	Units
	Alliances
	Visibility
	Clock
}
