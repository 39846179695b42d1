package sim

import "sync"

// World is an in-memory Simulation. It is safe for concurrent use.
type World struct {
	mu       sync.RWMutex
	frame    int
	allyTeam map[int]int
	units    map[int]int
	los      map[int]map[int]bool // unit -> team -> visible
	radar    map[int]map[int]bool
}

// NewWorld creates an empty world at frame 0.
func NewWorld() *World {
	return &World{
		allyTeam: make(map[int]int),
		units:    make(map[int]int),
		los:      make(map[int]map[int]bool),
		radar:    make(map[int]map[int]bool),
	}
}

// AddTeam places team in allyTeam.
func (w *World) AddTeam(team, allyTeam int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.allyTeam[team] = allyTeam
}

// Teams returns every team added to the world.
func (w *World) Teams() []int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	teams := make([]int, 0, len(w.allyTeam))
	for t := range w.allyTeam {
		teams = append(teams, t)
	}
	return teams
}

// SetUnit sets the owner of unit.
func (w *World) SetUnit(unit, team int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.units[unit] = team
}

// RemoveUnit forgets unit and everything known about its visibility.
func (w *World) RemoveUnit(unit int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.units, unit)
	delete(w.los, unit)
	delete(w.radar, unit)
}

// SetLOS sets whether team has unit in line of sight.
func (w *World) SetLOS(unit, team int, visible bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	set(w.los, unit, team, visible)
}

// SetRadar sets whether team has unit on radar.
func (w *World) SetRadar(unit, team int, visible bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	set(w.radar, unit, team, visible)
}

func set(m map[int]map[int]bool, unit, team int, v bool) {
	if !v {
		delete(m[unit], team)
		return
	}
	if m[unit] == nil {
		m[unit] = make(map[int]bool)
	}
	m[unit][team] = true
}

// Advance moves the clock forward one frame and returns the new frame.
func (w *World) Advance() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frame++
	return w.frame
}

func (w *World) Frame() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frame
}

func (w *World) UnitTeam(unit int) (int, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	team, ok := w.units[unit]
	return team, ok
}

// AllyTeam returns the ally team of team. Unknown teams are their own ally team.
func (w *World) AllyTeam(team int) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if a, ok := w.allyTeam[team]; ok {
		return a
	}
	return team
}

// Allied reports whether both teams share an ally team.
func (w *World) Allied(teamA, teamB int) bool {
	return w.AllyTeam(teamA) == w.AllyTeam(teamB)
}

// InLOS reports whether team sees unit. Teams always see their allies' units.
func (w *World) InLOS(unit, team int) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.los[unit][team] || w.ownedByAllyLocked(unit, team)
}

func (w *World) InRadar(unit, team int) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.radar[unit][team] || w.ownedByAllyLocked(unit, team)
}

func (w *World) ownedByAllyLocked(unit, team int) bool {
	owner, ok := w.units[unit]
	if !ok {
		return false
	}
	return w.allyOfLocked(owner) == w.allyOfLocked(team)
}

func (w *World) allyOfLocked(team int) int {
	if a, ok := w.allyTeam[team]; ok {
		return a
	}
	return team
}
