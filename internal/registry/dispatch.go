package registry

import (
	"github.com/dyluth/skirmish/pkg/aiabi"
)

// deliverLocked forwards ev to one team's AI. Faults are contained by the AI library.
func (r *Registry) deliverLocked(e *entry, ev aiabi.Event) {
	topic := ev.Topic()
	if _, delivered := e.ai.HandleEvent(topic, ev); delivered {
		r.cfg.Metrics.EventDelivered(topic.String())
	}
}

// toTeam delivers ev to the AI of team, if any.
func (r *Registry) toTeam(team int, ev aiabi.Event) {
	if !r.anyAI.Load() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.teams[team]; ok {
		r.deliverLocked(e, ev)
	}
}

// toOwner delivers ev to the AI of the team owning unit.
func (r *Registry) toOwner(unit int, ev aiabi.Event) {
	if !r.anyAI.Load() {
		return
	}
	team, ok := r.cfg.Sim.UnitTeam(unit)
	if !ok {
		return
	}
	r.toTeam(team, ev)
}

// toAll delivers ev to every AI in ascending team order.
func (r *Registry) toAll(ev aiabi.Event) {
	if !r.anyAI.Load() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, team := range r.order {
		r.deliverLocked(r.teams[team], ev)
	}
}

// toObservers delivers ev to every team not allied with unit's owner that
// has unit in LOS or on radar, or has cheat visibility.
func (r *Registry) toObservers(unit int, ev aiabi.Event) {
	if !r.anyAI.Load() {
		return
	}
	owner, known := r.cfg.Sim.UnitTeam(unit)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, team := range r.order {
		if known && r.cfg.Sim.Allied(team, owner) {
			continue
		}
		e := r.teams[team]
		visible := r.cfg.Sim.InLOS(unit, team) || r.cfg.Sim.InRadar(unit, team)
		if !visible && !e.ai.CheatEvents() {
			r.cfg.Metrics.EventSuppressed(ev.Topic().String())
			continue
		}
		r.deliverLocked(e, ev)
	}
}

// toEnemyOf delivers ev to team, provided team is not allied with unit's owner.
// Used for LOS and radar transitions, whose visibility has just changed.
func (r *Registry) toEnemyOf(team, unit int, ev aiabi.Event) {
	if !r.anyAI.Load() {
		return
	}
	if owner, ok := r.cfg.Sim.UnitTeam(unit); ok && r.cfg.Sim.Allied(team, owner) {
		return
	}
	r.toTeam(team, ev)
}

// attackerFor hides the attacker from team unless team can see it.
func (r *Registry) attackerFor(team, attacker int) int {
	if attacker < 0 {
		return -1
	}
	r.mu.Lock()
	e, ok := r.teams[team]
	cheat := ok && e.ai.CheatEvents()
	r.mu.Unlock()
	if cheat || r.cfg.Sim.InLOS(attacker, team) || r.cfg.Sim.InRadar(attacker, team) {
		return attacker
	}
	return -1
}

// Update delivers the per-frame UPDATE, first to every loaded interface and then to every AI.
func (r *Registry) Update(frame int) {
	if !r.anyAI.Load() {
		return
	}
	ev := aiabi.UpdateEvent{Frame: frame}
	r.mu.Lock()
	r.cfg.Table.Broadcast(ev.Topic(), ev)
	r.mu.Unlock()
	r.toAll(ev)
}

// Message delivers a chat line to every AI.
func (r *Registry) Message(player int, msg string) {
	r.toAll(aiabi.MessageEvent{Player: player, Message: msg})
}

// UnitCreated tells the owner that unit was started by builder.
func (r *Registry) UnitCreated(unit, builder int) {
	r.toOwner(unit, aiabi.UnitCreatedEvent{Unit: unit, Builder: builder})
}

// UnitFinished tells the owner that unit is fully built.
func (r *Registry) UnitFinished(unit int) {
	r.toOwner(unit, aiabi.UnitFinishedEvent{Unit: unit})
}

// UnitIdle tells the owner that unit has no more orders.
func (r *Registry) UnitIdle(unit int) {
	r.toOwner(unit, aiabi.UnitIdleEvent{Unit: unit})
}

// UnitMoveFailed tells the owner that unit could not reach its destination.
func (r *Registry) UnitMoveFailed(unit int) {
	r.toOwner(unit, aiabi.UnitMoveFailedEvent{Unit: unit})
}

// UnitDamaged tells the owner its unit was hit. The attacker id is -1 unless
// the owner can see the attacker.
func (r *Registry) UnitDamaged(unit, attacker int, damage float32, dir aiabi.Vec3, weaponDefID int, paralyzer bool) {
	if !r.anyAI.Load() {
		return
	}
	team, ok := r.cfg.Sim.UnitTeam(unit)
	if !ok {
		return
	}
	r.toTeam(team, aiabi.UnitDamagedEvent{
		Unit:        unit,
		Attacker:    r.attackerFor(team, attacker),
		Damage:      damage,
		Dir:         dir,
		WeaponDefID: weaponDefID,
		Paralyzer:   paralyzer,
	})
}

// UnitDestroyed tells the owner its unit died. Call it before the unit is
// removed from the simulation.
func (r *Registry) UnitDestroyed(unit, attacker, weaponDefID int) {
	if !r.anyAI.Load() {
		return
	}
	team, ok := r.cfg.Sim.UnitTeam(unit)
	if !ok {
		return
	}
	r.toTeam(team, aiabi.UnitDestroyedEvent{
		Unit:        unit,
		Attacker:    r.attackerFor(team, attacker),
		WeaponDefID: weaponDefID,
	})
}

// UnitGiven tells both the previous and the new owner about a transfer.
func (r *Registry) UnitGiven(unit, oldTeam, newTeam int) {
	ev := aiabi.UnitGivenEvent{Unit: unit, OldTeam: oldTeam, NewTeam: newTeam}
	r.toTeam(oldTeam, ev)
	if newTeam != oldTeam {
		r.toTeam(newTeam, ev)
	}
}

// UnitCaptured tells both the previous and the new owner about a capture.
func (r *Registry) UnitCaptured(unit, oldTeam, newTeam int) {
	ev := aiabi.UnitCapturedEvent{Unit: unit, OldTeam: oldTeam, NewTeam: newTeam}
	r.toTeam(oldTeam, ev)
	if newTeam != oldTeam {
		r.toTeam(newTeam, ev)
	}
}

// EnemyCreated tells every team that can see enemy that it was started.
func (r *Registry) EnemyCreated(enemy int) {
	r.toObservers(enemy, aiabi.EnemyCreatedEvent{Enemy: enemy})
}

// EnemyFinished tells every team that can see enemy that it is fully built.
func (r *Registry) EnemyFinished(enemy int) {
	r.toObservers(enemy, aiabi.EnemyFinishedEvent{Enemy: enemy})
}

// EnemyEnterLOS tells team that enemy came into its line of sight.
func (r *Registry) EnemyEnterLOS(enemy, team int) {
	r.toEnemyOf(team, enemy, aiabi.EnemyEnterLOSEvent{Enemy: enemy})
}

// EnemyLeaveLOS tells team that enemy left its line of sight.
func (r *Registry) EnemyLeaveLOS(enemy, team int) {
	r.toEnemyOf(team, enemy, aiabi.EnemyLeaveLOSEvent{Enemy: enemy})
}

// EnemyEnterRadar tells team that enemy appeared on its radar.
func (r *Registry) EnemyEnterRadar(enemy, team int) {
	r.toEnemyOf(team, enemy, aiabi.EnemyEnterRadarEvent{Enemy: enemy})
}

// EnemyLeaveRadar tells team that enemy dropped off its radar.
func (r *Registry) EnemyLeaveRadar(enemy, team int) {
	r.toEnemyOf(team, enemy, aiabi.EnemyLeaveRadarEvent{Enemy: enemy})
}

// EnemyDestroyed tells every team that could see enemy that it died. Call it
// before the unit is removed from the simulation.
func (r *Registry) EnemyDestroyed(enemy, attacker int) {
	r.toObservers(enemy, aiabi.EnemyDestroyedEvent{Enemy: enemy, Attacker: attacker})
}

// EnemyDamaged tells every team that can see enemy that it was hit.
func (r *Registry) EnemyDamaged(enemy, attacker int, damage float32, dir aiabi.Vec3, weaponDefID int, paralyzer bool) {
	r.toObservers(enemy, aiabi.EnemyDamagedEvent{
		Enemy:       enemy,
		Attacker:    attacker,
		Damage:      damage,
		Dir:         dir,
		WeaponDefID: weaponDefID,
		Paralyzer:   paralyzer,
	})
}

// WeaponFired tells the owner that unit fired a weapon.
func (r *Registry) WeaponFired(unit, weaponDefID int) {
	r.toOwner(unit, aiabi.WeaponFiredEvent{Unit: unit, WeaponDefID: weaponDefID})
}

// PlayerCommand tells each owning team which of its units a player commanded.
func (r *Registry) PlayerCommand(units []int, commandTopic, player int) {
	if !r.anyAI.Load() {
		return
	}
	byTeam := make(map[int][]int)
	var teams []int
	for _, u := range units {
		team, ok := r.cfg.Sim.UnitTeam(u)
		if !ok {
			continue
		}
		if _, seen := byTeam[team]; !seen {
			teams = append(teams, team)
		}
		byTeam[team] = append(byTeam[team], u)
	}
	for _, team := range teams {
		r.toTeam(team, aiabi.PlayerCommandEvent{Units: byTeam[team], CommandTopic: commandTopic, Player: player})
	}
}

// CommandFinished tells the owner that unit completed a command.
func (r *Registry) CommandFinished(unit, commandID, commandTopic int) {
	r.toOwner(unit, aiabi.CommandFinishedEvent{Unit: unit, CommandID: commandID, CommandTopic: commandTopic})
}

// SeismicPing tells team its seismic detectors picked something up.
func (r *Registry) SeismicPing(team int, pos aiabi.Vec3, strength float32) {
	r.toTeam(team, aiabi.SeismicPingEvent{Pos: pos, Strength: strength})
}
