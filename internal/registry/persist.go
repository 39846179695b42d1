package registry

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dyluth/skirmish/internal/savestate"
)

// Save asks team's AI for its state.
func (r *Registry) Save(team int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.teams[team]
	if !ok {
		return nil, fmt.Errorf("%w: team %d", ErrNoAI, team)
	}
	data, err := e.ai.Save()
	if err != nil {
		return nil, fmt.Errorf("failed to save team %d: %w", team, err)
	}
	return data, nil
}

// Load hands a saved state to team's AI.
func (r *Registry) Load(team int, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.teams[team]
	if !ok {
		return fmt.Errorf("%w: team %d", ErrNoAI, team)
	}
	if err := e.ai.Load(data); err != nil {
		return fmt.Errorf("failed to load team %d: %w", team, err)
	}
	return nil
}

// SaveAll saves every AI's state to store. A team that fails to save is
// logged and skipped; the joined errors are returned.
func (r *Registry) SaveAll(ctx context.Context, store savestate.Store) error {
	var errs []error
	for _, team := range r.Teams() {
		data, err := r.Save(team)
		if err == nil {
			err = store.Put(ctx, r.cfg.MatchID, team, data)
		}
		if err != nil {
			log.Printf("[Registry] Failed to save state of team %d: %v", team, err)
			errs = append(errs, err)
			continue
		}
		if ai, ok := r.AI(team); ok {
			r.publish(r.record(savestate.RecordSaved, team, ai, "", fmt.Sprintf("%d bytes", len(data))))
		}
	}
	return errors.Join(errs...)
}

// LoadAll restores every AI that has a saved state in store.
func (r *Registry) LoadAll(ctx context.Context, store savestate.Store) error {
	var errs []error
	for _, team := range r.Teams() {
		data, err := store.Get(ctx, r.cfg.MatchID, team)
		if savestate.IsNotFound(err) {
			continue
		}
		if err == nil {
			err = r.Load(team, data)
		}
		if err != nil {
			log.Printf("[Registry] Failed to restore state of team %d: %v", team, err)
			errs = append(errs, err)
			continue
		}
		if ai, ok := r.AI(team); ok {
			r.publish(r.record(savestate.RecordLoaded, team, ai, "", fmt.Sprintf("%d bytes", len(data))))
		}
	}
	return errors.Join(errs...)
}
