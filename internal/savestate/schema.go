package savestate

import "fmt"

// StateKey returns the Redis key holding the saved state of one team's AI.
// Pattern: skirmish:{match}:aistate:{team}
func StateKey(matchID string, team int) string {
	return fmt.Sprintf("skirmish:%s:aistate:%d", matchID, team)
}

// StateIndexKey returns the Redis set listing every team with saved state.
// Pattern: skirmish:{match}:aistates
func StateIndexKey(matchID string) string {
	return fmt.Sprintf("skirmish:%s:aistates", matchID)
}

// EventsChannel returns the Pub/Sub channel carrying lifecycle records.
// Pattern: skirmish:{match}:ai_events
func EventsChannel(matchID string) string {
	return fmt.Sprintf("skirmish:%s:ai_events", matchID)
}
