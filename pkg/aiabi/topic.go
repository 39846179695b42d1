package aiabi

import "fmt"

// Topic identifies which simulation notification is delivered through HandleEvent.
type Topic int

const (
	TopicInit Topic = iota + 1
	TopicRelease
	TopicUpdate
	TopicMessage
	TopicUnitCreated
	TopicUnitFinished
	TopicUnitIdle
	TopicUnitMoveFailed
	TopicUnitDamaged
	TopicUnitDestroyed
	TopicUnitGiven
	TopicUnitCaptured
	TopicEnemyEnterLOS
	TopicEnemyLeaveLOS
	TopicEnemyEnterRadar
	TopicEnemyLeaveRadar
	TopicEnemyDamaged
	TopicEnemyDestroyed
	TopicWeaponFired
	TopicPlayerCommand
	TopicSeismicPing
	TopicCommandFinished
	TopicLoad
	TopicSave
	TopicEnemyCreated
	TopicEnemyFinished
)

var topicNames = map[Topic]string{
	TopicInit:            "INIT",
	TopicRelease:         "RELEASE",
	TopicUpdate:          "UPDATE",
	TopicMessage:         "MESSAGE",
	TopicUnitCreated:     "UNIT_CREATED",
	TopicUnitFinished:    "UNIT_FINISHED",
	TopicUnitIdle:        "UNIT_IDLE",
	TopicUnitMoveFailed:  "UNIT_MOVE_FAILED",
	TopicUnitDamaged:     "UNIT_DAMAGED",
	TopicUnitDestroyed:   "UNIT_DESTROYED",
	TopicUnitGiven:       "UNIT_GIVEN",
	TopicUnitCaptured:    "UNIT_CAPTURED",
	TopicEnemyEnterLOS:   "ENEMY_ENTER_LOS",
	TopicEnemyLeaveLOS:   "ENEMY_LEAVE_LOS",
	TopicEnemyEnterRadar: "ENEMY_ENTER_RADAR",
	TopicEnemyLeaveRadar: "ENEMY_LEAVE_RADAR",
	TopicEnemyDamaged:    "ENEMY_DAMAGED",
	TopicEnemyDestroyed:  "ENEMY_DESTROYED",
	TopicWeaponFired:     "WEAPON_FIRED",
	TopicPlayerCommand:   "PLAYER_COMMAND",
	TopicSeismicPing:     "SEISMIC_PING",
	TopicCommandFinished: "COMMAND_FINISHED",
	TopicLoad:            "LOAD",
	TopicSave:            "SAVE",
	TopicEnemyCreated:    "ENEMY_CREATED",
	TopicEnemyFinished:   "ENEMY_FINISHED",
}

// String returns the wire name of the topic, e.g. "UNIT_CREATED".
func (t Topic) String() string {
	if name, ok := topicNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Topic(%d)", int(t))
}

// Valid reports whether t is one of the defined topics.
func (t Topic) Valid() bool {
	_, ok := topicNames[t]
	return ok
}

// Topics returns every defined topic in numeric order.
func Topics() []Topic {
	topics := make([]Topic, 0, len(topicNames))
	for t := TopicInit; t <= TopicEnemyFinished; t++ {
		topics = append(topics, t)
	}
	return topics
}
