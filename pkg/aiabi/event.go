package aiabi

// Event is the payload handed to HandleEvent. Each concrete type belongs to
// exactly one Topic.
type Event interface {
	Topic() Topic
}

// Vec3 is a world-space position or direction.
type Vec3 struct {
	X, Y, Z float32
}

// InitEvent is the first event an AI receives.
type InitEvent struct {
	SkirmishAIID int
	Callback     *Callback
}

// ReleaseEvent is the last event an AI receives.
type ReleaseEvent struct {
	Reason DieReason
}

// UpdateEvent is sent once per simulation frame.
type UpdateEvent struct {
	Frame int
}

// MessageEvent carries a chat line typed by a player.
type MessageEvent struct {
	Player  int
	Message string
}

type UnitCreatedEvent struct {
	Unit    int
	Builder int
}

type UnitFinishedEvent struct {
	Unit int
}

type UnitIdleEvent struct {
	Unit int
}

type UnitMoveFailedEvent struct {
	Unit int
}

type UnitDamagedEvent struct {
	Unit        int
	Attacker    int // -1 when the attacker is not visible
	Damage      float32
	Dir         Vec3
	WeaponDefID int
	Paralyzer   bool
}

type UnitDestroyedEvent struct {
	Unit        int
	Attacker    int // -1 when the attacker is not visible
	WeaponDefID int
}

// UnitGivenEvent is sent to both the old and the new owner.
type UnitGivenEvent struct {
	Unit    int
	OldTeam int
	NewTeam int
}

// UnitCapturedEvent is sent to both the old and the new owner.
type UnitCapturedEvent struct {
	Unit    int
	OldTeam int
	NewTeam int
}

type EnemyCreatedEvent struct {
	Enemy int
}

type EnemyFinishedEvent struct {
	Enemy int
}

type EnemyEnterLOSEvent struct {
	Enemy int
}

type EnemyLeaveLOSEvent struct {
	Enemy int
}

type EnemyEnterRadarEvent struct {
	Enemy int
}

type EnemyLeaveRadarEvent struct {
	Enemy int
}

type EnemyDamagedEvent struct {
	Enemy       int
	Attacker    int
	Damage      float32
	Dir         Vec3
	WeaponDefID int
	Paralyzer   bool
}

type EnemyDestroyedEvent struct {
	Enemy    int
	Attacker int
}

type WeaponFiredEvent struct {
	Unit        int
	WeaponDefID int
}

// PlayerCommandEvent reports a command a human player gave to the AI's units.
type PlayerCommandEvent struct {
	Units        []int
	CommandTopic int
	Player       int
}

type CommandFinishedEvent struct {
	Unit         int
	CommandID    int
	CommandTopic int
}

type SeismicPingEvent struct {
	Pos      Vec3
	Strength float32
}

// LoadEvent asks the AI to restore its state from File.
type LoadEvent struct {
	File string
}

// SaveEvent asks the AI to write its state to File.
type SaveEvent struct {
	File string
}

func (InitEvent) Topic() Topic            { return TopicInit }
func (ReleaseEvent) Topic() Topic         { return TopicRelease }
func (UpdateEvent) Topic() Topic          { return TopicUpdate }
func (MessageEvent) Topic() Topic         { return TopicMessage }
func (UnitCreatedEvent) Topic() Topic     { return TopicUnitCreated }
func (UnitFinishedEvent) Topic() Topic    { return TopicUnitFinished }
func (UnitIdleEvent) Topic() Topic        { return TopicUnitIdle }
func (UnitMoveFailedEvent) Topic() Topic  { return TopicUnitMoveFailed }
func (UnitDamagedEvent) Topic() Topic     { return TopicUnitDamaged }
func (UnitDestroyedEvent) Topic() Topic   { return TopicUnitDestroyed }
func (UnitGivenEvent) Topic() Topic       { return TopicUnitGiven }
func (UnitCapturedEvent) Topic() Topic    { return TopicUnitCaptured }
func (EnemyCreatedEvent) Topic() Topic    { return TopicEnemyCreated }
func (EnemyFinishedEvent) Topic() Topic   { return TopicEnemyFinished }
func (EnemyEnterLOSEvent) Topic() Topic   { return TopicEnemyEnterLOS }
func (EnemyLeaveLOSEvent) Topic() Topic   { return TopicEnemyLeaveLOS }
func (EnemyEnterRadarEvent) Topic() Topic { return TopicEnemyEnterRadar }
func (EnemyLeaveRadarEvent) Topic() Topic { return TopicEnemyLeaveRadar }
func (EnemyDamagedEvent) Topic() Topic    { return TopicEnemyDamaged }
func (EnemyDestroyedEvent) Topic() Topic  { return TopicEnemyDestroyed }
func (WeaponFiredEvent) Topic() Topic     { return TopicWeaponFired }
func (PlayerCommandEvent) Topic() Topic   { return TopicPlayerCommand }
func (CommandFinishedEvent) Topic() Topic { return TopicCommandFinished }
func (SeismicPingEvent) Topic() Topic     { return TopicSeismicPing }
func (LoadEvent) Topic() Topic            { return TopicLoad }
func (SaveEvent) Topic() Topic            { return TopicSave }
