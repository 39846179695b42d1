package skirmish

import (
	"os"
	"testing"

	"github.com/dyluth/skirmish/internal/aikey"
	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/dyluth/skirmish/pkg/aiabi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLibrary is a test double that records every call.
type recordingLibrary struct {
	inits    int
	releases int
	topics   []aiabi.Topic
	events   []aiabi.Event

	initCode  int
	eventCode int
	onEvent   func(topic aiabi.Topic, event aiabi.Event)
}

func (l *recordingLibrary) Init(aiID int, cb *aiabi.Callback) (int, bool) {
	l.inits++
	return l.initCode, false
}

func (l *recordingLibrary) Release(aiID int) (int, bool) {
	l.releases++
	return 0, false
}

func (l *recordingLibrary) HandleEvent(aiID int, topic aiabi.Topic, event aiabi.Event) (int, bool) {
	l.topics = append(l.topics, topic)
	l.events = append(l.events, event)
	if l.onEvent != nil {
		l.onEvent(topic, event)
	}
	return l.eventCode, false
}

func (l *recordingLibrary) count(topic aiabi.Topic) int {
	n := 0
	for _, t := range l.topics {
		if t == topic {
			n++
		}
	}
	return n
}

func testDescriptor() *catalog.AIDescriptor {
	return &catalog.AIDescriptor{
		Descriptor: catalog.Descriptor{
			DataDir:    "/ai/NullAI/0.1",
			Properties: map[string]string{catalog.PropShortName: "NullAI", catalog.PropVersion: "0.1"},
		},
		Key: aikey.NewAIKey("NullAI", "0.1", aikey.NewInterfaceKey("C", "0.1")),
	}
}

func newTestAI(lib Library) *AI {
	return New(Config{
		SkirmishAIID: 4,
		Team:         3,
		AllyTeam:     1,
		Descriptor:   testDescriptor(),
		Options:      map[string]string{"difficulty": "hard"},
		CurrentFrame: func() int { return 42 },
	}, lib)
}

func TestInit_BuildsCallbackAndSendsInit(t *testing.T) {
	lib := &recordingLibrary{}
	ai := newTestAI(lib)
	assert.Equal(t, StateConstructed, ai.State())

	require.True(t, ai.Init())
	assert.True(t, ai.IsInitialized())
	assert.Equal(t, 1, lib.inits)
	require.Equal(t, []aiabi.Topic{aiabi.TopicInit}, lib.topics)

	ev := lib.events[0].(aiabi.InitEvent)
	assert.Equal(t, 4, ev.SkirmishAIID)
	cb := ev.Callback
	assert.Equal(t, 3, cb.Team)
	assert.Equal(t, 1, cb.AllyTeam)
	assert.Equal(t, "hard", cb.OptionValue("difficulty"))
	assert.Equal(t, "NullAI", cb.InfoValue(catalog.PropShortName))
	assert.Equal(t, 42, cb.CurrentFrame())
	assert.Equal(t, 0, cb.SendTextMessage("hi", 0))
	assert.NotPanics(t, func() { cb.Log("hello") })

	assert.True(t, ai.Init(), "a second Init is a no-op")
	assert.Equal(t, 1, lib.inits)
}

func TestInit_FailureIsTerminal(t *testing.T) {
	lib := &recordingLibrary{initCode: 2}
	ai := newTestAI(lib)

	assert.False(t, ai.Init())
	assert.Equal(t, StateFailed, ai.State())
	assert.Equal(t, aiabi.DieReasonInitFailed, ai.DieReason())
	assert.Empty(t, lib.topics, "INIT event is not sent after a failed init")

	code, delivered := ai.HandleEvent(aiabi.TopicUpdate, aiabi.UpdateEvent{Frame: 1})
	assert.Equal(t, 0, code)
	assert.False(t, delivered)

	ai.Release(aiabi.DieReasonGameOver)
	assert.Equal(t, StateReleased, ai.State())
	assert.Equal(t, 0, lib.releases)
}

func TestInit_InitEventFailure(t *testing.T) {
	lib := &recordingLibrary{eventCode: 1}
	ai := newTestAI(lib)
	assert.False(t, ai.Init())
	assert.Equal(t, StateFailed, ai.State())
}

func TestRelease_SendsReleaseExactlyOnce(t *testing.T) {
	lib := &recordingLibrary{}
	ai := newTestAI(lib)
	require.True(t, ai.Init())

	ai.Release(aiabi.DieReasonGameOver)
	ai.Release(aiabi.DieReasonKilled)
	ai.HandleEvent(aiabi.TopicRelease, aiabi.ReleaseEvent{Reason: aiabi.DieReasonKilled})

	assert.Equal(t, 1, lib.count(aiabi.TopicRelease))
	assert.Equal(t, 1, lib.releases)
	assert.Equal(t, StateReleased, ai.State())
	assert.Equal(t, aiabi.DieReasonGameOver, ai.DieReason())
}

func TestHandleEvent_NothingAfterRelease(t *testing.T) {
	lib := &recordingLibrary{}
	ai := newTestAI(lib)
	require.True(t, ai.Init())

	_, delivered := ai.HandleEvent(aiabi.TopicUpdate, aiabi.UpdateEvent{Frame: 1})
	assert.True(t, delivered)

	ai.Release(aiabi.DieReasonGameOver)
	_, delivered = ai.HandleEvent(aiabi.TopicUpdate, aiabi.UpdateEvent{Frame: 2})
	assert.False(t, delivered)

	assert.Equal(t, []aiabi.Topic{aiabi.TopicInit, aiabi.TopicUpdate, aiabi.TopicRelease}, lib.topics)
}

func TestHandleEvent_DyingOnlyForwardsRelease(t *testing.T) {
	lib := &recordingLibrary{}
	ai := newTestAI(lib)
	require.True(t, ai.Init())

	ai.SetDying(aiabi.DieReasonTeamDied)
	assert.True(t, ai.IsDying())

	code, delivered := ai.HandleEvent(aiabi.TopicUnitIdle, aiabi.UnitIdleEvent{Unit: 7})
	assert.Equal(t, 0, code)
	assert.False(t, delivered)

	ai.Release(aiabi.DieReasonGameOver)
	assert.Equal(t, 1, lib.count(aiabi.TopicRelease), "RELEASE is delivered even while dying")
	assert.Equal(t, aiabi.DieReasonTeamDied, ai.DieReason(), "the dying reason is kept")
}

func TestHandleEvent_ReturnsAICode(t *testing.T) {
	lib := &recordingLibrary{}
	ai := newTestAI(lib)
	require.True(t, ai.Init())

	lib.eventCode = 5
	code, delivered := ai.HandleEvent(aiabi.TopicUnitIdle, aiabi.UnitIdleEvent{Unit: 7})
	assert.Equal(t, 5, code)
	assert.True(t, delivered)
}

func TestCheatEvents(t *testing.T) {
	ai := newTestAI(&recordingLibrary{})
	assert.False(t, ai.CheatEvents())
	ai.SetCheatEvents(true)
	assert.True(t, ai.CheatEvents())
	assert.NotEqual(t, newTestAI(&recordingLibrary{}).ID(), ai.ID())
}

func TestSaveLoad_TempFileHandoff(t *testing.T) {
	var seen []string
	lib := &recordingLibrary{}
	lib.onEvent = func(topic aiabi.Topic, event aiabi.Event) {
		switch ev := event.(type) {
		case aiabi.SaveEvent:
			seen = append(seen, ev.File)
			require.NoError(t, os.WriteFile(ev.File, []byte("state-v1"), 0644))
		case aiabi.LoadEvent:
			seen = append(seen, ev.File)
			data, err := os.ReadFile(ev.File)
			require.NoError(t, err)
			assert.Equal(t, "state-v1", string(data))
		}
	}
	ai := newTestAI(lib)
	require.True(t, ai.Init())

	data, err := ai.Save()
	require.NoError(t, err)
	assert.Equal(t, "state-v1", string(data))

	require.NoError(t, ai.Load(data))

	require.Len(t, seen, 2)
	for _, path := range seen {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "temp file %s must be removed", path)
	}
}

func TestSaveLoad_Refused(t *testing.T) {
	lib := &recordingLibrary{}
	ai := newTestAI(lib)

	_, err := ai.Save()
	assert.ErrorIs(t, err, ErrNotRunning)

	require.True(t, ai.Init())
	lib.eventCode = 1
	_, err = ai.Save()
	assert.Error(t, err)
	assert.Error(t, ai.Load([]byte("x")))
}
