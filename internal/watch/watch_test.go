package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/skirmish/internal/savestate"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRecord(t *testing.T) {
	tests := []struct {
		name     string
		rec      savestate.Record
		expected string
	}{
		{
			name:     "created",
			rec:      savestate.Record{Kind: savestate.RecordCreated, Team: 3, AI: "NullAI 0.1 (Null 0.1)", Frame: 0},
			expected: "🤖 AI Created: team 3 NullAI 0.1 (Null 0.1) (frame 0)",
		},
		{
			name:     "create failed",
			rec:      savestate.Record{Kind: savestate.RecordCreateFailed, Team: 1, AI: "RAI 1.0", Detail: "init failed"},
			expected: "❌ AI Create Failed: team 1 RAI 1.0: init failed",
		},
		{
			name:     "destroyed",
			rec:      savestate.Record{Kind: savestate.RecordDestroyed, Team: 0, AI: "NullAI 0.1", Reason: "game_over", Frame: 900},
			expected: "🏁 AI Destroyed: team 0 NullAI 0.1 reason=game_over (frame 900)",
		},
		{
			name:     "fault of an interface",
			rec:      savestate.Record{Kind: savestate.RecordFault, Team: -1, AI: "interface Null 0.1", Reason: "HandleEvent(UPDATE)", Detail: "boom", Frame: 5},
			expected: "💥 Fault Contained: interface Null 0.1 in HandleEvent(UPDATE): boom (frame 5)",
		},
		{
			name:     "stub",
			rec:      savestate.Record{Kind: savestate.RecordStub, Team: 2, Detail: "no table"},
			expected: "⚠️  Stub Substituted: team 2: no table",
		},
		{
			name:     "saved",
			rec:      savestate.Record{Kind: savestate.RecordSaved, Team: 2, Detail: "3 bytes"},
			expected: "💾 State Saved: team 2 (3 bytes)",
		},
		{
			name:     "unknown kind",
			rec:      savestate.Record{Kind: "ai_renamed", Team: 4},
			expected: "ai_renamed: team 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatRecord(tt.rec))
		})
	}
}

func TestStreamRecords(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	journal := savestate.NewRedisJournal(rdb)

	for _, format := range []OutputFormat{OutputFormatDefault, OutputFormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sub, err := journal.Subscribe(ctx, "m1")
			require.NoError(t, err)
			defer sub.Close()

			var out bytes.Buffer
			done := make(chan error, 1)
			go func() { done <- StreamRecords(ctx, sub, format, &out) }()

			rec := savestate.NewRecord(savestate.RecordCreated, "m1", 3)
			rec.AI = "NullAI 0.1"
			require.NoError(t, journal.Publish(ctx, rec))

			// Closing the subscription ends the stream once the record is written.
			time.Sleep(100 * time.Millisecond)
			sub.Close()
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("stream did not stop")
			}

			line := strings.TrimSpace(out.String())
			if format == OutputFormatJSON {
				var got savestate.Record
				require.NoError(t, json.Unmarshal([]byte(line), &got))
				assert.Equal(t, rec.ID, got.ID)
				return
			}
			assert.Contains(t, line, "🤖 AI Created: team 3 NullAI 0.1")
		})
	}
}

func TestStreamRecords_StopsOnContext(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sub, err := savestate.NewRedisJournal(rdb).Subscribe(context.Background(), "m1")
	require.NoError(t, err)
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, StreamRecords(ctx, sub, OutputFormatDefault, &bytes.Buffer{}))
}

func TestPollForState(t *testing.T) {
	ctx := context.Background()

	t.Run("returns state when found immediately", func(t *testing.T) {
		store := savestate.NewMemoryStore()
		require.NoError(t, store.Put(ctx, "m1", 2, []byte("state")))

		data, err := PollForState(ctx, store, "m1", 2, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "state", string(data))
	})

	t.Run("returns state when found after delay", func(t *testing.T) {
		store := savestate.NewMemoryStore()
		go func() {
			time.Sleep(300 * time.Millisecond)
			store.Put(ctx, "m1", 2, []byte("late"))
		}()

		data, err := PollForState(ctx, store, "m1", 2, 2*time.Second)
		require.NoError(t, err)
		assert.Equal(t, "late", string(data))
	})

	t.Run("times out", func(t *testing.T) {
		_, err := PollForState(ctx, savestate.NewMemoryStore(), "m1", 2, 300*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout waiting for state of team 2")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := PollForState(cctx, savestate.NewMemoryStore(), "m1", 2, time.Second)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
