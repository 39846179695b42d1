package savestate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RecordKind classifies a lifecycle record.
type RecordKind string

const (
	RecordCreated      RecordKind = "ai_created"
	RecordCreateFailed RecordKind = "ai_create_failed"
	RecordDestroyed    RecordKind = "ai_destroyed"
	RecordFault        RecordKind = "ai_fault"
	RecordStub         RecordKind = "ai_stub_substituted"
	RecordSaved        RecordKind = "ai_state_saved"
	RecordLoaded       RecordKind = "ai_state_loaded"
)

// Record is one AI lifecycle event.
type Record struct {
	ID        string     `json:"id"`
	Kind      RecordKind `json:"kind"`
	MatchID   string     `json:"match_id"`
	Team      int        `json:"team"`
	AI        string     `json:"ai,omitempty"`
	Instance  string     `json:"instance,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Detail    string     `json:"detail,omitempty"`
	Frame     int        `json:"frame"`
	Timestamp time.Time  `json:"timestamp"`
}

// Journal receives lifecycle records.
type Journal interface {
	Publish(ctx context.Context, rec Record) error
}

// NewRecord fills in id and timestamp.
func NewRecord(kind RecordKind, matchID string, team int) Record {
	return Record{
		ID:        uuid.New().String(),
		Kind:      kind,
		MatchID:   matchID,
		Team:      team,
		Timestamp: time.Now().UTC(),
	}
}

// RedisJournal publishes records as JSON on the match's events channel.
type RedisJournal struct {
	rdb *redis.Client
}

func NewRedisJournal(rdb *redis.Client) *RedisJournal {
	return &RedisJournal{rdb: rdb}
}

// Publish sends rec to skirmish:{match}:ai_events. Delivery is at-most-once.
func (j *RedisJournal) Publish(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := j.rdb.Publish(ctx, EventsChannel(rec.MatchID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish record: %w", err)
	}
	return nil
}

// Subscription delivers records published for one match.
// Caller must call Close() when done.
type Subscription struct {
	events <-chan Record
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of records. It is closed when the subscription ends.
func (s *Subscription) Events() <-chan Record {
	return s.events
}

// Errors returns decoding errors; the offending message is skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe listens for records of matchID. It returns once the subscription
// is confirmed by the server.
func (j *RedisJournal) Subscribe(ctx context.Context, matchID string) (*Subscription, error) {
	pubsub := j.rdb.Subscribe(ctx, EventsChannel(matchID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to AI events: %w", err)
	}

	eventsChan := make(chan Record, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var rec Record
				if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal AI event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}
				select {
				case eventsChan <- rec:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{events: eventsChan, errors: errorsChan, cancel: cancel}, nil
}

// MemoryJournal keeps records in memory.
type MemoryJournal struct {
	mu      sync.Mutex
	records []Record
}

func (j *MemoryJournal) Publish(_ context.Context, rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

// Records returns a copy of everything published so far.
func (j *MemoryJournal) Records() []Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Record(nil), j.records...)
}

// Kinds returns the kinds of all records in publish order.
func (j *MemoryJournal) Kinds() []RecordKind {
	j.mu.Lock()
	defer j.mu.Unlock()
	kinds := make([]RecordKind, len(j.records))
	for i, r := range j.records {
		kinds[i] = r.Kind
	}
	return kinds
}
