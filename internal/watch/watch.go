// Package watch follows a running match from the outside: it streams the
// lifecycle journal and waits for saved AI states.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/dyluth/skirmish/internal/savestate"
)

// OutputFormat selects how StreamRecords renders records.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatJSON    OutputFormat = "json"
)

// StreamRecords writes every record from sub to w until ctx is done or the
// subscription ends. Undecodable messages are logged and skipped.
func StreamRecords(ctx context.Context, sub *savestate.Subscription, format OutputFormat, w io.Writer) error {
	errs := sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("[Watch] Warning: %v", err)

		case rec, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := writeRecord(w, rec, format); err != nil {
				return err
			}
		}
	}
}

func writeRecord(w io.Writer, rec savestate.Record, format OutputFormat) error {
	if format == OutputFormatJSON {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := fmt.Fprintf(w, "[%s] %s\n", rec.Timestamp.Local().Format("15:04:05"), FormatRecord(rec))
	return err
}

// FormatRecord renders rec as one human-readable line.
func FormatRecord(rec savestate.Record) string {
	who := fmt.Sprintf("team %d", rec.Team)
	switch {
	case rec.Team < 0 && rec.AI != "":
		who = rec.AI
	case rec.Team < 0:
		who = "host"
	case rec.AI != "":
		who += " " + rec.AI
	}

	switch rec.Kind {
	case savestate.RecordCreated:
		return fmt.Sprintf("🤖 AI Created: %s (frame %d)", who, rec.Frame)
	case savestate.RecordCreateFailed:
		return fmt.Sprintf("❌ AI Create Failed: %s: %s", who, rec.Detail)
	case savestate.RecordDestroyed:
		return fmt.Sprintf("🏁 AI Destroyed: %s reason=%s (frame %d)", who, rec.Reason, rec.Frame)
	case savestate.RecordFault:
		return fmt.Sprintf("💥 Fault Contained: %s in %s: %s (frame %d)", who, rec.Reason, rec.Detail, rec.Frame)
	case savestate.RecordStub:
		return fmt.Sprintf("⚠️  Stub Substituted: %s: %s", who, rec.Detail)
	case savestate.RecordSaved:
		return fmt.Sprintf("💾 State Saved: %s (%s)", who, rec.Detail)
	case savestate.RecordLoaded:
		return fmt.Sprintf("📂 State Loaded: %s (%s)", who, rec.Detail)
	default:
		return fmt.Sprintf("%s: %s", rec.Kind, who)
	}
}

// PollForState polls store until a saved state exists for team in matchID.
// Returns the state or an error if timeout occurs.
// Polls every 200ms for the specified timeout duration.
func PollForState(ctx context.Context, store savestate.Store, matchID string, team int, timeout time.Duration) ([]byte, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		data, err := store.Get(ctx, matchID, team)
		if err == nil {
			return data, nil
		}
		if !savestate.IsNotFound(err) {
			return nil, fmt.Errorf("failed to query for state: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for state of team %d after %v", team, timeout)
		case <-ticker.C:
		}
	}
}
