package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/dyluth/skirmish/internal/config"
	"github.com/dyluth/skirmish/internal/printer"
	"github.com/dyluth/skirmish/internal/registry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	runFrames  int
	runMatchID string
	runRestore bool
	runTick    time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a headless match with the configured AIs",
	Long: `Run a headless match: create the AI of every configured team, give each
team a starting unit and advance the simulation frame by frame.

When Redis is configured the AI states are saved at the end of the match and
every lifecycle record is published on the match's journal channel, where
"skirmish journal" can follow it.

Examples:
  # Run 900 frames as fast as possible
  skirmish run

  # Run at 30 frames per second and keep the match ID stable
  skirmish run --frames 3000 --tick 33ms --match demo

  # Continue a saved match
  skirmish run --match demo --restore`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runFrames, "frames", 900, "Number of frames to simulate")
	runCmd.Flags().StringVar(&runMatchID, "match", "", "Match ID (default: match_id from config or a new UUID)")
	runCmd.Flags().BoolVar(&runRestore, "restore", false, "Restore saved AI states before the first frame")
	runCmd.Flags().DurationVar(&runTick, "tick", 0, "Wall-clock delay between frames")
	rootCmd.AddCommand(runCmd)
}

// matchOptions controls one headless match.
type matchOptions struct {
	MatchID string
	Frames  int
	Restore bool
	Tick    time.Duration
}

// matchResult summarises a finished match.
type matchResult struct {
	MatchID string
	Frames  int
	Created []int
	Failed  map[int]error
	Rows    [][]string
	Saved   bool
}

func runRun(cmd *cobra.Command, args []string) error {
	if runFrames < 0 {
		return printer.Error(
			"invalid frame count",
			fmt.Sprintf("--frames must be >= 0, got %d", runFrames),
			nil,
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	matchID := runMatchID
	if matchID == "" {
		matchID = cfg.MatchID
	}
	if matchID == "" {
		matchID = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer.Step("Starting match %s\n", matchID)
	result, err := runMatch(ctx, cfg, matchOptions{
		MatchID: matchID,
		Frames:  runFrames,
		Restore: runRestore,
		Tick:    runTick,
	})
	if err != nil {
		return err
	}

	failed := make([]int, 0, len(result.Failed))
	for team := range result.Failed {
		failed = append(failed, team)
	}
	sort.Ints(failed)
	for _, team := range failed {
		printer.Warning("team %d has no AI: %v\n", team, result.Failed[team])
	}
	printer.Table([]string{"TEAM", "AI", "STATE", "STUB"}, result.Rows)
	printer.Success("Match %s ran %d frames\n", result.MatchID, result.Frames)
	if result.Saved {
		printer.Info("AI states saved; continue with:\n  skirmish run --match %s --restore\n", result.MatchID)
	}
	return nil
}

// runMatch plays a match to completion or until ctx is cancelled.
func runMatch(ctx context.Context, cfg *config.SkirmishConfig, opts matchOptions) (*matchResult, error) {
	h, err := newHost(ctx, cfg, opts.MatchID)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	result := &matchResult{MatchID: opts.MatchID, Failed: make(map[int]error)}
	for _, team := range cfg.Teams {
		if team.AI == "" {
			continue
		}
		_, err := h.registry.CreateAIFromSlot(registry.Slot{
			Team:      team.Team,
			ShortName: team.AI,
			Version:   team.Version,
			CreateOptions: registry.CreateOptions{
				Options:     team.Options,
				CheatEvents: team.Cheat,
			},
		})
		if err != nil {
			result.Failed[team.Team] = err
			continue
		}
		result.Created = append(result.Created, team.Team)
	}

	if opts.Restore {
		if err := h.registry.LoadAll(ctx, h.states); err != nil {
			log.Printf("[Host] Some states could not be restored: %v", err)
		}
	}

	// One starting unit per team, numbered after the team
	for _, team := range cfg.Teams {
		unit := startingUnit(team.Team)
		h.world.SetUnit(unit, team.Team)
		h.registry.UnitCreated(unit, -1)
		h.registry.UnitFinished(unit)
		h.registry.UnitIdle(unit)
	}

	var ticker *time.Ticker
	if opts.Tick > 0 {
		ticker = time.NewTicker(opts.Tick)
		defer ticker.Stop()
	}

frames:
	for result.Frames < opts.Frames {
		if ticker != nil {
			select {
			case <-ctx.Done():
				break frames
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			break frames
		}
		h.registry.Update(h.world.Advance())
		result.Frames++
	}

	for _, team := range h.registry.Teams() {
		ai, ok := h.registry.AI(team)
		if !ok {
			continue
		}
		lib, _ := h.table.Get(ai.Key().Interface)
		stub := lib != nil && lib.IsStub(ai.Key())
		result.Rows = append(result.Rows, []string{
			strconv.Itoa(team), ai.Key().String(), ai.State().String(), strconv.FormatBool(stub),
		})
	}

	if cfg.Redis != nil {
		// Save with a fresh context so an interrupted match still persists
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := h.registry.SaveAll(saveCtx, h.states)
		cancel()
		if err != nil {
			log.Printf("[Host] Some states could not be saved: %v", err)
		}
		result.Saved = err == nil
	}

	if err := h.registry.Teardown(); err != nil {
		return result, fmt.Errorf("failed to tear down match: %w", err)
	}
	return result, nil
}

func startingUnit(team int) int {
	return 1000 + team
}
