package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dyluth/skirmish/internal/printer"
	"github.com/dyluth/skirmish/internal/savestate"
	"github.com/dyluth/skirmish/internal/watch"
	"github.com/spf13/cobra"
)

var (
	stateMatchID string
	stateWait    time.Duration
)

var stateCmd = &cobra.Command{
	Use:   "state TEAM",
	Short: "Print the saved AI state of a team",
	Long: `Print the state an AI saved for TEAM at the end of a match.

The state is written verbatim to stdout, so it can be redirected to a file.
With --wait the command polls until the state appears.

Examples:
  skirmish state 0 --match demo
  skirmish state 1 --match demo --wait 30s > team1.state`,
	Args: cobra.ExactArgs(1),
	RunE: runState,
}

func init() {
	stateCmd.Flags().StringVarP(&stateMatchID, "match", "m", "", "Match ID (default: match_id from config)")
	stateCmd.Flags().DurationVar(&stateWait, "wait", 0, "Wait up to this long for the state to be saved")
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	team, err := parseTeam(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	matchID, err := matchOrConfig(stateMatchID, cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rs, err := openStateStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer rs.Close()

	var data []byte
	if stateWait > 0 {
		data, err = watch.PollForState(ctx, rs, matchID, team, stateWait)
	} else {
		data, err = rs.Get(ctx, matchID, team)
	}
	if err != nil {
		if savestate.IsNotFound(err) {
			return printer.ErrorWithContext(
				"no saved state",
				"The AI of this team has not saved a state in this match.",
				map[string]string{"Match": matchID, "Team": args[0]},
				[]string{"Wait for the match to finish:\n  skirmish state " + args[0] + " --wait 1m"},
			)
		}
		return fmt.Errorf("failed to read state: %w", err)
	}

	_, err = printer.Out.Write(data)
	return err
}

func parseTeam(arg string) (int, error) {
	team, err := strconv.Atoi(arg)
	if err != nil || team < 0 {
		return 0, printer.Error(
			"invalid team",
			fmt.Sprintf("%q is not a team number", arg),
			[]string{"Teams are numbered from 0"},
		)
	}
	return team, nil
}
