package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/skirmish/internal/printer"
	"github.com/dyluth/skirmish/internal/savestate"
	"github.com/dyluth/skirmish/internal/watch"
	"github.com/spf13/cobra"
)

var (
	journalMatchID string
	journalOutput  string
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Follow the AI lifecycle journal of a match",
	Long: `Stream AI lifecycle records of a running match as they are published.

Shows AI creation, failed creations, faults, stub substitutions, saves and
restores. Requires a redis section in skirmish.yml.

Output Formats:
  default - Human-readable output with timestamps and emojis
  json    - Line-delimited JSON for programmatic processing

Examples:
  skirmish journal --match demo
  skirmish journal --match demo --output=json > records.jsonl`,
	Args: cobra.NoArgs,
	RunE: runJournal,
}

func init() {
	journalCmd.Flags().StringVarP(&journalMatchID, "match", "m", "", "Match ID (default: match_id from config)")
	journalCmd.Flags().StringVarP(&journalOutput, "output", "o", "default", "Output format (default or json)")
	rootCmd.AddCommand(journalCmd)
}

func parseOutputFormat(value string) (watch.OutputFormat, error) {
	switch value {
	case "default":
		return watch.OutputFormatDefault, nil
	case "json":
		return watch.OutputFormatJSON, nil
	default:
		return "", printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", value),
			[]string{"Valid formats: default, json"},
		)
	}
}

func runJournal(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(journalOutput)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	matchID, err := matchOrConfig(journalMatchID, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rs, err := openStateStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer rs.Close()

	sub, err := savestate.NewRedisJournal(rs.Client()).Subscribe(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to journal: %w", err)
	}
	defer sub.Close()

	if format == watch.OutputFormatDefault {
		printer.Info("Following match %s (Ctrl+C to stop)\n", matchID)
	}
	return watch.StreamRecords(ctx, sub, format, printer.Out)
}
