package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/dyluth/skirmish/internal/printer"
	"github.com/spf13/cobra"
)

var optionsJSON bool

var optionsCmd = &cobra.Command{
	Use:   "options AI [MIN_VERSION]",
	Short: "Show the options an AI accepts",
	Long: `Show the options schema declared in an AI's AIOptions.yaml.

Examples:
  skirmish options NullAI
  skirmish options NullAI --json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runOptions,
}

func init() {
	optionsCmd.Flags().BoolVar(&optionsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(optionsCmd)
}

func runOptions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openCatalog(cfg)
	if err != nil {
		return err
	}

	desc, err := resolveArgs(store.Catalog(), args)
	if err != nil {
		return err
	}

	if desc.Options == nil || len(desc.Options.Options) == 0 {
		printer.Info("%s declares no options\n", desc.Key)
		return nil
	}

	if optionsJSON {
		encoder := json.NewEncoder(printer.Out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(desc.Options); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}

	rows := make([][]string, 0, len(desc.Options.Options))
	for _, o := range desc.Options.Options {
		if o.Type == catalog.OptionSection {
			continue
		}
		rows = append(rows, []string{o.Key, string(o.Type), o.Default, optionRange(o)})
	}
	printer.Table([]string{"KEY", "TYPE", "DEFAULT", "ALLOWED"}, rows)
	return nil
}

// optionRange renders the values an option accepts.
func optionRange(o catalog.Option) string {
	switch o.Type {
	case catalog.OptionNumber:
		lo, hi := "", ""
		if o.Min != nil {
			lo = formatFloat(*o.Min)
		}
		if o.Max != nil {
			hi = formatFloat(*o.Max)
		}
		if lo == "" && hi == "" {
			return "-"
		}
		return lo + ".." + hi
	case catalog.OptionList:
		keys := make([]string, len(o.Items))
		for i, item := range o.Items {
			keys[i] = item.Key
		}
		return strings.Join(keys, "|")
	case catalog.OptionString:
		if o.MaxLen > 0 {
			return fmt.Sprintf("<= %d chars", o.MaxLen)
		}
	case catalog.OptionBool:
		return "true|false"
	}
	return "-"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
