package commands

import (
	"github.com/dyluth/skirmish/internal/printer"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve AI [MIN_VERSION]",
	Short: "Show which installed AI a request resolves to",
	Long: `Resolve an AI request the way a lobby slot is resolved at match start.

Without MIN_VERSION the lowest installed version is chosen. With it, the
closest installed version at or above MIN_VERSION wins.

Examples:
  skirmish resolve NullAI
  skirmish resolve RAI 0.600`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
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

	printer.Success("%s\n", desc.Key)
	printer.Info("  descriptor: %s\n", desc.Path)
	if desc.Requested != desc.Key.Interface {
		printer.Info("  interface:  %s (requested %s)\n", desc.Key.Interface, desc.Requested)
	}
	return nil
}
