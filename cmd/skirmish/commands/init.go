package commands

import (
	"fmt"

	"github.com/dyluth/skirmish/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new skirmish project",
	Long: `Initialize a new skirmish project in the current directory.

Creates:
  • skirmish.yml - Match configuration with two NullAI teams
  • AI/Interfaces/Null/0.1/ - Descriptor of the built-in Null interface
  • AI/Skirmish/NullAI/0.1/ - Descriptor and options of NullAI

Use --force to reinitialize an existing project (WARNING: destroys existing configuration).`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Force reinitialization (removes existing skirmish.yml and AI/)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !forceInit {
		if err := scaffold.CheckExisting("."); err != nil {
			return err
		}
	}

	if err := scaffold.Initialize(".", forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess()
	return nil
}
