package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath     string
	interfaceRoots []string
	skirmishRoots  []string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skirmish",
	Short: "Skirmish - AI plugin host for RTS matches",
	Long: `Skirmish discovers, loads and runs third-party Skirmish AIs.

AI Interfaces and Skirmish AIs are found by scanning the module roots named
in skirmish.yml (or given with --interfaces and --skirmish). Each team of a
match can be controlled by one AI; the host forwards simulation events to it
and contains any fault it raises.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to skirmish.yml (default: ./skirmish.yml)")
	rootCmd.PersistentFlags().StringSliceVar(&interfaceRoots, "interfaces", nil, "AI Interface roots, overriding the config")
	rootCmd.PersistentFlags().StringSliceVar(&skirmishRoots, "skirmish", nil, "Skirmish AI roots, overriding the config")
}
