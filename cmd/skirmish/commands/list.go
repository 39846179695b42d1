package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dyluth/skirmish/internal/catalog"
	"github.com/dyluth/skirmish/internal/printer"
	"github.com/spf13/cobra"
)

var (
	listJSON    bool
	listVerbose bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed AI Interfaces and Skirmish AIs",
	Long: `List every AI Interface and Skirmish AI found under the module roots.

Duplicate descriptors and AIs whose interface is not installed are reported
as warnings after the tables.

Examples:
  # Show installed modules
  skirmish list

  # Include every descriptor property
  skirmish list --verbose

  # Machine-readable output
  skirmish list --json | jq '.ais[].key'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVarP(&listVerbose, "verbose", "v", false, "Show all descriptor properties")
	rootCmd.AddCommand(listCmd)
}

// catalogListing is the JSON form of a catalog.
type catalogListing struct {
	Interfaces []*catalog.InterfaceDescriptor `json:"interfaces"`
	AIs        []*catalog.AIDescriptor        `json:"ais"`
	Duplicates []catalog.Duplicate            `json:"duplicates"`
	Dropped    []string                       `json:"dropped"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	cat := store.Catalog()

	if listJSON {
		return outputCatalogJSON(cat)
	}
	outputCatalogTable(cat, listVerbose)
	return nil
}

func outputCatalogJSON(cat *catalog.Catalog) error {
	listing := catalogListing{
		Interfaces: cat.Interfaces(),
		AIs:        cat.AIs(),
		Duplicates: cat.Duplicates(),
		Dropped:    cat.Dropped(),
	}
	encoder := json.NewEncoder(printer.Out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(listing); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func outputCatalogTable(cat *catalog.Catalog, verbose bool) {
	interfaces := cat.Interfaces()
	ais := cat.AIs()

	if len(interfaces) == 0 && len(ais) == 0 {
		printer.Info("No modules found\n")
		return
	}

	printer.Header("AI Interfaces")
	rows := make([][]string, 0, len(interfaces))
	for _, d := range interfaces {
		rows = append(rows, []string{d.Key.ShortName, d.Key.Version, d.Library(), d.DataDir})
	}
	printer.Table([]string{"NAME", "VERSION", "LIBRARY", "DATA DIR"}, rows)
	if verbose {
		for _, d := range interfaces {
			printProperties(d.Key.String(), &d.Descriptor)
		}
	}

	printer.Info("\n")
	printer.Header("Skirmish AIs")
	rows = rows[:0]
	for _, d := range ais {
		options := "-"
		if d.Options != nil {
			options = fmt.Sprintf("%d", len(d.Options.Options))
		}
		rows = append(rows, []string{d.Key.ShortName, d.Key.Version, d.Key.Interface.String(), options, d.Description()})
	}
	printer.Table([]string{"NAME", "VERSION", "INTERFACE", "OPTIONS", "DESCRIPTION"}, rows)
	if verbose {
		for _, d := range ais {
			printProperties(d.Key.String(), &d.Descriptor)
		}
	}

	for _, dup := range cat.Duplicates() {
		printer.Warning("%s %s is defined more than once, using %s\n", dup.Kind, dup.Key, dup.Paths[len(dup.Paths)-1])
	}
	for _, path := range cat.Dropped() {
		printer.Warning("%s names an interface that is not installed\n", path)
	}
}

func printProperties(title string, d *catalog.Descriptor) {
	printer.Info("\n%s\n", title)
	for _, k := range d.PropertyKeys() {
		printer.Info("  %s = %s\n", k, strings.TrimSpace(d.Properties[k]))
	}
}
