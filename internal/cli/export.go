// internal/cli/export.go
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pricewatch/pricewatch/internal/export"
)

var exportPath string

// exportCmd writes the stored corpus as the fixed comparison CSV.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored scrape results to CSV",
	Long:  `Writes every stored scrape outcome as the six-column comparison table (model, memory, screen size, price, OLED flag, NFC flag).`,
	Example: `  # Export to the default file
  pricewatch export

  # Export to a named file
  pricewatch export -o prices.csv`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "products_export.csv", "Destination file path")
}

func runExport(cmd *cobra.Command, args []string) error {
	a := GetApp()

	outcomes, err := a.Store.ListOutcomes(cmd.Context())
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		return fmt.Errorf("no scraped products stored")
	}

	file, err := os.Create(exportPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := export.WriteCSV(file, outcomes); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Exported %d rows to %s\n", len(outcomes), exportPath)
	return nil
}
