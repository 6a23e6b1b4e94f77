// internal/cli/scrape.go
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scrapeMarketplaceIDs []int64

// scrapeCmd runs one batch from the terminal and prints the result as JSON.
var scrapeCmd = &cobra.Command{
	Use:   "scrape <product name>",
	Short: "Scrape all marketplaces for a product",
	Long:  `Runs one scrape batch for the given product name across the active marketplaces (or an explicit set) and prints the batch result as JSON.`,
	Example: `  # Scrape every active marketplace
  pricewatch scrape "iPhone 16 Pro 256GB"

  # Scrape specific marketplaces only
  pricewatch scrape "iPhone 16 Pro 256GB" --marketplace 1 --marketplace 3`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().Int64SliceVar(&scrapeMarketplaceIDs, "marketplace", nil, "Marketplace id to scrape (repeatable)")
}

func runScrape(cmd *cobra.Command, args []string) error {
	a := GetApp()

	batch, err := a.Orchestrator.Run(cmd.Context(), args[0], scrapeMarketplaceIDs)
	if err != nil && batch == nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(batch); encErr != nil {
		return encErr
	}

	if err != nil {
		return fmt.Errorf("some outcomes were not persisted: %w", err)
	}
	return nil
}
