// internal/cli/root.go
package cli

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pricewatch/pricewatch/internal/app"
	"github.com/pricewatch/pricewatch/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "pricewatch",
	Short:   "Marketplace price scraping and comparison service",
	Long:    `Pricewatch searches configured marketplaces for a product, extracts listing data from rendered pages, stores the results, and exports them for price comparison and regression analysis.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Initialize the application before running commands; skipped for -h/help.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp() != nil {
			return nil
		}

		cfg, err := config.Load(rootCmd)
		if err != nil {
			return err
		}

		appCtx, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(appCtx)
		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		a := GetApp()
		if a == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("Shutdown error")
		}
		SetApp(nil)
	}
}
