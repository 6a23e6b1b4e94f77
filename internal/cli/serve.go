// internal/cli/serve.go
package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pricewatch/pricewatch/internal/api"
)

// serveCmd runs the HTTP API daemon.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scraping API server",
	Long:  `Starts the HTTP API: scrape triggers, marketplace administration, CSV export, and regression analysis.`,
	Example: `  # Serve on the default address
  pricewatch serve

  # Serve on a custom port with debug logging
  pricewatch serve --listen :9090 -v`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a := GetApp()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(a.Store, a.Orchestrator, a.Metrics, *a.Logger)
	return server.ListenAndServe(ctx, a.Config.ListenAddr)
}
