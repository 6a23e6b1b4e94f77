package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	cmd.PersistentFlags().String("db-dsn", "", "Postgres connection string")
	cmd.PersistentFlags().String("listen", "", "API listen address (e.g. :8080)")
	cmd.PersistentFlags().String("proxy", "", "HTTP/SOCKS5 proxy for the browser (e.g. http://localhost:8080)")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().String("nav-timeout", "", "Page navigation timeout (e.g. 15s)")
	cmd.PersistentFlags().String("selector-timeout", "", "Product selector wait timeout (e.g. 10s)")
	cmd.PersistentFlags().Int("concurrency", 0, "Concurrent marketplace scrapes per batch")
	cmd.PersistentFlags().Bool("headful", false, "Run the browser with a visible window")
}
