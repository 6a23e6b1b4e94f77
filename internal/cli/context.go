// Package cli provides the command-line interface for the pricewatch service.
package cli

import (
	"github.com/pricewatch/pricewatch/internal/app"
)

// Global application reference shared by all commands; set up in the root
// command's PersistentPreRunE and torn down in PersistentPostRun.
var globalApp *app.Application

// GetApp retrieves the running Application.
func GetApp() *app.Application {
	return globalApp
}

// SetApp stores the Application for command handlers.
func SetApp(a *app.Application) {
	globalApp = a
}
