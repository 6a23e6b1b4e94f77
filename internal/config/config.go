package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// API
	ListenAddr string

	// Database
	DatabaseDSN string

	// Browser / scraping
	UserAgent         string
	Proxy             string
	ChromePath        string
	BrowserHeadless   bool
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
	SettleDelay       time.Duration

	// Orchestration
	ScrapeConcurrency int

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load builds a Config by combining defaults, environment variables, and CLI
// flags. Caller should pass the root *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		ListenAddr:        DefaultListenAddr,
		DatabaseDSN:       DefaultDatabaseDSN,
		UserAgent:         DefaultUserAgent,
		BrowserHeadless:   DefaultBrowserHeadless,
		NavigationTimeout: DefaultNavigationTimeout,
		SelectorTimeout:   DefaultSelectorTimeout,
		SettleDelay:       DefaultSettleDelay,
		ScrapeConcurrency: DefaultScrapeConcurrency,
		RateLimitRPS:      DefaultRateLimitRPS,
		RateLimitBurst:    DefaultRateLimitBurst,
	}

	// Override from environment variables (simple helpers)
	if v := os.Getenv("PRICEWATCH_DB_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("PRICEWATCH_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("PRICEWATCH_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("PRICEWATCH_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("PRICEWATCH_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("PRICEWATCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ScrapeConcurrency = n
		}
	}
	if v := os.Getenv("PRICEWATCH_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.BrowserHeadless = b
		}
	}

	// Read CLI flags if provided
	if cmd != nil {
		if f := cmd.Flags().Lookup("db-dsn"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.DatabaseDSN = s
			}
		}
		if f := cmd.Flags().Lookup("listen"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.ListenAddr = s
			}
		}
		if f := cmd.Flags().Lookup("user-agent"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.UserAgent = s
			}
		}
		if f := cmd.Flags().Lookup("proxy"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.Proxy = s
			}
		}
		if f := cmd.Flags().Lookup("nav-timeout"); f != nil {
			if s := f.Value.String(); s != "" {
				if d, err := time.ParseDuration(s); err == nil {
					cfg.NavigationTimeout = d
				}
			}
		}
		if f := cmd.Flags().Lookup("selector-timeout"); f != nil {
			if s := f.Value.String(); s != "" {
				if d, err := time.ParseDuration(s); err == nil {
					cfg.SelectorTimeout = d
				}
			}
		}
		if f := cmd.Flags().Lookup("concurrency"); f != nil {
			if n, err := strconv.Atoi(f.Value.String()); err == nil && n > 0 {
				cfg.ScrapeConcurrency = n
			}
		}
		if f := cmd.Flags().Lookup("headful"); f != nil {
			if f.Value.String() == "true" {
				cfg.BrowserHeadless = false
			}
		}
		if f := cmd.Flags().Lookup("json"); f != nil {
			if f.Value.String() == "true" {
				cfg.JSONLog = true
			}
		}
		if f := cmd.Flags().Lookup("verbose"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "debug"
			}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
