package config

import "fmt"

func validate(c *Config) error {
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be > 0")
	}
	if c.SelectorTimeout <= 0 {
		return fmt.Errorf("selector timeout must be > 0")
	}
	if c.ScrapeConcurrency <= 0 || c.ScrapeConcurrency > DefaultMaxConcurrency {
		return fmt.Errorf("scrape concurrency must be between 1 and %d", DefaultMaxConcurrency)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	return nil
}
