package snapshot

import "time"

// Config controls snapshot capture runs.
type Config struct {
	RunTimeout      time.Duration
	CategoryTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunTimeout:      5 * time.Minute,
		CategoryTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	if c.CategoryTimeout <= 0 {
		c.CategoryTimeout = defaults.CategoryTimeout
	}
	return c
}
