package scheduler

import (
	"time"
)

// Config controls scheduler intervals.
type Config struct {
	RunInterval     time.Duration
	CaptureInterval time.Duration
	CleanupInterval time.Duration
	JobTimeout      time.Duration
	EnabledJobs     []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:     time.Minute,
		CaptureInterval: time.Hour,
		CleanupInterval: 24 * time.Hour,
		JobTimeout:      5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.CaptureInterval <= 0 {
		c.CaptureInterval = defaults.CaptureInterval
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = defaults.CleanupInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
