package config

import (
	"time"

	"ocean_tracker/internal/retry"
)

type ResilienceConfig struct {
	// DownloadWait polls for an exported CSV to appear on disk.
	DownloadWait retry.Config
}

var DefaultResilienceConfig = ResilienceConfig{
	DownloadWait: retry.Config{
		MaxRetries: retry.Attempts(30*time.Second, 1*time.Second, 5*time.Second),
		BaseDelay:  1 * time.Second,
		MaxDelay:   5 * time.Second,
		Timeout:    10 * time.Second,
	},
}

// DownloadWaitFor returns the download polling policy stretched to cover total.
func DownloadWaitFor(total time.Duration) retry.Config {
	c := DefaultResilienceConfig.DownloadWait
	c.MaxRetries = retry.Attempts(total, c.BaseDelay, c.MaxDelay)
	return c
}
