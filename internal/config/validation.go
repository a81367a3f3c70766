package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

func validate(c *Config) error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache dir must not be empty")
	}
	if c.AuthStore != "file" && c.AuthStore != "keyring" {
		return fmt.Errorf("auth store must be file or keyring, got %q", c.AuthStore)
	}
	if c.Concurrency <= 0 || c.Concurrency > DefaultMaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d", DefaultMaxConcurrency)
	}
	if c.MaxPages <= 0 || c.MaxPages > DefaultHardMaxPages {
		return fmt.Errorf("max pages must be between 1 and %d", DefaultHardMaxPages)
	}
	if c.StaleAfter < 0 {
		return fmt.Errorf("stale after must not be negative")
	}
	if c.StaleAfter > 0 && c.SweepSchedule == "" {
		return fmt.Errorf("sweep schedule must not be empty")
	}
	if c.LoginTimeout <= 0 || c.NavigationTimeout <= 0 || c.ContainerTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	if c.SettleDelay < 0 || c.ProxyCooldown < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	for op, n := range c.RateLimits {
		if n <= 0 {
			return fmt.Errorf("rate limit for %s must be > 0", op)
		}
	}
	return nil
}
