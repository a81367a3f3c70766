package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel          = "info"
	DefaultJSONLog           = false
	DefaultAddr              = "127.0.0.1:8001"
	DefaultCacheDir          = "cache"
	DefaultAuthStatePath     = "browser_state.json"
	DefaultAuthStore         = "file"
	DefaultConcurrency       = 3
	DefaultMaxConcurrency    = 10
	DefaultHeadless          = false
	DefaultLoginTimeout      = 2 * time.Minute
	DefaultNavigationTimeout = 60 * time.Second
	DefaultContainerTimeout  = 30 * time.Second
	DefaultSettleDelay       = 5 * time.Second
	DefaultMaxPages          = 50
	DefaultHardMaxPages      = 50
	DefaultStaleAfter        = 30 * time.Minute
	DefaultSweepSchedule     = "@every 1m"
	DefaultProxyCooldown     = 5 * time.Minute

	// EnvPrefix prefixes every environment override
	EnvPrefix = "NETBUILDER_"
)

// DefaultRateLimits are requests per minute for each operation
func DefaultRateLimits() map[string]int {
	return map[string]int{
		"linkedin_profile": 20,
		"linkedin_search":  30,
		"browser_init":     5,
		"api_request":      100,
	}
}
