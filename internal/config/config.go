package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP
	Addr string

	// Storage
	CacheDir      string
	AuthStatePath string
	AuthStore     string

	// Jobs
	Concurrency   int
	StaleAfter    time.Duration
	SweepSchedule string

	// Browser
	Headless          bool
	ChromePath        string
	UserAgent         string
	Proxies           []string
	ProxyCooldown     time.Duration
	LoginTimeout      time.Duration
	NavigationTimeout time.Duration
	ContainerTimeout  time.Duration
	SettleDelay       time.Duration

	// Search
	MaxPages int

	// Rate limits in requests per minute, keyed by operation
	RateLimits map[string]int
}

// fileConfig is the TOML layout. Pointers tell unset keys from zero values.
type fileConfig struct {
	LogLevel          *string        `toml:"log_level"`
	JSONLog           *bool          `toml:"json_log"`
	Addr              *string        `toml:"addr"`
	CacheDir          *string        `toml:"cache_dir"`
	AuthStatePath     *string        `toml:"auth_state_path"`
	AuthStore         *string        `toml:"auth_store"`
	Concurrency       *int           `toml:"concurrency"`
	StaleAfter        *string        `toml:"stale_after"`
	SweepSchedule     *string        `toml:"sweep_schedule"`
	Headless          *bool          `toml:"headless"`
	ChromePath        *string        `toml:"chrome_path"`
	UserAgent         *string        `toml:"user_agent"`
	Proxies           []string       `toml:"proxies"`
	ProxyCooldown     *string        `toml:"proxy_cooldown"`
	LoginTimeout      *string        `toml:"login_timeout"`
	NavigationTimeout *string        `toml:"navigation_timeout"`
	ContainerTimeout  *string        `toml:"container_timeout"`
	SettleDelay       *string        `toml:"settle_delay"`
	MaxPages          *int           `toml:"max_pages"`
	RateLimits        map[string]int `toml:"rate_limits"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		Addr:              DefaultAddr,
		CacheDir:          DefaultCacheDir,
		AuthStatePath:     DefaultAuthStatePath,
		AuthStore:         DefaultAuthStore,
		Concurrency:       DefaultConcurrency,
		StaleAfter:        DefaultStaleAfter,
		SweepSchedule:     DefaultSweepSchedule,
		Headless:          DefaultHeadless,
		ProxyCooldown:     DefaultProxyCooldown,
		LoginTimeout:      DefaultLoginTimeout,
		NavigationTimeout: DefaultNavigationTimeout,
		ContainerTimeout:  DefaultContainerTimeout,
		SettleDelay:       DefaultSettleDelay,
		MaxPages:          DefaultMaxPages,
		RateLimits:        DefaultRateLimits(),
	}
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	path := os.Getenv(EnvPrefix + "CONFIG")
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if cmd != nil {
		if err := cfg.loadFlags(cmd); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&c.LogLevel, f.LogLevel)
	setBool(&c.JSONLog, f.JSONLog)
	setString(&c.Addr, f.Addr)
	setString(&c.CacheDir, f.CacheDir)
	setString(&c.AuthStatePath, f.AuthStatePath)
	setString(&c.AuthStore, f.AuthStore)
	setInt(&c.Concurrency, f.Concurrency)
	setString(&c.SweepSchedule, f.SweepSchedule)
	setBool(&c.Headless, f.Headless)
	setString(&c.ChromePath, f.ChromePath)
	setString(&c.UserAgent, f.UserAgent)
	setInt(&c.MaxPages, f.MaxPages)
	if f.Proxies != nil {
		c.Proxies = splitList(strings.Join(f.Proxies, ","))
	}
	for op, n := range f.RateLimits {
		c.RateLimits[op] = n
	}

	durations := []struct {
		key string
		raw *string
		dst *time.Duration
	}{
		{"stale_after", f.StaleAfter, &c.StaleAfter},
		{"proxy_cooldown", f.ProxyCooldown, &c.ProxyCooldown},
		{"login_timeout", f.LoginTimeout, &c.LoginTimeout},
		{"navigation_timeout", f.NavigationTimeout, &c.NavigationTimeout},
		{"container_timeout", f.ContainerTimeout, &c.ContainerTimeout},
		{"settle_delay", f.SettleDelay, &c.SettleDelay},
	}
	for _, d := range durations {
		if d.raw == nil {
			continue
		}
		v, err := time.ParseDuration(*d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v := env("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := env("ADDR"); v != "" {
		c.Addr = v
	}
	if v := env("CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := env("AUTH_STATE"); v != "" {
		c.AuthStatePath = v
	}
	if v := env("AUTH_STORE"); v != "" {
		c.AuthStore = v
	}
	if v := env("CHROME_PATH"); v != "" {
		c.ChromePath = v
	}
	if v := env("USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := env("PROXIES"); v != "" {
		c.Proxies = splitList(v)
	}
	if v := env("SWEEP_SCHEDULE"); v != "" {
		c.SweepSchedule = v
	}

	ints := map[string]*int{
		"CONCURRENCY": &c.Concurrency,
		"MAX_PAGES":   &c.MaxPages,
	}
	for name, dst := range ints {
		if v := env(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	if v := env("HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sHEADLESS: %w", EnvPrefix, err)
		}
		c.Headless = b
	}

	durations := map[string]*time.Duration{
		"STALE_AFTER":        &c.StaleAfter,
		"LOGIN_TIMEOUT":      &c.LoginTimeout,
		"NAVIGATION_TIMEOUT": &c.NavigationTimeout,
		"CONTAINER_TIMEOUT":  &c.ContainerTimeout,
		"SETTLE_DELAY":       &c.SettleDelay,
	}
	for name, dst := range durations {
		if v := env(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = d
		}
	}
	return nil
}

// loadFlags applies the flags the user actually set
func (c *Config) loadFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	var err error
	if changed("verbose") {
		c.LogLevel = "debug"
	}
	if changed("quiet") {
		c.LogLevel = "error"
	}
	if changed("json") {
		c.JSONLog, err = flags.GetBool("json")
	}
	if err == nil && changed("addr") {
		c.Addr, err = flags.GetString("addr")
	}
	if err == nil && changed("cache-dir") {
		c.CacheDir, err = flags.GetString("cache-dir")
	}
	if err == nil && changed("auth-store") {
		c.AuthStore, err = flags.GetString("auth-store")
	}
	if err == nil && changed("chrome-path") {
		c.ChromePath, err = flags.GetString("chrome-path")
	}
	if err == nil && changed("user-agent") {
		c.UserAgent, err = flags.GetString("user-agent")
	}
	if err == nil && changed("headless") {
		c.Headless, err = flags.GetBool("headless")
	}
	if err == nil && changed("concurrency") {
		c.Concurrency, err = flags.GetInt("concurrency")
	}
	if err == nil && changed("max-pages") {
		c.MaxPages, err = flags.GetInt("max-pages")
	}
	if err == nil && changed("proxy") {
		var v string
		v, err = flags.GetString("proxy")
		c.Proxies = splitList(v)
	}
	return err
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

// splitList splits a comma separated list, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
