package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	cmd.PersistentFlags().String("config", "", "Path to a TOML configuration file (optional)")
	cmd.PersistentFlags().String("cache-dir", "", "Directory job records are stored in (default \"cache\")")
	cmd.PersistentFlags().String("auth-store", "", "Where sign-in state is kept: file or keyring")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome executable")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().String("proxy", "", "Comma separated proxies to rotate through (e.g., http://localhost:8080)")
	cmd.PersistentFlags().Bool("headless", false, "Run the browser without a window")
	cmd.PersistentFlags().Int("concurrency", DefaultConcurrency, "Maximum number of jobs running at once")
	cmd.PersistentFlags().Int("max-pages", DefaultMaxPages, "Maximum result pages per search")
}
