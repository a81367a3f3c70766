package browser

import (
	"time"

	"github.com/chromedp/chromedp"
)

const (
	// FeedSelector is only rendered for a signed-in member
	FeedSelector = ".feed-shared-update-v2"

	DefaultNavigationTimeout = 60 * time.Second
	DefaultProbeTimeout      = 5 * time.Second
	DefaultFeedProbeTimeout  = 5 * time.Second
	DefaultLoginTimeout      = 2 * time.Minute
	DefaultHTMLTimeout       = 15 * time.Second
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Options configures a browser session
type Options struct {
	ChromePath        string
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
	ProbeTimeout      time.Duration
	FeedProbeTimeout  time.Duration
	LoginTimeout      time.Duration
	HTMLTimeout       time.Duration
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		UserAgent:         DefaultUserAgent,
		NavigationTimeout: DefaultNavigationTimeout,
		ProbeTimeout:      DefaultProbeTimeout,
		FeedProbeTimeout:  DefaultFeedProbeTimeout,
		LoginTimeout:      DefaultLoginTimeout,
		HTMLTimeout:       DefaultHTMLTimeout,
	}
}

// withDefaults fills zero fields from DefaultOptions
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = d.NavigationTimeout
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = d.ProbeTimeout
	}
	if o.FeedProbeTimeout <= 0 {
		o.FeedProbeTimeout = d.FeedProbeTimeout
	}
	if o.LoginTimeout <= 0 {
		o.LoginTimeout = d.LoginTimeout
	}
	if o.HTMLTimeout <= 0 {
		o.HTMLTimeout = d.HTMLTimeout
	}
	return o
}

// allocatorOptions builds the Chrome command line for a session
func allocatorOptions(opts Options, proxyServer string) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("log-level", "3"),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(1280, 900),
		chromedp.UserAgent(opts.UserAgent),
	}

	if path := FindChrome(opts.ChromePath); path != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, allocOpts...)
	}

	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	if proxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(proxyServer))
	}

	return allocOpts
}
