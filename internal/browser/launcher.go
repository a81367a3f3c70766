package browser

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/mathursrus/LinkedIn-Network/internal/auth"
	"github.com/mathursrus/LinkedIn-Network/internal/engine"
	"github.com/mathursrus/LinkedIn-Network/internal/extract"
	"github.com/mathursrus/LinkedIn-Network/internal/proxy"
	"github.com/mathursrus/LinkedIn-Network/internal/ratelimit"
	"github.com/mathursrus/LinkedIn-Network/internal/retry"
)

// SessionFunc does the work of one job against a ready page
type SessionFunc func(ctx context.Context, page extract.Page) error

// Launcher creates browser sessions that share sign-in state, rate limits
// and proxies.
type Launcher struct {
	Options Options
	Auth    auth.Store
	Limiter ratelimit.RateLimiter
	Proxies *proxy.Pool
	Retry   retry.Config

	run      runFunc
	allocate allocFunc
}

// NewController returns an unstarted controller configured from the launcher
func (l *Launcher) NewController() *Controller {
	return l.newController(l.Options)
}

func (l *Launcher) newController(opts Options) *Controller {
	c := NewController(opts, l.Auth, l.Limiter)
	if l.Retry.MaxAttempts > 0 {
		c.retry = l.Retry
	}
	if l.run != nil {
		c.run = l.run
	}
	if l.allocate != nil {
		c.allocate = l.allocate
	}
	return c
}

// WithSession starts a session, runs fn against it and always closes it,
// including when the launch fails.
func (l *Launcher) WithSession(ctx context.Context, fn SessionFunc) error {
	c := l.NewController()
	defer c.Close()

	c.proxy = l.Proxies.Next()
	if err := c.Start(ctx); err != nil {
		if c.proxy != "" && launchFailed(ctx, err) {
			l.Proxies.MarkFailed(c.proxy)
			log.Warn().Str("component", "browser").Str("proxy", c.proxy).Err(err).Msg("Proxy marked failed")
		}
		return err
	}
	l.Proxies.MarkHealthy(c.proxy)

	return fn(ctx, c)
}

// Login opens a visible browser and waits for the member to sign in. The
// cookies are saved for later headless sessions.
func (l *Launcher) Login(ctx context.Context) error {
	opts := l.Options
	opts.Headless = false

	c := l.newController(opts)
	defer c.Close()

	log.Info().
		Str("component", "browser").
		Str("chrome", ChromeVersion(FindChrome(opts.ChromePath))).
		Msg("Opening browser for sign-in")

	if err := c.Start(ctx); err != nil {
		return err
	}

	// Start only saves after an interactive sign-in; a restored session is
	// saved again so the expiry is refreshed.
	c.saveCookies(ctx)
	return nil
}

// launchFailed reports whether err points at the proxy rather than the caller
// or the sign-in.
func launchFailed(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, engine.ErrLoginTimeout) && !errors.Is(err, engine.ErrSessionClosed)
}
