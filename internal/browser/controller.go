// Package browser drives one signed-in Chrome session through chromedp.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/mathursrus/LinkedIn-Network/internal/auth"
	"github.com/mathursrus/LinkedIn-Network/internal/engine"
	"github.com/mathursrus/LinkedIn-Network/internal/ratelimit"
	"github.com/mathursrus/LinkedIn-Network/internal/retry"
	urlutil "github.com/mathursrus/LinkedIn-Network/internal/utils/url"
)

// State is the lifecycle stage of a Controller
type State int

const (
	StateUninitialized State = iota
	StateLaunching
	StateAwaitingLogin
	StateReady
	StateClosed
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLaunching:
		return "launching"
	case StateAwaitingLogin:
		return "awaiting_login"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	case StateCrashed:
		return "crashed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type runFunc func(ctx context.Context, actions ...chromedp.Action) error

type allocFunc func(opts Options, proxyServer string) (context.Context, context.CancelFunc)

// Controller owns one browser process and its single tab. It implements
// extract.Page. Every operation is followed by a liveness probe, so a dead
// browser surfaces as a *CrashError instead of a string of timeouts.
type Controller struct {
	opts    Options
	auth    auth.Store
	limiter ratelimit.RateLimiter
	retry   retry.Config
	proxy   string

	run      runFunc
	allocate allocFunc

	mu         sync.Mutex
	state      State
	crash      error
	browserCtx context.Context
	cancel     context.CancelFunc
}

// NewController returns an unstarted controller. store and limiter may be nil.
func NewController(opts Options, store auth.Store, limiter ratelimit.RateLimiter) *Controller {
	return &Controller{
		opts:     opts.withDefaults(),
		auth:     store,
		limiter:  limiter,
		retry:    retry.DefaultConfig(),
		run:      chromedp.Run,
		allocate: newBrowserContext,
	}
}

func newBrowserContext(opts Options, proxyServer string) (context.Context, context.CancelFunc) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts, proxyServer)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	return browserCtx, func() {
		browserCancel()
		allocCancel()
	}
}

// State returns the current lifecycle stage
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start launches the browser, restores saved cookies and waits until the
// session is signed in.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUninitialized {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("browser session already started (%s)", state)
	}
	c.state = StateLaunching
	c.mu.Unlock()

	start := time.Now()
	if err := c.launch(ctx); err != nil {
		return err
	}
	if err := c.awaitLogin(ctx); err != nil {
		return err
	}

	log.Info().
		Str("component", "browser").
		Dur("duration", time.Since(start)).
		Msg("Browser session ready")
	return nil
}

func (c *Controller) launch(ctx context.Context) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, ratelimit.OpBrowserInit); err != nil {
			return err
		}
	}

	browserCtx, cancel := c.allocate(c.opts, c.proxy)

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		cancel()
		return engine.ErrSessionClosed
	}
	c.browserCtx = browserCtx
	c.cancel = cancel
	c.mu.Unlock()

	chromedp.ListenTarget(browserCtx, c.onEvent)

	// The first Run starts the browser, and its context owns the process
	// from then on, so it must be the session context itself.
	stop := context.AfterFunc(ctx, cancel)
	err := c.run(browserCtx, network.Enable(), inspector.Enable())
	stop()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", engine.ErrBrowserNotFound, err)
	}

	c.restoreCookies(ctx)
	return nil
}

func (c *Controller) restoreCookies(ctx context.Context) {
	if c.auth == nil {
		return
	}

	state, err := c.auth.Load()
	switch {
	case errors.Is(err, auth.ErrNoState):
		log.Info().Str("component", "browser").Msg("No saved sign-in, starting fresh")
		return
	case err != nil:
		log.Warn().Str("component", "browser").Err(err).Msg("Ignoring unusable saved sign-in")
		return
	}

	if err := c.exec(ctx, c.opts.NavigationTimeout, state.Restore()); err != nil {
		log.Warn().Str("component", "browser").Err(err).Msg("Failed to restore saved cookies")
		return
	}
	log.Debug().Str("component", "browser").Int("cookies", len(state.Cookies)).Msg("Saved cookies restored")
}

func (c *Controller) awaitLogin(ctx context.Context) error {
	c.setState(StateAwaitingLogin)

	if err := c.exec(ctx, c.opts.NavigationTimeout, chromedp.Navigate(urlutil.SiteBase)); err != nil {
		return c.fail(ctx, "open home page", err)
	}

	err := c.exec(ctx, c.opts.FeedProbeTimeout, chromedp.WaitVisible(FeedSelector, chromedp.ByQuery))
	if err == nil {
		c.setState(StateReady)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	log.Warn().
		Str("component", "browser").
		Dur("timeout", c.opts.LoginTimeout).
		Bool("headless", c.opts.Headless).
		Msg("Not signed in. Please log in using the browser window")

	if err := c.exec(ctx, c.opts.LoginTimeout, chromedp.WaitVisible(FeedSelector, chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if perr := c.probe(); perr != nil {
			return c.markCrashed("login", perr)
		}
		return fmt.Errorf("%w after %s", engine.ErrLoginTimeout, c.opts.LoginTimeout)
	}

	c.saveCookies(ctx)
	c.setState(StateReady)
	return nil
}

func (c *Controller) saveCookies(ctx context.Context) {
	if c.auth == nil {
		return
	}

	var state *auth.State
	if err := c.exec(ctx, c.opts.ProbeTimeout, auth.Capture(&state)); err != nil || state == nil {
		log.Warn().Str("component", "browser").Err(err).Msg("Failed to read cookies after sign-in")
		return
	}
	if err := c.auth.Save(state); err != nil {
		log.Warn().Str("component", "browser").Err(err).Msg("Failed to save sign-in")
		return
	}
	log.Info().Str("component", "browser").Int("cookies", len(state.Cookies)).Msg("Sign-in saved")
}

// Navigate loads url, waiting for the matching rate limit first and retrying
// transient failures.
func (c *Controller) Navigate(ctx context.Context, url string) error {
	if err := c.ready(); err != nil {
		return err
	}

	if c.limiter != nil {
		op := ratelimit.OpProfile
		if strings.Contains(url, "/search/") {
			op = ratelimit.OpSearch
		}
		if err := c.limiter.Wait(ctx, op); err != nil {
			return err
		}
	}

	log.Debug().Str("component", "browser").Str("url", url).Msg("Navigating")
	return retry.Do(ctx, c.retry, "navigate", func(int) error {
		return c.do(ctx, "navigate", c.opts.NavigationTimeout, chromedp.Navigate(url))
	})
}

// WaitVisible waits up to timeout for selector to be visible
func (c *Controller) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return c.do(ctx, "wait for "+selector, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// HTML returns the rendered document
func (c *Controller) HTML(ctx context.Context) (string, error) {
	var html string
	if err := c.do(ctx, "read page", c.opts.HTMLTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Sleep pauses for d while the page keeps rendering
func (c *Controller) Sleep(ctx context.Context, d time.Duration) error {
	return c.do(ctx, "settle", d+c.opts.ProbeTimeout, chromedp.Sleep(d))
}

// Close shuts the browser down. It is safe to call in any state and more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	prev := c.state
	c.state = StateClosed
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	// cancel waits for the browser to exit, and target listeners take c.mu
	if cancel != nil {
		cancel()
	}

	log.Debug().Str("component", "browser").Str("state", prev.String()).Msg("Browser session closed")
	return nil
}

// do runs actions on a ready session, then confirms the browser still answers.
func (c *Controller) do(ctx context.Context, op string, timeout time.Duration, actions ...chromedp.Action) error {
	if err := c.ready(); err != nil {
		return err
	}

	err := c.exec(ctx, timeout, actions...)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if perr := c.probe(); perr != nil {
		return c.markCrashed(op, perr)
	}
	if rerr := c.ready(); rerr != nil {
		return rerr
	}

	if err != nil {
		return classify(op, err)
	}
	return nil
}

// exec runs actions with a bound, cancelled early when ctx is done
func (c *Controller) exec(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	c.mu.Lock()
	browserCtx := c.browserCtx
	c.mu.Unlock()
	if browserCtx == nil {
		return engine.ErrNotReady
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(browserCtx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(browserCtx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return c.run(runCtx, actions...)
}

// probe evaluates a constant expression to prove the page still responds
func (c *Controller) probe() error {
	var two int
	return c.exec(context.Background(), c.opts.ProbeTimeout, chromedp.Evaluate("1+1", &two))
}

func (c *Controller) ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateReady:
		return nil
	case StateCrashed:
		return c.crash
	case StateClosed:
		return engine.ErrSessionClosed
	default:
		return engine.ErrNotReady
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed || c.state == StateCrashed {
		return
	}
	c.state = s
	log.Debug().Str("component", "browser").Str("state", s.String()).Msg("Browser state changed")
}

// markCrashed moves the session to Crashed and returns the error every later
// operation will see.
func (c *Controller) markCrashed(op string, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return engine.ErrSessionClosed
	case StateCrashed:
		return c.crash
	}

	c.state = StateCrashed
	c.crash = &CrashError{Op: op, Err: cause}
	log.Error().Str("component", "browser").Str("op", op).Err(cause).Msg("Browser crashed")
	return c.crash
}

func (c *Controller) onEvent(ev interface{}) {
	switch ev := ev.(type) {
	case *inspector.EventTargetCrashed:
		c.markCrashed("render", errors.New("target crashed"))
	case *inspector.EventDetached:
		c.markCrashed("render", fmt.Errorf("target detached: %s", ev.Reason))
	}
}

// fail converts an error from the sign-in phase
func (c *Controller) fail(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if perr := c.probe(); perr != nil {
		return c.markCrashed(op, perr)
	}
	return classify(op, err)
}

func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return engine.NewEngineError(engine.ErrCodeTimeout, op+" timed out", err).WithRetry()
	}
	return engine.NewEngineError(engine.ErrCodeNavigation, op+" failed", err).WithRetry()
}
