// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mathursrus/LinkedIn-Network/internal/auth"
	"github.com/mathursrus/LinkedIn-Network/internal/browser"
	"github.com/mathursrus/LinkedIn-Network/internal/config"
	"github.com/mathursrus/LinkedIn-Network/internal/extract"
	"github.com/mathursrus/LinkedIn-Network/internal/jobs"
	"github.com/mathursrus/LinkedIn-Network/internal/jobstore"
	"github.com/mathursrus/LinkedIn-Network/internal/paginate"
	"github.com/mathursrus/LinkedIn-Network/internal/proxy"
	"github.com/mathursrus/LinkedIn-Network/internal/ratelimit"
	"github.com/mathursrus/LinkedIn-Network/internal/retry"
	"github.com/mathursrus/LinkedIn-Network/internal/search"
	"github.com/mathursrus/LinkedIn-Network/internal/server"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure running jobs are recorded before the process exits.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Store       *jobstore.FileStore
	Auth        auth.Store
	RateLimiter *ratelimit.OperationLimiter
	Proxies     *proxy.Pool
	Launcher    *browser.Launcher
	Searcher    *search.Searcher
	Jobs        *jobs.Orchestrator
	Sweeper     *jobs.Sweeper
	startTime   time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// Nothing is launched here: browsers start per job and the sweeper starts
// with the server.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := SetupLogging(cfg, os.Stderr)

	authStore, err := auth.NewStore(cfg.AuthStore, cfg.AuthStatePath)
	if err != nil {
		return nil, err
	}

	limits := make(map[string]ratelimit.Limit, len(cfg.RateLimits))
	for op, n := range cfg.RateLimits {
		limits[op] = ratelimit.Limit{Requests: n, Window: time.Minute}
	}
	limiter := ratelimit.NewOperationLimiter(limits)

	proxies := proxy.NewPool(cfg.Proxies, cfg.ProxyCooldown)

	launcher := &browser.Launcher{
		Options: browser.Options{
			ChromePath:        cfg.ChromePath,
			Headless:          cfg.Headless,
			UserAgent:         cfg.UserAgent,
			NavigationTimeout: cfg.NavigationTimeout,
			LoginTimeout:      cfg.LoginTimeout,
		},
		Auth:    authStore,
		Limiter: limiter,
		Proxies: proxies,
		Retry:   retry.DefaultConfig(),
	}

	extractor := &extract.PageExtractor{
		Strategies:        extract.DefaultStrategies(),
		ContainerSelector: extract.ResultsContainer,
		ContainerTimeout:  cfg.ContainerTimeout,
		Settle:            cfg.SettleDelay,
	}
	searcher := search.New(paginate.New(), extractor, cfg.MaxPages)

	store := jobstore.NewFileStore(cfg.CacheDir)
	staleAfter := cfg.StaleAfter
	if staleAfter == 0 {
		staleAfter = -1
	}
	orchestrator := jobs.New(store, jobs.Options{
		Concurrency: cfg.Concurrency,
		StaleAfter:  staleAfter,
	})

	logger.Debug().
		Str("cache_dir", cfg.CacheDir).
		Str("auth_store", cfg.AuthStore).
		Int("concurrency", cfg.Concurrency).
		Int("proxies", proxies.Len()).
		Int("max_pages", cfg.MaxPages).
		Msg("Application initialized")

	return &Application{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Auth:        authStore,
		RateLimiter: limiter,
		Proxies:     proxies,
		Launcher:    launcher,
		Searcher:    searcher,
		Jobs:        orchestrator,
		Sweeper:     jobs.NewSweeper(store, orchestrator.StaleAfter(), orchestrator),
		startTime:   time.Now(),
	}, nil
}

// SetupLogging configures the global zerolog logger from cfg and returns it.
func SetupLogging(cfg *config.Config, w io.Writer) *zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.JSONLog {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	logger := log.Logger
	return &logger
}

// NewJob binds a search strategy to a browser session. Each run opens its own
// session and closes it when the strategy returns.
func (a *Application) NewJob(strategy search.Strategy, params map[string]string) jobs.Job {
	return jobs.Job{
		Query:       strategy.Name(),
		Params:      params,
		ResultField: strategy.ResultField(),
		Run: func(ctx context.Context) ([]models.PersonRecord, error) {
			var people []models.PersonRecord
			err := a.Launcher.WithSession(ctx, func(ctx context.Context, page extract.Page) error {
				var err error
				people, err = strategy.Run(ctx, page)
				return err
			})
			if err != nil {
				return nil, err
			}
			return people, nil
		},
	}
}

// Server builds the HTTP server over the application's jobs
func (a *Application) Server() *server.Server {
	return server.New(a.Config.Addr, server.Deps{
		Jobs:     a.Jobs,
		Store:    a.Store,
		Searcher: a.Searcher,
		NewJob:   a.NewJob,
		Limiter:  a.RateLimiter,
	})
}

// Close stops accepting jobs and waits for running ones until ctx is done.
// Jobs cut off by the deadline are recorded as interrupted.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	err := a.Jobs.Close(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Running jobs were interrupted")
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return err
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
