package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mathursrus/LinkedIn-Network/internal/engine"
	"github.com/mathursrus/LinkedIn-Network/internal/jobstore"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

// DefaultSweepSchedule runs the sweeper once a minute
const DefaultSweepSchedule = "@every 1m"

// Sweeper rewrites processing records nobody is working on anymore, such as
// those left behind by a crashed process, as STALE errors.
type Sweeper struct {
	store  jobstore.Store
	ttl    time.Duration
	active func(key string) bool
	cron   *cron.Cron
	logger zerolog.Logger
	now    func() time.Time
}

// NewSweeper creates a sweeper for store. Keys o is running are left alone;
// o may be nil.
func NewSweeper(store jobstore.Store, ttl time.Duration, o *Orchestrator) *Sweeper {
	s := &Sweeper{
		store:  store,
		ttl:    ttl,
		active: func(string) bool { return false },
		cron:   cron.New(),
		logger: log.With().Str("component", "sweeper").Logger(),
		now:    time.Now,
	}
	if o != nil {
		s.active = o.Running
	}
	return s
}

// Start runs the sweep on schedule until Stop
func (s *Sweeper) Start(schedule string) error {
	if s.ttl <= 0 {
		return fmt.Errorf("sweeper needs a positive staleness TTL")
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Dur("ttl", s.ttl).
		Msg("Stale job sweeper started")
	return nil
}

// Stop stops the schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Stale job sweeper stopped")
}

// RunOnce sweeps the store and returns the number of records marked stale
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	keys, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list job records: %w", err)
	}

	now := s.now()
	swept := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return swept, err
		}

		rec, err := s.store.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, jobstore.ErrNotFound) {
				s.logger.Warn().Str("key", key).Err(err).Msg("Skipping unreadable job record")
			}
			continue
		}
		if !jobstore.IsStale(rec, s.ttl, now) || s.active(key) {
			continue
		}

		rec.Status = models.StatusError
		rec.Error = fmt.Sprintf("job abandoned: no progress for %s", s.ttl)
		rec.ErrorCode = string(engine.ErrCodeStale)
		rec.Timestamp = now
		if err := s.store.Put(ctx, key, rec); err != nil {
			return swept, err
		}

		s.logger.Warn().Str("key", key).Msg("Marked abandoned job stale")
		swept++
	}

	if swept > 0 {
		s.logger.Info().Int("swept", swept).Int("records", len(keys)).Msg("Sweep complete")
	}
	return swept, nil
}
