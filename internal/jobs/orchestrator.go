// Package jobs runs queries in the background and records their progress in
// the job store. A query is keyed by its parameters, so resubmitting it while
// it runs returns the same job, and resubmitting it after a failure runs it
// again.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/mathursrus/LinkedIn-Network/internal/engine"
	"github.com/mathursrus/LinkedIn-Network/internal/jobstore"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

const (
	DefaultConcurrency = 3
	MaxConcurrency     = 10
	DefaultStaleAfter  = 30 * time.Minute

	// ParamQueryName is the record key every job echoes its query under
	ParamQueryName = "query_name"
)

var (
	// ErrClosed is returned by Submit once Close has been called
	ErrClosed = errors.New("orchestrator is shut down")
	// ErrInterrupted is recorded for jobs cancelled by Close
	ErrInterrupted = errors.New("interrupted by shutdown")
)

// RunFunc does the work of a job. ctx is cancelled when the orchestrator
// shuts down, never by the request that submitted the job.
type RunFunc func(ctx context.Context) ([]models.PersonRecord, error)

// Job is one query to run
type Job struct {
	Query       string
	Params      map[string]string
	ResultField string
	Run         RunFunc
}

// Submission is the outcome of Submit
type Submission struct {
	Key    string
	Record *models.JobRecord
	// Dispatched is true when this call started the job
	Dispatched bool
}

// Complete reports whether the submission was answered from a finished record
func (s *Submission) Complete() bool {
	return s.Record != nil && s.Record.Status == models.StatusComplete
}

// Options configures an Orchestrator
type Options struct {
	Concurrency int
	// StaleAfter is how long a processing record may go without an update
	// before it is considered abandoned. Zero uses DefaultStaleAfter;
	// negative disables staleness.
	StaleAfter time.Duration
}

// Orchestrator dispatches jobs, at most Concurrency at a time
type Orchestrator struct {
	store      jobstore.Store
	sem        chan struct{}
	group      singleflight.Group
	staleAfter time.Duration
	logger     zerolog.Logger
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]chan struct{}
	closed   bool
}

// New creates an orchestrator over store
func New(store jobstore.Store, opts Options) *Orchestrator {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > MaxConcurrency {
		concurrency = MaxConcurrency
	}

	staleAfter := opts.StaleAfter
	if staleAfter == 0 {
		staleAfter = DefaultStaleAfter
	}
	if staleAfter < 0 {
		staleAfter = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:      store,
		sem:        make(chan struct{}, concurrency),
		staleAfter: staleAfter,
		logger:     log.With().Str("component", "jobs").Logger(),
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		inflight:   make(map[string]chan struct{}),
	}
}

// StaleAfter returns the staleness TTL in effect, zero when disabled
func (o *Orchestrator) StaleAfter() time.Duration {
	return o.staleAfter
}

// Submit returns the finished record for job, or makes sure the job is
// running and returns its processing record. The processing record is
// written before Submit returns, so the key can be polled right away.
func (o *Orchestrator) Submit(ctx context.Context, job Job) (*Submission, error) {
	if job.Run == nil {
		return nil, fmt.Errorf("job %s has no run function", job.Query)
	}
	if o.isClosed() {
		return nil, ErrClosed
	}

	key := jobstore.DeriveKey(o.store.Root(), job.Query, job.Params)
	v, err, shared := o.group.Do(key, func() (interface{}, error) {
		return o.submit(ctx, key, job)
	})
	if err != nil {
		return nil, err
	}

	sub := *v.(*Submission)
	if shared {
		// only the caller that ran the lookup started the job
		sub.Dispatched = false
	}
	return &sub, nil
}

func (o *Orchestrator) submit(ctx context.Context, key string, job Job) (*Submission, error) {
	rec, err := o.store.Get(ctx, key)
	switch {
	case err == nil:
		switch rec.Status {
		case models.StatusComplete:
			o.logger.Debug().Str("key", key).Msg("Cache hit")
			return &Submission{Key: key, Record: rec}, nil
		case models.StatusProcessing:
			if o.Running(key) || !jobstore.IsStale(rec, o.staleAfter, o.now()) {
				return &Submission{Key: key, Record: rec}, nil
			}
			o.logger.Warn().
				Str("key", key).
				Time("timestamp", rec.Timestamp).
				Msg("Re-dispatching stale job")
		case models.StatusError:
			o.logger.Info().
				Str("key", key).
				Str("error", rec.Error).
				Msg("Retrying failed job")
		}
	case errors.Is(err, jobstore.ErrNotFound):
	default:
		return nil, err
	}

	params := make(map[string]string, len(job.Params)+1)
	for k, v := range job.Params {
		params[k] = v
	}
	params[ParamQueryName] = job.Query

	rec = &models.JobRecord{
		Status:    models.StatusProcessing,
		Timestamp: o.now(),
		Params:    params,
	}
	if err := o.store.Put(ctx, key, rec); err != nil {
		return nil, fmt.Errorf("failed to record job: %w", err)
	}

	if err := o.dispatch(key, job, params); err != nil {
		o.finish(key, job, params, nil, ErrInterrupted)
		return nil, err
	}

	o.logger.Info().
		Str("key", key).
		Str("query", job.Query).
		Msg("Job dispatched")
	return &Submission{Key: key, Record: rec, Dispatched: true}, nil
}

func (o *Orchestrator) dispatch(key string, job Job, params map[string]string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	// a previous run of key may still be unwinding after writing its record;
	// it only ever removes its own channel
	done := make(chan struct{})
	o.inflight[key] = done
	o.wg.Add(1)

	go o.run(key, done, job, params)
	return nil
}

func (o *Orchestrator) run(key string, done chan struct{}, job Job, params map[string]string) {
	defer o.wg.Done()
	defer o.forget(key, done)

	select {
	case o.sem <- struct{}{}:
	case <-o.ctx.Done():
		o.finish(key, job, params, nil, ErrInterrupted)
		return
	}
	defer func() { <-o.sem }()

	if o.ctx.Err() != nil {
		o.finish(key, job, params, nil, ErrInterrupted)
		return
	}

	start := time.Now()
	people, err := o.execute(key, job)
	if err != nil && o.ctx.Err() != nil {
		err = ErrInterrupted
	}
	o.finish(key, job, params, people, err)

	o.logger.Info().
		Str("key", key).
		Str("query", job.Query).
		Dur("duration", time.Since(start)).
		Bool("ok", err == nil).
		Msg("Job finished")
}

// execute runs the job, turning a panic into an INTERNAL error
func (o *Orchestrator) execute(key string, job Job) (people []models.PersonRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Str("key", key).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Job panicked")
			err = engine.NewEngineError(engine.ErrCodeInternal, fmt.Sprintf("job failed unexpectedly: %v", r), nil)
		}
	}()
	return job.Run(o.ctx)
}

// finish writes the terminal record for a job
func (o *Orchestrator) finish(key string, job Job, params map[string]string, people []models.PersonRecord, err error) {
	rec := &models.JobRecord{
		Timestamp: o.now(),
		Params:    params,
	}
	if err != nil {
		rec.Status = models.StatusError
		rec.Error = err.Error()
		rec.ErrorCode = string(engine.CodeOf(err))
	} else {
		rec.Status = models.StatusComplete
		rec.ResultField = job.ResultField
		rec.Results = people
	}

	// the job context may already be cancelled; the record must still land
	if perr := o.store.Put(context.Background(), key, rec); perr != nil {
		o.logger.Error().Str("key", key).Err(perr).Msg("Failed to record job result")
	}
}

// forget releases the waiters of one run and drops its entry unless a newer
// run of the same key has replaced it
func (o *Orchestrator) forget(key string, done chan struct{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	close(done)
	if o.inflight[key] == done {
		delete(o.inflight, key)
	}
}

// Running reports whether key is being run by this orchestrator
func (o *Orchestrator) Running(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.inflight[key]
	return ok
}

// Wait blocks until the job at key is no longer running in this process,
// then returns its record.
func (o *Orchestrator) Wait(ctx context.Context, key string) (*models.JobRecord, error) {
	for {
		o.mu.Lock()
		done, ok := o.inflight[key]
		o.mu.Unlock()
		if !ok {
			return o.store.Get(ctx, key)
		}

		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (o *Orchestrator) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Close stops accepting jobs and waits for running ones until ctx is done.
// Jobs still running then are cancelled and recorded as interrupted.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.cancel()
		return nil
	case <-ctx.Done():
		o.logger.Warn().Msg("Cancelling running jobs")
		o.cancel()
		<-done
		return ctx.Err()
	}
}
