package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/nyaa-go/internal/domain"
	"github.com/yourusername/nyaa-go/pkg/logger"
)

// eventBuffer is the capacity of the coordinator's event channel
const eventBuffer = 16

// QueryLoader performs one fetch-and-normalize attempt
type QueryLoader interface {
	Load(ctx context.Context, q domain.QuerySpec) (*domain.Page, error)
}

// Submitter hands a request to a download client
type Submitter interface {
	Submit(ctx context.Context, req *domain.DownloadRequest) domain.DownloadOutcome
}

// Coordinator turns query and submission intents into background tasks
// and reports their terminal outcomes on a single event channel.
//
// Query, Submit and Close must be called from one control goroutine, the
// same one that reads Events. Tasks only read the generation counter.
type Coordinator struct {
	loader        QueryLoader
	submitter     Submitter
	policy        RetryPolicy
	submitTimeout time.Duration
	multiLogger   *logger.MultiLogger
	logger        *zap.Logger

	events     chan domain.Event
	generation atomic.Uint64
	closed     atomic.Bool

	ctx         context.Context
	cancel      context.CancelFunc
	queryCancel context.CancelFunc
	wg          sync.WaitGroup

	sleep func(ctx context.Context, d time.Duration) error
}

// NewCoordinator creates a coordinator. Fetches follow policy; submissions
// get submitTimeout and are never retried.
func NewCoordinator(
	loader QueryLoader,
	submitter Submitter,
	policy RetryPolicy,
	submitTimeout time.Duration,
	multiLogger *logger.MultiLogger,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		loader:        loader,
		submitter:     submitter,
		policy:        policy,
		submitTimeout: submitTimeout,
		multiLogger:   multiLogger,
		logger:        logger,
		events:        make(chan domain.Event, eventBuffer),
		ctx:           ctx,
		cancel:        cancel,
		sleep:         sleepContext,
	}
}

// Events returns the channel outcomes are delivered on. It is closed by Close.
func (c *Coordinator) Events() <-chan domain.Event {
	return c.events
}

// Current returns the generation of the most recently issued query
func (c *Coordinator) Current() uint64 {
	return c.generation.Load()
}

// Query starts loading q, superseding any query still in flight, and
// returns the new generation. It returns 0 after Close.
func (c *Coordinator) Query(q domain.QuerySpec) uint64 {
	if c.closed.Load() {
		return 0
	}

	gen := c.generation.Add(1)
	if c.queryCancel != nil {
		c.queryCancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.queryCancel = cancel

	c.multiLogger.LogSearchEvent("query_issued",
		zap.Uint64("generation", gen),
		zap.String("source", string(q.Source)),
		zap.String("term", q.Term),
		zap.Int("page", q.Page))

	c.wg.Add(1)
	go c.runQuery(ctx, cancel, gen, q)
	return gen
}

func (c *Coordinator) runQuery(ctx context.Context, cancel context.CancelFunc, gen uint64, q domain.QuerySpec) {
	defer c.wg.Done()
	defer cancel()

	current := func() bool { return c.generation.Load() == gen }
	hooks := RetryHooks{
		Sleep:   c.sleep,
		Proceed: current,
		OnRetry: func(failed int, delay time.Duration, err error) {
			c.logger.Warn("Fetch attempt failed, retrying",
				zap.Uint64("generation", gen),
				zap.Int("attempt", failed),
				zap.Duration("delay", delay),
				zap.Error(err))
			c.multiLogger.LogSearchEvent("query_retry",
				zap.Uint64("generation", gen),
				zap.Int("attempt", failed),
				zap.Duration("delay", delay),
				zap.Error(err))
		},
	}

	page, attempts, err := retry(ctx, c.policy, "fetch "+string(q.Source), hooks, func(ctx context.Context) (*domain.Page, error) {
		return c.loader.Load(ctx, q)
	})

	if !current() || errors.Is(err, ErrSuperseded) {
		c.logger.Debug("Discarding superseded query", zap.Uint64("generation", gen))
		c.multiLogger.LogSearchEvent("query_superseded", zap.Uint64("generation", gen))
		return
	}

	if err != nil {
		cause := domain.CauseOf(err)
		c.logger.Warn("Query failed",
			zap.Uint64("generation", gen),
			zap.String("cause", string(cause)),
			zap.Int("attempts", attempts),
			zap.Error(err))
		c.multiLogger.LogSearchEvent("query_failed",
			zap.Uint64("generation", gen),
			zap.String("cause", string(cause)),
			zap.Int("attempts", attempts),
			zap.Error(err))
		c.deliver(domain.QueryFailed{Generation: gen, Query: q, Cause: cause, Err: err, Attempts: attempts}, current)
		return
	}

	c.multiLogger.LogSearchEvent("query_loaded",
		zap.Uint64("generation", gen),
		zap.Int("items", page.Len()),
		zap.Int("dropped", len(page.Dropped)),
		zap.Int("attempts", attempts))
	c.deliver(domain.QueryLoaded{Generation: gen, Query: q, Page: page, Attempts: attempts}, current)
}

// Submit starts handing req to its client. Submissions run concurrently
// and are unaffected by later queries.
func (c *Coordinator) Submit(req *domain.DownloadRequest) {
	if c.closed.Load() {
		return
	}
	c.wg.Add(1)
	go c.runSubmit(req)
}

func (c *Coordinator) runSubmit(req *domain.DownloadRequest) {
	defer c.wg.Done()

	op := "submit to " + req.Client
	outcome, err := withDeadline(c.ctx, op, c.submitTimeout, func(ctx context.Context) (domain.DownloadOutcome, error) {
		out := c.submitter.Submit(ctx, req)
		return out, out.Err
	})
	if err != nil && outcome.RequestID == "" {
		outcome = domain.NewOutcome(req, err)
	}

	c.deliver(domain.SubmissionResult{Outcome: outcome}, nil)
}

// deliver sends ev unless the coordinator is closing or, for queries, the
// generation went stale while the event was waiting.
func (c *Coordinator) deliver(ev domain.Event, current func() bool) {
	if c.ctx.Err() != nil {
		return
	}
	if current != nil && !current() {
		return
	}
	select {
	case c.events <- ev:
	case <-c.ctx.Done():
	}
}

// Close cancels in-flight work, waits for every task and closes the event
// channel. Undelivered events are dropped.
func (c *Coordinator) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.cancel()
	c.wg.Wait()
	close(c.events)
}
