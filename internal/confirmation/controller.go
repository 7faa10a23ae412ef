package confirmation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/target/storefront/internal/observability/metrics"
	"github.com/target/storefront/internal/observability/statsd"
	"github.com/target/storefront/internal/ports"
)

// Options configures a Controller.
type Options struct {
	Fetcher ports.OrderFetcher // required
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Controller runs the view's fetch as an explicit asynchronous task bound to
// the view's lifetime. Each Update with a new token/id pair cancels the task
// in flight; results from a superseded task are discarded, so the model always
// reflects the latest pair.
type Controller struct {
	fetcher ports.OrderFetcher
	logger  *slog.Logger
	metrics statsd.Sink

	lifetime context.Context
	stop     context.CancelFunc

	mu         sync.Mutex
	gen        uint64
	token      string
	rawID      string
	started    bool
	cancelTask context.CancelFunc
	model      Model
	changed    chan struct{}
	tasks      sync.WaitGroup
}

// NewController creates a controller in the Loading state. Its lifetime ends
// when parent is done or Close is called.
func NewController(parent context.Context, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Metrics
	if sink == nil {
		sink = statsd.Discard
	}
	lifetime, stop := context.WithCancel(parent)
	return &Controller{
		fetcher:  opts.Fetcher,
		logger:   logger.With("component", "order_confirmation"),
		metrics:  sink,
		lifetime: lifetime,
		stop:     stop,
		model:    Loading(),
		changed:  make(chan struct{}),
	}
}

// Update points the view at token and rawOrderID. Repeating the current pair
// is a no-op; a new pair restarts in Loading and triggers one fetch.
func (c *Controller) Update(token, rawOrderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lifetime.Err() != nil {
		return
	}
	if c.started && token == c.token && rawOrderID == c.rawID {
		return
	}
	c.started = true
	c.token, c.rawID = token, rawOrderID

	if c.cancelTask != nil {
		c.cancelTask()
		c.cancelTask = nil
	}
	c.gen++
	gen := c.gen

	if _, ok := ParseOrderID(rawOrderID); token == "" || !ok {
		c.setLocked(Model{State: StateError, Message: MessageNotFound, Err: ErrMissingPrerequisite})
		metrics.EmitOrderView(c.metrics, metrics.OrderView{Outcome: metrics.OutcomeError, Err: ErrMissingPrerequisite})
		return
	}

	c.setLocked(Loading())
	taskCtx, cancel := context.WithCancel(c.lifetime)
	c.cancelTask = cancel
	c.tasks.Add(1)
	go c.run(taskCtx, gen, token, rawOrderID)
}

func (c *Controller) run(ctx context.Context, gen uint64, token, rawID string) {
	defer c.tasks.Done()

	start := time.Now()
	m := Resolve(ctx, c.fetcher, token, rawID)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || ctx.Err() != nil {
		metrics.EmitOrderView(c.metrics, metrics.OrderView{Outcome: metrics.OutcomeStale, Duration: elapsed})
		return
	}
	c.cancelTask = nil

	outcome := metrics.OutcomeError
	switch m.State {
	case StateConfirmed:
		outcome = metrics.OutcomeConfirmed
	case StateFailed:
		outcome = metrics.OutcomeFailed
	default:
		c.logger.WarnContext(ctx, "order fetch failed", "order_id", rawID, "error", m.Err)
	}
	metrics.EmitOrderView(c.metrics, metrics.OrderView{Outcome: outcome, Duration: elapsed, Err: m.Err})
	c.setLocked(m)
}

func (c *Controller) setLocked(m Model) {
	c.model = m
	close(c.changed)
	c.changed = make(chan struct{})
}

// Current returns the model as of now.
func (c *Controller) Current() Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// Wait blocks until the model leaves Loading or ctx ends, and returns the model
// at that point. It returns immediately when nothing was started.
func (c *Controller) Wait(ctx context.Context) Model {
	for {
		c.mu.Lock()
		m, ch, pending := c.model, c.changed, c.started && c.model.State == StateLoading
		c.mu.Unlock()

		if !pending {
			return m
		}
		select {
		case <-ctx.Done():
			return m
		case <-c.lifetime.Done():
			return c.Current()
		case <-ch:
		}
	}
}

// Close ends the controller's lifetime, cancels any task in flight and waits for it to exit.
func (c *Controller) Close() {
	c.stop()
	c.tasks.Wait()
}
