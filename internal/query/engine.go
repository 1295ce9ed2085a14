// Package query maps submitted keys to greeting requests and tracks their
// lifecycle.
//
// Every key gets exactly one entry in the cache. The first submission of a
// key marks it Pending and issues one request; when that request completes
// the entry becomes Success or Failure and stays that way. Later submissions
// of the key are answered from the entry without network I/O, including while
// it is still Pending.
//
// Only the active key (the last one submitted) is ever reported as the
// current state. A response that arrives after its key was replaced is still
// stored under that key but never shown.
package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"greetr/internal/domain"
	"greetr/internal/eventbus"
	"greetr/internal/telemetry"
)

// ErrClosed is returned by Await once the engine has been closed.
var ErrClosed = errors.New("query: engine closed")

// ErrReplaced is returned by Await when another key was submitted first.
var ErrReplaced = errors.New("query: key replaced before it resolved")

// FetchFunc performs the network request for key and returns the payload.
type FetchFunc func(ctx context.Context, key string) (string, error)

// Stats are session counters for the engine
type Stats struct {
	Submissions    int
	Requests       int
	CacheHits      int
	StaleDiscarded int
	Keys           int
}

// Option configures an Engine
type Option func(*Engine)

// WithBus publishes query lifecycle events on bus
func WithBus(bus eventbus.EventBus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithMetrics records engine counters in m
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the engine logger
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// Engine owns the key cache and the active key. Safe for concurrent use.
type Engine struct {
	fetch   FetchFunc
	bus     eventbus.EventBus
	metrics *telemetry.Metrics
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// notifyMu serializes announcements so observers see changes in order
	notifyMu sync.Mutex

	mu        sync.Mutex
	entries   map[string]domain.RequestState
	requests  map[string]int
	active    string
	hasActive bool
	closed    bool
	stats     Stats
	observers map[int]func(domain.RequestState)
	nextObs   int
}

// New creates an Engine that resolves keys with fetch.
func New(fetch FetchFunc, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		fetch:     fetch,
		logger:    zerolog.Nop(),
		ctx:       ctx,
		cancel:    cancel,
		entries:   make(map[string]domain.RequestState),
		requests:  make(map[string]int),
		observers: make(map[int]func(domain.RequestState)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("component", "query").Logger()
	return e
}

// Submit makes key the active key and returns its state. A key without an
// entry starts a request; a key with one (pending or terminal) is reused.
func (e *Engine) Submit(key string) domain.RequestState {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return domain.IdleState(key)
	}
	before := e.currentLocked()
	e.active, e.hasActive = key, true
	e.stats.Submissions++

	state, cached := e.entries[key]
	if cached {
		e.stats.CacheHits++
	} else {
		state = domain.RequestState{Key: key, Status: domain.StatusPending}
		e.entries[key] = state
		e.requests[key]++
		e.stats.Requests++
		if e.metrics != nil {
			e.metrics.InFlight.Inc()
		}
		e.wg.Add(1)
		go e.resolve(key)
	}
	e.mu.Unlock()

	e.logger.Debug().Str("key", key).Bool("cache_hit", cached).Str("status", state.Status.String()).Msg("query submitted")
	if e.metrics != nil {
		e.metrics.Submissions.Inc()
		if cached {
			e.metrics.CacheHits.Inc()
		}
	}
	e.publish(domain.QuerySubmittedEvent{Key: key, CacheHit: cached})

	if !sameState(before, state) {
		e.announce()
	}
	return state
}

// CurrentState returns the state of the active key, or Idle before the
// first submission.
func (e *Engine) CurrentState() domain.RequestState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentLocked()
}

// State returns the cached state for any key, Idle if it was never submitted.
func (e *Engine) State(key string) domain.RequestState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.entries[key]; ok {
		return s
	}
	return domain.IdleState(key)
}

// ActiveKey returns the last submitted key and whether anything was submitted.
func (e *Engine) ActiveKey() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active, e.hasActive
}

// Requests returns how many network requests were issued for key.
func (e *Engine) Requests(key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requests[key]
}

// Stats returns a snapshot of the session counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.stats
	s.Keys = len(e.entries)
	return s
}

// Subscribe registers fn to be called with the current state whenever the
// state of the active key changes. fn runs on the goroutine that caused the
// change; it must not block or call Submit. The returned func unsubscribes.
func (e *Engine) Subscribe(fn func(domain.RequestState)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextObs++
	id := e.nextObs
	e.observers[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

// Await submits key and blocks until its state is terminal, the key stops
// being active, or ctx is done.
func (e *Engine) Await(ctx context.Context, key string) (domain.RequestState, error) {
	changed := make(chan struct{}, 1)
	unsubscribe := e.Subscribe(func(domain.RequestState) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	state := e.Submit(key)
	if state.Status == domain.StatusIdle {
		return state, ErrClosed
	}
	for !state.IsTerminal() {
		select {
		case <-changed:
		case <-ctx.Done():
			return state, ctx.Err()
		}
		if active, _ := e.ActiveKey(); active != key {
			return e.State(key), ErrReplaced
		}
		state = e.CurrentState()
	}
	return state, nil
}

// Close cancels in-flight requests and waits for them to return. Keys cut
// short this way are forgotten rather than marked as failed.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) resolve(key string) {
	defer e.wg.Done()

	start := time.Now()
	data, err := e.fetch(e.ctx, key)
	elapsed := time.Since(start)

	if e.metrics != nil {
		e.metrics.InFlight.Dec()
		e.metrics.RequestDuration.Observe(elapsed.Seconds())
	}

	if err != nil && e.ctx.Err() != nil {
		e.mu.Lock()
		delete(e.entries, key)
		e.mu.Unlock()
		e.logger.Debug().Str("key", key).Msg("request abandoned on shutdown")
		return
	}

	state := domain.RequestState{Key: key, Status: domain.StatusSuccess, Data: data}
	if err != nil {
		state = domain.RequestState{Key: key, Status: domain.StatusFailure, Reason: reasonFor(err), Err: err}
	}

	e.mu.Lock()
	e.entries[key] = state
	stale := !e.hasActive || e.active != key
	if stale {
		e.stats.StaleDiscarded++
	}
	e.mu.Unlock()

	logEvent := e.logger.Info()
	if err != nil {
		logEvent = e.logger.Warn().Err(err)
	}
	logEvent.Str("key", key).Str("status", state.Status.String()).Bool("stale", stale).Dur("duration", elapsed).Msg("query resolved")

	if e.metrics != nil {
		outcome := telemetry.OutcomeSuccess
		if err != nil {
			outcome = telemetry.OutcomeFailure
		}
		e.metrics.RequestsTotal.WithLabelValues(outcome).Inc()
		if stale {
			e.metrics.StaleResponses.Inc()
		}
	}
	e.publish(domain.QueryResolvedEvent{State: state, Stale: stale})

	if !stale {
		e.announce()
	}
}

func (e *Engine) currentLocked() domain.RequestState {
	if !e.hasActive {
		return domain.IdleState("")
	}
	if s, ok := e.entries[e.active]; ok {
		return s
	}
	return domain.IdleState(e.active)
}

func (e *Engine) observersLocked() []func(domain.RequestState) {
	out := make([]func(domain.RequestState), 0, len(e.observers))
	for _, fn := range e.observers {
		out = append(out, fn)
	}
	return out
}

// announce delivers the active key's state as of delivery time, never the
// state captured by the caller.
func (e *Engine) announce() {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	state := e.currentLocked()
	observers := e.observersLocked()
	e.mu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
	e.publish(domain.StateChangedEvent{State: state})
}

func sameState(a, b domain.RequestState) bool {
	return a.Key == b.Key && a.Status == b.Status && a.Data == b.Data && a.Reason == b.Reason
}

func (e *Engine) publish(event domain.DomainEvent) {
	if e.bus != nil {
		e.bus.Publish(event)
	}
}

type reasoner interface {
	Reason() string
}

func reasonFor(err error) string {
	var r reasoner
	if errors.As(err, &r) && r.Reason() != "" {
		return r.Reason()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "request failed"
}
