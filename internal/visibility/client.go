// Package visibility implements the conditional-visibility client of the ACPT
// admin forms.
//
// A Client tracks the values of every control that takes part in conditional
// rules, asks the rule-evaluation service which fields and blocks must be
// shown, caches the answer per page and applies it to the form.
//
// Lifecycle:
//
//  1. New scans the FormScope and builds one Observation per control.
//  2. A cached Decision for the page is applied immediately; without one a
//     single evaluation round-trip is started.
//  3. Run (or HandleChange) keeps observations current and schedules an
//     evaluation through a shared trailing debounce.
//
// Evaluation failures never surface to the caller: the form simply keeps the
// last applied state.
package visibility

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/acptdev/condrules/internal/telemetry"
)

// Evaluator asks the rule-evaluation service for a decision.
type Evaluator interface {
	Evaluate(ctx context.Context, req EvaluateRequest) (Decision, error)
}

// Cache persists the last decision per page.
type Cache interface {
	// Read returns the stored decision for page. Misses, backend errors and
	// unparsable entries all report false.
	Read(ctx context.Context, page string) (Decision, bool)
	// Write overwrites the stored decision for page.
	Write(ctx context.Context, page string, d Decision) error
}

// Binding identifies the page and form a client evaluates for.
type Binding struct {
	Page      string
	BelongsTo string
	ElementID string
}

// State is the lifecycle state of a Client.
type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

var (
	ErrNilScope     = errors.New("visibility: form scope is required")
	ErrNilEvaluator = errors.New("visibility: evaluator is required")
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithDebounce sets the quiet window between the last change event and the
// evaluation it triggers.
func WithDebounce(d time.Duration) Option {
	return func(c *Client) { c.debounce = d }
}

// WithAfterFunc replaces the clock used by the debouncer.
func WithAfterFunc(f AfterFunc) Option {
	return func(c *Client) { c.afterFunc = f }
}

// WithStrictOrdering controls whether responses older than the last applied
// one are discarded. With false, whichever response arrives last wins.
func WithStrictOrdering(strict bool) Option {
	return func(c *Client) { c.strict = strict }
}

// WithOnApply registers a callback invoked after every applied decision,
// while the form is still locked against concurrent applies.
func WithOnApply(f func(Decision)) Option {
	return func(c *Client) { c.onApply = f }
}

// Client keeps a form's conditional visibility in sync with the
// rule-evaluation service.
type Client struct {
	binding   Binding
	scope     FormScope
	evaluator Evaluator
	cache     Cache
	logger    zerolog.Logger
	debounce  time.Duration
	afterFunc AfterFunc
	strict    bool
	onApply   func(Decision)
	debouncer *Debouncer

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	mu           sync.Mutex // guards observations, issued, state, closed and inflight.Add
	observations []Observation
	issued       uint64
	state        State
	closed       bool

	applyMu sync.Mutex // guards the scope's elements, applied, last
	applied uint64
	last    Decision
}

// New scans scope, then applies the cached decision for b.Page or, when none
// is cached, starts one evaluation round-trip. cache may be nil.
//
// The returned client lives until ctx is cancelled or Close is called.
func New(ctx context.Context, b Binding, scope FormScope, evaluator Evaluator, cache Cache, opts ...Option) (*Client, error) {
	if scope == nil {
		return nil, ErrNilScope
	}
	if evaluator == nil {
		return nil, ErrNilEvaluator
	}

	c := &Client{
		binding:   b,
		scope:     scope,
		evaluator: evaluator,
		cache:     cache,
		logger:    zerolog.Nop(),
		debounce:  DefaultDebounce,
		strict:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debouncer = NewDebouncer(c.debounce, c.afterFunc)
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger = c.logger.With().Str("page", b.Page).Str("element_id", b.ElementID).Logger()

	controls := scope.Controls()
	c.observations = make([]Observation, 0, len(controls))
	for _, ctrl := range controls {
		c.observations = append(c.observations, Observe(ctrl))
	}
	c.logger.Debug().Int("controls", len(controls)).Msg("scanned form")

	if cached, ok := c.readCache(ctx); ok {
		c.Apply(cached)
		c.setState(StateReady)
		return c, nil
	}

	c.startEvaluate()
	c.setState(StateReady)
	return c, nil
}

func (c *Client) readCache(ctx context.Context) (Decision, bool) {
	if c.cache == nil {
		return nil, false
	}
	d, ok := c.cache.Read(ctx, c.binding.Page)
	if ok {
		telemetry.CacheLookups.WithLabelValues("hit").Inc()
		c.logger.Debug().Int("targets", len(d)).Msg("applying cached decision")
		return d, true
	}
	telemetry.CacheLookups.WithLabelValues("miss").Inc()
	return nil, false
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State returns the client's lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Observations returns a copy of the tracked observations in scan order.
func (c *Client) Observations() []Observation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Observation, len(c.observations))
	copy(out, c.observations)
	return out
}

// LastDecision returns the most recently applied decision, or nil.
func (c *Client) LastDecision() Decision {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	if c.last == nil {
		return nil
	}
	out := make(Decision, len(c.last))
	for k, v := range c.last {
		out[k] = v
	}
	return out
}

// Run feeds events to HandleChange until ctx is cancelled, the client is
// closed or events is closed.
func (c *Client) Run(ctx context.Context, events <-chan ChangeEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Control == nil {
				continue
			}
			c.HandleChange(ev.Control)
		}
	}
}

// HandleChange re-reads ctrl, replaces its observation in place and schedules
// a debounced evaluation. It reports false, and schedules nothing, when the
// control was not part of the initial scan.
func (c *Client) HandleChange(ctrl Control) bool {
	if c.ctx.Err() != nil {
		return false
	}
	obs := Observe(ctrl)

	c.mu.Lock()
	idx := -1
	for i, o := range c.observations {
		if o.FieldID == obs.FieldID && o.FormID == obs.FormID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		c.logger.Debug().Str("field", obs.FieldID).Str("form", obs.FormID).Msg("change on untracked control ignored")
		return false
	}
	c.observations[idx] = obs
	c.mu.Unlock()

	c.debouncer.Schedule(c.startEvaluate)
	return true
}

// Refresh drops any pending debounced evaluation and evaluates now.
func (c *Client) Refresh() {
	c.debouncer.Cancel()
	c.startEvaluate()
}

// Flush starts a pending debounced evaluation immediately. It reports whether
// one was pending.
func (c *Client) Flush() bool {
	return c.debouncer.Flush()
}

// Wait blocks until every started evaluation has finished.
func (c *Client) Wait() {
	c.inflight.Wait()
}

// Close cancels the pending evaluation and any request in flight, then waits
// for them to return.
func (c *Client) Close() {
	c.debouncer.Cancel()
	c.mu.Lock()
	c.closed = true
	c.cancel()
	c.mu.Unlock()
	c.inflight.Wait()
}

func (c *Client) startEvaluate() {
	c.mu.Lock()
	if c.closed || c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.issued++
	seq := c.issued
	req := EvaluateRequest{
		Values:    make([]Observation, len(c.observations)),
		ElementID: c.binding.ElementID,
		BelongsTo: c.binding.BelongsTo,
	}
	copy(req.Values, c.observations)
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		c.evaluate(seq, req)
	}()
}

func (c *Client) evaluate(seq uint64, req EvaluateRequest) {
	start := time.Now()
	d, err := c.evaluator.Evaluate(c.ctx, req)
	telemetry.EvaluationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.Evaluations.WithLabelValues("error").Inc()
		if errors.Is(err, context.Canceled) {
			c.logger.Debug().Uint64("seq", seq).Msg("evaluation cancelled")
			return
		}
		c.logger.Warn().Err(err).Uint64("seq", seq).Msg("evaluation failed, keeping last state")
		return
	}

	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	if c.strict && seq < c.applied {
		telemetry.Evaluations.WithLabelValues("stale").Inc()
		c.logger.Debug().Uint64("seq", seq).Uint64("applied", c.applied).Msg("dropping stale decision")
		return
	}
	if seq > c.applied {
		c.applied = seq
	}
	c.applyLocked(d)
	telemetry.Evaluations.WithLabelValues("ok").Inc()

	if c.cache != nil {
		if err := c.cache.Write(c.ctx, c.binding.Page, d); err != nil {
			c.logger.Warn().Err(err).Msg("failed to cache decision")
		}
	}
}

// Apply shows or hides the elements addressed by d.
//
// A single target toggles the element with that id and is skipped when no
// such element exists. A list target is applied positionally to the elements
// sharing that target attribute; positions beyond either length are left
// untouched.
func (c *Client) Apply(d Decision) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	c.applyLocked(d)
}

func (c *Client) applyLocked(d Decision) {
	ApplyDecision(c.scope, d, c.logger)
	c.last = d
	if c.onApply != nil {
		c.onApply(d)
	}
}

// ApplyDecision shows or hides the elements of scope addressed by d, without
// a Client. It follows the same rules as Client.Apply.
func ApplyDecision(scope FormScope, d Decision, logger zerolog.Logger) {
	for key, t := range d {
		if !t.IsList() {
			el, ok := scope.ElementByID(key)
			if !ok {
				continue
			}
			el.SetHidden(!t.Visible())
			continue
		}

		els := scope.ElementsByTarget(key)
		flags := t.list
		n := min(len(els), len(flags))
		for i := 0; i < n; i++ {
			els[i].SetHidden(!flags[i])
		}
		if len(els) != len(flags) {
			logger.Debug().
				Str("target", key).
				Int("elements", len(els)).
				Int("flags", len(flags)).
				Msg("decision length differs from matched elements")
		}
	}
}
