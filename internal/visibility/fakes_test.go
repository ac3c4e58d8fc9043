package visibility

import (
	"context"
	"sync"
	"time"
)

type fakeControl struct {
	name, formID, typ, value string
	index                    *string
	checked                  bool
}

func (c *fakeControl) Name() string   { return c.name }
func (c *fakeControl) FormID() string { return c.formID }
func (c *fakeControl) FieldIndex() (string, bool) {
	if c.index == nil {
		return "", false
	}
	return *c.index, true
}
func (c *fakeControl) Type() string     { return c.typ }
func (c *fakeControl) RawValue() string { return c.value }
func (c *fakeControl) Checked() bool    { return c.checked }

type fakeElement struct {
	mu     sync.Mutex
	hidden bool
}

func (e *fakeElement) SetHidden(hidden bool) {
	e.mu.Lock()
	e.hidden = hidden
	e.mu.Unlock()
}

func (e *fakeElement) Hidden() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hidden
}

type fakeScope struct {
	controls []Control
	byID     map[string]*fakeElement
	groups   map[string][]*fakeElement
}

func newFakeScope(controls ...Control) *fakeScope {
	return &fakeScope{
		controls: controls,
		byID:     map[string]*fakeElement{},
		groups:   map[string][]*fakeElement{},
	}
}

func (s *fakeScope) Controls() []Control { return s.controls }

func (s *fakeScope) ElementByID(id string) (Element, bool) {
	el, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return el, true
}

func (s *fakeScope) ElementsByTarget(target string) []Element {
	var out []Element
	for _, el := range s.groups[target] {
		out = append(out, el)
	}
	return out
}

func (s *fakeScope) addElement(id string, hidden bool) *fakeElement {
	el := &fakeElement{hidden: hidden}
	s.byID[id] = el
	return el
}

func (s *fakeScope) addGroup(target string, n int) []*fakeElement {
	els := make([]*fakeElement, n)
	for i := range els {
		els[i] = &fakeElement{}
	}
	s.groups[target] = els
	return els
}

// fakeEvaluator records every request and answers from a queue of
// responses; the last response is repeated once the queue is drained.
type fakeEvaluator struct {
	mu        sync.Mutex
	requests  []EvaluateRequest
	responses []Decision
	err       error
	gate      chan struct{} // when non-nil, Evaluate blocks on it
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, req EvaluateRequest) (Decision, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return Decision{}, nil
	}
	if n > len(f.responses) {
		n = len(f.responses)
	}
	return f.responses[n-1], nil
}

func (f *fakeEvaluator) Requests() []EvaluateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]EvaluateRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]Decision
	reads   int
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]Decision{}} }

func (c *fakeCache) Read(_ context.Context, page string) (Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	d, ok := c.entries[page]
	return d, ok
}

func (c *fakeCache) Write(_ context.Context, page string, d Decision) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[page] = d
	return nil
}

func (c *fakeCache) Get(page string) (Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.entries[page]
	return d, ok
}

// manualClock is an AfterFunc whose timers only fire when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (m *manualClock) AfterFunc(_ time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{clock: m, f: f}
	m.timers = append(m.timers, t)
	return t
}

// Fire runs every active timer and reports how many ran.
func (m *manualClock) Fire() int {
	m.mu.Lock()
	var due []*manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	m.timers = nil
	m.mu.Unlock()

	for _, t := range due {
		t.f()
	}
	return len(due)
}

func strPtr(s string) *string { return &s }
