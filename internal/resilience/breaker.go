// Package resilience protects termfix from a failing LLM backend.
//
// [Breaker] is a three-state circuit breaker (closed, open, half-open). After
// a run of consecutive failures it rejects calls with [ErrCircuitOpen] for a
// cool-down period, then lets a few probe calls through to decide whether the
// backend has recovered. Batch runs use it so that a dead model server costs
// one timeout per breaker trip instead of one per document.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects calls until the cool-down has elapsed.
	StateOpen

	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config tunes a [Breaker]. Zero fields take the defaults noted below.
type Config struct {
	// Name labels the breaker in logs, usually the provider name.
	Name string

	// MaxFailures is the number of consecutive failures that opens the
	// breaker. Default: 5.
	MaxFailures int

	// Cooldown is how long the breaker stays open. Default: 30s.
	Cooldown time.Duration

	// Probes is the number of successful half-open calls needed to close
	// again. Default: 2.
	Probes int

	// OnStateChange, when set, is called after every transition. It runs
	// with the breaker lock held and must not call back into the breaker.
	OnStateChange func(name string, from, to State)

	// Now overrides the clock. Default: time.Now.
	Now func() time.Time
}

// Breaker is a three-state circuit breaker.
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	probes      int
	onChange    func(name string, from, to State)
	now         func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	inFlight  int
	successes int
}

// New returns a closed [Breaker].
func New(cfg Config) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Probes <= 0 {
		cfg.Probes = 2
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Breaker{
		name:        cfg.Name,
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		probes:      cfg.Probes,
		onChange:    cfg.OnStateChange,
		now:         cfg.Now,
	}
}

// Do runs fn when the breaker allows it and returns fn's error, or
// [ErrCircuitOpen] without calling fn. Cancellation of ctx is the caller's
// doing and does not count as a backend failure.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}

	err = fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if probe {
		b.inFlight--
	}
	switch {
	case err == nil:
		b.onSuccess(probe)
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// Neither a success nor a failure.
	default:
		b.onFailure(probe)
	}
	return err
}

// admit decides whether a call may proceed and whether it is a probe.
func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false, ErrCircuitOpen
		}
		b.transition(StateHalfOpen)
		b.successes = 0
		b.inFlight = 0
	}
	if b.state == StateHalfOpen {
		if b.inFlight+b.successes >= b.probes {
			return false, ErrCircuitOpen
		}
		b.inFlight++
		return true, nil
	}
	return false, nil
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure(probe bool) {
	if probe || b.state == StateHalfOpen {
		b.open()
		return
	}
	b.failures++
	if b.failures >= b.maxFailures {
		b.open()
	}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess(probe bool) {
	if !probe {
		b.failures = 0
		return
	}
	if b.state != StateHalfOpen {
		return
	}
	b.successes++
	if b.successes >= b.probes {
		b.failures = 0
		b.transition(StateClosed)
	}
}

func (b *Breaker) open() {
	b.openedAt = b.now()
	b.failures = 0
	b.transition(StateOpen)
}

func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	switch to {
	case StateOpen:
		slog.Warn("resilience: circuit breaker opened", "name", b.name, "cooldown", b.cooldown)
	default:
		slog.Info("resilience: circuit breaker state change", "name", b.name, "from", from.String(), "to", to.String())
	}
	if b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}

// State returns the current state. An open breaker whose cool-down has
// elapsed reports [StateHalfOpen]; the transition itself happens on the next
// call to [Breaker.Do].
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.successes = 0
	b.inFlight = 0
	b.transition(StateClosed)
}
