// Package breaker guards outbound dependencies with per-dependency circuit
// breakers. A Registry holds one breaker per named dependency and is passed
// explicitly to anything that makes remote calls, so there is no process-wide
// mutable state and tests can use their own isolated instance.
package breaker

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned by Execute when the breaker rejects the call without
// attempting it, either because it is OPEN or because another probe is
// already in flight while HALF_OPEN. Callers must be able to tell this apart
// from a downstream application error.
var ErrOpen = errors.New("breaker: open")

type Config struct {
	// FailureThreshold is the number of consecutive failures that trips a
	// CLOSED breaker to OPEN.
	FailureThreshold uint32
	// ResetAfter is the cool-down after the last failure before an OPEN
	// breaker lets a single probe through.
	ResetAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		ResetAfter:       30 * time.Second,
	}
}

type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// Counts is a snapshot of a breaker's bookkeeping.
type Counts struct {
	Requests            uint32
	TotalFailures       uint32
	ConsecutiveFailures uint32
}

// Registry lazily creates and owns one circuit breaker per dependency name.
// It is safe for concurrent use.
type Registry struct {
	cfg     Config
	log     *slog.Logger
	metrics *Metrics

	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewRegistry builds a registry whose breakers all share cfg. metrics may be
// nil.
func NewRegistry(cfg Config, log *slog.Logger, metrics *Metrics) *Registry {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.ResetAfter == 0 {
		cfg.ResetAfter = DefaultConfig().ResetAfter
	}

	return &Registry{
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Execute runs fn through the breaker for the named dependency, creating the
// breaker on first use. A short-circuited call returns an error wrapping
// ErrOpen; otherwise the underlying result and error are returned unchanged
// after failure bookkeeping.
func (r *Registry) Execute(name string, fn func() (any, error)) (any, error) {
	result, err := r.get(name).Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(ErrOpen, err)
	}

	return result, err
}

// GetState returns the current state of the named dependency's breaker.
// Unknown names report CLOSED, matching a breaker that has never tripped.
func (r *Registry) GetState(name string) State {
	r.mu.RLock()
	cb, ok := r.breakers[name]
	r.mu.RUnlock()

	if !ok {
		return StateClosed
	}

	return stateOf(cb.State())
}

// GetCounts returns a snapshot of the named dependency's failure bookkeeping.
func (r *Registry) GetCounts(name string) Counts {
	r.mu.RLock()
	cb, ok := r.breakers[name]
	r.mu.RUnlock()

	if !ok {
		return Counts{}
	}

	c := cb.Counts()

	return Counts{
		Requests:            c.Requests,
		TotalFailures:       c.TotalFailures,
		ConsecutiveFailures: c.ConsecutiveFailures,
	}
}

func (r *Registry) get(name string) *gobreaker.CircuitBreaker {
	r.mu.RLock()
	cb, ok := r.breakers[name]
	r.mu.RUnlock()

	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok = r.breakers[name]; ok {
		return cb
	}

	// MaxRequests 1 limits HALF_OPEN to a single in-flight probe; the rest
	// are rejected until the probe settles.
	cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     r.cfg.ResetAfter,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			r.onStateChange(name, stateOf(from), stateOf(to))
		},
	})
	r.breakers[name] = cb

	if r.log != nil {
		r.log.Info("breaker created", "dependency", name,
			"failure_threshold", r.cfg.FailureThreshold, "reset_after", r.cfg.ResetAfter)
	}

	return cb
}

func (r *Registry) onStateChange(name string, from, to State) {
	if r.log != nil {
		switch to {
		case StateOpen:
			r.log.Warn("breaker opened", "dependency", name, "from", from)
		default:
			r.log.Info("breaker state changed", "dependency", name, "from", from, "to", to)
		}
	}

	if r.metrics != nil {
		r.metrics.recordState(name, to)
	}
}

func stateOf(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
