// Package circuitbreaker protects upstream calls from cascading failures.
// The weather client wraps its forecast fetches in a breaker so a dead
// upstream degrades forecasts instead of stalling them.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

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

// Config holds circuit breaker configuration.
type Config struct {
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes before closing.
	SuccessThreshold int
	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration
	// MaxConcurrentRequests caps probes in the half-open state.
	MaxConcurrentRequests int
	// OnStateChange is called on every state transition.
	OnStateChange func(from, to State)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		FailureThreshold:      5,
		SuccessThreshold:      2,
		Timeout:               30 * time.Second,
		MaxConcurrentRequests: 1,
	}
}

// CircuitBreaker implements the circuit breaker pattern with lock-free
// state tracking.
type CircuitBreaker struct {
	config *Config

	state           atomic.Int32
	lastFailureTime atomic.Int64 // unix nanos

	consecutiveFailures  atomic.Int32
	consecutiveSuccesses atomic.Int32
	halfOpenRequests     atomic.Int32

	totalRequests   atomic.Int64
	totalFailures   atomic.Int64
	totalSuccesses  atomic.Int64
	totalRejections atomic.Int64
}

var (
	ErrCircuitOpen               = errors.New("circuit breaker is open")
	ErrTooManyConcurrentRequests = errors.New("too many concurrent requests in half-open state")
)

// New creates a circuit breaker in the closed state.
func New(config *Config) *CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	cb := &CircuitBreaker{config: config}
	cb.state.Store(int32(StateClosed))
	return cb
}

// Execute runs the function with circuit breaker protection.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	return cb.ExecuteWithFallback(ctx, fn, nil)
}

// ExecuteWithFallback runs the function with protection; on rejection or
// failure the fallback, if given, produces the degraded result.
func (cb *CircuitBreaker) ExecuteWithFallback(ctx context.Context, fn func(context.Context) error, fallback func(context.Context, error) error) error {
	if err := cb.canExecute(); err != nil {
		cb.totalRejections.Add(1)
		if fallback != nil {
			return fallback(ctx, err)
		}
		return err
	}

	cb.totalRequests.Add(1)

	err := fn(ctx)
	cb.recordResult(err)

	if err != nil && fallback != nil {
		return fallback(ctx, err)
	}
	return err
}

func (cb *CircuitBreaker) canExecute() error {
	switch cb.State() {
	case StateClosed:
		return nil

	case StateOpen:
		if cb.openTimeoutElapsed() {
			cb.transitionTo(StateHalfOpen)
			cb.halfOpenRequests.Add(1)
			return nil
		}
		return ErrCircuitOpen

	case StateHalfOpen:
		if cb.halfOpenRequests.Add(1) > int32(cb.config.MaxConcurrentRequests) {
			cb.halfOpenRequests.Add(-1)
			return ErrTooManyConcurrentRequests
		}
		return nil

	default:
		return fmt.Errorf("unknown circuit breaker state: %v", cb.State())
	}
}

func (cb *CircuitBreaker) recordResult(err error) {
	state := cb.State()

	if err != nil {
		cb.recordFailure()
	} else {
		cb.recordSuccess()
	}

	if state == StateHalfOpen {
		cb.halfOpenRequests.Add(-1)
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.totalSuccesses.Add(1)

	switch cb.State() {
	case StateClosed:
		cb.consecutiveFailures.Store(0)
	case StateHalfOpen:
		if cb.consecutiveSuccesses.Add(1) >= int32(cb.config.SuccessThreshold) {
			cb.transitionTo(StateClosed)
		}
	case StateOpen:
		// Only the timeout moves an open circuit.
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.totalFailures.Add(1)
	cb.lastFailureTime.Store(time.Now().UnixNano())

	switch cb.State() {
	case StateClosed:
		if cb.consecutiveFailures.Add(1) >= int32(cb.config.FailureThreshold) {
			cb.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		// Any failure during probing reopens the circuit.
		cb.transitionTo(StateOpen)
	case StateOpen:
	}
}

func (cb *CircuitBreaker) openTimeoutElapsed() bool {
	lastFailure := cb.lastFailureTime.Load()
	if lastFailure == 0 {
		return true
	}
	return time.Since(time.Unix(0, lastFailure)) >= cb.config.Timeout
}

func (cb *CircuitBreaker) transitionTo(newState State) {
	oldState := State(cb.state.Swap(int32(newState)))
	if oldState == newState {
		return
	}

	switch newState {
	case StateClosed:
		cb.consecutiveFailures.Store(0)
		cb.consecutiveSuccesses.Store(0)
	case StateOpen:
		cb.consecutiveSuccesses.Store(0)
	case StateHalfOpen:
		cb.consecutiveSuccesses.Store(0)
		cb.halfOpenRequests.Store(0)
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(oldState, newState)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	return State(cb.state.Load())
}

// Stats holds circuit breaker statistics.
type Stats struct {
	State             State
	TotalRequests     int64
	TotalFailures     int64
	TotalSuccesses    int64
	TotalRejections   int64
	FailureRate       float64
	LastFailureTime   time.Time
	ConsecutiveErrors int32
}

// GetStats returns a snapshot of the breaker's counters.
func (cb *CircuitBreaker) GetStats() Stats {
	requests := cb.totalRequests.Load()
	failures := cb.totalFailures.Load()

	var failureRate float64
	if requests > 0 {
		failureRate = float64(failures) / float64(requests)
	}

	var lastFailure time.Time
	if nanos := cb.lastFailureTime.Load(); nanos > 0 {
		lastFailure = time.Unix(0, nanos)
	}

	return Stats{
		State:             cb.State(),
		TotalRequests:     requests,
		TotalFailures:     failures,
		TotalSuccesses:    cb.totalSuccesses.Load(),
		TotalRejections:   cb.totalRejections.Load(),
		FailureRate:       failureRate,
		LastFailureTime:   lastFailure,
		ConsecutiveErrors: cb.consecutiveFailures.Load(),
	}
}

// Reset forces the breaker back to closed with counters cleared.
func (cb *CircuitBreaker) Reset() {
	cb.state.Store(int32(StateClosed))
	cb.consecutiveFailures.Store(0)
	cb.consecutiveSuccesses.Store(0)
	cb.halfOpenRequests.Store(0)
	cb.lastFailureTime.Store(0)
}
