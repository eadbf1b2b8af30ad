package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/figure-tracker/internal/logging"
)

// State represents the current state of the circuit breaker.
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
		return "half_open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned when the circuit is open and calls are rejected.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when the half-open probe budget is exhausted.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config holds circuit breaker tuning parameters.
type Config struct {
	Name             string
	MaxFailures      int
	FailureThreshold float64
	Timeout          time.Duration
	HalfOpenMaxCalls int
}

// DefaultConfig returns a config suited to an upstream HTTP API.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxFailures:      10,
		FailureThreshold: 0.5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker protects an upstream dependency from repeated failing calls.
// After MaxFailures consecutive failures (or the failure rate crosses
// FailureThreshold over a minimum sample) the circuit opens and calls fail
// fast with ErrCircuitOpen until Timeout elapses, after which a limited
// number of probe calls decide whether to close again.
type CircuitBreaker struct {
	config Config
	logger *logging.Logger

	mu                  sync.Mutex
	state               State
	failures            int
	successes           int
	totalCalls          int
	halfOpenCalls       int
	halfOpenSuccesses   int
	lastStateChange     time.Time
	consecutiveFailures int
}

// Stats is a snapshot of breaker counters for diagnostics.
type Stats struct {
	State               string  `json:"state"`
	TotalCalls          int     `json:"totalCalls"`
	Failures            int     `json:"failures"`
	ConsecutiveFailures int     `json:"consecutiveFailures"`
	FailureRate         float64 `json:"failureRate"`
}

func New(config Config) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 10
	}
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 0.5
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 3
	}
	return &CircuitBreaker{
		config:          config,
		logger:          logging.GetLogger().WithField("component", "circuit_breaker").WithField("name", config.Name),
		state:           StateClosed,
		lastStateChange: time.Now(),
	}
}

// Execute runs fn under the breaker. When the circuit is open the call is
// rejected immediately without invoking fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.afterRequest(err)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastStateChange) >= cb.config.Timeout {
			cb.transitionTo(StateHalfOpen)
			cb.halfOpenCalls++
			return nil
		}
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.config.HalfOpenMaxCalls {
			return ErrTooManyRequests
		}
		cb.halfOpenCalls++
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++
	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.successes++
	cb.consecutiveFailures = 0

	if cb.state == StateHalfOpen {
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.config.HalfOpenMaxCalls {
			cb.transitionTo(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.consecutiveFailures++

	switch cb.state {
	case StateHalfOpen:
		cb.transitionTo(StateOpen)
	case StateClosed:
		if cb.shouldOpen() {
			cb.transitionTo(StateOpen)
		}
	}
}

func (cb *CircuitBreaker) shouldOpen() bool {
	if cb.consecutiveFailures >= cb.config.MaxFailures {
		return true
	}
	// Rate check needs a minimum sample to be meaningful.
	if cb.totalCalls >= 20 && cb.failureRate() >= cb.config.FailureThreshold {
		return true
	}
	return false
}

func (cb *CircuitBreaker) failureRate() float64 {
	if cb.totalCalls == 0 {
		return 0
	}
	return float64(cb.failures) / float64(cb.totalCalls)
}

func (cb *CircuitBreaker) transitionTo(next State) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next
	cb.lastStateChange = time.Now()

	switch next {
	case StateClosed:
		cb.failures = 0
		cb.successes = 0
		cb.totalCalls = 0
		cb.consecutiveFailures = 0
		cb.halfOpenCalls = 0
		cb.halfOpenSuccesses = 0
	case StateHalfOpen:
		cb.halfOpenCalls = 0
		cb.halfOpenSuccesses = 0
	}

	cb.logger.WithFields(map[string]interface{}{
		"from": prev.String(),
		"to":   next.String(),
	}).Warn("circuit breaker state change")
}

// GetState returns the current state.
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStats returns a snapshot of the breaker counters.
func (cb *CircuitBreaker) GetStats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Stats{
		State:               cb.state.String(),
		TotalCalls:          cb.totalCalls,
		Failures:            cb.failures,
		ConsecutiveFailures: cb.consecutiveFailures,
		FailureRate:         cb.failureRate(),
	}
}

// Reset forces the breaker back to the closed state with cleared counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionTo(StateClosed)
}
