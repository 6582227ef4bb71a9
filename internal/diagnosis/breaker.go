package diagnosis

import (
	"sync"
	"time"

	"github.com/rendis/vetassist/pkg/schema"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation
	CircuitOpen                         // Failing, rejecting calls
	CircuitHalfOpen                     // Testing recovery
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening the circuit.
	FailureThreshold int
	// Cooldown is how long the circuit stays open before letting a probe through.
	Cooldown time.Duration
	// HalfOpenMax is the number of probe calls allowed while half-open.
	HalfOpenMax int
}

// DefaultCircuitBreakerConfig returns the configuration used when none is given.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		HalfOpenMax:      1,
	}
}

type circuitBreaker struct {
	mu                  sync.Mutex
	state               CircuitState
	consecutiveFailures int
	lastFailure         time.Time
	halfOpenAttempts    int
}

// CircuitBreakerRegistry keeps one breaker per engine name so several wrapped
// engines can share a registry.
type CircuitBreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*circuitBreaker
	config   CircuitBreakerConfig
	now      func() time.Time
}

// NewCircuitBreakerRegistry creates a registry with the given config.
func NewCircuitBreakerRegistry(config CircuitBreakerConfig) *CircuitBreakerRegistry {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 1
	}
	if config.HalfOpenMax <= 0 {
		config.HalfOpenMax = 1
	}
	return &CircuitBreakerRegistry{
		breakers: make(map[string]*circuitBreaker),
		config:   config,
		now:      time.Now,
	}
}

// AllowRequest returns nil when a call to the named engine may proceed, or a
// CIRCUIT_OPEN error while the breaker is open.
func (r *CircuitBreakerRegistry) AllowRequest(name string) error {
	cb := r.getOrCreate(name)
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		elapsed := r.now().Sub(cb.lastFailure)
		if elapsed >= r.config.Cooldown {
			cb.state = CircuitHalfOpen
			cb.halfOpenAttempts = 1
			return nil
		}
		return schema.NewErrorf(schema.ErrCodeCircuitOpen,
			"diagnosis engine %q unavailable after %d consecutive failures", name, cb.consecutiveFailures).
			WithDetails(map[string]any{
				"engine":               name,
				"consecutive_failures": cb.consecutiveFailures,
				"cooldown_remaining":   (r.config.Cooldown - elapsed).String(),
			})
	case CircuitHalfOpen:
		if cb.halfOpenAttempts >= r.config.HalfOpenMax {
			return schema.NewErrorf(schema.ErrCodeCircuitOpen,
				"diagnosis engine %q is being probed, try again shortly", name)
		}
		cb.halfOpenAttempts++
	}
	return nil
}

// RecordSuccess closes the breaker and returns the state it left.
func (r *CircuitBreakerRegistry) RecordSuccess(name string) CircuitState {
	cb := r.getOrCreate(name)
	cb.mu.Lock()
	defer cb.mu.Unlock()

	prev := cb.state
	cb.consecutiveFailures = 0
	cb.halfOpenAttempts = 0
	cb.state = CircuitClosed
	return prev
}

// RecordFailure counts a failure and returns the resulting state.
func (r *CircuitBreakerRegistry) RecordFailure(name string) CircuitState {
	cb := r.getOrCreate(name)
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++
	cb.lastFailure = r.now()

	if cb.state == CircuitHalfOpen || cb.consecutiveFailures >= r.config.FailureThreshold {
		cb.state = CircuitOpen
	}
	return cb.state
}

// State returns the breaker state for name.
func (r *CircuitBreakerRegistry) State(name string) CircuitState {
	cb := r.getOrCreate(name)
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && r.now().Sub(cb.lastFailure) >= r.config.Cooldown {
		cb.state = CircuitHalfOpen
		cb.halfOpenAttempts = 0
	}
	return cb.state
}

func (r *CircuitBreakerRegistry) getOrCreate(name string) *circuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, ok := r.breakers[name]
	if !ok {
		cb = &circuitBreaker{state: CircuitClosed}
		r.breakers[name] = cb
	}
	return cb
}
