package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// CircuitState is the current circuit breaker state.
type CircuitState int

const (
	// Closed allows requests to pass through
	Closed CircuitState = iota
	// Open blocks all requests
	Open
	// HalfOpen allows limited requests to test recovery
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards calls and opens the circuit after repeated failures.
type CircuitBreaker interface {
	Call(func() error) error
	State() CircuitState
	Reset()
}

type Config struct {
	FailureThreshold int           // Number of failures before opening
	RecoveryTimeout  time.Duration // Time to wait before trying HalfOpen
	SuccessThreshold int           // Number of successes needed to close from HalfOpen

	// IsFailure decides whether an error counts against the circuit.
	// Nil means every non-nil error counts.
	IsFailure func(error) bool
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 1,
	}
}

type circuitBreaker struct {
	config      *Config
	state       CircuitState
	failures    int
	successes   int
	nextAttempt time.Time
	now         func() time.Time
	mutex       sync.Mutex

	// trialInFlight is set while the single half-open trial call runs.
	trialInFlight bool
}

// NewCircuitBreaker returns a circuit breaker and applies defaults when config is nil.
func NewCircuitBreaker(config *Config) CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}

	return &circuitBreaker{
		config: config,
		state:  Closed,
		now:    time.Now,
	}
}

// shouldAllowRequest reports whether the call may run and whether it is the
// half-open trial. Only one trial runs at a time.
func (cb *circuitBreaker) shouldAllowRequest() (allowed, trial bool) {
	if cb.state == Open && cb.now().After(cb.nextAttempt) {
		cb.state = HalfOpen
		cb.successes = 0
	}

	switch cb.state {
	case Open:
		return false, false
	case HalfOpen:
		if cb.trialInFlight {
			return false, false
		}
		cb.trialInFlight = true
		return true, true
	default:
		return true, false
	}
}

func (cb *circuitBreaker) Call(fn func() error) error {
	cb.mutex.Lock()
	shouldAllow, trial := cb.shouldAllowRequest()
	cb.mutex.Unlock()

	if !shouldAllow {
		return ErrCircuitOpen
	}

	// Never call user code while holding locks.
	err := fn()

	cb.mutex.Lock()
	if trial {
		cb.trialInFlight = false
	}
	if cb.countsAsFailure(err) {
		cb.recordFailure()
	} else {
		cb.recordSuccess()
	}
	cb.mutex.Unlock()

	return err
}

func (cb *circuitBreaker) countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if cb.config.IsFailure == nil {
		return true
	}
	return cb.config.IsFailure(err)
}

func (cb *circuitBreaker) State() CircuitState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.state = Closed
	cb.failures = 0
	cb.successes = 0
	cb.trialInFlight = false
}

func (cb *circuitBreaker) recordFailure() {
	cb.failures++

	switch cb.state {
	case Closed:
		if cb.failures >= cb.config.FailureThreshold {
			cb.open()
		}
	case HalfOpen:
		cb.open()
	}
}

func (cb *circuitBreaker) open() {
	cb.state = Open
	cb.nextAttempt = cb.now().Add(cb.config.RecoveryTimeout)
}

func (cb *circuitBreaker) recordSuccess() {
	cb.failures = 0

	if cb.state == HalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = Closed
			cb.successes = 0
		}
	}
}
