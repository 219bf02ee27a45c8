package relayengine

import (
	"fmt"
	"sync"
	"time"

	"github.com/relaycore/dynrelay/internal/logging"
)

// circuitState is one of the three canonical circuit-breaker states.
type circuitState int

const (
	stateClosed circuitState = iota
	stateOpen
	stateHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreakerConfig tunes the failure threshold and recovery timeout.
type CircuitBreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// DefaultCircuitBreakerConfig matches the teacher's defaults for
// protecting a flaky control-plane API.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second}
}

// CircuitBreakerError is returned when Call short-circuits an operation
// because the breaker is open.
type CircuitBreakerError struct {
	Name  string
	State string
}

func (e *CircuitBreakerError) Error() string {
	return fmt.Sprintf("circuit breaker %q is %s", e.Name, e.State)
}

// CircuitBreaker protects the engine adapter's mount/unmount/poll calls
// against a flapping MediaMTX control API: enough consecutive failures
// trip it open, after which calls fail fast until the recovery timeout
// elapses and a single half-open probe is allowed through.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	log    *logging.Logger

	mu              sync.Mutex
	state           circuitState
	failureCount    int
	lastFailureTime time.Time
}

// NewCircuitBreaker constructs a breaker named name with the given config.
func NewCircuitBreaker(name string, config CircuitBreakerConfig, log *logging.Logger) *CircuitBreaker {
	if log == nil {
		log = logging.New("relayengine.circuitbreaker")
	}
	return &CircuitBreaker{name: name, config: config, log: log, state: stateClosed}
}

// Call runs operation through the breaker, tripping or recovering state
// as appropriate.
func (cb *CircuitBreaker) Call(operation func() error) error {
	if !cb.allow() {
		return &CircuitBreakerError{Name: cb.name, State: cb.currentState().String()}
	}

	err := operation()
	cb.recordResult(err)
	return err
}

func (cb *CircuitBreaker) currentState() circuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateOpen:
		if time.Since(cb.lastFailureTime) >= cb.config.RecoveryTimeout {
			cb.state = stateHalfOpen
			return true
		}
		return false
	case stateHalfOpen:
		// The probe that moved the breaker to half-open is in flight.
		return false
	default:
		return true
	}
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state == stateHalfOpen {
			cb.log.WithField("breaker", cb.name).Info("circuit breaker recovered, closing")
		}
		cb.state = stateClosed
		cb.failureCount = 0
		return
	}

	cb.failureCount++
	cb.lastFailureTime = time.Now()

	if cb.state == stateHalfOpen || cb.failureCount >= cb.config.FailureThreshold {
		if cb.state != stateOpen {
			cb.log.WithField("breaker", cb.name).WithField("failures", cb.failureCount).Warn("circuit breaker tripped open")
		}
		cb.state = stateOpen
	}
}
