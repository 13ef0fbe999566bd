// Copyright 2024 Adaptive Card Engine Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState is the breaker's current disposition toward new calls.
type CircuitState int

// Breaker states.
const (
	// StateClosed lets every call through.
	StateClosed CircuitState = iota
	// StateOpen fails fast until the cooldown elapses.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls through to test
	// whether the dependency has recovered.
	StateHalfOpen
)

func (s CircuitState) String() string {
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

// ErrBreakerOpen is returned when the circuit breaker is open and failing
// fast.
var ErrBreakerOpen = errors.New("circuit breaker open")

// BreakerConfig tunes a CircuitBreaker.
type BreakerConfig struct {
	// Name labels the breaker in log lines.
	Name string
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// HalfOpenProbes is how many probe calls the half-open state admits
	// before the first one resolves it.
	HalfOpenProbes int
	// IsFailure decides whether an error counts toward the threshold; nil
	// counts every non-nil error.
	IsFailure func(error) bool
}

// DefaultBreakerConfig returns the breaker settings used for host-resolver
// callbacks.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		HalfOpenProbes:   1,
	}
}

// CircuitBreaker fails fast once a dependency has failed enough consecutive
// times, then probes it again after a cooldown. All methods are safe for
// concurrent use.
type CircuitBreaker struct {
	config BreakerConfig
	logger *zap.Logger

	mu          sync.Mutex
	state       CircuitState
	failures    int
	openedAt    time.Time
	probesInUse int
}

// NewCircuitBreaker constructs a closed breaker.
func NewCircuitBreaker(config BreakerConfig, logger *zap.Logger) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 30 * time.Second
	}
	if config.HalfOpenProbes <= 0 {
		config.HalfOpenProbes = 1
	}
	return &CircuitBreaker{config: config, logger: logger, state: StateClosed}
}

// Execute runs fn through the breaker. When the breaker is open (and the
// cooldown has not elapsed) fn is not called and ErrBreakerOpen is returned.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.settle(err)
	return err
}

// admit decides whether a call may proceed, moving the breaker from open to
// half-open once the cooldown has elapsed.
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(cb.openedAt) < cb.config.Cooldown {
			return ErrBreakerOpen
		}
		cb.toState(StateHalfOpen)
		cb.probesInUse = 1
		return nil
	case StateHalfOpen:
		if cb.probesInUse >= cb.config.HalfOpenProbes {
			return ErrBreakerOpen
		}
		cb.probesInUse++
		return nil
	default:
		return nil
	}
}

// settle records a call's outcome against the state that admitted it.
func (cb *CircuitBreaker) settle(err error) {
	isFailure := cb.config.IsFailure
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !isFailure(err) {
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.toState(StateClosed)
		}
		return
	}

	switch cb.state {
	case StateHalfOpen:
		// A failed probe reopens immediately and restarts the cooldown.
		cb.toState(StateOpen)
		cb.openedAt = time.Now()
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.toState(StateOpen)
			cb.openedAt = time.Now()
		}
	}
}

// toState transitions and logs; callers hold cb.mu.
func (cb *CircuitBreaker) toState(next CircuitState) {
	if cb.state == next {
		return
	}
	cb.logger.Info("circuit breaker state change",
		zap.String("breaker", cb.config.Name),
		zap.String("from", cb.state.String()),
		zap.String("to", next.String()))
	cb.state = next
	if next != StateHalfOpen {
		cb.probesInUse = 0
	}
	if next == StateClosed {
		cb.failures = 0
	}
}

// State reports the breaker's current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker closed and clears its failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.toState(StateClosed)
	cb.failures = 0
}
