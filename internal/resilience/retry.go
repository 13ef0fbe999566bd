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

// Package resilience provides the failure-handling primitives wrapped
// around the engine's one outward-facing capability, the host asset
// resolver: a circuit breaker, a bounded retry loop, a call-deadline guard,
// and the ServiceError taxonomy the front doors map onto transport
// responses. None of these ever sit on the deterministic binding or
// validation paths.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls the bounded retry loop around a host-resolver call.
type RetryConfig struct {
	// BaseDelay is the wait before the first retry; each further retry
	// doubles it (capped at MaxDelay).
	BaseDelay time.Duration
	// MaxDelay caps the per-retry wait.
	MaxDelay time.Duration
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// RetryOn decides whether an error is worth another attempt; nil means
	// Retryable.
	RetryOn func(error) bool
}

// DefaultRetryConfig returns the retry settings used for host-resolver
// callbacks: short delays and few attempts, since the callback is
// in-process or localhost-adjacent rather than a remote network call.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		BaseDelay:  25 * time.Millisecond,
		MaxDelay:   250 * time.Millisecond,
		MaxRetries: 2,
		RetryOn:    Retryable,
	}
}

// Retryable reports whether an error is worth another attempt. Context
// cancellation is terminal: the caller has already given up.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// Retry runs fn, retrying failed attempts with exponential backoff per cfg.
// The final error is wrapped with the attempt count so a log line shows how
// hard the call was tried.
func Retry(ctx context.Context, logger *zap.Logger, cfg RetryConfig, fn func(context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	retryOn := cfg.RetryOn
	if retryOn == nil {
		retryOn = Retryable
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 0 {
				logger.Debug("call succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}
		if !retryOn(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxRetries {
			break
		}

		delay := cfg.BaseDelay << attempt
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		logger.Debug("retrying after failure",
			zap.Error(lastErr),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("call failed after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}
