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
	"time"

	"go.uber.org/zap"
)

// DefaultCallTimeout bounds a single host-resolver callback. A resolver
// callback is expected to be in-process or localhost-adjacent; anything
// slower than this is treated as a hang, not a slow success.
const DefaultCallTimeout = 5 * time.Second

// ErrCallTimeout is returned when a guarded call exceeds its deadline.
var ErrCallTimeout = errors.New("call exceeded its deadline")

// WithTimeout runs fn under a deadline derived from ctx. fn receives the
// deadline-carrying context and should observe it, but the guard does not
// wait for a misbehaving fn: once the deadline passes it returns
// ErrCallTimeout and leaves fn's goroutine to finish on its own.
func WithTimeout(ctx context.Context, timeout time.Duration, logger *zap.Logger, fn func(context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Warn("guarded call timed out", zap.Duration("timeout", timeout))
			return ErrCallTimeout
		}
		return ctx.Err()
	}
}
