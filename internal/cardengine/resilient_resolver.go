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

package cardengine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/adaptive-card-engine/internal/resilience"
)

// ResilientHostResolver wraps a host-provided HostResolver capability with a
// backoff-then-timeout call guarded by a per-logical-name-prefix circuit
// breaker. It never changes
// resolver semantics: a tripped breaker simply yields a miss (found=false)
// one layer earlier than a real host error would, letting the Resolver fall
// through to NotFound exactly as it would for any other unresolved layer.
// While the breaker is closed, an error that outlasts the retry budget is
// returned to the caller unchanged. Only resolver-capability errors are ever
// classified as breaker failures; validation and binding paths never call
// through this type, so a validation-only invocation is never affected.
type ResilientHostResolver struct {
	inner   HostResolver
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

// NewResilientHostResolver constructs a ResilientHostResolver. A nil inner
// resolver is preserved as a permanent miss, since the host resolver
// capability is optional.
func NewResilientHostResolver(inner HostResolver, timeout time.Duration, logger *zap.Logger) *ResilientHostResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = resilience.DefaultCallTimeout
	}
	return &ResilientHostResolver{
		inner:    inner,
		timeout:  timeout,
		logger:   logger,
		breakers: map[string]*resilience.CircuitBreaker{},
	}
}

// ResolveAsset implements HostResolver. It keys a circuit breaker by the
// logical name's first dotted/sloped segment, so an outage affecting one
// family of names (e.g. everything under "onboarding/...") does not trip
// the breaker for an unrelated family.
func (r *ResilientHostResolver) ResolveAsset(nameOrPath string) ([]byte, bool, error) {
	if r.inner == nil {
		return nil, false, nil
	}

	breaker := r.breakerFor(keyPrefix(nameOrPath))

	var raw []byte
	var found bool
	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.MaxRetries = 1
	retryCfg.BaseDelay = 10 * time.Millisecond
	retryCfg.MaxDelay = 20 * time.Millisecond

	err := breaker.Execute(context.Background(), func(ctx context.Context) error {
		return resilience.Retry(ctx, r.logger, retryCfg, func(ctx context.Context) error {
			return resilience.WithTimeout(ctx, r.timeout, r.logger, func(ctx context.Context) error {
				b, f, e := r.inner.ResolveAsset(nameOrPath)
				raw, found = b, f
				return e
			})
		})
	})

	if err != nil {
		if errors.Is(err, resilience.ErrBreakerOpen) {
			r.logger.Warn("host resolver circuit open, treating as miss",
				zap.String("name", nameOrPath))
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, found, nil
}

func (r *ResilientHostResolver) breakerFor(prefix string) *resilience.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[prefix]; ok {
		return cb
	}
	cfg := resilience.DefaultBreakerConfig("host-resolver:" + prefix)
	cb := resilience.NewCircuitBreaker(cfg, r.logger)
	r.breakers[prefix] = cb
	return cb
}

// keyPrefix extracts the logical name prefix used to key a circuit breaker:
// the text before the first "/" or "." separator, or the whole name if it
// carries none.
func keyPrefix(name string) string {
	if i := strings.IndexAny(name, "/."); i >= 0 {
		return name[:i]
	}
	return name
}
