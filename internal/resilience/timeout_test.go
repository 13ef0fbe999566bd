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
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWithTimeoutCompletesInTime(t *testing.T) {
	err := WithTimeout(context.Background(), time.Second, zap.NewNop(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestWithTimeoutPropagatesCallError(t *testing.T) {
	underlying := errors.New("call failed")
	err := WithTimeout(context.Background(), time.Second, zap.NewNop(), func(ctx context.Context) error {
		return underlying
	})
	if !errors.Is(err, underlying) {
		t.Fatalf("Expected the call's own error, got %v", err)
	}
}

func TestWithTimeoutExpires(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, zap.NewNop(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrCallTimeout) {
		t.Fatalf("Expected ErrCallTimeout, got %v", err)
	}
}

func TestWithTimeoutDoesNotWaitForMisbehavingCall(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	err := WithTimeout(context.Background(), 10*time.Millisecond, zap.NewNop(), func(ctx context.Context) error {
		<-release
		return nil
	})
	if !errors.Is(err, ErrCallTimeout) {
		t.Fatalf("Expected ErrCallTimeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Guard waited for the misbehaving call instead of returning at the deadline")
	}
}

func TestWithTimeoutParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithTimeout(ctx, time.Second, zap.NewNop(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled from a cancelled parent, got %v", err)
	}
}

func TestWithTimeoutNonPositiveTimeoutUsesDefault(t *testing.T) {
	err := WithTimeout(context.Background(), 0, zap.NewNop(), func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Error("Expected a deadline on the call context")
		}
		if time.Until(deadline) > DefaultCallTimeout {
			t.Error("Expected the default timeout to bound the deadline")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}
