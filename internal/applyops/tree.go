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

// Package applyops is an in-memory stand-in for the host's state/session
// store: it applies the declarative StateUpdateOp /
// SessionUpdateOp sequences the cardengine core emits, and nothing else.
// The core never persists anything itself; this package exists so a CLI
// demo and tests can observe what applying those ops actually produces.
package applyops

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/your-org/adaptive-card-engine/internal/cardengine"
)

// Tree is an in-memory JSON document mutated by dotted-path Set/Merge/Delete
// operations. It is not safe for concurrent use; the demo CLI and tests that
// drive it are single-goroutine.
type Tree struct {
	root map[string]interface{}
}

// NewTree constructs an empty Tree, or one seeded from an existing JSON
// object when seed is non-empty.
func NewTree(seed json.RawMessage) (*Tree, error) {
	t := &Tree{root: map[string]interface{}{}}
	if len(seed) == 0 {
		return t, nil
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(seed, &decoded); err != nil {
		return nil, fmt.Errorf("applyops: seed is not a JSON object: %w", err)
	}
	t.root = decoded
	return t, nil
}

// Snapshot returns the current tree marshaled as JSON.
func (t *Tree) Snapshot() (json.RawMessage, error) {
	return json.Marshal(t.root)
}

// Apply applies a sequence of StateUpdateOps in order.
func (t *Tree) Apply(ops ...cardengine.StateUpdateOp) error {
	for _, op := range ops {
		if err := t.applyOne(op); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) applyOne(op cardengine.StateUpdateOp) error {
	segments, err := splitPath(op.Path)
	if err != nil {
		return fmt.Errorf("applyops: %w", err)
	}

	switch op.Op {
	case cardengine.StateOpSet:
		var value interface{}
		if len(op.Value) > 0 {
			if err := json.Unmarshal(op.Value, &value); err != nil {
				return fmt.Errorf("applyops: set %s: invalid value: %w", op.Path, err)
			}
		}
		setPath(t.root, segments, value)

	case cardengine.StateOpMerge:
		var value interface{}
		if len(op.Value) > 0 {
			if err := json.Unmarshal(op.Value, &value); err != nil {
				return fmt.Errorf("applyops: merge %s: invalid value: %w", op.Path, err)
			}
		}
		mergePath(t.root, segments, value)

	case cardengine.StateOpDelete:
		deletePath(t.root, segments)

	default:
		return fmt.Errorf("applyops: unknown op kind %q", op.Op)
	}
	return nil
}

// splitPath validates and splits a dotted path: it must be non-empty and
// contain no empty dotted segments.
func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("path %q contains an empty segment", path)
		}
	}
	return segments, nil
}

func setPath(root map[string]interface{}, segments []string, value interface{}) {
	node := ensureContainer(root, segments[:len(segments)-1])
	node[segments[len(segments)-1]] = value
}

// mergePath sets the value at the path if it is not already an object, or
// shallow-merges value's keys into the existing object when both sides are
// objects, matching the Merge semantics the normalizer relies on for
// "form_data".
func mergePath(root map[string]interface{}, segments []string, value interface{}) {
	node := ensureContainer(root, segments[:len(segments)-1])
	key := segments[len(segments)-1]

	incoming, incomingIsObject := value.(map[string]interface{})
	if !incomingIsObject {
		node[key] = value
		return
	}

	existing, existingIsObject := node[key].(map[string]interface{})
	if !existingIsObject {
		existing = map[string]interface{}{}
	}
	merged := make(map[string]interface{}, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	node[key] = merged
}

func deletePath(root map[string]interface{}, segments []string) {
	node := root
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]interface{})
		if !ok {
			return
		}
		node = child
	}
	delete(node, segments[len(segments)-1])
}

// ensureContainer walks/creates nested maps for every segment, returning the
// innermost map ready to receive the final key.
func ensureContainer(root map[string]interface{}, segments []string) map[string]interface{} {
	node := root
	for _, seg := range segments {
		child, ok := node[seg].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			node[seg] = child
		}
		node = child
	}
	return node
}

// Session is a simple session record that SessionUpdateOps are applied to
// (see Apply), mirroring the shape a host's session store would expose:
// a route, a set of attributes, and a card stack.
type Session struct {
	Route      string
	Attributes map[string]interface{}
	CardStack  []string
}

// NewSession constructs an empty Session.
func NewSession() *Session {
	return &Session{Attributes: map[string]interface{}{}}
}

// Apply applies a sequence of SessionUpdateOps in order.
func (s *Session) Apply(ops ...cardengine.SessionUpdateOp) {
	for _, op := range ops {
		switch op.Op {
		case cardengine.SessionOpSetRoute:
			s.Route = op.Route
		case cardengine.SessionOpSetAttribute:
			s.Attributes[op.Key] = op.Value
		case cardengine.SessionOpPushCard:
			s.CardStack = append(s.CardStack, op.ID)
		case cardengine.SessionOpPopCard:
			if len(s.CardStack) > 0 {
				s.CardStack = s.CardStack[:len(s.CardStack)-1]
			}
		}
	}
}
