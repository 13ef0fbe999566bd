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

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/your-org/adaptive-card-engine/internal/applyops"
	"github.com/your-org/adaptive-card-engine/internal/cardengine"
)

// sampleInvocation exercises a Submit interaction end to end so apply-demo
// can show what a host's state/session store would look like after the
// engine's normalized ops are actually applied, with no flags required.
const sampleInvocation = `{
  "cardSource": "Inline",
  "mode": "RenderAndValidate",
  "cardSpec": {
    "inlineJson": {
      "type": "AdaptiveCard",
      "version": "1.6",
      "body": [
        {"type": "TextBlock", "text": "Hello, ${payload.user.name}"},
        {"type": "Input.Text", "id": "comment", "label": "Comment"}
      ],
      "actions": [
        {"type": "Action.Submit", "id": "submit1", "data": {"route": "feedback", "cardId": "feedback_v1"}}
      ]
    }
  },
  "payload": {"user": {"name": "Dana"}},
  "interaction": {
    "interactionType": "Submit",
    "actionId": "submit1",
    "cardInstanceId": "demo-instance-1",
    "rawInputs": {"comment": "Looks great"}
  }
}`

func newApplyDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply-demo",
		Short: "Run a sample Submit invocation and apply its ops against an in-memory state/session tree",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runApplyDemo()
		},
	}
}

func runApplyDemo() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	orch, store := buildOrchestrator(cfg, logger)
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	var inv cardengine.Invocation
	if err := json.Unmarshal([]byte(sampleInvocation), &inv); err != nil {
		return fmt.Errorf("failed to parse sample invocation: %w", err)
	}

	result, err := orch.Run(&inv)
	if err != nil {
		return fmt.Errorf("engine failed: %w", err)
	}

	stateTree, err := applyops.NewTree(nil)
	if err != nil {
		return fmt.Errorf("failed to build state tree: %w", err)
	}
	session := applyops.NewSession()

	if result.Event != nil {
		if err := stateTree.Apply(result.StateUpdates...); err != nil {
			return fmt.Errorf("failed to apply state updates: %w", err)
		}
		session.Apply(result.SessionUpdates...)
	}

	stateSnapshot, err := stateTree.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to snapshot state: %w", err)
	}

	rendered, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println("--- engine result ---")
	fmt.Println(string(rendered))

	fmt.Println("--- state tree after applying state_updates ---")
	fmt.Println(string(stateSnapshot))

	fmt.Println("--- session after applying session_updates ---")
	fmt.Printf("route=%q attributes=%v card_stack=%v\n", session.Route, session.Attributes, session.CardStack)

	return nil
}
