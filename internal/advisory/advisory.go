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

// Package advisory turns validation issue codes into prioritized remediation
// suggestions for host developers. It never changes
// validation_issues itself; its output is purely additive telemetry.
package advisory

import (
	"encoding/json"

	"github.com/your-org/adaptive-card-engine/internal/cardengine"
)

// Priority ranks how urgently a suggestion should be addressed.
type Priority string

// Supported priorities.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Suggestion is a single remediation record surfaced alongside a
// ValidationIssue, driven off validator issue codes rather than free-form
// analysis.
type Suggestion struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Priority Priority `json:"priority"`
}

// Advisor maps validator issue codes to remediation suggestions.
type Advisor struct {
	rules map[string]Suggestion
}

// NewAdvisor constructs an Advisor with the built-in rule table.
func NewAdvisor() *Advisor {
	return &Advisor{rules: defaultRules()}
}

// Suggest implements cardengine.Advisory: for each distinct issue code that
// has a registered rule, it emits one marshaled Suggestion, in order of
// first appearance; repeated codes add nothing further. Issues with no
// matching rule are silently skipped; not every structural problem has a
// canned remediation.
func (a *Advisor) Suggest(issues []cardengine.ValidationIssue) []json.RawMessage {
	var out []json.RawMessage
	seen := map[string]bool{}
	for _, issue := range issues {
		if seen[issue.Code] {
			continue
		}
		rule, ok := a.rules[issue.Code]
		if !ok {
			continue
		}
		seen[issue.Code] = true
		if raw, err := json.Marshal(rule); err == nil {
			out = append(out, raw)
		}
	}
	return out
}

func defaultRules() map[string]Suggestion {
	return map[string]Suggestion{
		"ROOT_TYPE": {
			Code:     "ROOT_TYPE",
			Message:  `set "type" to "AdaptiveCard" at the document root`,
			Priority: PriorityHigh,
		},
		"VERSION_REQUIRED": {
			Code:     "VERSION_REQUIRED",
			Message:  `set a non-empty "version" (e.g. "1.6") at the document root`,
			Priority: PriorityHigh,
		},
		"ACTION_ID_DUPLICATE": {
			Code:     "ACTION_ID_DUPLICATE",
			Message:  "give each action a unique id across the whole card, including nested Action.ShowCard bodies",
			Priority: PriorityMedium,
		},
		"INPUT_ID_DUPLICATE": {
			Code:     "INPUT_ID_DUPLICATE",
			Message:  "give each input a unique id across the whole card",
			Priority: PriorityMedium,
		},
		"INPUT_ID_REQUIRED": {
			Code:     "INPUT_ID_REQUIRED",
			Message:  "every Input.* element needs a non-empty id so submit/execute payloads can reference it",
			Priority: PriorityHigh,
		},
		"CHOICESET_CHOICES_REQUIRED": {
			Code:     "CHOICESET_CHOICES_REQUIRED",
			Message:  "add at least one choice with a title and value to this Input.ChoiceSet",
			Priority: PriorityMedium,
		},
		"OPENURL_URL_REQUIRED": {
			Code:     "OPENURL_URL_REQUIRED",
			Message:  "set a non-empty url on this Action.OpenUrl",
			Priority: PriorityHigh,
		},
		"MEDIA_SOURCES_REQUIRED": {
			Code:     "MEDIA_SOURCES_REQUIRED",
			Message:  "add at least one source with a url to this Media element",
			Priority: PriorityMedium,
		},
	}
}
