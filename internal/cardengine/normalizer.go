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
	"encoding/json"
	"fmt"
)

// Normalizer builds a normalized AdaptiveActionEvent plus declarative
// state/session update ops from a raw host interaction.
type Normalizer struct{}

// NewNormalizer constructs a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize builds the event and update ops. The event is always emitted;
// state updates precede session updates in the result, and within each,
// insertion order is preserved.
func (n *Normalizer) Normalize(interaction *CardInteraction, renderedCard json.RawMessage) (AdaptiveActionEvent, []StateUpdateOp, []SessionUpdateOp) {
	route, verb, cardID := lookupActionMetadata(renderedCard, interaction.ActionID)

	if r, ok := stringMetadata(interaction.Metadata, "route"); ok {
		route = r
	}
	if v, ok := stringMetadata(interaction.Metadata, "verb"); ok {
		verb = v
	}
	if c, ok := stringMetadata(interaction.Metadata, "cardId"); ok {
		cardID = c
	}

	event := AdaptiveActionEvent{
		ActionID:       interaction.ActionID,
		ActionType:     interaction.InteractionType,
		CardInstanceID: interaction.CardInstanceID,
		Inputs:         interaction.RawInputs,
		Route:          route,
		Verb:           verb,
		CardID:         cardID,
	}

	stateOps := n.stateUpdates(interaction)
	sessionOps := n.sessionUpdates(interaction)

	return event, stateOps, sessionOps
}

// stateUpdates builds the per-interaction-type state update ops.
func (n *Normalizer) stateUpdates(interaction *CardInteraction) []StateUpdateOp {
	switch interaction.InteractionType {
	case InteractionSubmit, InteractionExecute:
		if len(interaction.RawInputs) == 0 {
			return nil
		}
		value, err := json.Marshal(interaction.RawInputs)
		if err != nil {
			return nil
		}
		return []StateUpdateOp{NewMergeOp("form_data", value)}

	case InteractionShowCard:
		path := fmt.Sprintf("ui.active_show_card.%s", interaction.CardInstanceID)
		value, _ := json.Marshal(interaction.ActionID)
		return []StateUpdateOp{NewSetOp(path, value)}

	case InteractionToggleVisibility:
		// Targets default to the action id when the action carries no
		// explicit target id set.
		targets := toggleTargets(interaction)
		trueJSON, _ := json.Marshal(true)
		ops := make([]StateUpdateOp, 0, len(targets))
		for _, target := range targets {
			ops = append(ops, NewSetOp(fmt.Sprintf("ui.visibility.%s", target), trueJSON))
		}
		return ops

	case InteractionOpenURL:
		return nil

	default:
		return nil
	}
}

// toggleTargets reads an explicit target id list from interaction metadata
// (key "targets", a JSON array of strings) when the host supplied one;
// otherwise it falls back to the action id.
func toggleTargets(interaction *CardInteraction) []string {
	if raw, ok := interaction.Metadata["targets"]; ok {
		if list, ok := raw.([]interface{}); ok && len(list) > 0 {
			targets := make([]string, 0, len(list))
			for _, v := range list {
				if s, ok := v.(string); ok && s != "" {
					targets = append(targets, s)
				}
			}
			if len(targets) > 0 {
				return targets
			}
		}
	}
	return []string{interaction.ActionID}
}

// sessionUpdates builds the session update ops driven by interaction
// metadata.
func (n *Normalizer) sessionUpdates(interaction *CardInteraction) []SessionUpdateOp {
	var ops []SessionUpdateOp

	if route, ok := stringMetadata(interaction.Metadata, "route"); ok && route != "" {
		ops = append(ops, NewSetRouteOp(route))
	}
	if cardID, ok := stringMetadata(interaction.Metadata, "cardId"); ok && cardID != "" {
		ops = append(ops, NewSetAttributeOp("card_id", cardID))
	}

	switch interaction.InteractionType {
	case InteractionShowCard:
		if push, ok := interaction.Metadata["push"]; ok {
			if id, ok := push.(string); ok && id != "" {
				ops = append(ops, NewPushCardOp(id))
			}
		}
	}
	if pop, ok := interaction.Metadata["pop"]; ok {
		if b, ok := pop.(bool); ok && b {
			ops = append(ops, NewPopCardOp())
		}
	}

	return ops
}

func stringMetadata(metadata map[string]interface{}, key string) (string, bool) {
	if metadata == nil {
		return "", false
	}
	v, ok := metadata[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// lookupActionMetadata walks the rendered card for an action whose id
// matches actionID, and returns any route/verb/cardId-shaped fields it
// carries in its "data" payload.
func lookupActionMetadata(renderedCard json.RawMessage, actionID string) (route, verb, cardID string) {
	if len(renderedCard) == 0 || actionID == "" {
		return "", "", ""
	}
	var doc interface{}
	if err := json.Unmarshal(renderedCard, &doc); err != nil {
		return "", "", ""
	}
	found := findActionByID(doc, actionID)
	if found == nil {
		return "", "", ""
	}
	data, ok := found["data"].(map[string]interface{})
	if !ok {
		return "", "", ""
	}
	route, _ = data["route"].(string)
	verb, _ = data["verb"].(string)
	cardID, _ = data["cardId"].(string)
	return route, verb, cardID
}

func findActionByID(node interface{}, actionID string) map[string]interface{} {
	switch n := node.(type) {
	case map[string]interface{}:
		if id, _ := n["id"].(string); id == actionID {
			if t, _ := n["type"].(string); isActionType(t) {
				return n
			}
		}
		for _, child := range n {
			if found := findActionByID(child, actionID); found != nil {
				return found
			}
		}
	case []interface{}:
		for _, child := range n {
			if found := findActionByID(child, actionID); found != nil {
				return found
			}
		}
	}
	return nil
}
