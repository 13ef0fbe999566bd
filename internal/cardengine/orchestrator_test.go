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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator() *Orchestrator {
	resolver := NewResolver("assets", "", "", true, nil, nil)
	return NewOrchestrator(resolver, nil, nil, nil, nil, nil)
}

// TestRunInlineGreeting renders an inline card with a handlebars greeting
// end to end through the Orchestrator.
func TestRunInlineGreeting(t *testing.T) {
	orch := newTestOrchestrator()
	inv := &Invocation{
		CardSource: SourceInline,
		CardSpec: CardSpec{
			InlineJSON: json.RawMessage(`{"type":"AdaptiveCard","version":"1.6","body":[{"type":"TextBlock","text":"Hello {{payload.user.name}}"}]}`),
		},
		Payload: json.RawMessage(`{"user":{"name":"Ada"}}`),
		Mode:    ModeRenderAndValidate,
	}

	result, err := orch.Run(inv)
	require.NoError(t, err)
	require.NotNil(t, result.RenderedCard)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(result.RenderedCard, &doc))
	body := doc["body"].([]interface{})
	assert.Equal(t, "Hello Ada", body[0].(map[string]interface{})["text"])
	assert.Empty(t, result.ValidationIssues)
}

// TestRunValidateModeOmitsRenderedCard: for mode = Validate, rendered_card
// is absent and validation_issues is defined.
func TestRunValidateModeOmitsRenderedCard(t *testing.T) {
	orch := newTestOrchestrator()
	inv := &Invocation{
		CardSource: SourceInline,
		CardSpec:   CardSpec{InlineJSON: json.RawMessage(`{}`)},
		Mode:       ModeValidate,
	}

	result, err := orch.Run(inv)
	require.NoError(t, err)
	assert.Empty(t, result.RenderedCard)
	require.NotNil(t, result.ValidationIssues)

	var codes []string
	for _, issue := range result.ValidationIssues {
		codes = append(codes, issue.Code)
	}
	assert.Contains(t, codes, "ROOT_TYPE")
}

// TestRunDuplicateActionIDsStillRenders: duplicate action ids produce an
// ACTION_ID_DUPLICATE issue but rendering proceeds.
func TestRunDuplicateActionIDsStillRenders(t *testing.T) {
	orch := newTestOrchestrator()
	inv := &Invocation{
		CardSource: SourceInline,
		CardSpec: CardSpec{
			InlineJSON: json.RawMessage(`{"type":"AdaptiveCard","version":"1.6","actions":[
				{"type":"Action.Submit","id":"go"},
				{"type":"Action.Submit","id":"go"}
			]}`),
		},
		Mode: ModeRenderAndValidate,
	}

	result, err := orch.Run(inv)
	require.NoError(t, err)
	require.NotEmpty(t, result.RenderedCard)

	var found bool
	for _, issue := range result.ValidationIssues {
		if issue.Code == "ACTION_ID_DUPLICATE" {
			found = true
		}
	}
	assert.True(t, found)
}

// TestRunWithInteractionSubmitOrdersStateBeforeSession covers the full
// Submit flow through the orchestrator, including the ordering rule: state
// updates precede session updates.
func TestRunWithInteractionSubmitOrdersStateBeforeSession(t *testing.T) {
	orch := newTestOrchestrator()
	inv := &Invocation{
		CardSource: SourceInline,
		CardSpec: CardSpec{
			InlineJSON: json.RawMessage(`{"type":"AdaptiveCard","version":"1.6","actions":[{"type":"Action.Submit","id":"save"}]}`),
		},
		Mode: ModeRenderAndValidate,
		Interaction: &CardInteraction{
			InteractionType: InteractionSubmit,
			ActionID:        "save",
			CardInstanceID:  "c1",
			RawInputs:       map[string]json.RawMessage{"comment": json.RawMessage(`"hi"`)},
			Metadata:        map[string]interface{}{"route": "next"},
		},
	}

	result, err := orch.Run(inv)
	require.NoError(t, err)
	require.NotNil(t, result.Event)
	assert.Equal(t, "save", result.Event.ActionID)
	require.Len(t, result.StateUpdates, 1)
	require.Len(t, result.SessionUpdates, 1)
	assert.Equal(t, "next", result.SessionUpdates[0].Route)
}

// TestCardErrorEnvelopeOnAssetNotFound verifies the Card boundary returns
// either a result or an error envelope, never both, on a resolver failure.
func TestCardErrorEnvelopeOnAssetNotFound(t *testing.T) {
	orch := newTestOrchestrator()
	invJSON := []byte(`{
		"cardSource": "Catalog",
		"cardSpec": {
			"catalogName": "onboarding"
		}
	}`)

	out, err := orch.Card(invJSON)
	require.NoError(t, err)

	code, isError := ErrorCodeFromResult(out)
	assert.True(t, isError)
	assert.Equal(t, "NotFound", code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &raw))
	_, hasRenderedCard := raw["renderedCard"]
	assert.False(t, hasRenderedCard)
}

func TestCardRoundTripsAValidResult(t *testing.T) {
	orch := newTestOrchestrator()
	invJSON := []byte(`{
		"cardSource": "Inline",
		"cardSpec": {"inlineJson": {"type":"AdaptiveCard","version":"1.6"}},
		"mode": "RenderAndValidate"
	}`)

	out, err := orch.Card(invJSON)
	require.NoError(t, err)

	_, isError := ErrorCodeFromResult(out)
	assert.False(t, isError)

	var result AdaptiveCardResult
	require.NoError(t, json.Unmarshal(out, &result))
	assert.NotEmpty(t, result.RenderedCard)
}

// TestCardUnwrapsHostEnvelope: an invocation wrapped under an "invocation"
// key is unwrapped before parsing.
func TestCardUnwrapsHostEnvelope(t *testing.T) {
	orch := newTestOrchestrator()
	wrapped := []byte(`{
		"hostMeta": {"requestId": "abc"},
		"invocation": {
			"cardSource": "Inline",
			"cardSpec": {"inlineJson": {"type":"AdaptiveCard","version":"1.6"}},
			"mode": "Validate"
		}
	}`)

	out, err := orch.Card(wrapped)
	require.NoError(t, err)

	var result AdaptiveCardResult
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Empty(t, result.RenderedCard)
}
