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

// Advisory is the optional Issue Advisory capability: it
// turns validation issues into human-facing remediation suggestions without
// ever touching validation_issues itself. Declared here as an interface so
// the deterministic core never imports the advisory package directly.
type Advisory interface {
	Suggest(issues []ValidationIssue) []json.RawMessage
}

// Orchestrator parses an Invocation, drives the resolver, binder,
// analyzer, validator, and normalizer in order, and assembles a single
// AdaptiveCardResult or error envelope.
type Orchestrator struct {
	Resolver   *Resolver
	Expression Engine
	Validator  *Validator
	Analyzer   *Analyzer
	Normalizer *Normalizer
	Advisory   Advisory // optional
}

// NewOrchestrator constructs an Orchestrator with the given collaborators. A
// nil Expression engine defaults to SimpleExpressionEngine; a nil Advisory
// simply omits the advisory telemetry record.
func NewOrchestrator(resolver *Resolver, expr Engine, validator *Validator, analyzer *Analyzer, normalizer *Normalizer, advisory Advisory) *Orchestrator {
	if expr == nil {
		expr = NewSimpleExpressionEngine()
	}
	if validator == nil {
		validator = NewValidator()
	}
	if analyzer == nil {
		analyzer = NewAnalyzer()
	}
	if normalizer == nil {
		normalizer = NewNormalizer()
	}
	return &Orchestrator{
		Resolver:   resolver,
		Expression: expr,
		Validator:  validator,
		Analyzer:   analyzer,
		Normalizer: normalizer,
		Advisory:   advisory,
	}
}

// Run executes one invocation end to end:
//  1. resolve raw card JSON
//  2. render via the binding walker when mode requires it
//  3. analyze features of the rendered (or raw, if render was skipped) card
//  4. validate when mode requires it
//  5. normalize an interaction when one is present
//  6. assemble the result, omitting rendered_card iff mode == Validate
//
// Run never returns a Go error for binding/validation failures; it returns
// one only for resolver/invocation failures, which the caller turns into
// the {error:{code,message}} envelope.
func (e *Orchestrator) Run(inv *Invocation) (*AdaptiveCardResult, error) {
	normalizeInvocationDefaults(inv)

	rawCard, err := e.Resolver.Resolve(inv.CardSource, inv.CardSpec)
	if err != nil {
		return nil, err
	}

	scopes, err := e.buildScopes(inv)
	if err != nil {
		return nil, err
	}

	result := &AdaptiveCardResult{
		CardFeatures: CardFeatureSummary{Inputs: map[string]int{}, Actions: map[string]int{}},
	}

	cardForAnalysis := rawCard
	var renderedCard json.RawMessage

	if inv.Mode == ModeRender || inv.Mode == ModeRenderAndValidate {
		binder := NewBinder(e.Expression)
		rendered, err := binder.Bind(rawCard, scopes)
		if err != nil {
			return nil, &InternalError{Code: "BIND_FAILURE", Message: err.Error()}
		}
		renderedCard = rendered
		cardForAnalysis = rendered
		result.RenderedCard = rendered
	}

	result.CardFeatures = e.Analyzer.Analyze(cardForAnalysis)

	if inv.Mode == ModeValidate || inv.Mode == ModeRenderAndValidate {
		result.ValidationIssues = e.Validator.Validate(cardForAnalysis)
	}
	if result.ValidationIssues == nil {
		result.ValidationIssues = []ValidationIssue{}
	}

	if e.Advisory != nil && len(result.ValidationIssues) > 0 {
		if suggestions := e.Advisory.Suggest(result.ValidationIssues); len(suggestions) > 0 {
			result.TelemetryEvents = append(result.TelemetryEvents, suggestions...)
		}
	}

	if inv.Interaction != nil {
		event, stateOps, sessionOps := e.Normalizer.Normalize(inv.Interaction, renderedCard)
		result.Event = &event
		result.StateUpdates = stateOps
		result.SessionUpdates = sessionOps
	}

	return result, nil
}

// InternalError represents an unexpected invariant violation.
type InternalError struct {
	Code    string
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// normalizeInvocationDefaults fills in the documented default values for an
// Invocation whose optional fields were omitted.
func normalizeInvocationDefaults(inv *Invocation) {
	if inv.CardSource == "" {
		inv.CardSource = SourceInline
	}
	if inv.Mode == "" {
		inv.Mode = ModeRenderAndValidate
	}
	if len(inv.CardSpec.InlineJSON) == 0 {
		inv.CardSpec.InlineJSON = json.RawMessage(`{}`)
	}
	if len(inv.Payload) == 0 {
		inv.Payload = json.RawMessage(`{}`)
	}
	if len(inv.Session) == 0 {
		inv.Session = json.RawMessage(`{}`)
	}
	if len(inv.State) == 0 {
		inv.State = json.RawMessage(`{}`)
	}
	if len(inv.CardSpec.TemplateParams) == 0 {
		inv.CardSpec.TemplateParams = json.RawMessage(`{}`)
	}
}

// buildScopes decodes the Invocation's JSON scopes and constructs the scope
// stack, including the node/node_payload shortcuts for
// state.nodes.<node_id> when node_id is set.
func (e *Orchestrator) buildScopes(inv *Invocation) (ScopeStack, error) {
	payload, err := decodeScope(inv.Payload)
	if err != nil {
		return nil, &InternalError{Code: "INVALID_PAYLOAD", Message: err.Error()}
	}
	session, err := decodeScope(inv.Session)
	if err != nil {
		return nil, &InternalError{Code: "INVALID_SESSION", Message: err.Error()}
	}
	state, err := decodeScope(inv.State)
	if err != nil {
		return nil, &InternalError{Code: "INVALID_STATE", Message: err.Error()}
	}
	params, err := decodeScope(inv.CardSpec.TemplateParams)
	if err != nil {
		return nil, &InternalError{Code: "INVALID_TEMPLATE_PARAMS", Message: err.Error()}
	}

	var node, nodePayload interface{}
	hasNode := inv.NodeID != ""
	if hasNode {
		node = Missing
		nodePayload = Missing
		if stateObj, ok := state.(map[string]interface{}); ok {
			if nodes, ok := stateObj["nodes"].(map[string]interface{}); ok {
				if n, ok := nodes[inv.NodeID]; ok {
					node = n
					if nObj, ok := n.(map[string]interface{}); ok {
						if p, ok := nObj["payload"]; ok {
							nodePayload = p
						}
					}
				}
			}
		}
	}

	return NewScopeStack(params, state, session, payload, node, nodePayload, hasNode), nil
}

func decodeScope(raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
