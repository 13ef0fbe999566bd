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

// Package cardengine implements a sandboxed rendering and
// interaction-normalization engine for Adaptive Card v1.6 documents: it
// resolves a card source, evaluates template bindings against a layered
// context, validates structure, tallies features, and normalizes host
// interactions into declarative state/session update instructions.
package cardengine

import "encoding/json"

// CardSource identifies where raw card JSON comes from.
type CardSource string

// Supported card sources.
const (
	SourceInline  CardSource = "Inline"
	SourceAsset   CardSource = "Asset"
	SourceCatalog CardSource = "Catalog"
)

// Mode selects which stages of the pipeline the orchestrator runs.
type Mode string

// Supported modes.
const (
	ModeRender            Mode = "Render"
	ModeValidate          Mode = "Validate"
	ModeRenderAndValidate Mode = "RenderAndValidate"
)

// CardSpec carries the parameters needed to resolve a card, regardless of
// which CardSource is selected.
type CardSpec struct {
	InlineJSON     json.RawMessage   `json:"inlineJson,omitempty"`
	AssetPath      string            `json:"assetPath,omitempty"`
	CatalogName    string            `json:"catalogName,omitempty"`
	TemplateParams json.RawMessage   `json:"templateParams,omitempty"`
	AssetRegistry  map[string]string `json:"assetRegistry,omitempty"`
}

// Invocation is the top-level input to the engine.
type Invocation struct {
	CardSource  CardSource       `json:"cardSource,omitempty"`
	CardSpec    CardSpec         `json:"cardSpec,omitempty"`
	NodeID      string           `json:"nodeId,omitempty"`
	Payload     json.RawMessage  `json:"payload,omitempty"`
	Session     json.RawMessage  `json:"session,omitempty"`
	State       json.RawMessage  `json:"state,omitempty"`
	Interaction *CardInteraction `json:"interaction,omitempty"`
	Mode        Mode             `json:"mode,omitempty"`
	Envelope    json.RawMessage  `json:"envelope,omitempty"`
}

// InteractionType enumerates the kinds of host interaction the normalizer
// understands.
type InteractionType string

// Supported interaction types.
const (
	InteractionSubmit           InteractionType = "Submit"
	InteractionExecute          InteractionType = "Execute"
	InteractionOpenURL          InteractionType = "OpenUrl"
	InteractionShowCard         InteractionType = "ShowCard"
	InteractionToggleVisibility InteractionType = "ToggleVisibility"
)

// CardInteraction is a raw interaction reported by the host.
type CardInteraction struct {
	InteractionType InteractionType            `json:"interactionType"`
	ActionID        string                     `json:"actionId"`
	CardInstanceID  string                     `json:"cardInstanceId"`
	RawInputs       map[string]json.RawMessage `json:"rawInputs,omitempty"`
	Metadata        map[string]interface{}     `json:"metadata,omitempty"`
}

// AdaptiveActionEvent is the normalized interaction event emitted by the
// Interaction Normalizer.
type AdaptiveActionEvent struct {
	ActionID       string                     `json:"actionId"`
	ActionType     InteractionType            `json:"actionType"`
	CardInstanceID string                     `json:"cardInstanceId"`
	Inputs         map[string]json.RawMessage `json:"inputs,omitempty"`
	Route          string                     `json:"route,omitempty"`
	Verb           string                     `json:"verb,omitempty"`
	CardID         string                     `json:"cardId,omitempty"`
}

// StateOpKind discriminates StateUpdateOp variants.
type StateOpKind string

// Supported state update operation kinds.
const (
	StateOpSet    StateOpKind = "set"
	StateOpMerge  StateOpKind = "merge"
	StateOpDelete StateOpKind = "delete"
)

// StateUpdateOp is a declarative mutation instruction against the host's
// state store. Exactly one of the kind-specific fields is
// meaningful for a given Op.
type StateUpdateOp struct {
	Op    StateOpKind     `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// NewSetOp builds a Set state update op.
func NewSetOp(path string, value json.RawMessage) StateUpdateOp {
	return StateUpdateOp{Op: StateOpSet, Path: path, Value: value}
}

// NewMergeOp builds a Merge state update op.
func NewMergeOp(path string, value json.RawMessage) StateUpdateOp {
	return StateUpdateOp{Op: StateOpMerge, Path: path, Value: value}
}

// NewDeleteOp builds a Delete state update op.
func NewDeleteOp(path string) StateUpdateOp {
	return StateUpdateOp{Op: StateOpDelete, Path: path}
}

// SessionOpKind discriminates SessionUpdateOp variants.
type SessionOpKind string

// Supported session update operation kinds.
const (
	SessionOpSetRoute     SessionOpKind = "setRoute"
	SessionOpSetAttribute SessionOpKind = "setAttribute"
	SessionOpPushCard     SessionOpKind = "pushCard"
	SessionOpPopCard      SessionOpKind = "popCard"
)

// SessionUpdateOp is a declarative mutation instruction against the host's
// session.
type SessionUpdateOp struct {
	Op    SessionOpKind `json:"op"`
	Route string        `json:"route,omitempty"`
	Key   string        `json:"key,omitempty"`
	Value interface{}   `json:"value,omitempty"`
	ID    string        `json:"id,omitempty"`
}

// NewSetRouteOp builds a SetRoute session update op.
func NewSetRouteOp(route string) SessionUpdateOp {
	return SessionUpdateOp{Op: SessionOpSetRoute, Route: route}
}

// NewSetAttributeOp builds a SetAttribute session update op.
func NewSetAttributeOp(key string, value interface{}) SessionUpdateOp {
	return SessionUpdateOp{Op: SessionOpSetAttribute, Key: key, Value: value}
}

// NewPushCardOp builds a PushCard session update op.
func NewPushCardOp(id string) SessionUpdateOp {
	return SessionUpdateOp{Op: SessionOpPushCard, ID: id}
}

// NewPopCardOp builds a PopCard session update op.
func NewPopCardOp() SessionUpdateOp {
	return SessionUpdateOp{Op: SessionOpPopCard}
}

// CardFeatureSummary tallies which element/action families a rendered card
// uses.
type CardFeatureSummary struct {
	TextElements      int            `json:"textElements"`
	Containers        int            `json:"containers"`
	Images            int            `json:"images"`
	Media             int            `json:"media"`
	Inputs            map[string]int `json:"inputs"`
	Actions           map[string]int `json:"actions"`
	HasAuthAffordance bool           `json:"hasAuthAffordance"`
	AdaptiveInputs    int            `json:"adaptiveInputs"`
	Unknown           int            `json:"unknown"`
}

// Severity classifies a ValidationIssue.
type Severity string

// Supported severities.
const (
	SeverityError   Severity = "Error"
	SeverityWarning Severity = "Warning"
)

// ValidationIssue is a single structural problem found by the Validator.
type ValidationIssue struct {
	Path     string   `json:"path"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// AdaptiveCardResult is the single assembled output of an invocation.
type AdaptiveCardResult struct {
	RenderedCard     json.RawMessage      `json:"renderedCard,omitempty"`
	Event            *AdaptiveActionEvent `json:"event,omitempty"`
	StateUpdates     []StateUpdateOp      `json:"stateUpdates,omitempty"`
	SessionUpdates   []SessionUpdateOp    `json:"sessionUpdates,omitempty"`
	CardFeatures     CardFeatureSummary   `json:"cardFeatures"`
	ValidationIssues []ValidationIssue    `json:"validationIssues"`
	TelemetryEvents  []json.RawMessage    `json:"telemetryEvents,omitempty"`
}

// ErrorEnvelope is the single error shape returned instead of a result:
// the orchestrator never emits both.
type ErrorEnvelope struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the stable code and message of an ErrorEnvelope.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
