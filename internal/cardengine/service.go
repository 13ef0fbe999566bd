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
	"errors"
	"fmt"

	"github.com/your-org/adaptive-card-engine/internal/resilience"
)

// Card is the single exposed operation: it accepts the raw bytes of an
// Invocation (optionally wrapped in a host envelope) and returns either a
// marshaled AdaptiveCardResult or a marshaled ErrorEnvelope, never both.
// Invocation marshaling/unmarshaling is intentionally kept inside this thin
// boundary rather than internal to Run, which works on decoded values only.
func (e *Orchestrator) Card(invocationJSON []byte) ([]byte, error) {
	inv, err := parseInvocation(invocationJSON)
	if err != nil {
		return marshalServiceError(resilience.NewInvocationParseError(err.Error(), err))
	}

	result, err := e.Run(inv)
	if err != nil {
		return marshalServiceError(classifyRunError(err))
	}

	out, err := json.Marshal(result)
	if err != nil {
		return marshalServiceError(resilience.NewInternalError(fmt.Sprintf("failed to marshal result: %v", err), err))
	}
	return out, nil
}

// parseInvocation unwraps a host envelope and decodes the Invocation. A
// payload is treated as envelope-wrapped when it carries an "invocation"
// key; otherwise it is parsed directly.
func parseInvocation(raw []byte) (*Invocation, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("invocation is not a JSON object: %w", err)
	}

	body := raw
	if wrapped, ok := probe["invocation"]; ok {
		body = wrapped
	}

	var inv Invocation
	if err := json.Unmarshal(body, &inv); err != nil {
		return nil, fmt.Errorf("failed to parse invocation: %w", err)
	}
	return &inv, nil
}

// ErrorCodeFromResult inspects the bytes Card returned and reports the
// stable error code carried by an {error:{code,message}} envelope, so a
// front door that wants to map the error to a transport-specific status
// (e.g. the HTTP front door mapping to an HTTP status code)
// does not have to re-implement envelope parsing. isError is false for a
// normal AdaptiveCardResult.
func ErrorCodeFromResult(resultJSON []byte) (code string, isError bool) {
	var envelope ErrorEnvelope
	if err := json.Unmarshal(resultJSON, &envelope); err != nil {
		return "", false
	}
	if envelope.Error.Code == "" {
		return "", false
	}
	return envelope.Error.Code, true
}

// classifyRunError converts a Run failure into the shared ServiceError
// taxonomy, so every front door gets the same stable code and HTTP status
// mapping out of one classification.
func classifyRunError(err error) *resilience.ServiceError {
	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		switch resolveErr.Kind {
		case ResolveNotFound:
			return resilience.NewAssetNotFoundError(resolveErr.Error(), resolveErr)
		case ResolveInvalidJSON:
			return resilience.NewAssetInvalidError(resolveErr.Error(), resolveErr)
		case ResolveIOError:
			return resilience.NewAssetIOError(resolveErr.Error(), resolveErr)
		}
	}
	var internalErr *InternalError
	if errors.As(err, &internalErr) {
		svcErr := resilience.NewInternalError(internalErr.Message, internalErr)
		svcErr.Code = resilience.ErrorCode(internalErr.Code)
		return svcErr
	}
	return resilience.NewInternalError(err.Error(), err)
}

// marshalServiceError renders a ServiceError as the wire-level error
// envelope. The envelope keeps the short kind names the resolver taxonomy
// uses on the wire ("NotFound", "InvalidJson", "IoError"); every other
// ServiceError carries its code through unchanged.
func marshalServiceError(svcErr *resilience.ServiceError) ([]byte, error) {
	envelope := ErrorEnvelope{Error: ErrorDetail{Code: wireErrorCode(svcErr.Code), Message: svcErr.Message}}
	return json.Marshal(envelope)
}

func wireErrorCode(code resilience.ErrorCode) string {
	switch code {
	case resilience.ErrorCodeAssetNotFound:
		return string(ResolveNotFound)
	case resilience.ErrorCodeAssetInvalid:
		return string(ResolveInvalidJSON)
	case resilience.ErrorCodeAssetIO:
		return string(ResolveIOError)
	default:
		return string(code)
	}
}
