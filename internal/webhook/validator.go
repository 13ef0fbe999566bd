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

// Package webhook provides optional HMAC signature validation for inbound
// card-operation requests on the HTTP front door.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	// SignatureHeader is the header carrying the request body signature.
	SignatureHeader = "X-Hub-Signature-256"
	// ExpectedContentType is the expected content type for card invocations.
	ExpectedContentType = "application/json"
)

// Validator checks inbound request signatures against a shared secret. With
// no secret configured every request passes, so a deployment that does not
// need signing pays nothing for it.
type Validator struct {
	secret  string
	logger  *zap.Logger
	enabled bool
}

// NewValidator creates a validator. An empty secret disables validation.
func NewValidator(secret string, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	enabled := secret != ""
	if !enabled {
		logger.Debug("webhook signature validation disabled - no secret configured")
	}
	return &Validator{secret: secret, logger: logger, enabled: enabled}
}

// Enabled reports whether a secret is configured.
func (v *Validator) Enabled() bool {
	return v.enabled
}

// Validate checks the request's content type and body signature. It returns
// nil when validation is disabled or the request is acceptable.
func (v *Validator) Validate(req *http.Request, body []byte) error {
	if !v.enabled {
		return nil
	}

	contentType := req.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, ExpectedContentType) {
		return fmt.Errorf("expected content type %s, got %q", ExpectedContentType, contentType)
	}

	signature := strings.TrimPrefix(req.Header.Get(SignatureHeader), "sha256=")
	if signature == "" {
		return fmt.Errorf("missing %s header", SignatureHeader)
	}

	expected := v.computeSignature(body)
	if !compareSignatures(signature, expected) {
		v.logger.Warn("webhook signature mismatch")
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 signature of body, the value a caller
// should send in the signature header (without the "sha256=" prefix).
func (v *Validator) Sign(body []byte) string {
	return v.computeSignature(body)
}

func (v *Validator) computeSignature(body []byte) string {
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// compareSignatures performs constant-time comparison of two hex signatures.
func compareSignatures(provided, expected string) bool {
	providedBytes, err1 := hex.DecodeString(provided)
	expectedBytes, err2 := hex.DecodeString(expected)
	if err1 != nil || err2 != nil {
		return false
	}
	return hmac.Equal(providedBytes, expectedBytes)
}
