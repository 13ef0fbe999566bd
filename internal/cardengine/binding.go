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
	"strings"
)

// Binder walks a decoded card document and substitutes template
// placeholders against a scope stack.
type Binder struct {
	engine Engine
}

// NewBinder constructs a Binder backed by the given expression Engine.
func NewBinder(engine Engine) *Binder {
	if engine == nil {
		engine = NewSimpleExpressionEngine()
	}
	return &Binder{engine: engine}
}

// Bind decodes raw JSON and runs both binding passes over the resulting
// tree, returning the rendered document re-encoded to JSON. The first pass
// resolves "{{...}}" handlebars-style placeholders in every string leaf;
// the second walks the same tree again and resolves "@{...}"/"${...}"
// placeholders node by node. Both passes operate on the decoded tree, never
// on raw, unparsed JSON text, so a substituted value can never corrupt the
// surrounding document's JSON syntax (binding failures degrade, they never
// abort the invocation). Running the handlebars pass first and
// the structural pass second means a handlebars placeholder can never
// re-introduce another handlebars placeholder (no infinite recursion) but
// a structural placeholder's resolved value is never re-walked, which is
// what keeps binding idempotent.
func (b *Binder) Bind(raw json.RawMessage, scopes ScopeStack) (json.RawMessage, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("cardengine: card is not valid json: %w", err)
	}

	handlebarsResolved := b.walkHandlebars(doc, scopes)
	bound := b.walk(handlebarsResolved, scopes)

	out, err := json.Marshal(bound)
	if err != nil {
		return nil, fmt.Errorf("cardengine: failed to marshal bound document: %w", err)
	}
	return out, nil
}

// walkHandlebars recursively descends a decoded JSON value, resolving
// "{{...}}" placeholders found in string leaves. It operates purely on
// string nodes, after JSON decoding, so a substituted value
// (which may itself contain quotes, backslashes, or other characters with
// JSON-syntactic meaning) is carried as plain Go string content rather than
// spliced into unparsed JSON text.
func (b *Binder) walkHandlebars(v interface{}, scopes ScopeStack) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(node))
		for k, val := range node {
			result[k] = b.walkHandlebars(val, scopes)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(node))
		for i, val := range node {
			result[i] = b.walkHandlebars(val, scopes)
		}
		return result
	case string:
		return resolveHandlebarsString(node, b.engine, scopes)
	default:
		return v
	}
}

// resolveHandlebarsString resolves every "{{expr}}" placeholder in a single
// decoded string leaf. Handlebars substitution is always
// textual: each match is replaced with the stringified form of the
// evaluated expression and concatenated with the surrounding text.
func resolveHandlebarsString(s string, engine Engine, scopes ScopeStack) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		start := strings.Index(s[i:], "{{")
		if start == -1 {
			out.WriteString(s[i:])
			break
		}
		start += i
		end := strings.Index(s[start+2:], "}}")
		if end == -1 {
			out.WriteString(s[i:])
			break
		}
		end = start + 2 + end

		out.WriteString(s[i:start])
		expr := strings.TrimSpace(s[start+2 : end])
		value := engine.EvaluateExpression(expr, scopes)
		out.WriteString(stringify(value))

		i = end + 2
	}
	return out.String()
}

// walk recursively descends a decoded JSON value, resolving "@{...}" and
// "${...}" placeholders found in string leaves.
func (b *Binder) walk(v interface{}, scopes ScopeStack) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(node))
		for k, val := range node {
			result[k] = b.walk(val, scopes)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(node))
		for i, val := range node {
			result[i] = b.walk(val, scopes)
		}
		return result
	case string:
		return b.bindString(node, scopes)
	default:
		return v
	}
}

// bindString resolves placeholders in a single string leaf. A string that
// is exactly one placeholder ("@{payload.count}") substitutes with the
// expression's native JSON type (a number, bool, object, or array can
// replace the whole string). A string with a placeholder embedded in
// surrounding text ("Hello @{payload.name}!") always substitutes the
// stringified value, since the result must remain a single JSON string.
func (b *Binder) bindString(s string, scopes ScopeStack) interface{} {
	if expr, whole := wholePlaceholder(s); whole {
		value := b.engine.EvaluateExpression(expr, scopes)
		if IsMissing(value) {
			// Missing resolves to JSON null in typed position.
			return nil
		}
		return value
	}

	var out strings.Builder
	i := 0
	for i < len(s) {
		start, end, _ := nextPlaceholder(s, i)
		if start == -1 {
			out.WriteString(s[i:])
			break
		}
		out.WriteString(s[i:start])
		expr := strings.TrimSpace(s[start+2 : end])
		value := b.engine.EvaluateExpression(expr, scopes)
		out.WriteString(stringify(value))
		i = end + 1
	}
	return out.String()
}

// wholePlaceholder reports whether s is exactly one "@{...}" or "${...}"
// placeholder with no surrounding text.
func wholePlaceholder(s string) (expr string, ok bool) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"@{", "${"} {
		if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, "}") && strings.Count(s, prefix) == 1 {
			inner := s[len(prefix) : len(s)-1]
			if !strings.ContainsAny(inner, "{}") {
				return strings.TrimSpace(inner), true
			}
		}
	}
	return "", false
}

// nextPlaceholder finds the next "@{...}" or "${...}" placeholder in s at
// or after offset i. start is the index of the opening marker; end is the
// index of the closing "}" itself (the caller resumes scanning at end+1).
// marker is the two-character opening text ("@{" or "${"), or start == -1
// if no placeholder remains.
func nextPlaceholder(s string, i int) (start, end int, marker string) {
	atIdx := indexFrom(s, "@{", i)
	dollarIdx := indexFrom(s, "${", i)

	idx := atIdx
	marker = "@{"
	if dollarIdx != -1 && (atIdx == -1 || dollarIdx < atIdx) {
		idx = dollarIdx
		marker = "${"
	}
	if idx == -1 {
		return -1, -1, ""
	}

	close := strings.Index(s[idx+2:], "}")
	if close == -1 {
		return -1, -1, ""
	}
	return idx, idx + 2 + close, marker
}

func indexFrom(s, substr string, from int) int {
	if from >= len(s) {
		return -1
	}
	idx := strings.Index(s[from:], substr)
	if idx == -1 {
		return -1
	}
	return idx + from
}

// stringify renders a JSON value as it should appear embedded in text: a
// string value contributes its own text verbatim (unquoted); everything
// else, including Missing, falls back to its JSON/Go text form.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case missingType:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
