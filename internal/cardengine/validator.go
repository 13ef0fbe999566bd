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
	"sort"
)

// Validator checks structural invariants against a decoded Adaptive Card
// document. It never mutates its input and never panics: every
// failure becomes a ValidationIssue, never an error.
type Validator struct{}

// NewValidator constructs a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs every structural check and returns the
// accumulated issues in discovery order. Action id and input id uniqueness
// are enforced card-wide: a single recursive walk tallies
// every id it sees, including ids nested inside Action.ShowCard bodies.
// Duplicate-id issues follow all other issues, ordered by id.
func (v *Validator) Validate(raw json.RawMessage) []ValidationIssue {
	acc := &issueAccumulator{}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		acc.add("", "ROOT_NOT_JSON", fmt.Sprintf("document is not valid JSON: %v", err))
		return acc.issues
	}

	root, ok := doc.(map[string]interface{})
	if !ok {
		acc.add("", "ROOT_TYPE", "root must be a JSON object")
		return acc.issues
	}

	if t, _ := root["type"].(string); t != "AdaptiveCard" {
		acc.add("/type", "ROOT_TYPE", `root "type" must be "AdaptiveCard"`)
	}
	if ver, ok := root["version"].(string); !ok || ver == "" {
		acc.add("/version", "VERSION_REQUIRED", `root "version" must be a non-empty string`)
	}

	if body, present := root["body"]; present {
		if arr, ok := body.([]interface{}); !ok {
			acc.add("/body", "BODY_TYPE", `"body" must be an array`)
		} else {
			for i, el := range arr {
				v.walkNode(el, fmt.Sprintf("/body/%d", i), acc)
			}
		}
	}

	if actions, present := root["actions"]; present {
		if arr, ok := actions.([]interface{}); !ok {
			acc.add("/actions", "ACTIONS_TYPE", `"actions" must be an array`)
		} else {
			for i, el := range arr {
				v.walkNode(el, fmt.Sprintf("/actions/%d", i), acc)
			}
		}
	}

	v.validateShapeField(root, "fallback", "/fallback", acc)
	v.validateShapeField(root, "selectAction", "/selectAction", acc)
	v.validateShapeField(root, "backgroundImage", "/backgroundImage", acc)

	actionIDs := make([]string, 0, len(acc.actionIDs))
	for id := range acc.actionIDs {
		actionIDs = append(actionIDs, id)
	}
	sort.Strings(actionIDs)
	for _, id := range actionIDs {
		if count := acc.actionIDs[id]; count > 1 {
			acc.add("", "ACTION_ID_DUPLICATE", fmt.Sprintf("action id %q is used %d times", id, count))
		}
	}
	inputIDs := make([]string, 0, len(acc.inputIDs))
	for id := range acc.inputIDs {
		inputIDs = append(inputIDs, id)
	}
	sort.Strings(inputIDs)
	for _, id := range inputIDs {
		if count := acc.inputIDs[id]; count > 1 {
			acc.add("", "INPUT_ID_DUPLICATE", fmt.Sprintf("input id %q is used %d times", id, count))
		}
	}

	return acc.issues
}

// issueAccumulator collects issues plus the running action/input id tallies
// used for the card-wide uniqueness checks.
type issueAccumulator struct {
	issues    []ValidationIssue
	actionIDs map[string]int
	inputIDs  map[string]int
}

func (a *issueAccumulator) add(path, code, message string) {
	a.issues = append(a.issues, ValidationIssue{Path: path, Code: code, Message: message, Severity: SeverityError})
}

func (a *issueAccumulator) addID(ids *map[string]int, id string) {
	if *ids == nil {
		*ids = map[string]int{}
	}
	(*ids)[id]++
}

// walkNode recursively validates a single body element or action, and
// everything nested inside it (items, columns, an Action.ShowCard's embedded
// card). It is the single source of truth for id uniqueness tallies so an
// id is never counted twice.
func (v *Validator) walkNode(node interface{}, path string, acc *issueAccumulator) {
	obj, ok := node.(map[string]interface{})
	if !ok {
		acc.add(path, "ELEMENT_TYPE", "element must be an object")
		return
	}
	t, _ := obj["type"].(string)
	if t == "" {
		acc.add(path+"/type", "ELEMENT_TYPE_REQUIRED", "element must have a non-empty type")
		return
	}

	switch {
	case isActionType(t):
		v.validateAction(obj, t, path, acc)
	case isInputType(t):
		v.validateInput(obj, t, path, acc)
	case t == "ColumnSet":
		if cols, present := obj["columns"]; present {
			if _, ok := cols.([]interface{}); !ok {
				acc.add(path+"/columns", "COLUMNSET_COLUMNS_TYPE", `"columns" must be an array`)
			}
		}
	case t == "Media":
		v.validateMedia(obj, path, acc)
	}

	if items, present := obj["items"]; present {
		if arr, ok := items.([]interface{}); ok {
			for i, child := range arr {
				v.walkNode(child, fmt.Sprintf("%s/items/%d", path, i), acc)
			}
		} else {
			acc.add(path+"/items", "ITEMS_TYPE", `"items" must be an array`)
		}
	}
	if cols, present := obj["columns"]; present {
		if arr, ok := cols.([]interface{}); ok {
			for i, col := range arr {
				v.walkNode(col, fmt.Sprintf("%s/columns/%d", path, i), acc)
			}
		}
	}

	v.validateShapeField(obj, "selectAction", path+"/selectAction", acc)
}

func isActionType(t string) bool {
	switch t {
	case "Action.Submit", "Action.Execute", "Action.OpenUrl", "Action.ShowCard", "Action.ToggleVisibility":
		return true
	}
	return false
}

func isInputType(t string) bool {
	switch t {
	case "Input.Text", "Input.Number", "Input.Date", "Input.Time", "Input.Toggle", "Input.ChoiceSet":
		return true
	}
	return false
}

func (v *Validator) validateInput(obj map[string]interface{}, t, path string, acc *issueAccumulator) {
	id, _ := obj["id"].(string)
	if id == "" {
		acc.add(path+"/id", "INPUT_ID_REQUIRED", "input element must have a non-empty id")
	} else {
		acc.addID(&acc.inputIDs, id)
	}

	if t == "Input.ChoiceSet" {
		choices, present := obj["choices"]
		arr, isArr := choices.([]interface{})
		if !present || !isArr || len(arr) == 0 {
			acc.add(path+"/choices", "CHOICESET_CHOICES_REQUIRED", `"choices" must be a non-empty array`)
			return
		}
		for i, c := range arr {
			cObj, ok := c.(map[string]interface{})
			if !ok {
				acc.add(fmt.Sprintf("%s/choices/%d", path, i), "CHOICE_TYPE", "choice must be an object")
				continue
			}
			if _, ok := cObj["title"]; !ok {
				acc.add(fmt.Sprintf("%s/choices/%d/title", path, i), "CHOICE_TITLE_REQUIRED", `choice must have a "title"`)
			}
			if _, ok := cObj["value"]; !ok {
				acc.add(fmt.Sprintf("%s/choices/%d/value", path, i), "CHOICE_VALUE_REQUIRED", `choice must have a "value"`)
			}
		}
	}
}

func (v *Validator) validateAction(obj map[string]interface{}, t, path string, acc *issueAccumulator) {
	if id, ok := obj["id"].(string); ok && id != "" {
		acc.addID(&acc.actionIDs, id)
	}

	switch t {
	case "Action.OpenUrl":
		if u, ok := obj["url"].(string); !ok || u == "" {
			acc.add(path+"/url", "OPENURL_URL_REQUIRED", `Action.OpenUrl must have a non-empty "url"`)
		}
	case "Action.Submit", "Action.Execute":
		if data, present := obj["data"]; present {
			if _, ok := data.(map[string]interface{}); !ok {
				acc.add(path+"/data", "SUBMIT_DATA_TYPE", `"data" must be an object when present`)
			}
		}
	case "Action.ShowCard":
		if card, present := obj["card"]; present {
			if cardObj, ok := card.(map[string]interface{}); ok {
				v.validateNestedCard(cardObj, path+"/card", acc)
			}
		}
	}
}

// validateNestedCard recurses into an Action.ShowCard's embedded card body
// so its actions/inputs are counted toward the card-wide uniqueness check.
func (v *Validator) validateNestedCard(card map[string]interface{}, path string, acc *issueAccumulator) {
	if body, present := card["body"]; present {
		if arr, ok := body.([]interface{}); ok {
			for i, el := range arr {
				v.walkNode(el, fmt.Sprintf("%s/body/%d", path, i), acc)
			}
		}
	}
	if actions, present := card["actions"]; present {
		if arr, ok := actions.([]interface{}); ok {
			for i, el := range arr {
				v.walkNode(el, fmt.Sprintf("%s/actions/%d", path, i), acc)
			}
		}
	}
}

func (v *Validator) validateMedia(obj map[string]interface{}, path string, acc *issueAccumulator) {
	sources, present := obj["sources"]
	arr, isArr := sources.([]interface{})
	if !present || !isArr || len(arr) == 0 {
		acc.add(path+"/sources", "MEDIA_SOURCES_REQUIRED", `"sources" must be a non-empty array`)
		return
	}
	for i, s := range arr {
		sObj, ok := s.(map[string]interface{})
		if !ok {
			acc.add(fmt.Sprintf("%s/sources/%d", path, i), "MEDIA_SOURCE_TYPE", "media source must be an object")
			continue
		}
		if u, ok := sObj["url"].(string); !ok || u == "" {
			acc.add(fmt.Sprintf("%s/sources/%d/url", path, i), "MEDIA_SOURCE_URL_REQUIRED", `media source "url" must be non-empty`)
		}
	}
}

func (v *Validator) validateShapeField(obj map[string]interface{}, key, path string, acc *issueAccumulator) {
	val, present := obj[key]
	if !present {
		return
	}
	switch key {
	case "fallback":
		switch val.(type) {
		case string, map[string]interface{}:
		default:
			acc.add(path, "FALLBACK_TYPE", `"fallback" must be a string ("drop") or an object`)
		}
	case "selectAction":
		if _, ok := val.(map[string]interface{}); !ok {
			acc.add(path, "SELECTACTION_TYPE", `"selectAction" must be an object`)
		}
	case "backgroundImage":
		switch val.(type) {
		case string, map[string]interface{}:
		default:
			acc.add(path, "BACKGROUNDIMAGE_TYPE", `"backgroundImage" must be a string or an object`)
		}
	}
}
