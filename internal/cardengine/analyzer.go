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

import "encoding/json"

// Analyzer walks a rendered card and tallies which element/action families
// it uses. Element/action "type" strings are
// classified case-sensitively; unknown types increment an Unknown bucket
// rather than failing.
type Analyzer struct{}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze walks the rendered card document and returns its feature summary.
// A malformed document (not a JSON object) yields a zero-value summary
// rather than an error, consistent with the analyzer never failing.
func (a *Analyzer) Analyze(raw json.RawMessage) CardFeatureSummary {
	summary := CardFeatureSummary{
		Inputs:  map[string]int{},
		Actions: map[string]int{},
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return summary
	}
	root, ok := doc.(map[string]interface{})
	if !ok {
		return summary
	}

	if auth, present := root["authentication"]; present {
		if _, ok := auth.(map[string]interface{}); ok {
			summary.HasAuthAffordance = true
		}
	}

	if body, present := root["body"]; present {
		if arr, ok := body.([]interface{}); ok {
			for _, el := range arr {
				a.walk(el, &summary)
			}
		}
	}
	if actions, present := root["actions"]; present {
		if arr, ok := actions.([]interface{}); ok {
			for _, el := range arr {
				a.walk(el, &summary)
			}
		}
	}

	return summary
}

func (a *Analyzer) walk(node interface{}, summary *CardFeatureSummary) {
	obj, ok := node.(map[string]interface{})
	if !ok {
		return
	}
	t, _ := obj["type"].(string)

	switch {
	case t == "TextBlock" || t == "RichTextBlock":
		summary.TextElements++
	case t == "Container" || t == "ColumnSet" || t == "Column":
		summary.Containers++
	case t == "Image":
		summary.Images++
	case t == "Media":
		summary.Media++
	case t == "Input.Text":
		summary.Inputs["text"]++
		summary.AdaptiveInputs++
	case t == "Input.Number":
		summary.Inputs["number"]++
		summary.AdaptiveInputs++
	case t == "Input.Date":
		summary.Inputs["date"]++
		summary.AdaptiveInputs++
	case t == "Input.Time":
		summary.Inputs["time"]++
		summary.AdaptiveInputs++
	case t == "Input.Toggle":
		summary.Inputs["toggle"]++
		summary.AdaptiveInputs++
	case t == "Input.ChoiceSet":
		summary.Inputs["choiceSet"]++
		summary.AdaptiveInputs++
	case t == "Action.Submit":
		summary.Actions["submit"]++
	case t == "Action.Execute":
		summary.Actions["execute"]++
	case t == "Action.OpenUrl":
		summary.Actions["openUrl"]++
	case t == "Action.ShowCard":
		summary.Actions["showCard"]++
		if card, present := obj["card"]; present {
			if cardObj, ok := card.(map[string]interface{}); ok {
				if body, present := cardObj["body"]; present {
					if arr, ok := body.([]interface{}); ok {
						for _, child := range arr {
							a.walk(child, summary)
						}
					}
				}
				if acts, present := cardObj["actions"]; present {
					if arr, ok := acts.([]interface{}); ok {
						for _, child := range arr {
							a.walk(child, summary)
						}
					}
				}
			}
		}
	case t == "Action.ToggleVisibility":
		summary.Actions["toggleVisibility"]++
	case t == "Input.OAuth" || t == "Action.OAuth" || t == "Authentication":
		summary.HasAuthAffordance = true
	case t == "":
		// no-op: untyped nodes do not count toward any bucket.
	default:
		summary.Unknown++
	}

	if items, present := obj["items"]; present {
		if arr, ok := items.([]interface{}); ok {
			for _, child := range arr {
				a.walk(child, summary)
			}
		}
	}
	if cols, present := obj["columns"]; present {
		if arr, ok := cols.([]interface{}); ok {
			for _, child := range arr {
				a.walk(child, summary)
			}
		}
	}

	if auth, present := obj["authentication"]; present {
		if _, ok := auth.(map[string]interface{}); ok {
			summary.HasAuthAffordance = true
		}
	}
}
