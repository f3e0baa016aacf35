package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"benefits-assistant/internal/models"
)

// DecisionKind tags the router's classification of an inbound payload.
type DecisionKind string

const (
	DecisionLookup    DecisionKind = "lookup"
	DecisionFreeForm  DecisionKind = "free_form"
	DecisionMalformed DecisionKind = "malformed"
)

// Decision is the tagged classification result. Exactly one of Lookup,
// Text, and Reason is meaningful depending on Kind; Text additionally
// carries the display question for lookups when the caller sent one.
type Decision struct {
	Kind   DecisionKind
	Lookup *models.LookupRequest
	Text   string
	Reason string
}

// payloadSchemaJSON constrains the envelope before field extraction:
// parameters as a list of {name, value} pairs or a flat mapping, and
// question/message as strings.
const payloadSchemaJSON = `{
	"type": "object",
	"properties": {
		"parameters": {
			"oneOf": [
				{
					"type": "array",
					"items": {
						"type": "object",
						"required": ["name"],
						"properties": {
							"name": {"type": "string"}
						}
					}
				},
				{"type": "object"}
			]
		},
		"question": {"type": "string"},
		"message": {"type": "string"}
	}
}`

var payloadSchema = mustCompileSchema(payloadSchemaJSON)

func mustCompileSchema(doc string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("router: invalid payload schema: %v", err))
	}
	return schema
}

// Classify maps a raw request body onto the router's decision variant.
// It never errors: unusable input becomes DecisionMalformed.
func Classify(raw []byte) Decision {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return Decision{Kind: DecisionMalformed, Reason: "request body is not valid JSON"}
	}

	if result, err := payloadSchema.Validate(gojsonschema.NewBytesLoader(raw)); err != nil || !result.Valid() {
		reason := "request body does not match the expected shape"
		if err == nil && len(result.Errors()) > 0 {
			reason = fmt.Sprintf("invalid request: %s", result.Errors()[0].String())
		}
		return Decision{Kind: DecisionMalformed, Reason: reason}
	}

	question := stringField(payload, "question")
	if question == "" {
		question = stringField(payload, "message")
	}

	params := extractParameters(payload["parameters"])
	if len(params) > 0 {
		lookup := &models.LookupRequest{Question: question}
		for _, p := range params {
			switch p.name {
			case "condition":
				if lookup.Condition == "" {
					lookup.Condition = coerceString(p.value)
				}
			case "plan":
				lookup.Plans = append(lookup.Plans, coerceString(p.value))
			}
		}
		return Decision{Kind: DecisionLookup, Lookup: lookup, Text: question}
	}

	if question != "" {
		return Decision{Kind: DecisionFreeForm, Text: question}
	}

	return Decision{Kind: DecisionMalformed, Reason: "request carries neither parameters nor a question"}
}

type parameter struct {
	name  string
	value interface{}
}

// extractParameters accepts the list-of-pairs and flat-mapping shapes
// and normalizes both to an ordered pair list. For the mapping shape the
// condition comes first and plan values (scalar or list) follow, since
// JSON objects carry no order of their own.
func extractParameters(v interface{}) []parameter {
	switch typed := v.(type) {
	case []interface{}:
		var out []parameter
		for _, item := range typed {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := entry["name"].(string)
			if name == "" {
				continue
			}
			out = append(out, parameter{name: name, value: entry["value"]})
		}
		return out
	case map[string]interface{}:
		var out []parameter
		if cond, ok := typed["condition"]; ok {
			out = append(out, parameter{name: "condition", value: cond})
		}
		switch plans := typed["plan"].(type) {
		case []interface{}:
			for _, p := range plans {
				out = append(out, parameter{name: "plan", value: p})
			}
		case nil:
		default:
			out = append(out, parameter{name: "plan", value: plans})
		}
		return out
	default:
		return nil
	}
}

func stringField(payload map[string]interface{}, key string) string {
	s, _ := payload[key].(string)
	return strings.TrimSpace(s)
}

// coerceString renders any parameter value as a string; plan IDs arrive
// as numbers often enough that this cannot be a plain type assertion.
func coerceString(v interface{}) string {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", typed))
	}
}
