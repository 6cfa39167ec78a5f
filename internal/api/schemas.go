// internal/api/schemas.go
package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Request schemas are validated before binding so malformed bodies produce
// one consistent 400 shape with field-level detail.
const searchRequestSchema = `{
	"type": "object",
	"properties": {
		"query": {"type": "string", "maxLength": 2000},
		"image_refs": {
			"type": "array",
			"items": {"type": "string", "format": "uri"},
			"maxItems": 5
		},
		"upload_ids": {
			"type": "array",
			"items": {"type": "string"},
			"maxItems": 5
		},
		"focus_mode": {"type": "string"},
		"pro": {"type": "boolean"}
	},
	"additionalProperties": false
}`

const perspectivesRequestSchema = `{
	"type": "object",
	"properties": {
		"query": {"type": "string", "minLength": 1, "maxLength": 2000},
		"pro": {"type": "boolean"}
	},
	"required": ["query"],
	"additionalProperties": false
}`

const fetchOpenAIRequestSchema = `{
	"type": "object",
	"properties": {
		"query": {"type": "string"},
		"prompt": {"type": "string"},
		"model": {"type": "string"},
		"temperature": {"type": "number", "minimum": 0, "maximum": 2},
		"max_output_tokens": {"type": "integer", "minimum": 1, "maximum": 16384}
	},
	"additionalProperties": false
}`

const uploadRequestSchema = `{
	"type": "object",
	"properties": {
		"url": {"type": "string", "format": "uri", "minLength": 1},
		"content_type": {"type": "string"}
	},
	"required": ["url"],
	"additionalProperties": false
}`

// validateBody runs a compiled schema against a raw JSON body and collapses
// violations into a single message.
func validateBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return fmt.Errorf("request validation failed: %s", strings.Join(violations, "; "))
}

// bindJSON unmarshals an already-validated body into its request struct.
func bindJSON(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func mustCompileSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return schema
}
