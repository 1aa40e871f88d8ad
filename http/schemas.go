package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/xeipuuv/gojsonschema"

	bookstore "github.com/jgbooks/bookstore/go"
)

// JSON schemas of the request bodies. The MCP tools reuse them as input schemas.
var (
	SchemaPurchase = []byte(`{
		"type": "object",
		"properties": {
			"itemId": {"type": "string", "pattern": "^[0-9]+$", "description": "Item id"},
			"path": {"type": "string", "enum": ["native", "token", "eth", "jg"], "description": "Settlement path"}
		},
		"required": ["itemId", "path"],
		"additionalProperties": false
	}`)

	SchemaAdmin = []byte(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "enum": ["set_price", "withdraw_native", "withdraw_token", "set_token_contract"]},
			"itemId": {"type": "string"},
			"nativePrice": {"type": "string", "description": "Native price in whole units, e.g. 0.001"},
			"tokenPrice": {"type": "string", "description": "Token price in whole units, e.g. 2"},
			"token": {"type": "string", "pattern": "^0x[0-9a-fA-F]{40}$"}
		},
		"required": ["command"],
		"allOf": [
			{
				"if": {"properties": {"command": {"const": "set_price"}}},
				"then": {"required": ["itemId", "nativePrice", "tokenPrice"]}
			},
			{
				"if": {"properties": {"command": {"const": "set_token_contract"}}},
				"then": {"required": ["token"]}
			}
		],
		"additionalProperties": false
	}`)

	SchemaMetadata = []byte(`{
		"type": "object",
		"properties": {
			"itemId": {"type": "string"},
			"name": {"type": "string", "maxLength": 200}
		},
		"required": ["itemId"],
		"additionalProperties": false
	}`)

	SchemaVideo = []byte(`{
		"type": "object",
		"properties": {
			"link": {"type": "string", "maxLength": 2048}
		},
		"required": ["link"],
		"additionalProperties": false
	}`)

	// SchemaEmpty accepts only an empty object
	SchemaEmpty = []byte(`{"type": "object", "additionalProperties": false}`)
)

// ValidationResult represents the result of validating a request body
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidateBody validates body against schema.
func ValidateBody(schema, body []byte) ValidationResult {
	if len(body) == 0 {
		return ValidationResult{Valid: false, Errors: []string{"request body is empty"}}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(body))
	if err != nil {
		return ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("Schema validation failed: %v", err)},
		}
	}
	if result.Valid() {
		return ValidationResult{Valid: true}
	}

	var errors []string
	for _, desc := range result.Errors() {
		errors = append(errors, fmt.Sprintf("%s: %s", desc.Context().String(), desc.Description()))
	}
	return ValidationResult{Valid: false, Errors: errors}
}

// SchemaMap decodes a schema for APIs that take it as a map.
func SchemaMap(schema []byte) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal(schema, &m); err != nil {
		panic(fmt.Sprintf("invalid built-in schema: %v", err))
	}
	return m
}

func decode(schema, body []byte, dst interface{}) *Response {
	result := ValidateBody(schema, body)
	if !result.Valid {
		return &Response{
			Status: http.StatusBadRequest,
			Body: ErrorBody{
				Error:   "invalid request body",
				Code:    bookstore.ErrCodeInvalidInput,
				Details: result.Errors,
			},
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		resp := BadRequest(fmt.Errorf("invalid request body: %w", err))
		return &resp
	}
	return nil
}
