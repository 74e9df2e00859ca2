package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchemaSrc is the shape-validation stage (spec §4.2 stage 1). It
// checks structural shape only — pattern syntax and extension content are
// validated by later stages.
const documentSchemaSrc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://mcpkit.dev/schema/policy.json",
  "type": "object",
  "required": ["version"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "core": {
      "type": "object",
      "properties": {
        "storage": {"$ref": "#/$defs/ruleGroup"},
        "network": {"$ref": "#/$defs/ruleGroup"},
        "environment": {"$ref": "#/$defs/ruleGroup"},
        "resources": {"type": "object"}
      },
      "additionalProperties": false
    }
  },
  "$defs": {
    "ruleGroup": {
      "type": "object",
      "properties": {
        "allow": {"type": "array"},
        "deny": {"type": "array"}
      },
      "additionalProperties": false
    }
  },
  "additionalProperties": true
}`

var (
	schemaOnce    sync.Once
	compiledSchema *jsonschema.Schema
	schemaCompileErr error
)

func documentSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("policy.json", bytes.NewReader([]byte(documentSchemaSrc))); err != nil {
			schemaCompileErr = fmt.Errorf("policy: invalid embedded schema: %w", err)
			return
		}
		compiledSchema, schemaCompileErr = compiler.Compile("policy.json")
	})
	return compiledSchema, schemaCompileErr
}

// validateShape runs the schema-shape stage against the raw document tree
// (already decoded from YAML into plain Go values).
func validateShape(tree map[string]any) error {
	schema, err := documentSchema()
	if err != nil {
		return err
	}
	// jsonschema validates JSON-shaped values; round-trip through
	// encoding/json to normalize YAML-decoded numeric/map types.
	raw, err := json.Marshal(tree)
	if err != nil {
		return &ParseError{Message: "document is not representable as JSON: " + err.Error()}
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return &ParseError{Message: err.Error()}
	}
	if err := schema.Validate(normalized); err != nil {
		return &ParseError{Message: err.Error()}
	}
	return nil
}
