package program

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema validates the envelope and statement shapes of a program
// document before decoding. Expression trees are validated structurally by
// the decoder; the schema guards the statement level.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["statements"],
  "properties": {
    "program_id": {"type": "string"},
    "statements": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["kind"],
        "properties": {
          "kind": {"enum": ["instance", "spindle", "assign", "backend"]}
        },
        "allOf": [
          {
            "if": {"properties": {"kind": {"const": "instance"}}},
            "then": {
              "required": ["name", "outputs", "expr"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "outputs": {"type": "array", "items": {"type": "string"}, "minItems": 1}
              }
            }
          },
          {
            "if": {"properties": {"kind": {"const": "spindle"}}},
            "then": {
              "required": ["name", "inputs", "outputs", "body"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "inputs": {"type": "array", "items": {"type": "string"}},
                "outputs": {"type": "array", "items": {"type": "string"}, "minItems": 1}
              }
            }
          },
          {
            "if": {"properties": {"kind": {"const": "assign"}}},
            "then": {
              "required": ["name", "op", "expr"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "op": {"type": "string", "minLength": 1}
              }
            }
          },
          {
            "if": {"properties": {"kind": {"const": "backend"}}},
            "then": {
              "required": ["keyword", "args"],
              "properties": {
                "keyword": {"type": "string", "minLength": 1},
                "args": {"type": "array"}
              }
            }
          }
        ]
      }
    }
  }
}`

var compiledSchema = gojsonschema.NewStringLoader(documentSchema)

// Validate checks a program document against the document schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if result.Valid() {
		return nil
	}
	errs := result.Errors()
	if len(errs) == 0 {
		return ErrSchemaViolation
	}
	return fmt.Errorf("%w: %s", ErrSchemaViolation, errs[0].String())
}
